// Package notify sends web push notifications to employers when something
// happens to one of their postings.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"jobboard/apperr"
	"jobboard/events"
	"jobboard/models"
	"jobboard/session"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
)

const sendTimeout = 5 * time.Second

type Subscriptions interface {
	SaveSubscription(ctx context.Context, sub models.PushSubscription) error
	FindSubscription(ctx context.Context, accountID string) (models.PushSubscription, bool, error)
	DeleteSubscription(ctx context.Context, accountID string) error
}

type Accounts interface {
	FindByCompanyID(ctx context.Context, companyID string) (models.Account, bool, error)
}

type Keys struct {
	Public  string
	Private string
}

// LoadKeys returns the configured VAPID key pair, generating a throwaway pair
// when none is set. Generated keys invalidate existing subscriptions on the
// next restart.
func LoadKeys(public, private string, logger *zap.Logger) (Keys, error) {
	if public != "" && private != "" {
		return Keys{Public: public, Private: private}, nil
	}
	keys, err := GenerateKeys()
	if err != nil {
		return Keys{}, err
	}
	logger.Warn("generated VAPID keys; set VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY in production",
		zap.String("public_key", keys.Public))
	return keys, nil
}

func GenerateKeys() (Keys, error) {
	private, public, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return Keys{}, fmt.Errorf("generate VAPID keys: %w", err)
	}
	return Keys{Public: public, Private: private}, nil
}

type Message struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Icon  string                 `json:"icon,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

type Pusher struct {
	subs       Subscriptions
	accounts   Accounts
	keys       Keys
	subscriber string
	httpClient *http.Client
	logger     *zap.Logger
	wg         sync.WaitGroup
}

func NewPusher(subs Subscriptions, accounts Accounts, keys Keys, subscriber string, logger *zap.Logger) *Pusher {
	return &Pusher{
		subs:       subs,
		accounts:   accounts,
		keys:       keys,
		subscriber: subscriber,
		httpClient: &http.Client{Timeout: sendTimeout},
		logger:     logger,
	}
}

func (p *Pusher) PublicKey() string {
	return p.keys.Public
}

// Subscribe stores the caller's push endpoint, replacing any earlier one.
func (p *Pusher) Subscribe(ctx context.Context, sess *session.Session, sub webpush.Subscription) error {
	if sess == nil {
		return apperr.Auth("Authentication required", nil)
	}
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return apperr.InvalidInput("Subscription endpoint and keys are required", nil)
	}
	err := p.subs.SaveSubscription(ctx, models.PushSubscription{AccountID: sess.AccountID, Sub: sub})
	if err != nil {
		return apperr.Internal("Failed to save subscription", err)
	}
	p.logger.Info("push subscription saved", zap.String("account_id", sess.AccountID))
	return nil
}

// Publish notifies the employer owning the event's company. Delivery happens
// in the background; Publish never fails on delivery errors.
func (p *Pusher) Publish(_ context.Context, ev events.Event) error {
	msg, ok := messageFor(ev)
	if !ok || ev.CompanyID == "" {
		return nil
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("panic in push notification", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		acc, found, err := p.accounts.FindByCompanyID(ctx, ev.CompanyID)
		if err != nil {
			p.logger.Warn("push recipient lookup failed", zap.String("company_id", ev.CompanyID), zap.Error(err))
			return
		}
		if !found {
			return
		}
		p.Notify(ctx, acc.AccountID, msg)
	}()
	return nil
}

// Wait blocks until background deliveries finish.
func (p *Pusher) Wait() {
	p.wg.Wait()
}

// Notify sends msg to the account's subscription. Expired subscriptions are
// deleted.
func (p *Pusher) Notify(ctx context.Context, accountID string, msg Message) {
	log := p.logger.With(zap.String("account_id", accountID))

	sub, ok, err := p.subs.FindSubscription(ctx, accountID)
	if err != nil {
		log.Warn("failed to find push subscription", zap.Error(err))
		return
	}
	if !ok {
		log.Debug("no push subscription")
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal push payload", zap.Error(err))
		return
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &sub.Sub, &webpush.Options{
		HTTPClient:      p.httpClient,
		Subscriber:      p.subscriber,
		VAPIDPublicKey:  p.keys.Public,
		VAPIDPrivateKey: p.keys.Private,
		TTL:             30,
	})
	if err != nil {
		log.Warn("failed to send push notification", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		log.Info("push subscription expired, deleting")
		if err := p.subs.DeleteSubscription(ctx, accountID); err != nil {
			log.Warn("failed to delete expired subscription", zap.Error(err))
		}
	case resp.StatusCode >= 300:
		log.Warn("push service rejected notification", zap.Int("status", resp.StatusCode))
	default:
		log.Debug("push notification sent")
	}
}

func messageFor(ev events.Event) (Message, bool) {
	data := map[string]interface{}{
		"url":       "/employer/jobs",
		"job_id":    ev.JobID,
		"timestamp": ev.At.Unix(),
	}
	switch ev.Type {
	case events.JobApproved:
		return Message{Title: "Your posting is live", Body: fmt.Sprintf("%q was approved", ev.Title), Data: data}, true
	case events.JobUnapproved:
		return Message{Title: "Posting back in review", Body: fmt.Sprintf("%q was moved back to pending", ev.Title), Data: data}, true
	case events.ApplicationSubmitted:
		return Message{Title: "New application", Body: fmt.Sprintf("Someone applied to %q", ev.Title), Data: data}, true
	}
	return Message{}, false
}
