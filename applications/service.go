// Package applications records student applications to approved postings.
package applications

import (
	"context"
	"io"
	"strings"
	"time"

	"jobboard/apperr"
	"jobboard/events"
	"jobboard/models"
	"jobboard/session"

	"go.uber.org/zap"
)

type Store interface {
	InsertApplication(ctx context.Context, app models.Application) (models.Application, error)
	ListApplicationsByUser(ctx context.Context, userID string) ([]models.Application, error)
	ListApplicationsByJob(ctx context.Context, jobID string) ([]models.Application, error)
}

type Accounts interface {
	GetAccount(ctx context.Context, accountID string) (models.Account, bool, error)
}

// Postings is the part of the job workflow applications depend on.
type Postings interface {
	GetPublic(ctx context.Context, jobID string) (models.JobListing, error)
	OwnedBy(ctx context.Context, sess *session.Session, jobID string) (models.JobPosting, error)
}

// ResumeStore keeps uploaded résumé files.
type ResumeStore interface {
	UploadResume(ctx context.Context, resumeID string, file io.Reader) (string, error)
}

type Service struct {
	store    Store
	accounts Accounts
	postings Postings
	resumes  ResumeStore
	events   events.Sink
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithResumeStore uploads résumé files. Without it only the résumé id is
// recorded.
func WithResumeStore(r ResumeStore) Option {
	return func(s *Service) { s.resumes = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, accounts Accounts, postings Postings, sink events.Sink, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		accounts: accounts,
		postings: postings,
		events:   sink,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SubmitInput struct {
	JobID  string
	Resume io.Reader
}

// Submit records an application. Duplicate applications for the same job are
// accepted.
func (s *Service) Submit(ctx context.Context, sess *session.Session, in SubmitInput) (models.Application, error) {
	if sess == nil {
		return models.Application{}, apperr.Auth("Authentication required", nil)
	}
	if in.Resume == nil {
		return models.Application{}, apperr.InvalidInput("Resume is required", nil)
	}
	jobID := strings.TrimSpace(in.JobID)
	if jobID == "" {
		return models.Application{}, apperr.InvalidInput("job_id is required", nil)
	}
	if !sess.Is(models.RoleStudent) {
		return models.Application{}, apperr.Forbidden("Only students can apply", nil)
	}

	student, err := s.student(ctx, sess)
	if err != nil {
		return models.Application{}, err
	}
	job, err := s.postings.GetPublic(ctx, jobID)
	if err != nil {
		return models.Application{}, err
	}

	now := s.now().UTC()
	app := models.Application{
		ApplicationDate: now,
		JobID:           job.JobID,
		UserID:          student.UserID,
		ResumeID:        models.NewResumeID(student.UserID, now),
		AccountID:       sess.AccountID,
	}

	if s.resumes != nil {
		url, err := s.resumes.UploadResume(ctx, app.ResumeID, in.Resume)
		if err != nil {
			return models.Application{}, apperr.Internal("Failed to upload resume", err)
		}
		app.ResumeURL = url
	}

	created, err := s.store.InsertApplication(ctx, app)
	if err != nil {
		return models.Application{}, apperr.Internal("Failed to submit application", err)
	}

	s.logger.Info("application submitted",
		zap.String("job_id", created.JobID),
		zap.String("user_id", created.UserID),
		zap.String("resume_id", created.ResumeID))

	if s.events != nil {
		err := s.events.Publish(ctx, events.Event{
			Type:      events.ApplicationSubmitted,
			JobID:     job.JobID,
			CompanyID: job.CompanyID,
			Title:     job.Title,
			Actor:     sess.Email,
			At:        now,
		})
		if err != nil {
			s.logger.Warn("application event not delivered", zap.String("job_id", job.JobID), zap.Error(err))
		}
	}
	return created, nil
}

func (s *Service) ListMine(ctx context.Context, sess *session.Session) ([]models.Application, error) {
	if sess == nil {
		return nil, apperr.Auth("Authentication required", nil)
	}
	if !sess.Is(models.RoleStudent) {
		return nil, apperr.Forbidden("Only students have applications", nil)
	}
	student, err := s.student(ctx, sess)
	if err != nil {
		return nil, err
	}
	apps, err := s.store.ListApplicationsByUser(ctx, student.UserID)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch applications", err)
	}
	return nonNil(apps), nil
}

// ListForJob returns the applications to jobID for the employer owning it
// or an admin.
func (s *Service) ListForJob(ctx context.Context, sess *session.Session, jobID string) ([]models.Application, error) {
	if sess == nil {
		return nil, apperr.Auth("Authentication required", nil)
	}
	if _, err := s.postings.OwnedBy(ctx, sess, jobID); err != nil {
		return nil, err
	}
	apps, err := s.store.ListApplicationsByJob(ctx, jobID)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch applications", err)
	}
	return nonNil(apps), nil
}

func (s *Service) student(ctx context.Context, sess *session.Session) (models.StudentProfile, error) {
	acc, ok, err := s.accounts.GetAccount(ctx, sess.AccountID)
	if err != nil {
		return models.StudentProfile{}, apperr.Internal("Failed to fetch profile", err)
	}
	if !ok {
		return models.StudentProfile{}, apperr.NotFound("Profile not found", nil)
	}
	p, ok := acc.Student()
	if !ok || p.UserID == "" {
		return models.StudentProfile{}, apperr.Forbidden("Account has no student profile", nil)
	}
	return p, nil
}

func nonNil(apps []models.Application) []models.Application {
	if apps == nil {
		return []models.Application{}
	}
	return apps
}
