package events

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Type string

const (
	JobCreated           Type = "job.created"
	JobApproved          Type = "job.approved"
	JobUnapproved        Type = "job.unapproved"
	JobEdited            Type = "job.edited"
	ApplicationSubmitted Type = "application.submitted"
)

// Event describes one change in a job's lifecycle.
type Event struct {
	Type      Type      `json:"type"`
	JobID     string    `json:"job_id"`
	CompanyID string    `json:"company_id"`
	Title     string    `json:"title,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	At        time.Time `json:"at"`
}

type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// Fanout delivers every event to all sinks. A failing sink does not stop the
// others.
type Fanout struct {
	sinks  []Sink
	logger *zap.Logger
}

func NewFanout(logger *zap.Logger, sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

func (f *Fanout) Add(s Sink) {
	f.sinks = append(f.sinks, s)
}

func (f *Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			f.logger.Warn("event sink failed",
				zap.String("type", string(ev.Type)),
				zap.String("job_id", ev.JobID),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
