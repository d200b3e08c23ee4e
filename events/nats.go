package events

import (
	"context"
	"encoding/json"
	"time"

	"jobboard/apperr"
	"jobboard/telemetry"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobboard/events")

const subjectPrefix = "jobboard."

// NATSPublisher publishes events on jobboard.<type> for the review tooling.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewNATSPublisher(url string, timeout time.Duration, logger *zap.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("jobboard"),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, apperr.Internal("connecting to NATS", err)
	}

	return &NATSPublisher{
		conn:   conn,
		logger: logger,
	}, nil
}

func Subject(t Type) string {
	return subjectPrefix + string(t)
}

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	_, span := tracer.Start(ctx, "PublishJobEvent")
	defer span.End()

	data, err := json.Marshal(ev)
	if err != nil {
		span.RecordError(err)
		return apperr.Internal("marshaling job event", err)
	}

	subject := Subject(ev.Type)
	span.SetAttributes(
		telemetry.String("nats.subject", subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(subject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish job event",
			zap.String("job_id", ev.JobID),
			zap.Error(err))
		return apperr.Internal("publishing to NATS", err)
	}

	p.logger.Debug("published job event",
		zap.String("job_id", ev.JobID),
		zap.String("subject", subject))
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
