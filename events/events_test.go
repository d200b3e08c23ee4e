package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordSink struct {
	got []Event
	err error
}

func (r *recordSink) Publish(_ context.Context, ev Event) error {
	r.got = append(r.got, ev)
	return r.err
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	failing := &recordSink{err: errors.New("nats down")}
	ok := &recordSink{}
	f := NewFanout(zap.NewNop(), failing)
	f.Add(ok)

	err := f.Publish(context.Background(), Event{Type: JobApproved, JobID: "JOB_a_1"})

	assert.Error(t, err)
	assert.Len(t, failing.got, 1)
	assert.Len(t, ok.got, 1)
	assert.Equal(t, "JOB_a_1", ok.got[0].JobID)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "jobboard.job.approved", Subject(JobApproved))
}
