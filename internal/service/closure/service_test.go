package closure

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/opd-scheduler/internal/model"
	"github.com/jwalitptl/opd-scheduler/pkg/event"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
)

type memClosureRepo struct {
	closures map[string]*model.Closure
}

func (r *memClosureRepo) Get(ctx context.Context, dateISO string) (*model.Closure, error) {
	c, ok := r.closures[dateISO]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memClosureRepo) Upsert(ctx context.Context, c *model.Closure) error {
	if r.closures == nil {
		r.closures = map[string]*model.Closure{}
	}
	r.closures[c.Date] = c
	return nil
}

func (r *memClosureRepo) List(ctx context.Context) ([]model.Closure, error) {
	var out []model.Closure
	for _, c := range r.closures {
		out = append(out, *c)
	}
	return out, nil
}

type recordingMailer struct {
	alerts []string
}

func (m *recordingMailer) SendClosureAlert(ctx context.Context, dateISO, reason string) error {
	m.alerts = append(m.alerts, dateISO+": "+reason)
	return nil
}

func (m *recordingMailer) SendCustom(ctx context.Context, to, subject, content string) error {
	return nil
}

func newTestService(repo *memClosureRepo, broker *event.Broker, mailer *recordingMailer) *Service {
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	if mailer == nil {
		return NewService(repo, broker, nil, nil, log)
	}
	return NewService(repo, broker, mailer, nil, log)
}

func TestApplyRecordsReason(t *testing.T) {
	repo := &memClosureRepo{}
	svc := newTestService(repo, nil, nil)
	ctx := context.Background()

	added, err := svc.Apply(ctx, "2025-09-09", "OPD closed for maintenance")
	require.NoError(t, err)
	assert.True(t, added)

	got, err := svc.Get(ctx, "2025-09-09")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"OPD closed for maintenance"}, got.Reasons)
}

func TestApplyDeduplicatesExactReason(t *testing.T) {
	repo := &memClosureRepo{}
	svc := newTestService(repo, nil, nil)
	ctx := context.Background()

	added, err := svc.Apply(ctx, "2025-09-09", "public holiday")
	require.NoError(t, err)
	require.True(t, added)

	added, err = svc.Apply(ctx, "2025-09-09", "public holiday")
	require.NoError(t, err)
	assert.False(t, added)

	// A different reason for the same date still appends.
	added, err = svc.Apply(ctx, "2025-09-09", "staff training")
	require.NoError(t, err)
	assert.True(t, added)

	got, err := svc.Get(ctx, "2025-09-09")
	require.NoError(t, err)
	assert.Equal(t, []string{"public holiday", "staff training"}, got.Reasons)
}

func TestApplyPublishesAndMails(t *testing.T) {
	repo := &memClosureRepo{}
	broker := event.NewBroker(8)
	mailer := &recordingMailer{}
	svc := newTestService(repo, broker, mailer)

	ch, cancel := broker.Subscribe()
	defer cancel()

	added, err := svc.Apply(context.Background(), "2025-09-09", "public holiday")
	require.NoError(t, err)
	require.True(t, added)

	select {
	case ev := <-ch:
		assert.Equal(t, model.EventClosureUpdate, ev.Name)
	case <-time.After(time.Second):
		t.Fatal("no closure event received")
	}
	assert.Equal(t, []string{"2025-09-09: public holiday"}, mailer.alerts)

	// The duplicate neither publishes nor mails again.
	added, err = svc.Apply(context.Background(), "2025-09-09", "public holiday")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, mailer.alerts, 1)
}

func TestGetOpenDate(t *testing.T) {
	svc := newTestService(&memClosureRepo{}, nil, nil)

	got, err := svc.Get(context.Background(), "2025-09-10")
	require.NoError(t, err)
	assert.Nil(t, got)
}
