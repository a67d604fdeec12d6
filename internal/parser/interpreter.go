package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/opd-scheduler/internal/model"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
	"github.com/jwalitptl/opd-scheduler/pkg/metrics"
)

// Directory supplies a read-only snapshot of the doctor roster.
type Directory interface {
	Snapshot(ctx context.Context) ([]model.Doctor, error)
}

// Applier merges a patch into one doctor's entry for one date. Returns
// whether stored state changed.
type Applier interface {
	Apply(ctx context.Context, doctorID uuid.UUID, dateISO string, patch model.Patch) (bool, error)
}

// Closures records institution-wide closure days.
type Closures interface {
	Apply(ctx context.Context, dateISO, reason string) (bool, error)
}

// Replier sends canned replies back to the message source. Only bot
// commands ever produce one; parse failures are silent by design.
type Replier interface {
	Reply(ctx context.Context, recipientID, text string) error
}

// shapeFn attempts one message shape. handled=true stops the pipeline.
type shapeFn struct {
	name string
	fn   func(ctx context.Context, text, senderID string) (bool, error)
}

// Interpreter classifies free-text schedule messages and applies the
// resulting patches. Shapes are tried in fixed priority order; a shape
// failure (error or panic) is logged and the next shape is tried.
type Interpreter struct {
	directory Directory
	applier   Applier
	closures  Closures
	replier   Replier

	matcher *Matcher
	dates   *Dates
	clock   Clock
	log     *logger.Logger
	metrics *metrics.Metrics

	// seenCommands guards against the message source redelivering the
	// same command: (sender, command) pairs expire after 5s and are
	// purged after 10s.
	seenCommands *gocache.Cache

	shapes []shapeFn
}

func NewInterpreter(
	directory Directory,
	applier Applier,
	closures Closures,
	replier Replier,
	clock Clock,
	log *logger.Logger,
	m *metrics.Metrics,
) *Interpreter {
	in := &Interpreter{
		directory:    directory,
		applier:      applier,
		closures:     closures,
		replier:      replier,
		matcher:      NewMatcher(),
		dates:        NewDates(clock),
		clock:        clock,
		log:          log,
		metrics:      m,
		seenCommands: gocache.New(commandDedupWindow, commandDedupCleanup),
	}
	in.shapes = []shapeFn{
		{"rich_multiline", in.parseRichForm},
		{"shift_code", in.parseShiftCodes},
		{"closure", in.parseClosure},
		{"status_line", in.parseStatusLine},
		{"fallback", in.parseFallback},
	}
	return in
}

// Interpret processes one inbound message. Returns true when any shape
// handled it (including deduplicated commands).
func (in *Interpreter) Interpret(ctx context.Context, text, senderID string) bool {
	start := time.Now()
	defer func() {
		if in.metrics != nil {
			in.metrics.InterpretLatency.Observe(time.Since(start).Seconds())
		}
	}()

	if text == "" {
		return false
	}

	if isCommand(text) {
		handled := in.handleCommand(ctx, text, senderID)
		in.countShape("command", handled)
		if handled {
			return true
		}
	}

	in.log.Debug("inbound message", "sender", senderID, "size", len(text))

	for _, shape := range in.shapes {
		handled, err := in.tryShape(ctx, shape, text, senderID)
		if err != nil {
			in.log.Error(err, "shape extractor failed", "shape", shape.name)
			if in.metrics != nil {
				in.metrics.ShapeErrors.WithLabelValues(shape.name).Inc()
			}
			continue
		}
		if handled {
			in.countShape(shape.name, true)
			return true
		}
	}
	in.countShape("none", false)
	return false
}

// tryShape isolates a single extractor: panics become errors so one
// malformed message can never take down the dispatch loop.
func (in *Interpreter) tryShape(ctx context.Context, shape shapeFn, text, senderID string) (handled bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			handled = false
			err = fmt.Errorf("%s extractor panic: %v", shape.name, r)
		}
	}()
	return shape.fn(ctx, text, senderID)
}

func (in *Interpreter) countShape(shape string, handled bool) {
	if in.metrics == nil {
		return
	}
	outcome := "unhandled"
	if handled {
		outcome = "handled"
	}
	in.metrics.MessagesProcessed.WithLabelValues(shape, outcome).Inc()
}

// snapshot fetches the roster, logging failures as drops.
func (in *Interpreter) snapshot(ctx context.Context) []model.Doctor {
	doctors, err := in.directory.Snapshot(ctx)
	if err != nil {
		in.log.Error(err, "directory snapshot failed")
		return nil
	}
	return doctors
}

// apply merges one patch and logs the result. Change notifications are
// emitted by the applier itself.
func (in *Interpreter) apply(ctx context.Context, doc *model.Doctor, dateISO string, patch model.Patch) bool {
	changed, err := in.applier.Apply(ctx, doc.ID, dateISO, patch.Clone())
	if err != nil {
		in.log.Error(err, "patch apply failed", "doctor", doc.Name, "date", dateISO)
		return false
	}
	return changed
}

func (in *Interpreter) noteMatchMiss(name string) {
	in.log.Info("no doctor match, message dropped", "fragment", name)
	if in.metrics != nil {
		in.metrics.MatchMisses.Inc()
	}
}
