package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/louisbranch/dbpoll/internal/platform/id"
	platformotel "github.com/louisbranch/dbpoll/internal/platform/otel"
	"github.com/louisbranch/dbpoll/internal/platform/timeouts"
	"github.com/louisbranch/dbpoll/internal/services/poller/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

const (
	defaultSource          = "customer"
	scheduleErrorRetryWait = 30 * time.Second
)

// ErrCycleInProgress is returned by RunCycle while another cycle is running.
var ErrCycleInProgress = errors.New("poll cycle already in progress")

// Config controls loop scheduling and cycle behavior.
type Config struct {
	// Schedule decides when ticks fire. Nil means every DefaultPollInterval.
	Schedule Schedule
	// CycleTimeout bounds the store work of one cycle. Zero uses
	// timeouts.Cycle.
	CycleTimeout time.Duration
	// Source names the polled table in cycle headers.
	Source string
	// Logf receives loop and record log lines. Nil uses log.Printf.
	Logf func(string, ...any)
}

func (c Config) normalized() Config {
	if c.Schedule == nil {
		c.Schedule = IntervalSchedule{Interval: DefaultPollInterval}
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = timeouts.Cycle
	}
	c.Source = strings.TrimSpace(c.Source)
	if c.Source == "" {
		c.Source = defaultSource
	}
	if c.Logf == nil {
		c.Logf = log.Printf
	}
	return c
}

// CycleResult summarizes one poll cycle.
type CycleResult struct {
	Seq      uint64
	ID       string
	Polled   int
	Marked   int
	Outcome  string
	Duration time.Duration
}

// Loop drives poll -> process -> write-back cycles on a schedule. At most
// one cycle runs at a time; a tick that fires while a cycle is running is
// dropped.
type Loop struct {
	poller  *Poller
	writer  *Writer
	observe Observer
	cfg     Config
	metrics *Metrics
	tracer  trace.Tracer

	clock func() time.Time
	newID func() (string, error)

	active *semaphore.Weighted
	seq    atomic.Uint64
	wg     sync.WaitGroup
}

// New composes a loop from its stages. metrics may be nil.
func New(poller *Poller, writer *Writer, observe Observer, cfg Config, metrics *Metrics) *Loop {
	return &Loop{
		poller:  poller,
		writer:  writer,
		observe: observe,
		cfg:     cfg.normalized(),
		metrics: metrics,
		tracer:  platformotel.Tracer(),
		clock:   time.Now,
		newID:   id.NewID,
		active:  semaphore.NewWeighted(1),
	}
}

// Run fires one tick immediately and then one per schedule slot until ctx is
// done. It waits for an in-flight cycle before returning nil.
func (l *Loop) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if l.poller == nil || l.writer == nil {
		return fmt.Errorf("poller and writer are required")
	}
	defer l.wg.Wait()

	l.cfg.Logf("poll loop started: %v, source %s, update mode %s", l.cfg.Schedule, l.cfg.Source, l.writer.Mode())
	l.Tick(ctx)

	next, err := l.cfg.Schedule.Next(l.clock())
	for {
		wait := scheduleErrorRetryWait
		if err != nil {
			l.cfg.Logf("poll schedule failed: %v", err)
		} else {
			wait = next.Sub(l.clock())
		}

		timer := time.NewTimer(max(wait, 0))
		select {
		case <-ctx.Done():
			timer.Stop()
			l.cfg.Logf("poll loop stopping")
			return nil
		case <-timer.C:
		}

		if err == nil {
			l.Tick(ctx)
			next, err = l.cfg.Schedule.Next(next)
		}
		if err != nil || !next.After(l.clock()) {
			// Fell behind (suspend, clock jump) or recovering: realign to now.
			next, err = l.cfg.Schedule.Next(l.clock())
		}
	}
}

// Tick starts a cycle in the background and reports whether it started. The
// tick is dropped when a cycle is already running. The cycle is detached from
// ctx cancellation so shutdown lets it finish within the cycle timeout.
func (l *Loop) Tick(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.active.TryAcquire(1) {
		l.metrics.cycleSkipped()
		l.cfg.Logf("poll tick dropped: previous cycle still running")
		return false
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.active.Release(1)
		_, _ = l.cycle(context.WithoutCancel(ctx))
	}()
	return true
}

// RunCycle runs one cycle synchronously. It returns ErrCycleInProgress when
// another cycle is running. Errors are also logged and counted.
func (l *Loop) RunCycle(ctx context.Context) (CycleResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.active.TryAcquire(1) {
		l.metrics.cycleSkipped()
		return CycleResult{}, ErrCycleInProgress
	}
	defer l.active.Release(1)
	return l.cycle(ctx)
}

func (l *Loop) cycle(ctx context.Context) (CycleResult, error) {
	start := l.clock()
	result := CycleResult{Seq: l.seq.Add(1)}
	messageID, err := l.newID()
	if err != nil {
		messageID = strconv.FormatInt(start.UnixNano(), 36)
	}
	result.ID = messageID

	ctx, span := l.tracer.Start(ctx, "poller.cycle", trace.WithAttributes(
		attribute.Int64("poller.cycle_seq", int64(result.Seq)),
		attribute.String("poller.message_id", result.ID),
		attribute.String("poller.source", l.cfg.Source),
		attribute.String("poller.update_mode", string(l.writer.Mode())),
	))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, l.cfg.CycleTimeout)
	defer cancel()

	l.metrics.cycleStarted()
	result.Outcome, err = l.execute(ctx, &result, start)
	result.Duration = l.clock().Sub(start)
	l.metrics.cycleFinished(result, result.Outcome)

	span.SetAttributes(
		attribute.Int("poller.polled", result.Polled),
		attribute.Int("poller.marked", result.Marked),
		attribute.String("poller.outcome", result.Outcome),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.cfg.Logf("poll cycle %d %s: %v%s", result.Seq, result.Outcome, err, formatMetadata(err))
		return result, err
	}
	if result.Polled > 0 {
		l.cfg.Logf("poll cycle %d: marked %d of %d customers processed in %v", result.Seq, result.Marked, result.Polled, result.Duration)
	}
	return result, nil
}

// execute runs the stages in order. The writer is reached only with a
// non-empty batch whose processing completed without error.
func (l *Loop) execute(ctx context.Context, result *CycleResult, start time.Time) (string, error) {
	batch, err := l.poller.Poll(ctx)
	if err != nil {
		return OutcomePollFailed, err
	}
	result.Polled = len(batch)
	if len(batch) == 0 {
		return OutcomeEmpty, nil
	}
	l.cfg.Logf("poll cycle %d polled %d customers: %s", result.Seq, len(batch), batch)

	headers := domain.Headers{
		domain.HeaderID:        result.ID,
		domain.HeaderTimestamp: strconv.FormatInt(start.UnixMilli(), 10),
		domain.HeaderCycle:     strconv.FormatUint(result.Seq, 10),
		domain.HeaderBatchSize: strconv.Itoa(len(batch)),
		domain.HeaderSource:    l.cfg.Source,
	}
	processed, err := Process(ctx, batch, headers, l.observe)
	if err != nil {
		return OutcomeProcessFailed, err
	}

	if err := l.writer.MarkProcessed(ctx, processed); err != nil {
		return OutcomeWriteBackFailed, err
	}
	result.Marked = len(processed)
	return OutcomeProcessed, nil
}

func formatMetadata(err error) string {
	var cycleErr *domain.Error
	if !errors.As(err, &cycleErr) || len(cycleErr.Metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(cycleErr.Metadata))
	for key := range cycleErr.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%s", key, cycleErr.Metadata[key])
	}
	return b.String()
}
