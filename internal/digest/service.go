// Package digest coordinates newsletter digest runs: request validation,
// concurrency limits, run identity and metrics around the pipeline.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/hal9000y/gmail-digest/internal/agent"
	"github.com/hal9000y/gmail-digest/internal/metrics"
)

// ErrBusy rejects a run when the concurrency cap is already reached.
var ErrBusy = errors.New("too many concurrent digest runs")

// Defaults applied by NewService for zero Config fields.
const (
	DefaultEmailCount = 10
	DefaultMaxEmails  = 100
	DefaultMaxRuns    = 4
)

type runner interface {
	Run(ctx context.Context, emailCount int) (*agent.State, error)
}

// Config tunes a Service. Zero values pick the defaults.
type Config struct {
	DefaultEmailCount int
	MaxEmailCount     int
	MaxConcurrent     int
}

// Result is one successful digest run.
type Result struct {
	RunID       string
	Stage       agent.Stage
	Digest      string
	Emails      int
	Newsletters int
	Duration    time.Duration
}

// Service runs the digest pipeline on demand.
type Service struct {
	ctrl         runner
	rec          *metrics.Recorder
	logger       *log.Logger
	defaultCount int
	maxCount     int
	sem          chan struct{}
}

// NewService wires a service over the pipeline controller.
func NewService(ctrl runner, rec *metrics.Recorder, cfg Config) (*Service, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("%w: nil controller", agent.ErrConfiguration)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: nil metrics recorder", agent.ErrConfiguration)
	}
	if cfg.DefaultEmailCount < 0 || cfg.MaxEmailCount < 0 || cfg.MaxConcurrent < 0 {
		return nil, fmt.Errorf("%w: negative service limits", agent.ErrConfiguration)
	}

	if cfg.DefaultEmailCount == 0 {
		cfg.DefaultEmailCount = DefaultEmailCount
	}
	if cfg.MaxEmailCount == 0 {
		cfg.MaxEmailCount = DefaultMaxEmails
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = DefaultMaxRuns
	}
	if cfg.DefaultEmailCount > cfg.MaxEmailCount {
		return nil, fmt.Errorf("%w: default email count %d exceeds maximum %d",
			agent.ErrConfiguration, cfg.DefaultEmailCount, cfg.MaxEmailCount)
	}

	return &Service{
		ctrl:         ctrl,
		rec:          rec,
		logger:       log.New(log.Writer(), "[DIGEST] ", log.LstdFlags),
		defaultCount: cfg.DefaultEmailCount,
		maxCount:     cfg.MaxEmailCount,
		sem:          make(chan struct{}, cfg.MaxConcurrent),
	}, nil
}

// Generate runs the pipeline once. A zero emailCount means the configured
// default; out-of-range counts are rejected before the run starts.
func (s *Service) Generate(ctx context.Context, emailCount int) (*Result, error) {
	if emailCount == 0 {
		emailCount = s.defaultCount
	}
	if emailCount < 1 || emailCount > s.maxCount {
		return nil, fmt.Errorf("%w: email count must be between 1 and %d, got %d",
			agent.ErrConfiguration, s.maxCount, emailCount)
	}

	select {
	case s.sem <- struct{}{}:
	default:
		return nil, ErrBusy
	}
	defer func() { <-s.sem }()

	runID := uuid.NewString()
	s.logger.Printf("run %s started: email_count=%d", runID, emailCount)
	s.rec.RunStarted()
	start := time.Now()

	st, err := s.ctrl.Run(ctx, emailCount)
	duration := time.Since(start)

	stage := agent.StageFailed
	emails, newsletters := 0, 0
	if st != nil {
		stage = st.Stage()
		snap := st.Snapshot()
		emails = snap.EmailsFetched
		newsletters = snap.NewslettersFound
	}
	s.rec.ObserveRun(string(stage), emails, newsletters, duration)

	if err != nil {
		s.logger.Printf("run %s ended: stage=%s duration=%s err=%v",
			runID, stage, duration.Round(time.Millisecond), err)
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if st.Digest == nil {
		return nil, fmt.Errorf("run %s: %w: run finished without a digest", runID, agent.ErrPlannerContract)
	}

	s.logger.Printf("run %s succeeded: %d emails, %d newsletters, duration=%s",
		runID, emails, newsletters, duration.Round(time.Millisecond))
	return &Result{
		RunID:       runID,
		Stage:       stage,
		Digest:      *st.Digest,
		Emails:      emails,
		Newsletters: newsletters,
		Duration:    duration,
	}, nil
}
