package agent

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	// DefaultMaxIterations caps a run at ten planner iterations.
	DefaultMaxIterations = 10
	// DefaultStepTimeout bounds each planner or tool call.
	DefaultStepTimeout = 120 * time.Second
)

// stageForWrite maps a merged field to the stage it establishes. The digest
// write is absent on purpose: FORMATTED is entered only when a completion
// claim is verified.
var stageForWrite = map[Field]Stage{
	FieldEmails:      StageFetched,
	FieldNewsletters: StageAnalyzed,
	FieldSummaries:   StageSummarized,
}

// Config tunes a Controller. Zero values pick the defaults.
type Config struct {
	MaxIterations int
	StepTimeout   time.Duration
	Logger        *log.Logger
}

// Controller drives one digest run: ask the planner, validate its decision
// against state, build arguments, invoke the tool and merge the result, until
// completion, failure or budget exhaustion.
type Controller struct {
	registry      *Registry
	planner       Planner
	logger        *log.Logger
	maxIterations int
	stepTimeout   time.Duration
}

// NewController wires a controller over the given registry and planner.
func NewController(registry *Registry, planner Planner, cfg Config) (*Controller, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrConfiguration)
	}
	if planner == nil {
		return nil, fmt.Errorf("%w: nil planner", ErrConfiguration)
	}
	if cfg.MaxIterations < 0 {
		return nil, fmt.Errorf("%w: negative iteration budget", ErrConfiguration)
	}
	if cfg.StepTimeout < 0 {
		return nil, fmt.Errorf("%w: negative step timeout", ErrConfiguration)
	}

	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.StepTimeout == 0 {
		cfg.StepTimeout = DefaultStepTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)
	}

	return &Controller{
		registry:      registry,
		planner:       planner,
		logger:        cfg.Logger,
		maxIterations: cfg.MaxIterations,
		stepTimeout:   cfg.StepTimeout,
	}, nil
}

// Run executes one digest run over emailCount messages and returns the final
// state. The state's stage tells how the run ended: FORMATTED on success,
// ABORTED on budget exhaustion, FAILED otherwise. Cancellation of ctx is
// honored between iterations only; a step already in flight completes under
// its own timeout.
func (c *Controller) Run(ctx context.Context, emailCount int) (*State, error) {
	if emailCount < 1 {
		return nil, fmt.Errorf("%w: email count %d out of range", ErrConfiguration, emailCount)
	}

	st := NewState(emailCount)
	manifests := c.registry.Manifests()
	c.logger.Printf("run started: email_count=%d budget=%d", emailCount, c.maxIterations)

	for iter := 1; ; iter++ {
		if err := ctx.Err(); err != nil {
			return c.fail(st, fmt.Errorf("run canceled before iteration %d: %w", iter, err))
		}

		decision, err := c.decide(ctx, st, manifests)
		if err != nil {
			return c.fail(st, fmt.Errorf("planner.Decide failed: %w", err))
		}
		c.logger.Printf("iteration %d: tool=%q complete=%t reason=%q",
			iter, decision.Tool, decision.Complete, decision.Reason)

		if decision.Complete {
			if !st.Populated(FieldDigest) || st.Digest == nil {
				return c.fail(st, fmt.Errorf("%w: completion claimed before a digest was written", ErrPlannerContract))
			}
			if err := st.advance(StageFormatted); err != nil {
				return c.fail(st, err)
			}
			c.logger.Printf("run complete after %d iterations", iter)
			return st, nil
		}
		if decision.Tool == "" {
			return c.fail(st, fmt.Errorf("%w: decision names no tool and does not claim completion", ErrPlannerContract))
		}

		tool, err := c.registry.Get(decision.Tool)
		if err != nil {
			return c.fail(st, err)
		}
		if err := checkDependencies(st, tool.Manifest); err != nil {
			return c.fail(st, err)
		}
		args, err := BuildArgs(tool.Manifest, st)
		if err != nil {
			return c.fail(st, err)
		}

		out, err := c.invoke(ctx, tool, args)
		if err != nil {
			return c.fail(st, fmt.Errorf("tool %q failed: %w", tool.Manifest.Name, err))
		}
		if err := c.merge(st, tool.Manifest, out); err != nil {
			return c.fail(st, err)
		}
		c.logger.Printf("iteration %d: merged %q, stage=%s", iter, tool.Manifest.Writes[0], st.Stage())

		if iter >= c.maxIterations {
			if err := st.advance(StageAborted); err != nil {
				c.logger.Printf("transition to ABORTED refused: %v", err)
			}
			c.logger.Printf("run aborted: iteration budget %d exhausted", c.maxIterations)
			return st, fmt.Errorf("%w: %d iterations", ErrBudgetExceeded, c.maxIterations)
		}
	}
}

func (c *Controller) decide(ctx context.Context, st *State, manifests []Manifest) (Decision, error) {
	callCtx, cancel := c.stepContext(ctx)
	defer cancel()
	return c.planner.Decide(callCtx, st.Snapshot(), manifests)
}

func (c *Controller) invoke(ctx context.Context, tool Tool, args Args) (any, error) {
	callCtx, cancel := c.stepContext(ctx)
	defer cancel()
	return tool.Run(callCtx, args)
}

// stepContext detaches the step from the caller's cancellation so an
// in-flight call always runs to completion, bounded by the step timeout.
func (c *Controller) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.stepTimeout)
}

func (c *Controller) fail(st *State, err error) (*State, error) {
	if terr := st.advance(StageFailed); terr != nil {
		c.logger.Printf("transition to FAILED refused: %v", terr)
	}
	c.logger.Printf("run failed: %v", err)
	return st, err
}

// checkDependencies re-validates a planner decision against state: every
// declared read must be populated and the write target must still be free.
func checkDependencies(st *State, m Manifest) error {
	for _, f := range m.Reads {
		if !st.Populated(f) {
			return fmt.Errorf("%w: tool %q reads %q before it is populated", ErrStateDependency, m.Name, f)
		}
	}
	if w := m.Writes[0]; st.Populated(w) {
		return fmt.Errorf("%w: tool %q writes %q which is already populated", ErrStateDependency, m.Name, w)
	}
	return nil
}

// merge validates a tool result against state and commits it. Validation
// failures leave the field unwritten.
func (c *Controller) merge(st *State, m Manifest, out any) error {
	field := m.Writes[0]
	if st.Populated(field) {
		return fmt.Errorf("%w: field %q already populated", ErrStateDependency, field)
	}

	switch field {
	case FieldEmails:
		emails, ok := out.([]RawEmail)
		if !ok {
			return shapeError(m.Name, field, out)
		}
		if len(emails) > st.EmailCount {
			return fmt.Errorf("%w: tool %q returned %d emails for a request of %d",
				ErrOutputShape, m.Name, len(emails), st.EmailCount)
		}
		st.Emails = emails
	case FieldNewsletters:
		classified, ok := out.([]ClassifiedEmail)
		if !ok {
			return shapeError(m.Name, field, out)
		}
		if err := validateClassified(st.Emails, classified); err != nil {
			return err
		}
		st.Newsletters = classified
	case FieldSummaries:
		summaries, ok := out.([]SummarizedNewsletter)
		if !ok {
			return shapeError(m.Name, field, out)
		}
		if err := validateSummaries(st.newslettersOnly(), summaries); err != nil {
			return err
		}
		st.Summaries = summaries
	case FieldDigest:
		digest, ok := out.(string)
		if !ok {
			return shapeError(m.Name, field, out)
		}
		if digest == "" {
			return fmt.Errorf("%w: tool %q returned an empty digest", ErrOutputShape, m.Name)
		}
		st.Digest = &digest
	default:
		return fmt.Errorf("%w: tool %q writes unknown field %q", ErrConfiguration, m.Name, field)
	}

	st.populated[field] = true
	if next, ok := stageForWrite[field]; ok {
		if err := st.advance(next); err != nil {
			return err
		}
	}
	return nil
}

func shapeError(tool string, field Field, got any) error {
	return fmt.Errorf("%w: tool %q returned %T for field %q", ErrOutputShape, tool, got, field)
}

// validateClassified checks the one-to-one, order-preserving pairing between
// fetched emails and classification results.
func validateClassified(emails []RawEmail, classified []ClassifiedEmail) error {
	if len(classified) != len(emails) {
		return fmt.Errorf("%w: classification returned %d entries for %d emails",
			ErrOutputShape, len(classified), len(emails))
	}
	for i, ce := range classified {
		if ce.RawEmail != emails[i] {
			return fmt.Errorf("%w: classification entry %d does not preserve its source email", ErrOutputShape, i)
		}
	}
	return nil
}

// validateSummaries checks the pairing between the newsletter subset and the
// summarization results.
func validateSummaries(newsletters []ClassifiedEmail, summaries []SummarizedNewsletter) error {
	if len(summaries) != len(newsletters) {
		return fmt.Errorf("%w: summarization returned %d entries for %d newsletters",
			ErrOutputShape, len(summaries), len(newsletters))
	}
	for i, sn := range summaries {
		if sn.ClassifiedEmail != newsletters[i] {
			return fmt.Errorf("%w: summary entry %d does not preserve its source newsletter", ErrOutputShape, i)
		}
		if sn.Summary == "" {
			return fmt.Errorf("%w: summary entry %d is empty", ErrOutputShape, i)
		}
	}
	return nil
}
