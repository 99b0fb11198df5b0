// Package dispatch hands rendered reports to an outbound draft backend, one
// independent operation per regional group.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/KaramelBytes/areamail-cli/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Draft is one outbound message awaiting review in the sender's mailbox.
type Draft struct {
	Group    string
	Title    string
	From     string
	To       []string
	Cc       []string
	Subject  string
	HTMLBody string
}

// Drafter creates a draft and returns a backend reference to it (draft ID,
// file path). Implementations must be safe for concurrent use.
type Drafter interface {
	CreateDraft(ctx context.Context, d Draft) (string, error)
}

// DrafterFunc adapts a function to Drafter.
type DrafterFunc func(ctx context.Context, d Draft) (string, error)

func (f DrafterFunc) CreateDraft(ctx context.Context, d Draft) (string, error) { return f(ctx, d) }

// Result is the outcome for one group.
type Result struct {
	Group    string
	Title    string
	Ref      string
	Err      error
	Duration time.Duration
}

// OK reports whether the draft was created.
func (r Result) OK() bool { return r.Err == nil }

// Runner dispatches drafts with bounded concurrency. A failed group never
// prevents attempts for the others.
type Runner struct {
	drafter     Drafter
	concurrency int
	log         logger.Logger
	timeout     time.Duration
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithConcurrency caps parallel CreateDraft calls; values below 1 mean 1.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) { r.concurrency = n }
}

// WithLogger sets the logger for per-group outcomes.
func WithLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithTimeout bounds each CreateDraft call. Zero disables the bound.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.timeout = d }
}

// NewRunner returns a Runner using d.
func NewRunner(d Drafter, opts ...RunnerOption) *Runner {
	r := &Runner{drafter: d, concurrency: 1}
	for _, o := range opts {
		o(r)
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	return r
}

// Run attempts every draft and returns results in input order.
func (r *Runner) Run(ctx context.Context, drafts []Draft) []Result {
	results := make([]Result, len(drafts))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := range drafts {
		d := drafts[i]
		g.Go(func() error {
			results[i] = r.one(ctx, d)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runner) one(ctx context.Context, d Draft) Result {
	res := Result{Group: d.Group, Title: d.Title}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := time.Now()
	ref, err := r.drafter.CreateDraft(callCtx, d)
	res.Duration = time.Since(start)
	res.Ref, res.Err = ref, err
	log := r.log.With("group", d.Title, "duration", res.Duration.Round(time.Millisecond))
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			log.Error("draft rejected: authorization required", "err", err)
		} else {
			log.Error("draft failed", "err", err)
		}
		return res
	}
	log.Info("draft created", "ref", ref)
	return res
}

// Failed counts results with an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
