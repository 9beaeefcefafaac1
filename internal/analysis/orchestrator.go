// Package analysis drives a single analysis request through the
// Idle/Loading/Succeeded/Failed state machine.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dshills/byteme/internal/profile"
	"github.com/dshills/byteme/internal/request"
	"github.com/dshills/byteme/internal/schema"
	"github.com/dshills/byteme/internal/score"
	"github.com/dshills/byteme/internal/service"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultMinDuration is how long Loading stays visible at minimum.
const DefaultMinDuration = 6 * time.Second

// RetryMode selects what Retry does from the Failed phase.
type RetryMode string

const (
	// RetryRearm returns to Idle, ready for a fresh submit.
	RetryRearm RetryMode = "rearm"
	// RetryResubmit immediately re-issues the failed request.
	RetryResubmit RetryMode = "resubmit"
)

// ParseRetryMode parses a retry mode name. The empty string means RetryRearm.
func ParseRetryMode(s string) (RetryMode, error) {
	switch RetryMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", RetryRearm:
		return RetryRearm, nil
	case RetryResubmit:
		return RetryResubmit, nil
	default:
		return "", fmt.Errorf("analysis: unknown retry mode %q (want rearm or resubmit)", s)
	}
}

// Options configures an Orchestrator.
type Options struct {
	// MinDuration is the minimum time spent in Loading. Zero disables it;
	// use DefaultMinDuration for the standard behavior.
	MinDuration time.Duration
	// Timeout bounds the remote call. Zero means no bound.
	Timeout   time.Duration
	RetryMode RetryMode
	Rules     request.Rules
	// Profile supplies the metric vocabulary. Required.
	Profile *profile.Profile
	Logger  zerolog.Logger
	// Metrics may be nil.
	Metrics *Metrics
	Now     func() time.Time
}

// Orchestrator owns one AnalysisState and mediates between user intents,
// the Analysis Service and subscribers.
//
// Intents may be called from any goroutine, including from inside a
// subscriber callback. Subscribers are invoked from a single dispatcher
// goroutine and see every transition in order.
type Orchestrator struct {
	svc   service.Service
	opts  Options
	vocab *score.Vocabulary
	log   zerolog.Logger

	ctx      context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	state   State
	gen     uint64
	cancel  context.CancelFunc
	closed  bool
	subs    map[int]subscriber
	nextSub int

	// Pending snapshots, drained by dispatch. Guarded by mu.
	queue      []State
	wake       chan struct{}
	dispatched chan struct{}
}

// New creates an Orchestrator in the Idle phase.
func New(svc service.Service, opts Options) (*Orchestrator, error) {
	if svc == nil {
		return nil, fmt.Errorf("analysis.New: service is required")
	}
	if opts.Profile == nil {
		return nil, fmt.Errorf("analysis.New: profile is required")
	}
	if opts.MinDuration < 0 || opts.Timeout < 0 {
		return nil, fmt.Errorf("analysis.New: durations must not be negative")
	}
	mode, err := ParseRetryMode(string(opts.RetryMode))
	if err != nil {
		return nil, fmt.Errorf("analysis.New: %w", err)
	}
	opts.RetryMode = mode
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, shutdown := context.WithCancel(context.Background())
	o := &Orchestrator{
		svc:        svc,
		opts:       opts,
		vocab:      opts.Profile.Vocabulary(),
		log:        opts.Logger,
		ctx:        ctx,
		shutdown:   shutdown,
		subs:       make(map[int]subscriber),
		wake:       make(chan struct{}, 1),
		dispatched: make(chan struct{}),
	}
	go o.dispatch()
	return o, nil
}

// State returns the current snapshot.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// subscriber only sees snapshots with Seq above after, the Seq current
// when it registered.
type subscriber struct {
	fn    func(State)
	after uint64
}

// Subscribe registers fn for every subsequent transition and returns a
// function that removes it. fn is not called with the current state, nor
// with transitions made before Subscribe that are still being delivered.
func (o *Orchestrator) Subscribe(fn func(State)) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = subscriber{fn: fn, after: o.state.Seq}
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

// Submit validates req and, if valid and nothing is loading, starts an
// analysis. Validation failures wrap request.ErrEmptyInput or
// request.ErrInvalidURLFormat and leave the state untouched.
func (o *Orchestrator) Submit(req request.Request) error {
	req = request.New(req.URL, req.Description)
	if err := o.opts.Rules.Validate(req); err != nil {
		reason := "invalid_url"
		if errors.Is(err, request.ErrEmptyInput) {
			reason = "empty_input"
		}
		o.opts.Metrics.observeRejected(reason)
		o.log.Debug().Err(err).Msg("submit rejected")
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	if o.state.Phase == PhaseLoading {
		o.opts.Metrics.observeRejected("in_flight")
		return ErrRequestInFlight
	}
	o.startLocked(req)
	return nil
}

// Reset returns to Idle from any phase. A loading request is cancelled and
// its completion discarded. Reset on Idle does nothing.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.state.Phase == PhaseIdle {
		return
	}
	if o.state.Phase == PhaseLoading {
		o.abandonLocked()
	}
	o.log.Debug().Uint64("generation", o.gen).Msg("reset")
	o.setLocked(State{Phase: PhaseIdle, Generation: o.gen})
}

// Retry acts on a Failed state according to the retry mode. It returns
// ErrRequestInFlight while loading and does nothing in Idle or Succeeded.
func (o *Orchestrator) Retry() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	switch o.state.Phase {
	case PhaseLoading:
		return ErrRequestInFlight
	case PhaseFailed:
	default:
		return nil
	}

	if o.opts.RetryMode == RetryResubmit {
		o.log.Debug().Str("url", o.state.Request.URL).Msg("retry: resubmitting")
		o.startLocked(o.state.Request)
		return nil
	}
	o.setLocked(State{Phase: PhaseIdle, Generation: o.gen})
	return nil
}

// Close cancels any in-flight request, waits for background work and stops
// notifying subscribers. It must not be called from a subscriber.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	if o.state.Phase == PhaseLoading {
		o.abandonLocked()
	}
	o.mu.Unlock()

	o.shutdown()
	o.wg.Wait()
	<-o.dispatched
}

func (o *Orchestrator) startLocked(req request.Request) {
	o.gen++
	gen := o.gen
	ctx, cancel := context.WithCancel(o.ctx)
	o.cancel = cancel

	started := o.opts.Now()
	o.setLocked(State{Phase: PhaseLoading, Generation: gen, StartedAt: started, Request: req})
	o.opts.Metrics.observeStart()
	o.log.Info().Uint64("generation", gen).Str("url", req.URL).Msg("analysis started")

	o.wg.Add(1)
	go o.run(ctx, gen, req, started)
}

func (o *Orchestrator) abandonLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.opts.Metrics.observeAbandoned()
}

// run joins the remote call with the minimum-duration timer and then
// completes the attempt. Cancellation of ctx means the attempt was
// superseded.
func (o *Orchestrator) run(ctx context.Context, gen uint64, req request.Request, started time.Time) {
	defer o.wg.Done()

	var (
		resp    *service.Response
		callErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		resp, callErr = o.call(ctx, req)
		return nil
	})
	g.Go(func() error {
		return hold(ctx, o.opts.MinDuration)
	})
	if err := g.Wait(); err != nil {
		o.opts.Metrics.observeSuperseded()
		o.log.Debug().Uint64("generation", gen).Msg("completion dropped: superseded")
		return
	}

	next := State{Phase: PhaseFailed, Generation: gen, StartedAt: started, Request: req}
	if callErr != nil {
		f := classify(callErr)
		next.Failure = &f
	} else if result, err := o.interpret(req, resp); err != nil {
		if inv, ok := o.svc.(service.Invalidator); ok {
			inv.Invalidate(req)
		}
		f := classify(err)
		next.Failure = &f
		callErr = err
	} else {
		next.Phase = PhaseSucceeded
		next.Result = result
	}
	o.finish(next, callErr)
}

func (o *Orchestrator) finish(next State, callErr error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || next.Generation != o.gen || o.state.Phase != PhaseLoading {
		o.opts.Metrics.observeSuperseded()
		o.log.Debug().Uint64("generation", next.Generation).Msg("completion dropped: superseded")
		return
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.setLocked(next)

	elapsed := o.opts.Now().Sub(next.StartedAt)
	if next.Phase == PhaseSucceeded {
		o.opts.Metrics.observeDone("succeeded", elapsed)
		o.log.Info().
			Uint64("generation", next.Generation).
			Float64("average", next.Result.AverageScore).
			Str("tier", string(next.Result.Tier)).
			Dur("elapsed", elapsed).
			Msg("analysis succeeded")
		return
	}
	o.opts.Metrics.observeDone(string(next.Failure.Kind), elapsed)
	o.log.Warn().
		Err(callErr).
		Uint64("generation", next.Generation).
		Str("kind", string(next.Failure.Kind)).
		Dur("elapsed", elapsed).
		Msg("analysis failed")
}

// call runs the remote request under the optional timeout. The service
// runs in its own goroutine so the deadline holds even if it ignores ctx.
func (o *Orchestrator) call(ctx context.Context, req request.Request) (*service.Response, error) {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if o.opts.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
	}
	defer cancel()

	type outcome struct {
		resp *service.Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := o.svc.Analyze(callCtx, req)
		done <- outcome{resp, err}
	}()

	select {
	case out := <-done:
		if out.err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("analysis: %v: %w", out.err, service.ErrTimeout)
		}
		return out.resp, out.err
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("analysis: no response within %s: %w", o.opts.Timeout, service.ErrTimeout)
	}
}

func hold(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// interpret validates the payload and derives the result locally. Server
// averages, tiers and advice are never trusted.
func (o *Orchestrator) interpret(req request.Request, resp *service.Response) (*Result, error) {
	if errs := schema.Validate(resp, o.opts.Profile); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("analysis: invalid payload: %s: %w", strings.Join(msgs, "; "), service.ErrMalformedResponse)
	}
	scores := schema.Scores(resp, o.opts.Profile)
	interp, err := score.Interpret(o.vocab, scores)
	if err != nil {
		return nil, fmt.Errorf("analysis: %v: %w", err, service.ErrMalformedResponse)
	}

	if resp.AverageScore != nil && math.Abs(*resp.AverageScore-interp.Average) > 0.05 {
		o.log.Warn().Float64("server", *resp.AverageScore).Float64("local", interp.Average).Msg("server average disagrees; using local")
	}
	if resp.Tier != "" {
		if t, err := score.ParseTier(resp.Tier); err != nil || t != interp.Tier {
			o.log.Warn().Str("server", resp.Tier).Str("local", string(interp.Tier)).Msg("server tier disagrees; using local")
		}
	}

	description := resp.Description
	if description == "" {
		description = req.Description
	}
	return &Result{
		Request:      req,
		Description:  description,
		Scores:       scores,
		Metrics:      append([]score.Metric(nil), o.vocab.Metrics...),
		AverageScore: interp.Average,
		Tier:         interp.Tier,
		Advice:       interp.Advice,
		Weakest:      interp.Weakest,
		RemoteAdvice: append([]string(nil), resp.Advice...),
		RequestID:    resp.RequestID,
		CompletedAt:  o.opts.Now(),
	}, nil
}

// setLocked installs next as the current state and queues it for
// subscribers.
func (o *Orchestrator) setLocked(next State) {
	next.Seq = o.state.Seq + 1
	o.state = next
	o.queue = append(o.queue, next)
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) dispatch() {
	defer close(o.dispatched)
	for {
		select {
		case <-o.wake:
		case <-o.ctx.Done():
			o.deliver()
			return
		}
		o.deliver()
	}
}

func (o *Orchestrator) deliver() {
	for {
		o.mu.Lock()
		if len(o.queue) == 0 {
			o.mu.Unlock()
			return
		}
		batch := o.queue
		o.queue = nil
		subs := make([]subscriber, 0, len(o.subs))
		for id := 0; id < o.nextSub; id++ {
			if sub, ok := o.subs[id]; ok {
				subs = append(subs, sub)
			}
		}
		o.mu.Unlock()

		for _, st := range batch {
			for _, sub := range subs {
				if st.Seq > sub.after {
					sub.fn(st)
				}
			}
		}
	}
}
