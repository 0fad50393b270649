package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/meshpair/meshpair-go/pkg/log"
	"go.uber.org/zap"
)

const (
	opInProgress = "in_progress"
	opCreate     = "create"
	opFetch      = "fetch"
	opStep       = "step"
	opSubscribe  = "subscribe"
)

// Session drives one flow for one host.
type Session struct {
	api      API
	host     Host
	timeout  time.Duration
	logger   *zap.Logger
	protoLog log.Logger

	mu sync.Mutex

	// gen is bumped on Close; results carrying an older value are dropped.
	gen uint64

	handler     string
	flowID      string
	step        *Step
	loading     bool
	picking     bool
	closed      bool
	sub         Subscription
	subscribing bool
	stale       bool
}

// NewSession creates a session. Nothing is sent until Start, ContinueFlow or
// HandleStep is called.
func NewSession(api API, host Host, config Config) *Session {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultConfig().RequestTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		api:      api,
		host:     host,
		timeout:  config.RequestTimeout,
		logger:   logger.Named("flow"),
		protoLog: log.OrNoop(config.ProtocolLogger),
	}
}

// Current returns a copy of the current step, or nil while none is
// installed.
func (s *Session) Current() *Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step.clone()
}

// FlowID returns the id of the flow the session owns.
func (s *Session) FlowID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flowID
}

// Loading reports whether a request is outstanding.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// IsClosed reports whether Close was called.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Start begins a flow for handler. If the server still tracks flows for the
// handler the host is asked to pick one (see Pick); otherwise a new flow is
// created.
func (s *Session) Start(ctx context.Context, handler string) error {
	gen, err := s.begin(func() { s.handler = handler })
	if err != nil {
		return err
	}
	s.host.ShowLoading()

	flows, err := s.api.InProgress(ctx, handler)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		s.loading = false
		s.mu.Unlock()
		return s.fail(ctx, &TransportError{Op: opInProgress, Err: err})
	}
	if len(flows) > 0 {
		s.loading = false
		s.picking = true
		s.mu.Unlock()
		s.logger.Debug("flows in progress", zap.String("handler", handler), zap.Int("count", len(flows)))
		s.host.ShowPicker(handler, flows)
		return nil
	}
	s.mu.Unlock()

	return s.create(ctx, gen, handler)
}

// Pick resolves the picker shown by Start: a non-empty flowID continues that
// flow, an empty one creates a fresh flow.
func (s *Session) Pick(ctx context.Context, flowID string) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.loading:
		s.mu.Unlock()
		return ErrBusy
	case !s.picking:
		s.mu.Unlock()
		return ErrNoPicker
	}
	s.picking = false
	s.loading = true
	if flowID != "" {
		s.flowID = flowID
	}
	gen, handler := s.gen, s.handler
	s.mu.Unlock()

	s.host.ShowLoading()
	if flowID == "" {
		return s.create(ctx, gen, handler)
	}
	step, err := s.api.FetchFlow(ctx, flowID)
	return s.apply(ctx, gen, opFetch, step, err)
}

// ContinueFlow fetches an existing flow and makes it current.
func (s *Session) ContinueFlow(ctx context.Context, flowID string) error {
	gen, err := s.begin(func() { s.flowID = flowID })
	if err != nil {
		return err
	}
	s.host.ShowLoading()

	step, err := s.api.FetchFlow(ctx, flowID)
	return s.apply(ctx, gen, opFetch, step, err)
}

// HandleStep installs the step produced by src. A pending source shows the
// loading indicator and blocks until it resolves.
func (s *Session) HandleStep(ctx context.Context, src StepSource) error {
	if !src.isPending() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrClosed
		}
		if s.loading {
			s.mu.Unlock()
			return ErrBusy
		}
		gen := s.gen
		s.mu.Unlock()
		return s.apply(ctx, gen, opStep, src.step, nil)
	}

	gen, err := s.begin(nil)
	if err != nil {
		return err
	}
	s.host.ShowLoading()

	step, err := src.fetch(ctx)
	return s.apply(ctx, gen, opStep, step, err)
}

// Submit sends form values. Missing required fields are reported inline
// without contacting the server.
func (s *Session) Submit(ctx context.Context, values Values) error {
	s.mu.Lock()
	if err := s.readyLocked(StepForm); err != nil {
		s.mu.Unlock()
		return err
	}

	if errs := missingRequired(s.step.DataSchema, values); len(errs) > 0 {
		shown := s.step.clone()
		shown.Errors = errs
		s.step = shown
		s.mu.Unlock()

		s.host.ShowStep(shown.clone())
		return &ValidationError{Errors: errs}
	}

	s.loading = true
	gen, flowID := s.gen, s.flowID
	s.mu.Unlock()

	s.host.ShowLoading()
	step, err := s.api.HandleFlowStep(ctx, flowID, values)
	return s.apply(ctx, gen, opStep, step, err)
}

// SelectMenu picks a menu option.
func (s *Session) SelectMenu(ctx context.Context, option string) error {
	s.mu.Lock()
	if err := s.readyLocked(StepMenu); err != nil {
		s.mu.Unlock()
		return err
	}
	if !contains(s.step.MenuOptions, option) {
		s.mu.Unlock()
		return &ValidationError{Errors: map[string]string{"next_step_id": "invalid option " + option}}
	}

	s.loading = true
	gen, flowID := s.gen, s.flowID
	s.mu.Unlock()

	s.host.ShowLoading()
	step, err := s.api.HandleFlowStep(ctx, flowID, Values{"next_step_id": option})
	return s.apply(ctx, gen, opStep, step, err)
}

// Close ends the session. A flow the server has not finalized is deleted
// best-effort. The host's Closed callback runs exactly once.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	s.loading = false
	s.picking = false
	step, flowID, sub := s.step, s.flowID, s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Release()
	}

	finished := step != nil && step.Type.IsTerminal()
	if !finished && flowID != "" {
		s.deleteFlow(ctx, flowID)
	}

	s.logState(flowID, stepState(step), "closed", "")
	s.host.Closed(CloseResult{FlowFinished: finished, EntryID: step.EntryID()})
}

func (s *Session) begin(mutate func()) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	if s.loading {
		return 0, ErrBusy
	}
	s.loading = true
	s.picking = false
	if mutate != nil {
		mutate()
	}
	return s.gen, nil
}

func (s *Session) readyLocked(want StepType) error {
	switch {
	case s.closed:
		return ErrClosed
	case s.loading:
		return ErrBusy
	case s.step == nil || s.step.Type != want:
		return fmt.Errorf("%w: want %s", ErrWrongStep, want)
	}
	return nil
}

func (s *Session) create(ctx context.Context, gen uint64, handler string) error {
	step, err := s.api.CreateFlow(ctx, handler)
	return s.apply(ctx, gen, opCreate, step, err)
}

// apply installs the result of a request issued under gen.
func (s *Session) apply(ctx context.Context, gen uint64, op string, step *Step, err error) error {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		if err == nil && op == opCreate && step != nil && step.FlowID != "" && !step.Type.IsTerminal() {
			s.logger.Info("deleting orphaned flow", zap.String("flow_id", step.FlowID))
			s.deleteFlow(ctx, step.FlowID)
		}
		return ErrClosed
	}

	if err != nil {
		s.loading = false
		s.mu.Unlock()
		return s.fail(ctx, &TransportError{Op: op, Err: err})
	}
	if verr := step.Validate(); verr != nil {
		s.loading = false
		s.mu.Unlock()
		return s.fail(ctx, verr)
	}
	if s.flowID != "" && op != opCreate && step.FlowID != s.flowID {
		s.loading = false
		s.mu.Unlock()
		return s.fail(ctx, &ProtocolError{Reason: fmt.Sprintf("step for flow %s, expected %s", step.FlowID, s.flowID)})
	}

	old := s.step
	s.step = step.clone()
	s.flowID = step.FlowID
	s.loading = false

	var release Subscription
	subscribe := false
	switch step.Type {
	case StepAbort, StepCreateEntry:
		release, s.sub = s.sub, nil
	case StepExternal, StepProgress:
		if s.sub == nil && !s.subscribing {
			s.subscribing = true
			subscribe = true
		}
	case StepForm, StepMenu:
	}
	flowID := s.flowID
	s.mu.Unlock()

	s.logState(flowID, stepState(old), stepState(step), step.Reason)
	if release != nil {
		release.Release()
	}
	s.host.ShowStep(step.clone())

	if subscribe {
		if err := s.subscribe(ctx, gen, flowID); err != nil {
			return err
		}
	}
	if op == opStep && step.Type == StepForm && len(step.Errors) > 0 {
		return &ValidationError{Errors: step.clone().Errors}
	}
	return nil
}

func (s *Session) subscribe(ctx context.Context, gen uint64, flowID string) error {
	sub, err := s.api.SubscribeProgressed(ctx, flowID, func(id string) {
		s.progressed(gen, id)
	})

	s.mu.Lock()
	s.subscribing = false
	if gen != s.gen || s.closed || (s.step != nil && s.step.Type.IsTerminal()) {
		s.mu.Unlock()
		if sub != nil {
			sub.Release()
		}
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		return s.fail(ctx, &TransportError{Op: opSubscribe, Err: err})
	}
	s.sub = sub
	s.mu.Unlock()

	// The hub may have moved on before the subscription existed.
	if err := s.refetch(gen, flowID, true); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}

// progressed re-fetches the flow after a progress event.
func (s *Session) progressed(gen uint64, flowID string) {
	_ = s.refetch(gen, flowID, false)
}

// refetch fetches the flow while the current step awaits progress. A
// catch-up fetch that returns the step already shown is not shown again.
// Events arriving during a fetch trigger one more fetch once it completes.
func (s *Session) refetch(gen uint64, flowID string, catchUp bool) error {
	for {
		s.mu.Lock()
		if gen != s.gen || s.closed || flowID != s.flowID ||
			s.step == nil || !s.step.Type.AwaitsProgress() {
			s.mu.Unlock()
			s.logger.Debug("ignoring progress event", zap.String("flow_id", flowID))
			return nil
		}
		if s.loading {
			s.stale = true
			s.mu.Unlock()
			return nil
		}
		s.loading = true
		s.stale = false
		current := s.step.clone()
		s.mu.Unlock()

		if !catchUp {
			s.host.ShowLoading()
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		step, err := s.api.FetchFlow(ctx, flowID)
		if catchUp && err == nil && sameStep(current, step) {
			s.mu.Lock()
			if gen == s.gen && !s.closed {
				s.loading = false
			}
			s.mu.Unlock()
		} else if err := s.apply(ctx, gen, opFetch, step, err); err != nil {
			cancel()
			return err
		}
		cancel()

		s.mu.Lock()
		again := s.stale
		s.mu.Unlock()
		if !again {
			return nil
		}
		catchUp = true
	}
}

func sameStep(a, b *Step) bool {
	return a != nil && b != nil && a.FlowID == b.FlowID && a.Type == b.Type && a.StepID == b.StepID
}

func (s *Session) fail(ctx context.Context, err error) error {
	s.logger.Warn("flow failed", zap.String("flow_id", s.FlowID()), zap.Error(err))
	s.host.Alert(err)
	s.Close(ctx)
	return err
}

func (s *Session) deleteFlow(ctx context.Context, flowID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.api.DeleteFlow(ctx, flowID); err != nil {
		s.logger.Warn("failed to delete flow", zap.String("flow_id", flowID), zap.Error(err))
	}
}

func (s *Session) logState(flowID, oldState, newState, reason string) {
	s.logger.Debug("flow step", zap.String("flow_id", flowID),
		zap.String("from", oldState), zap.String("to", newState))

	ev := log.NewStateEvent(log.StateEntityFlow, oldState, newState, reason)
	ev.FlowID = flowID
	s.protoLog.Log(ev)
}

func stepState(step *Step) string {
	if step == nil {
		return "none"
	}
	if step.StepID == "" {
		return string(step.Type)
	}
	return string(step.Type) + "/" + step.StepID
}

func missingRequired(schema []Field, values Values) map[string]string {
	errs := make(map[string]string)
	for _, f := range schema {
		if !f.Required {
			continue
		}
		v, ok := values[f.Name]
		if !ok || v == nil {
			errs[f.Name] = "required"
			continue
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			errs[f.Name] = "required"
		}
	}
	return errs
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
