package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meshpair/meshpair-go/pkg/flow"
	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// EntryCreatedFunc is called after a flow created an entry.
type EntryCreatedFunc func(def *FlowDefinition, entryID, title string)

// FlowManager runs flows defined by a scenario.
type FlowManager struct {
	defs   map[string]*FlowDefinition
	logger *zap.Logger

	// store holds *flowState keyed by flow id. Every access renews the idle
	// expiry.
	store *cache.Cache

	mu          sync.Mutex
	watchers    map[string]map[uint64]func(string)
	nextWatcher uint64
	onEntry     EntryCreatedFunc
}

type flowState struct {
	id      string
	def     *FlowDefinition
	stepID  string
	values  flow.Values
	created time.Time

	// gen guards delayed advances against steps that were left already.
	gen   uint64
	timer *time.Timer
	done  bool
}

// NewFlowManager creates a manager for defs.
func NewFlowManager(defs []*FlowDefinition, idleTimeout time.Duration, logger *zap.Logger) *FlowManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &FlowManager{
		defs:     make(map[string]*FlowDefinition, len(defs)),
		logger:   logger.Named("flows"),
		store:    cache.New(idleTimeout, idleTimeout/2),
		watchers: make(map[string]map[uint64]func(string)),
	}
	for _, d := range defs {
		m.defs[d.Handler] = d
	}
	m.store.OnEvicted(m.evicted)
	return m
}

// OnEntryCreated registers the entry creation hook.
func (m *FlowManager) OnEntryCreated(fn EntryCreatedFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEntry = fn
}

// Handlers returns the known handler names, sorted.
func (m *FlowManager) Handlers() []string {
	names := make([]string, 0, len(m.defs))
	for name := range m.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create starts a flow and returns its first step.
func (m *FlowManager) Create(handler string) (*flow.Step, error) {
	def, ok := m.defs[handler]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHandler, handler)
	}

	st := &flowState{
		id:      uuid.NewString(),
		def:     def,
		values:  make(flow.Values),
		created: time.Now(),
	}

	m.mu.Lock()
	m.store.Set(st.id, st, cache.DefaultExpiration)
	m.enterLocked(st, def.FirstStep)
	step := m.renderLocked(st)
	m.mu.Unlock()

	m.logger.Debug("flow created", zap.String("flow_id", st.id), zap.String("handler", handler))
	m.finishIfTerminal(st, step)
	return step, nil
}

// Fetch returns the current step of a flow.
func (m *FlowManager) Fetch(flowID string) (*flow.Step, error) {
	m.mu.Lock()
	st, err := m.lookupLocked(flowID)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	step := m.renderLocked(st)
	m.mu.Unlock()

	m.finishIfTerminal(st, step)
	return step, nil
}

// Step submits user input for the current step.
func (m *FlowManager) Step(flowID string, values flow.Values) (*flow.Step, error) {
	m.mu.Lock()
	st, err := m.lookupLocked(flowID)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	cur := st.def.step(st.stepID)
	switch cur.Type {
	case flow.StepForm:
		if errs := validateForm(cur, values); len(errs) > 0 {
			step := m.renderLocked(st)
			step.Errors = errs
			m.mu.Unlock()
			return step, nil
		}
		for k, v := range values {
			st.values[k] = v
		}
		m.enterLocked(st, cur.Next)

	case flow.StepMenu:
		next, _ := values["next_step_id"].(string)
		if !contains(cur.Options, next) {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: unknown menu option %q", ErrInvalidInput, next)
		}
		m.enterLocked(st, next)

	case flow.StepExternal:
		// The user reports the external part as done.
		m.enterLocked(st, cur.Next)

	case flow.StepProgress:
		// Still running; the current step is returned unchanged.
	}

	step := m.renderLocked(st)
	m.mu.Unlock()

	m.finishIfTerminal(st, step)
	return step, nil
}

// Delete removes a flow.
func (m *FlowManager) Delete(flowID string) error {
	m.mu.Lock()
	st, err := m.lookupLocked(flowID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	st.done = true
	m.mu.Unlock()

	m.store.Delete(flowID)
	m.logger.Debug("flow deleted", zap.String("flow_id", flowID))
	return nil
}

// InProgress lists the unfinished flows of handler, oldest first.
func (m *FlowManager) InProgress(handler string) []flow.InProgressFlow {
	m.mu.Lock()
	defer m.mu.Unlock()

	var states []*flowState
	for _, item := range m.store.Items() {
		st, ok := item.Object.(*flowState)
		if !ok || st.done || st.def.Handler != handler {
			continue
		}
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].created.Before(states[j].created) })

	flows := make([]flow.InProgressFlow, 0, len(states))
	for _, st := range states {
		flows = append(flows, flow.InProgressFlow{FlowID: st.id, Handler: st.def.Handler, StepID: st.stepID})
	}
	return flows
}

// Watch calls fn whenever flowID advances on its own. The returned function
// stops watching.
func (m *FlowManager) Watch(flowID string, fn func(flowID string)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookupLocked(flowID); err != nil {
		return nil, err
	}
	m.nextWatcher++
	id := m.nextWatcher
	if m.watchers[flowID] == nil {
		m.watchers[flowID] = make(map[uint64]func(string))
	}
	m.watchers[flowID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.watchers[flowID], id)
			if len(m.watchers[flowID]) == 0 {
				delete(m.watchers, flowID)
			}
		})
	}, nil
}

func (m *FlowManager) lookupLocked(flowID string) (*flowState, error) {
	v, ok := m.store.Get(flowID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, flowID)
	}
	st := v.(*flowState)
	if st.done {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, flowID)
	}
	m.store.Set(flowID, st, cache.DefaultExpiration)
	return st, nil
}

// enterLocked moves st to stepID and schedules the automatic advance of
// progress and delayed external steps.
func (m *FlowManager) enterLocked(st *flowState, stepID string) {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	st.stepID = stepID
	st.gen++

	def := st.def.step(stepID)
	if def.Type.AwaitsProgress() && def.Delay > 0 {
		gen := st.gen
		st.timer = time.AfterFunc(def.Delay, func() { m.advance(st, gen) })
	}
}

func (m *FlowManager) advance(st *flowState, gen uint64) {
	m.mu.Lock()
	if st.done || st.gen != gen {
		m.mu.Unlock()
		return
	}
	if _, found := m.store.Get(st.id); !found {
		m.mu.Unlock()
		return
	}
	m.enterLocked(st, st.def.step(st.stepID).Next)
	m.store.Set(st.id, st, cache.DefaultExpiration)

	fns := make([]func(string), 0, len(m.watchers[st.id]))
	for _, fn := range m.watchers[st.id] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	m.logger.Debug("flow progressed", zap.String("flow_id", st.id), zap.String("step_id", st.stepID),
		zap.Int("watchers", len(fns)))
	for _, fn := range fns {
		fn(st.id)
	}
}

func (m *FlowManager) renderLocked(st *flowState) *flow.Step {
	def := st.def.step(st.stepID)
	step := &flow.Step{
		FlowID:                  st.id,
		Type:                    def.Type,
		StepID:                  def.ID,
		Handler:                 st.def.Handler,
		LastStep:                def.LastStep,
		DescriptionPlaceholders: def.Placeholders,
	}

	switch def.Type {
	case flow.StepForm:
		step.DataSchema = def.Fields
	case flow.StepMenu:
		step.MenuOptions = def.Options
	case flow.StepExternal:
		step.URL = def.URL
	case flow.StepProgress:
		step.ProgressAction = def.ProgressAction
	case flow.StepAbort:
		step.Reason = def.Reason
	case flow.StepCreateEntry:
		step.Result = &flow.Result{
			EntryID: uuid.NewString(),
			Title:   expand(def.Title, st.values),
		}
	}

	if def.Type.IsTerminal() {
		st.done = true
		if st.timer != nil {
			st.timer.Stop()
		}
	}
	return step
}

// finishIfTerminal drops a flow that just reported a terminal step.
func (m *FlowManager) finishIfTerminal(st *flowState, step *flow.Step) {
	if !step.Type.IsTerminal() {
		return
	}
	m.store.Delete(st.id)

	m.logger.Info("flow finished", zap.String("flow_id", st.id),
		zap.String("handler", st.def.Handler), zap.String("type", string(step.Type)))

	if entryID := step.EntryID(); entryID != "" {
		m.mu.Lock()
		fn := m.onEntry
		m.mu.Unlock()
		if fn != nil {
			fn(st.def, entryID, step.Result.Title)
		}
	}
}

func (m *FlowManager) evicted(flowID string, v interface{}) {
	st, ok := v.(*flowState)
	if !ok {
		return
	}

	m.mu.Lock()
	expired := !st.done
	st.done = true
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	delete(m.watchers, flowID)
	m.mu.Unlock()

	if expired {
		m.logger.Info("flow expired", zap.String("flow_id", flowID))
	}
}

// validateForm returns inline errors for missing required fields and values
// rejected by a validator.
func validateForm(def *StepDefinition, values flow.Values) map[string]string {
	errs := make(map[string]string)
	for _, f := range def.Fields {
		v, ok := values[f.Name]
		if f.Required && (!ok || v == nil || v == "") {
			errs[f.Name] = "required"
			continue
		}
		re := def.validators[f.Name]
		if re == nil || !ok {
			continue
		}
		if !re.MatchString(fmt.Sprint(v)) {
			errs[f.Name] = "invalid_format"
		}
	}
	return errs
}

// expand replaces {key} placeholders with submitted values.
func expand(s string, values flow.Values) string {
	if !strings.Contains(s, "{") {
		return s
	}
	for k, v := range values {
		s = strings.ReplaceAll(s, "{"+k+"}", fmt.Sprint(v))
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
