package service

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/meshpair/meshpair-go/pkg/flow"
	"github.com/meshpair/meshpair-go/pkg/inclusion"
	"github.com/meshpair/meshpair-go/pkg/security"
	"gopkg.in/yaml.v3"
)

// DefaultProgressDelay is used for progress steps without a delay.
const DefaultProgressDelay = time.Second

// Scenario describes what a simulated hub offers.
type Scenario struct {
	Hub   HubSection        `yaml:"hub"`
	Flows []*FlowDefinition `yaml:"flows"`

	// Entries are the controller entries that exist from the start.
	Entries []*EntryConfig `yaml:"entries"`

	// EntryTemplate configures entries created by flows that set
	// creates_controller.
	EntryTemplate EntryConfig `yaml:"entry_template"`
}

// HubSection identifies the hub.
type HubSection struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// FlowDefinition is the script of one flow handler.
type FlowDefinition struct {
	Handler   string            `yaml:"handler"`
	FirstStep string            `yaml:"first_step"`
	Steps     []*StepDefinition `yaml:"steps"`

	// CreatesController registers every created entry with the inclusion
	// simulator.
	CreatesController bool `yaml:"creates_controller"`

	steps map[string]*StepDefinition
}

// StepDefinition is one step of a flow script.
type StepDefinition struct {
	ID             string            `yaml:"id"`
	Type           flow.StepType     `yaml:"type"`
	Fields         []flow.Field      `yaml:"fields"`
	Validators     map[string]string `yaml:"validators"`
	Options        []string          `yaml:"options"`
	URL            string            `yaml:"url"`
	ProgressAction string            `yaml:"progress_action"`
	Delay          time.Duration     `yaml:"delay"`
	Next           string            `yaml:"next"`
	Title          string            `yaml:"title"`
	Reason         string            `yaml:"reason"`
	LastStep       *bool             `yaml:"last_step"`
	Placeholders   map[string]string `yaml:"placeholders"`

	validators map[string]*regexp.Regexp
}

// EntryConfig configures one simulated controller.
type EntryConfig struct {
	ID         string        `yaml:"id"`
	SmartStart bool          `yaml:"smart_start"`
	StepDelay  time.Duration `yaml:"step_delay"`

	// FailAfter names the event after which the attempt fails.
	FailAfter  string `yaml:"fail_after"`
	FailReason string `yaml:"fail_reason"`

	Device           DeviceTemplate `yaml:"device"`
	RequestedClasses []string       `yaml:"requested_classes"`
	ClientSideAuth   bool           `yaml:"client_side_auth"`
	Stages           []string       `yaml:"stages"`

	requested []security.Class
}

// DeviceTemplate describes the device that joins.
type DeviceTemplate struct {
	Name         string `yaml:"name"`
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// DefaultScenario returns the built-in demo scenario.
func DefaultScenario() *Scenario {
	s, err := ParseScenario([]byte(defaultScenario))
	if err != nil {
		panic(fmt.Sprintf("built-in scenario: %v", err))
	}
	return s
}

// Validate checks references and compiles validators.
func (s *Scenario) Validate() error {
	handlers := make(map[string]bool)
	for _, def := range s.Flows {
		if def == nil {
			continue
		}
		if handlers[def.Handler] {
			return fmt.Errorf("%w: duplicate flow handler %q", ErrInvalidConfig, def.Handler)
		}
		handlers[def.Handler] = true
		if err := def.Validate(); err != nil {
			return err
		}
	}

	ids := make(map[string]bool)
	for _, e := range s.Entries {
		if e == nil {
			continue
		}
		if e.ID == "" {
			return fmt.Errorf("%w: entry without id", ErrInvalidConfig)
		}
		if ids[e.ID] {
			return fmt.Errorf("%w: duplicate entry %q", ErrInvalidConfig, e.ID)
		}
		ids[e.ID] = true
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return s.EntryTemplate.Validate()
}

// Validate checks one flow script.
func (d *FlowDefinition) Validate() error {
	if d.Handler == "" {
		return fmt.Errorf("%w: flow without handler", ErrInvalidConfig)
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("%w: flow %q has no steps", ErrInvalidConfig, d.Handler)
	}

	d.steps = make(map[string]*StepDefinition, len(d.Steps))
	for _, st := range d.Steps {
		if st.ID == "" {
			return fmt.Errorf("%w: flow %q: step without id", ErrInvalidConfig, d.Handler)
		}
		if _, dup := d.steps[st.ID]; dup {
			return fmt.Errorf("%w: flow %q: duplicate step %q", ErrInvalidConfig, d.Handler, st.ID)
		}
		d.steps[st.ID] = st
	}
	if d.FirstStep == "" {
		d.FirstStep = d.Steps[0].ID
	}
	if _, ok := d.steps[d.FirstStep]; !ok {
		return fmt.Errorf("%w: flow %q: unknown first step %q", ErrInvalidConfig, d.Handler, d.FirstStep)
	}

	for _, st := range d.Steps {
		if err := d.validateStep(st); err != nil {
			return fmt.Errorf("%w: flow %q step %q: %v", ErrInvalidConfig, d.Handler, st.ID, err)
		}
	}
	return nil
}

func (d *FlowDefinition) validateStep(st *StepDefinition) error {
	if !st.Type.IsValid() {
		return fmt.Errorf("unknown type %q", st.Type)
	}

	switch st.Type {
	case flow.StepMenu:
		if len(st.Options) == 0 {
			return fmt.Errorf("menu without options")
		}
		for _, opt := range st.Options {
			if _, ok := d.steps[opt]; !ok {
				return fmt.Errorf("menu option %q is not a step", opt)
			}
		}
	case flow.StepProgress:
		if st.Delay <= 0 {
			st.Delay = DefaultProgressDelay
		}
	}

	if !st.Type.IsTerminal() && st.Type != flow.StepMenu {
		if _, ok := d.steps[st.Next]; !ok {
			return fmt.Errorf("unknown next step %q", st.Next)
		}
	}

	st.validators = make(map[string]*regexp.Regexp, len(st.Validators))
	for field, expr := range st.Validators {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("validator for %q: %v", field, err)
		}
		st.validators[field] = re
	}
	return nil
}

func (d *FlowDefinition) step(id string) *StepDefinition {
	return d.steps[id]
}

// Validate checks the entry and resolves its security classes.
func (e *EntryConfig) Validate() error {
	if e.StepDelay < 0 {
		return fmt.Errorf("%w: entry %q: negative step delay", ErrInvalidConfig, e.ID)
	}
	switch e.FailAfter {
	case "", inclusion.EventInclusionStarted, inclusion.EventValidateDSKAndEnterPIN,
		inclusion.EventGrantSecurityClasses, inclusion.EventDeviceRegistered,
		inclusion.EventNodeAdded, inclusion.EventInterviewStageCompleted:
	default:
		return fmt.Errorf("%w: entry %q: cannot fail after %q", ErrInvalidConfig, e.ID, e.FailAfter)
	}

	e.requested = e.requested[:0]
	for _, name := range e.RequestedClasses {
		c, err := security.ParseClass(name)
		if err != nil {
			return fmt.Errorf("%w: entry %q: %v", ErrInvalidConfig, e.ID, err)
		}
		e.requested = append(e.requested, c)
	}
	if len(e.RequestedClasses) == 0 {
		e.requested = []security.Class{security.S2Authenticated, security.S2Unauthenticated}
	}
	if len(e.Stages) == 0 {
		e.Stages = []string{"ProtocolInfo", "NodeInfo", "CommandClasses"}
	}
	return nil
}

// withID copies the entry for a new id.
func (e EntryConfig) withID(id string) *EntryConfig {
	c := e
	c.ID = id
	c.requested = append([]security.Class(nil), e.requested...)
	c.Stages = append([]string(nil), e.Stages...)
	return &c
}
