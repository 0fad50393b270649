package flow

import (
	"context"
	"fmt"
)

// StepType tags a flow step.
type StepType string

const (
	StepForm        StepType = "form"
	StepMenu        StepType = "menu"
	StepExternal    StepType = "external"
	StepProgress    StepType = "progress"
	StepAbort       StepType = "abort"
	StepCreateEntry StepType = "create_entry"
)

// IsValid reports whether t is a known step type.
func (t StepType) IsValid() bool {
	switch t {
	case StepForm, StepMenu, StepExternal, StepProgress, StepAbort, StepCreateEntry:
		return true
	}
	return false
}

// IsTerminal reports whether the server has finalized the flow.
func (t StepType) IsTerminal() bool {
	switch t {
	case StepAbort, StepCreateEntry:
		return true
	case StepForm, StepMenu, StepExternal, StepProgress:
		return false
	}
	return false
}

// AwaitsProgress reports whether the step only advances through a progress
// event.
func (t StepType) AwaitsProgress() bool {
	switch t {
	case StepExternal, StepProgress:
		return true
	case StepForm, StepMenu, StepAbort, StepCreateEntry:
		return false
	}
	return false
}

// Field describes one input of a form step.
type Field struct {
	Name     string   `cbor:"1,keyasint" yaml:"name"`
	Type     string   `cbor:"2,keyasint" yaml:"type"`
	Required bool     `cbor:"3,keyasint,omitempty" yaml:"required"`
	Default  any      `cbor:"4,keyasint,omitempty" yaml:"default"`
	Options  []string `cbor:"5,keyasint,omitempty" yaml:"options"`
}

// Result is the outcome of a create_entry step.
type Result struct {
	EntryID string `cbor:"1,keyasint"`
	Title   string `cbor:"2,keyasint,omitempty"`
}

// Step is one unit of a flow as returned by the server.
type Step struct {
	FlowID                  string            `cbor:"1,keyasint"`
	Type                    StepType          `cbor:"2,keyasint"`
	StepID                  string            `cbor:"3,keyasint,omitempty"`
	DataSchema              []Field           `cbor:"4,keyasint,omitempty"`
	Errors                  map[string]string `cbor:"5,keyasint,omitempty"`
	MenuOptions             []string          `cbor:"6,keyasint,omitempty"`
	URL                     string            `cbor:"7,keyasint,omitempty"`
	ProgressAction          string            `cbor:"8,keyasint,omitempty"`
	Result                  *Result           `cbor:"9,keyasint,omitempty"`
	Reason                  string            `cbor:"10,keyasint,omitempty"`
	LastStep                *bool             `cbor:"11,keyasint,omitempty"`
	Handler                 string            `cbor:"12,keyasint,omitempty"`
	DescriptionPlaceholders map[string]string `cbor:"13,keyasint,omitempty"`
}

// Validate checks the parts of a step the session relies on.
func (s *Step) Validate() error {
	if s == nil {
		return &ProtocolError{Reason: "empty step"}
	}
	if s.FlowID == "" {
		return &ProtocolError{Reason: "step without flow id"}
	}
	if !s.Type.IsValid() {
		return &ProtocolError{Reason: fmt.Sprintf("unknown step type %q", s.Type)}
	}
	if s.Type == StepMenu && len(s.MenuOptions) == 0 {
		return &ProtocolError{Reason: "menu step without options"}
	}
	return nil
}

// EntryID returns the created entry id of a create_entry step.
func (s *Step) EntryID() string {
	if s == nil || s.Type != StepCreateEntry || s.Result == nil {
		return ""
	}
	return s.Result.EntryID
}

func (s *Step) clone() *Step {
	if s == nil {
		return nil
	}
	c := *s
	if s.Errors != nil {
		c.Errors = make(map[string]string, len(s.Errors))
		for k, v := range s.Errors {
			c.Errors[k] = v
		}
	}
	return &c
}

// InProgressFlow is a flow the server still tracks for a handler.
type InProgressFlow struct {
	FlowID  string `cbor:"1,keyasint"`
	Handler string `cbor:"2,keyasint"`
	StepID  string `cbor:"3,keyasint,omitempty"`
}

// Values are the user inputs submitted for a form step.
type Values map[string]any

// CloseResult is reported to the host when a session closes.
type CloseResult struct {
	FlowFinished bool
	EntryID      string
}

// StepSource yields the next step: either one that is already at hand or a
// request that still has to complete.
type StepSource struct {
	step  *Step
	fetch func(ctx context.Context) (*Step, error)
}

// Resolved wraps a step that is already available.
func Resolved(step *Step) StepSource {
	return StepSource{step: step}
}

// Pending wraps a request that will produce the next step.
func Pending(fetch func(ctx context.Context) (*Step, error)) StepSource {
	return StepSource{fetch: fetch}
}

func (src StepSource) isPending() bool {
	return src.fetch != nil
}
