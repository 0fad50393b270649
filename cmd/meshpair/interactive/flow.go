// Package interactive provides the line-oriented consoles of the meshpair
// client: one renders a configuration flow, one drives an inclusion dialog.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/meshpair/meshpair-go/pkg/flow"
)

// FlowConsole renders a flow session as text and turns typed commands into
// session calls. It is the session's host.
type FlowConsole struct {
	session *flow.Session
	out     *lockedWriter

	mu     sync.Mutex
	step   *flow.Step
	picker []flow.InProgressFlow
	result *flow.CloseResult

	done      chan struct{}
	closeOnce sync.Once
}

// NewFlowConsole creates a console driving api. Output goes to out.
func NewFlowConsole(api flow.API, config flow.Config, out io.Writer) *FlowConsole {
	c := &FlowConsole{
		out:  &lockedWriter{w: out},
		done: make(chan struct{}),
	}
	c.session = flow.NewSession(api, c, config)
	return c
}

// Session returns the driven session.
func (c *FlowConsole) Session() *flow.Session {
	return c.session
}

// Done is closed once the session closed.
func (c *FlowConsole) Done() <-chan struct{} {
	return c.done
}

// Result returns how the session ended, or nil while it is open.
func (c *FlowConsole) Result() *flow.CloseResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// ShowLoading implements flow.Host.
func (c *FlowConsole) ShowLoading() {
	c.out.Printf("... loading\n")
}

// ShowStep implements flow.Host. A terminal step closes the session.
func (c *FlowConsole) ShowStep(step *flow.Step) {
	c.mu.Lock()
	c.step = step
	c.picker = nil
	c.mu.Unlock()

	c.out.Write(RenderStep(step))

	if step.Type.IsTerminal() {
		c.session.Close(context.Background())
	}
}

// ShowPicker implements flow.Host.
func (c *FlowConsole) ShowPicker(handler string, flows []flow.InProgressFlow) {
	c.mu.Lock()
	c.picker = flows
	c.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Flows in progress for %s:\n", handler)
	for i, f := range flows {
		fmt.Fprintf(&b, "  [%d] %s", i+1, f.FlowID)
		if f.StepID != "" {
			fmt.Fprintf(&b, " (at %s)", f.StepID)
		}
		b.WriteString("\n")
	}
	b.WriteString("Use 'pick <n>' to continue one or 'pick new' to start over.\n")
	c.out.Write([]byte(b.String()))
}

// Alert implements flow.Host.
func (c *FlowConsole) Alert(err error) {
	c.out.Printf("Error: %v\n", err)
}

// Closed implements flow.Host.
func (c *FlowConsole) Closed(result flow.CloseResult) {
	c.mu.Lock()
	c.result = &result
	c.mu.Unlock()

	switch {
	case result.EntryID != "":
		c.out.Printf("Flow finished, entry %s created.\n", result.EntryID)
	case result.FlowFinished:
		c.out.Printf("Flow finished.\n")
	default:
		c.out.Printf("Flow closed.\n")
	}
	c.closeOnce.Do(func() { close(c.done) })
}

// Exec runs one command line. It reports quit once the console should exit.
func (c *FlowConsole) Exec(ctx context.Context, line string) (quit bool, err error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "help", "?":
		c.out.Write([]byte(flowHelp))
		return false, nil

	case "show", "s":
		c.mu.Lock()
		step := c.step
		c.mu.Unlock()
		if step == nil {
			c.out.Printf("No step yet.\n")
			return false, nil
		}
		c.out.Write(RenderStep(step))
		return false, nil

	case "submit":
		step := c.session.Current()
		if step == nil || step.Type != flow.StepForm {
			return false, flow.ErrWrongStep
		}
		values, err := ParseValues(step.DataSchema, args)
		if err != nil {
			return false, err
		}
		return false, c.session.Submit(ctx, values)

	case "select":
		if len(args) != 1 {
			return false, errors.New("usage: select <option>")
		}
		return false, c.session.SelectMenu(ctx, args[0])

	case "pick":
		if len(args) != 1 {
			return false, errors.New("usage: pick <n>|new")
		}
		flowID, err := c.pickID(args[0])
		if err != nil {
			return false, err
		}
		return false, c.session.Pick(ctx, flowID)

	case "quit", "exit", "q":
		c.session.Close(ctx)
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (c *FlowConsole) pickID(arg string) (string, error) {
	if strings.EqualFold(arg, "new") {
		return "", nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(c.picker) {
		return "", fmt.Errorf("no flow %q to pick", arg)
	}
	return c.picker[n-1].FlowID, nil
}

const flowHelp = `Commands:
  show                     Show the current step
  submit name=value ...    Submit the form
  select <option>          Choose a menu option
  pick <n>|new             Continue a flow in progress or start a new one
  quit                     Abort the flow and exit
`

// RenderStep formats a step for the console.
func RenderStep(step *flow.Step) []byte {
	var b strings.Builder

	title := step.StepID
	if title == "" {
		title = string(step.Type)
	}
	fmt.Fprintf(&b, "== %s [%s] ==\n", title, step.Type)

	switch step.Type {
	case flow.StepForm:
		for _, f := range step.DataSchema {
			fmt.Fprintf(&b, "  %s (%s)", f.Name, fieldType(f))
			if f.Required {
				b.WriteString(" *")
			}
			if f.Default != nil {
				fmt.Fprintf(&b, " default=%v", f.Default)
			}
			if len(f.Options) > 0 {
				fmt.Fprintf(&b, " one of %s", strings.Join(f.Options, "|"))
			}
			if msg, ok := step.Errors[f.Name]; ok {
				fmt.Fprintf(&b, "  <- %s", msg)
			}
			b.WriteString("\n")
		}
		if msg, ok := step.Errors["base"]; ok {
			fmt.Fprintf(&b, "  error: %s\n", msg)
		}

	case flow.StepMenu:
		for _, opt := range step.MenuOptions {
			fmt.Fprintf(&b, "  - %s\n", opt)
		}

	case flow.StepExternal:
		fmt.Fprintf(&b, "  Continue at %s, the flow advances on its own.\n", step.URL)

	case flow.StepProgress:
		fmt.Fprintf(&b, "  In progress: %s\n", step.ProgressAction)

	case flow.StepAbort:
		fmt.Fprintf(&b, "  Aborted: %s\n", step.Reason)

	case flow.StepCreateEntry:
		if step.Result != nil {
			fmt.Fprintf(&b, "  Created %s", step.Result.EntryID)
			if step.Result.Title != "" {
				fmt.Fprintf(&b, " (%s)", step.Result.Title)
			}
			b.WriteString("\n")
		}
	}

	if len(step.DescriptionPlaceholders) > 0 {
		keys := make([]string, 0, len(step.DescriptionPlaceholders))
		for k := range step.DescriptionPlaceholders {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %s\n", k, step.DescriptionPlaceholders[k])
		}
	}
	return []byte(b.String())
}

func fieldType(f flow.Field) string {
	if f.Type == "" {
		return "string"
	}
	return f.Type
}

// ParseValues turns name=value arguments into form values typed after the
// schema.
func ParseValues(schema []flow.Field, args []string) (flow.Values, error) {
	fields := make(map[string]flow.Field, len(schema))
	for _, f := range schema {
		fields[f.Name] = f
	}

	values := make(flow.Values, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: expected name=value, got %q", flow.ErrInvalidInput, arg)
		}
		f, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", flow.ErrInvalidInput, name)
		}
		v, err := convert(f, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", flow.ErrInvalidInput, name, err)
		}
		values[name] = v
	}
	return values, nil
}

func convert(f flow.Field, raw string) (any, error) {
	switch f.Type {
	case "integer":
		return strconv.ParseInt(raw, 10, 64)
	case "float":
		return strconv.ParseFloat(raw, 64)
	case "boolean":
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

// lockedWriter serializes output from the command loop and from session
// callbacks.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func (l *lockedWriter) Printf(format string, args ...any) {
	fmt.Fprintf(l, format, args...)
}
