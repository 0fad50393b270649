package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/meshpair/meshpair-go/pkg/inclusion"
	"github.com/meshpair/meshpair-go/pkg/security"
)

// InclusionConsole renders an inclusion dialog and maps typed commands to
// controller calls.
type InclusionConsole struct {
	ctrl *inclusion.Controller
	out  *lockedWriter

	mu   sync.Mutex
	last inclusion.Snapshot
	seen bool

	added     chan struct{}
	addedOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

// NewInclusionConsole creates a console over svc. Output goes to out.
func NewInclusionConsole(svc inclusion.Service, config inclusion.Config, out io.Writer) *InclusionConsole {
	c := &InclusionConsole{
		ctrl:  inclusion.NewController(svc, config),
		out:   &lockedWriter{w: out},
		added: make(chan struct{}),
		done:  make(chan struct{}),
	}
	c.ctrl.OnChange(c.render)
	c.ctrl.OnClosed(func() {
		c.closeOnce.Do(func() { close(c.done) })
	})
	return c
}

// Controller returns the driven controller.
func (c *InclusionConsole) Controller() *inclusion.Controller {
	return c.ctrl
}

// Done is closed once the dialog closed.
func (c *InclusionConsole) Done() <-chan struct{} {
	return c.done
}

// Added is closed once a device was added or provisioned.
func (c *InclusionConsole) Added() <-chan struct{} {
	return c.added
}

// Open opens the dialog for entryID.
func (c *InclusionConsole) Open(ctx context.Context, entryID string) error {
	return c.ctrl.Open(ctx, inclusion.Params{
		EntryID: entryID,
		AddedCallback: func() {
			c.out.Printf("Device added to %s.\n", entryID)
			c.addedOnce.Do(func() { close(c.added) })
		},
	})
}

// render prints a snapshot when something the user can act on changed.
func (c *InclusionConsole) render(snap inclusion.Snapshot) {
	c.mu.Lock()
	prev, seen := c.last, c.seen
	c.last, c.seen = snap, true
	c.mu.Unlock()

	if seen && !changedForUser(prev, snap) {
		return
	}
	c.out.Write(RenderSnapshot(snap))
}

func changedForUser(a, b inclusion.Snapshot) bool {
	return a.Status != b.Status ||
		a.Strategy != b.Strategy ||
		a.SecurityClasses != b.SecurityClasses ||
		a.Error != b.Error ||
		len(a.Stages) != len(b.Stages) ||
		(a.Device == nil) != (b.Device == nil)
}

// Exec runs one command line. It reports quit once the console should exit.
func (c *InclusionConsole) Exec(ctx context.Context, line string) (quit bool, err error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "help", "?":
		c.out.Write([]byte(inclusionHelp))
		return false, nil

	case "show", "s":
		c.out.Write(RenderSnapshot(c.ctrl.Snapshot()))
		return false, nil

	case "strategy":
		if len(args) == 0 {
			return false, c.ctrl.ChooseStrategy(ctx)
		}
		strategy, err := inclusion.ParseStrategy(args[0])
		if err != nil {
			return false, err
		}
		if c.ctrl.Snapshot().Status != inclusion.StatusChooseStrategy {
			if err := c.ctrl.ChooseStrategy(ctx); err != nil {
				return false, err
			}
		}
		if err := c.ctrl.SelectStrategy(strategy); err != nil {
			return false, err
		}
		return false, c.ctrl.ConfirmStrategy(ctx)

	case "scan":
		if c.ctrl.Snapshot().Status != inclusion.StatusQRScan {
			if err := c.ctrl.ScanQRCode(ctx); err != nil {
				return false, err
			}
		}
		if len(args) == 0 {
			return false, nil
		}
		return false, c.ctrl.HandleScanned(ctx, args[0])

	case "pin":
		if len(args) != 1 {
			return false, errors.New("usage: pin <5 digits>")
		}
		return false, c.ctrl.ValidateDSKAndEnterPIN(ctx, args[0])

	case "toggle":
		if len(args) != 2 {
			return false, errors.New("usage: toggle <class> on|off")
		}
		class, err := security.ParseClass(args[0])
		if err != nil {
			return false, err
		}
		on, err := parseOnOff(args[1])
		if err != nil {
			return false, err
		}
		return false, c.ctrl.ToggleSecurityClass(class, on)

	case "grant":
		return false, c.ctrl.GrantSecurityClasses(ctx)

	case "retry":
		return false, c.ctrl.Retry(ctx)

	case "stop":
		return false, c.ctrl.Stop(ctx)

	case "quit", "exit", "q":
		c.ctrl.Close(ctx)
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

const inclusionHelp = `Commands:
  show                     Show the dialog state
  strategy [name]          Choose a strategy (default, smart_start, insecure, s0, s2)
  scan [code]              Switch to QR scanning, optionally handing over a code
  pin <digits>             Enter the PIN for the shown DSK
  toggle <class> on|off    Edit the classes to grant (S2AC, S2A, S2U, S0)
  grant                    Grant the selected classes
  retry                    Retry after a failure or timeout
  stop                     Stop the running attempt
  quit                     Close the dialog and exit
`

// RenderSnapshot formats a dialog snapshot for the console.
func RenderSnapshot(snap inclusion.Snapshot) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", snap.EntryID, snap.Status)
	if snap.StrategyChosen || snap.Status == inclusion.StatusChooseStrategy {
		fmt.Fprintf(&b, " (strategy %s)", snap.Strategy)
	}
	b.WriteString("\n")

	switch snap.Status {
	case inclusion.StatusChooseStrategy:
		b.WriteString("  Pick a strategy with 'strategy <name>'.\n")
		if snap.SupportsSmartStart != nil && !*snap.SupportsSmartStart {
			b.WriteString("  SmartStart is not supported by this controller.\n")
		}

	case inclusion.StatusQRScan:
		b.WriteString("  Enter the device code with 'scan <code>'.\n")

	case inclusion.StatusValidateDSKEnterPIN:
		fmt.Fprintf(&b, "  DSK: %s\n", maskDSK(snap.DSK))
		b.WriteString("  Enter the first five digits with 'pin <digits>'.\n")

	case inclusion.StatusGrantSecurityClasses:
		if snap.RequestedGrant != nil {
			fmt.Fprintf(&b, "  Requested: %s\n", security.NewClassSet(snap.RequestedGrant.SecurityClasses...))
		}
		fmt.Fprintf(&b, "  Selected:  %s\n", snap.SecurityClasses)
		b.WriteString("  Adjust with 'toggle', then 'grant'.\n")

	case inclusion.StatusStarted, inclusion.StatusStartedSpecific:
		b.WriteString("  Put the device into inclusion mode.\n")

	case inclusion.StatusInterviewing, inclusion.StatusFinished:
		if snap.Device != nil {
			fmt.Fprintf(&b, "  Device: %s", snap.Device.ID)
			if snap.Device.NodeID != 0 {
				fmt.Fprintf(&b, " (node %d)", snap.Device.NodeID)
			}
			b.WriteString("\n")
		}
		if len(snap.Stages) > 0 {
			fmt.Fprintf(&b, "  Interview: %s\n", strings.Join(snap.Stages, ", "))
		}
		if snap.Status == inclusion.StatusFinished && snap.LowSecurity {
			b.WriteString("  Warning: the device was included without full security.\n")
		}

	case inclusion.StatusProvisioned:
		b.WriteString("  The device joins automatically once powered.\n")

	case inclusion.StatusFailed, inclusion.StatusTimedOut:
		b.WriteString("  Use 'retry' to start over.\n")
	}

	if snap.Error != "" {
		fmt.Fprintf(&b, "  Error: %s\n", snap.Error)
	}
	return []byte(b.String())
}

// maskDSK hides the PIN part of a DSK: the user has to read it off the
// device.
func maskDSK(dsk string) string {
	if len(dsk) < 5 {
		return dsk
	}
	return "xxxxx" + dsk[5:]
}
