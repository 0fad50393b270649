package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshpair/meshpair-go/cmd/meshpair/interactive"
	"github.com/meshpair/meshpair-go/pkg/discovery"
	"github.com/meshpair/meshpair-go/pkg/flow"
	"github.com/meshpair/meshpair-go/pkg/inclusion"
	"github.com/meshpair/meshpair-go/pkg/remote"
)

// console is what the command loop drives.
type console interface {
	Exec(ctx context.Context, line string) (quit bool, err error)
	Done() <-chan struct{}
}

func (c *cli) connect(ctx context.Context) (*remote.Client, error) {
	config := remote.DefaultConfig()
	config.RequestTimeout = c.cfg.RequestTimeout
	config.Logger = c.logger
	config.ProtocolLogger = c.protocolLogger()

	client, err := remote.Dial(ctx, c.cfg.Hub, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.cfg.Hub, err)
	}
	c.logger.Info("connected", zap.String("hub", c.cfg.Hub))
	return client, nil
}

func (c *cli) flowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "flow <handler>",
		Short: "Run a configuration flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer cancel()

			client, err := c.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			rl, err := newReadline("flow> ")
			if err != nil {
				return err
			}
			defer rl.Close()

			config := flow.DefaultConfig()
			config.RequestTimeout = c.cfg.RequestTimeout
			config.Logger = c.logger
			config.ProtocolLogger = c.protocolLogger()

			fc := interactive.NewFlowConsole(client.Flows(), config, rl.Stdout())
			if err := fc.Session().Start(ctx, args[0]); err != nil {
				return err
			}

			runLoop(ctx, rl, fc, client)
			fc.Session().Close(context.WithoutCancel(ctx))

			if res := fc.Result(); res == nil || !res.FlowFinished {
				return errors.New("flow not finished")
			}
			return nil
		},
	}
}

func (c *cli) includeCommand() *cobra.Command {
	var (
		entryID   string
		timeout   time.Duration
		noAuto    bool
		untilDone bool
	)

	cmd := &cobra.Command{
		Use:   "include --entry <id>",
		Short: "Run the inclusion dialog of a controller entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer cancel()

			client, err := c.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			rl, err := newReadline("include> ")
			if err != nil {
				return err
			}
			defer rl.Close()

			config := inclusion.DefaultConfig()
			config.InclusionTimeout = timeout
			config.RequestTimeout = c.cfg.RequestTimeout
			config.AutoGrant = !noAuto
			config.Logger = c.logger
			config.ProtocolLogger = c.protocolLogger()
			if err := config.Validate(); err != nil {
				return err
			}

			ic := interactive.NewInclusionConsole(client.Inclusion(), config, rl.Stdout())
			if err := ic.Open(ctx, entryID); err != nil {
				return err
			}

			if untilDone {
				go func() {
					select {
					case <-ic.Added():
						ic.Controller().Close(context.WithoutCancel(ctx))
					case <-ic.Done():
					}
				}()
			}

			runLoop(ctx, rl, ic, client)
			ic.Controller().Close(context.WithoutCancel(ctx))
			return nil
		},
	}

	cmd.Flags().StringVar(&entryID, "entry", "", "controller entry id (required)")
	cmd.Flags().DurationVar(&timeout, "timeout", inclusion.DefaultInclusionTimeout, "inclusion attempt timeout")
	cmd.Flags().BoolVar(&noAuto, "no-auto-grant", false, "always ask before granting security classes")
	cmd.Flags().BoolVar(&untilDone, "exit-when-added", false, "close the dialog once a device was added")
	_ = cmd.MarkFlagRequired("entry")
	return cmd
}

func (c *cli) browseCommand() *cobra.Command {
	var (
		iface   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List hubs announced over mDNS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			browser := discovery.NewBrowser(discovery.BrowserConfig{Interface: iface, Timeout: timeout})
			defer browser.Stop()

			hubs, err := browser.FindAll(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(hubs) == 0 {
				fmt.Fprintln(out, "No hubs found.")
				return nil
			}
			for _, hub := range hubs {
				fmt.Fprintf(out, "%-20s %-24s id=%s ver=%s", hub.Name, hub.Address(), hub.ID, hub.Version)
				if len(hub.Features) > 0 {
					fmt.Fprintf(out, " features=%v", hub.Features)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&iface, "interface", "", "network interface to browse on")
	cmd.Flags().DurationVar(&timeout, "timeout", discovery.BrowseTimeout, "how long to listen for announcements")
	return cmd
}

func newReadline(prompt string) (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return rl, nil
}

// runLoop reads commands until the console quits, its dialog closes or the
// hub goes away.
func runLoop(ctx context.Context, rl *readline.Instance, con console, client *remote.Client) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-con.Done():
		case <-client.Done():
			if err := client.Err(); err != nil {
				fmt.Fprintf(rl.Stdout(), "Connection lost: %v\n", err)
			}
		case <-ctx.Done():
		case <-stop:
			return
		}
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err != io.EOF {
				fmt.Fprintln(os.Stderr, err)
			}
			return
		}

		quit, err := con.Exec(ctx, line)
		if err != nil {
			fmt.Fprintf(rl.Stdout(), "Error: %v\n", err)
		}
		if quit {
			return
		}
	}
}
