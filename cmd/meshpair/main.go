// Command meshpair is the interactive meshpair client. It runs
// configuration flows and inclusion dialogs against a hub.
//
// Usage:
//
//	meshpair [global flags] <command> [flags]
//
// Commands:
//
//	flow <handler>       Run a configuration flow
//	include --entry <id> Run the inclusion dialog of a controller entry
//	browse               List hubs announced over mDNS
//
// Examples:
//
//	# Add a controller entry through the setup flow
//	meshpair --hub 192.168.1.20:8445 flow stick_setup
//
//	# Include a device, capturing the protocol
//	meshpair --protocol-log include.mplog include --entry stick
//
// Global flags can also be set in the --config file or through MESHPAIR_
// environment variables (MESHPAIR_HUB, MESHPAIR_LOG_LEVEL, ...).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/meshpair/meshpair-go/internal/config"
	"github.com/meshpair/meshpair-go/internal/logging"
	"github.com/meshpair/meshpair-go/pkg/log"
	"github.com/meshpair/meshpair-go/pkg/transport"
)

type cfg struct {
	Hub            string
	RequestTimeout time.Duration
	ProtocolLog    string
	Logging        logging.Options
}

type cli struct {
	cfg cfg

	logger  *zap.Logger
	flush   func()
	capture *log.FileLogger
}

func setupFlags(cmd *cobra.Command) error {
	f := cmd.PersistentFlags()
	f.String("config", "", "Path to config file.")
	f.String("hub", fmt.Sprintf("localhost:%d", transport.DefaultPort), "hub address (host:port)")
	f.Duration("request-timeout", 30*time.Second, "timeout of a single request")
	f.String("protocol-log", "", "write a protocol capture (.mplog) to this file")
	f.String("log-level", "warn", "log level: debug, info, warn, error")
	f.String("log-format", logging.FormatConsole, "log format: console, json")
	return viper.BindPFlags(f)
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	if err := config.Load(viper.GetViper(), viper.GetString("config")); err != nil {
		return err
	}

	c.cfg = cfg{
		Hub:            viper.GetString("hub"),
		RequestTimeout: viper.GetDuration("request-timeout"),
		ProtocolLog:    viper.GetString("protocol-log"),
		Logging: logging.Options{
			Level:  viper.GetString("log-level"),
			Format: viper.GetString("log-format"),
		},
	}
	if c.cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	logger, flush, err := logging.Setup(c.cfg.Logging)
	if err != nil {
		return err
	}
	c.logger, c.flush = logger, flush

	if c.cfg.ProtocolLog != "" {
		capture, err := log.NewFileLogger(c.cfg.ProtocolLog)
		if err != nil {
			return fmt.Errorf("protocol log: %w", err)
		}
		c.capture = capture
	}
	return nil
}

// teardown closes the capture and flushes the logger.
func (c *cli) teardown(cmd *cobra.Command, args []string) error {
	var err error
	if c.capture != nil {
		if dropped := c.capture.Dropped(); dropped > 0 {
			c.logger.Warn("protocol log dropped events", zap.Int("dropped", dropped))
		}
		err = c.capture.Close()
		c.capture = nil
	}
	if c.flush != nil {
		c.flush()
		c.flush = nil
	}
	return err
}

// protocolLogger returns the capture or nil.
func (c *cli) protocolLogger() log.Logger {
	if c.capture == nil {
		return nil
	}
	return c.capture
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:                "meshpair",
		Short:              "Interactive meshpair client",
		SilenceUsage:       true,
		PersistentPreRunE:  cli.setupConfig,
		PersistentPostRunE: cli.teardown,
	}
	cmd.AddCommand(cli.flowCommand(), cli.includeCommand(), cli.browseCommand())

	if err := setupFlags(cmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := cmd.Execute(); err != nil {
		_ = cli.teardown(cmd, nil)
		os.Exit(1)
	}
}
