// Command meshpair-hub serves a simulated hub: configuration flows and
// per-entry inclusion controllers described by a scenario file.
//
// Usage:
//
//	meshpair-hub [flags]
//
// Examples:
//
//	# Serve the built-in scenario on the default port
//	meshpair-hub
//
//	# Serve a scenario file without mDNS, capturing the protocol
//	meshpair-hub --scenario lab.yaml --no-mdns --protocol-log hub.mplog
//
// Every flag can also be set in the --config file or through a MESHPAIR_
// environment variable (MESHPAIR_LISTEN, MESHPAIR_LOG_LEVEL, ...).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/meshpair/meshpair-go/internal/config"
	"github.com/meshpair/meshpair-go/internal/logging"
	"github.com/meshpair/meshpair-go/pkg/discovery"
	"github.com/meshpair/meshpair-go/pkg/log"
	"github.com/meshpair/meshpair-go/pkg/service"
)

type cfg struct {
	service.Config
	Scenario    string
	NoMDNS      bool
	Interface   string
	ProtocolLog string
	Logging     logging.Options
}

type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	defaults := service.DefaultConfig()

	cmd.Flags().String("config", "", "Path to config file.")
	cmd.Flags().String("listen", defaults.ListenAddress, "address to accept client connections on")
	cmd.Flags().String("scenario", "", "scenario file (YAML); empty serves the built-in scenario")
	cmd.Flags().String("hub-id", "", "hub id announced in discovery")
	cmd.Flags().String("name", "", "hub name announced in discovery")
	cmd.Flags().Bool("no-mdns", false, "don't advertise the hub over mDNS")
	cmd.Flags().String("interface", "", "network interface to advertise on")
	cmd.Flags().Duration("flow-idle-timeout", defaults.FlowIdleTimeout, "drop flows untouched for this long")
	cmd.Flags().String("protocol-log", "", "write a protocol capture (.mplog) to this file")
	cmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")
	cmd.Flags().String("log-format", logging.FormatConsole, "log format: console, json")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	if err := config.Load(viper.GetViper(), viper.GetString("config")); err != nil {
		return err
	}

	c.cfg.Config = service.DefaultConfig()
	c.cfg.ListenAddress = viper.GetString("listen")
	c.cfg.HubID = viper.GetString("hub-id")
	c.cfg.HubName = viper.GetString("name")
	c.cfg.FlowIdleTimeout = viper.GetDuration("flow-idle-timeout")
	c.cfg.Scenario = viper.GetString("scenario")
	c.cfg.NoMDNS = viper.GetBool("no-mdns")
	c.cfg.Interface = viper.GetString("interface")
	c.cfg.ProtocolLog = viper.GetString("protocol-log")
	c.cfg.Logging = logging.Options{
		Level:  viper.GetString("log-level"),
		Format: viper.GetString("log-format"),
	}
	return c.cfg.Config.Validate()
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	logger, flush, err := logging.Setup(c.cfg.Logging)
	if err != nil {
		return err
	}
	defer flush()

	scenario := service.DefaultScenario()
	if c.cfg.Scenario != "" {
		if scenario, err = service.LoadScenario(c.cfg.Scenario); err != nil {
			return err
		}
	}

	svcConfig := c.cfg.Config
	svcConfig.Logger = logger

	if c.cfg.ProtocolLog != "" {
		capture, err := log.NewFileLogger(c.cfg.ProtocolLog)
		if err != nil {
			return fmt.Errorf("protocol log: %w", err)
		}
		defer func() {
			if dropped := capture.Dropped(); dropped > 0 {
				logger.Warn("protocol log dropped events", zap.Int("dropped", dropped))
			}
			if err := capture.Close(); err != nil {
				logger.Error("failed to close protocol log", zap.Error(err))
			}
		}()
		svcConfig.ProtocolLogger = capture
	}

	if !c.cfg.NoMDNS {
		adv, err := discovery.NewAdvertiser(discovery.AdvertiserConfig{Interface: c.cfg.Interface})
		if err != nil {
			return err
		}
		svcConfig.Advertiser = adv
	}

	hub, err := service.NewHub(scenario, svcConfig)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := hub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start hub: %w", err)
	}
	logger.Info("hub running",
		zap.String("id", hub.ID()),
		zap.String("addr", hub.Addr().String()),
		zap.Strings("features", hub.Features()),
		zap.Int("flows", len(scenario.Flows)),
		zap.Int("entries", len(scenario.Entries)))

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	logger.Info("shutting down", zap.Stringer("signal", sig))

	done := make(chan error, 1)
	go func() { done <- hub.Stop() }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("hub did not stop in time")
	}
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:           "meshpair-hub",
		Short:         "Serve a simulated meshpair hub",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		PreRunE:       cli.setupConfig,
		RunE:          cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
