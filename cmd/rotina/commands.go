package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rotinabot/rotina/internal/assistant"
	"github.com/rotinabot/rotina/internal/config"
	"github.com/rotinabot/rotina/internal/console"
	"github.com/rotinabot/rotina/internal/digest"
	"github.com/rotinabot/rotina/internal/gateway"
	"github.com/rotinabot/rotina/internal/logging"
	"github.com/rotinabot/rotina/internal/msglog"
	"github.com/rotinabot/rotina/internal/store"
	"github.com/rotinabot/rotina/internal/whatsapp"
)

// loadConfig resolves the --config flag and loads the configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildMessenger assembles the outbound delivery chain: Cloud API client or
// simulator, wrapped so every send lands in the delivery log.
func buildMessenger(cfg *config.Config, deliveries *msglog.Store) whatsapp.Messenger {
	var base whatsapp.Messenger
	if cfg.WhatsApp.Simulate {
		base = whatsapp.NewSimulator(nil)
	} else {
		base = whatsapp.NewClient(cfg.WhatsApp)
	}
	return msglog.NewRecorder(base, deliveries, cfg.WhatsApp.Simulate)
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the webhook gateway and digest scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := logging.Init(cfg.Logging); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}

			st, err := store.NewStore(cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer func() { _ = st.Close() }()

			deliveries, err := msglog.NewFromPath(filepath.Join(cfg.Storage.Path, "deliveries.db"))
			if err != nil {
				return fmt.Errorf("failed to open delivery log: %w", err)
			}
			defer func() { _ = deliveries.Close() }()

			messenger := buildMessenger(cfg, deliveries)
			a := assistant.New(st)

			server := gateway.NewServer(cfg.Gateway, a, messenger, deliveries, cfg.WhatsApp.VerifyToken)

			scheduler := digest.NewScheduler(st, messenger, &digest.Config{
				Enabled:  cfg.Digest.Enabled,
				Schedule: cfg.Digest.Schedule,
				Timezone: cfg.Digest.Timezone,
			})

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := scheduler.Start(ctx); err != nil {
				return fmt.Errorf("failed to start digest scheduler: %w", err)
			}
			defer scheduler.Stop()

			if cfg.WhatsApp.Simulate {
				fmt.Println("Running in simulate mode: outbound messages are logged, not delivered.")
			}
			fmt.Printf("Gateway listening on %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)

			return server.Start(ctx)
		},
	}
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// The TUI owns the terminal; logs would corrupt the display.
			logging.Suppress()

			st, err := store.NewStore(cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer func() { _ = st.Close() }()

			return console.Run(assistant.New(st))
		},
	}
}

func newDigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Send the morning digest now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := logging.Init(cfg.Logging); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}

			st, err := store.NewStore(cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer func() { _ = st.Close() }()

			deliveries, err := msglog.NewFromPath(filepath.Join(cfg.Storage.Path, "deliveries.db"))
			if err != nil {
				return fmt.Errorf("failed to open delivery log: %w", err)
			}
			defer func() { _ = deliveries.Close() }()

			scheduler := digest.NewScheduler(st, buildMessenger(cfg, deliveries), &digest.Config{
				Enabled:  true,
				Schedule: cfg.Digest.Schedule,
				Timezone: cfg.Digest.Timezone,
			})

			results, err := scheduler.RunNow(cmd.Context())
			if err != nil {
				return err
			}

			sent := 0
			for _, result := range results {
				if result.Error != nil {
					fmt.Printf("failed for %s: %v\n", result.ChannelID, result.Error)
					continue
				}
				if result.Sent {
					sent++
				}
			}
			fmt.Printf("Digest sent to %d of %d opted-in users.\n", sent, len(results))
			return nil
		},
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultConfigPath()
			}

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s", path)
			}

			if err := config.Save(config.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Printf("Wrote default config to %s\n", path)
			fmt.Println("Edit it to add your WhatsApp credentials, or keep simulate mode for local use.")
			return nil
		},
	}
}
