// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/forkbombeu/emuctl/internal/android"
	"github.com/forkbombeu/emuctl/internal/cmdrunner"
	"github.com/forkbombeu/emuctl/internal/config"
	"github.com/forkbombeu/emuctl/internal/device"
	"github.com/forkbombeu/emuctl/internal/ios"
	"github.com/forkbombeu/emuctl/internal/store"
	"github.com/forkbombeu/emuctl/internal/telemetry"
	"github.com/forkbombeu/emuctl/internal/ui"
)

func main() {
	var (
		configPath string
		verbose    bool

		cfg        *config.Config
		st         *store.Store
		iosSvc     *ios.Service
		androidSvc *android.Service
		shutdown   func(context.Context) error
	)

	root := &cobra.Command{
		Use:   "emuctl",
		Short: "Discover and control iOS simulators and Android emulators",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			cfg.CorrelationID = telemetry.NewCorrelationID()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			telemetry.InstallLogger(os.Stderr, level, cfg.SuppressLogs)

			if cfg.OTLPEndpoint != "" {
				shutdown, err = telemetry.SetupTracing(cmd.Context(), cfg.OTLPEndpoint)
				if err != nil {
					return fmt.Errorf("tracing setup: %w", err)
				}
			}

			run := cmdrunner.New(time.Duration(cfg.CommandTimeout))
			iosSvc = ios.New(cfg, run)
			androidSvc = android.New(cfg, run)
			st = store.New(cfg.CorrelationID, iosSvc, androidSvc)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if shutdown == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return shutdown(ctx)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/emuctl/config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	// list
	var listJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List simulators and emulators across both platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			st.Refresh(cmd.Context())
			rows := st.Snapshot()
			if listJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			if len(rows) == 0 {
				fmt.Println("(no devices)")
				return nil
			}
			for _, r := range rows {
				printRow(r)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output JSON")
	root.AddCommand(listCmd)

	// status
	statusCmd := &cobra.Command{
		Use:   "status ID",
		Short: "Show one device by reconciled id (android:<avd> or ios:<udid>)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st.Refresh(cmd.Context())
			for _, r := range st.Snapshot() {
				if r.ID == args[0] && r.Kind == device.KindDevice {
					fmt.Printf("Name:     %s\nPlatform: %s\nState:    %s\n", r.DisplayName, r.Platform, r.State)
					if r.Category != "" {
						fmt.Printf("Category: %s\n", r.Category)
					}
					if r.OSVersion != "" {
						fmt.Printf("OS:       %s\n", r.OSVersion)
					}
					return nil
				}
			}
			return fmt.Errorf("unknown device id %q", args[0])
		},
	}
	root.AddCommand(statusCmd)

	// start
	startCmd := &cobra.Command{
		Use:   "start ID",
		Short: "Boot a simulator or emulator by reconciled id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st.Refresh(cmd.Context())
			if err := st.Start(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Started %s\n", args[0])
			return nil
		},
	}
	root.AddCommand(startCmd)

	// stop
	stopCmd := &cobra.Command{
		Use:   "stop ID",
		Short: "Shut a simulator or emulator down by reconciled id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st.Refresh(cmd.Context())
			if err := st.Stop(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Stopped %s\n", args[0])
			return nil
		},
	}
	root.AddCommand(stopCmd)

	// doctor
	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report platform tool availability and resolved paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("xcrun:    %s\n", cfg.XcrunPath())
			fmt.Printf("emulator: %s\n", cfg.EmulatorPath())
			fmt.Printf("adb:      %s\n", cfg.ADBPath())
			if sdkRoot := cfg.ResolvedSDKRoot(); sdkRoot != "" {
				fmt.Printf("sdk root: %s\n", sdkRoot)
			} else {
				fmt.Println("sdk root: (not found)")
			}
			fmt.Println()
			printAvailability(cmd.Context(), "iOS simulators", iosSvc.Available)
			printAvailability(cmd.Context(), "Android emulators", androidSvc.Available)
			return nil
		},
	}
	root.AddCommand(doctorCmd)

	// watch
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Live device dashboard with start/stop controls",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ui.Run(st, time.Duration(cfg.PollInterval))
		},
	}
	root.AddCommand(watchCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printRow(r device.Record) {
	switch r.Kind {
	case device.KindWarning:
		fmt.Printf("! %s\n", r.DisplayName)
	case device.KindError:
		fmt.Printf("x %s\n", r.Detail)
	default:
		extra := string(r.Category)
		if r.OSVersion != "" {
			extra += " " + r.OSVersion
		}
		fmt.Printf("%-30s %-8s %-9s %s\n", r.DisplayName, r.Platform, r.State, extra)
	}
}

func printAvailability(ctx context.Context, label string, probe func(context.Context) bool) {
	if probe(ctx) {
		fmt.Printf("%-18s available\n", label)
	} else {
		fmt.Printf("%-18s unavailable\n", label)
	}
}
