package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phxls/workspace-index/internal/config"
	"github.com/phxls/workspace-index/internal/workspace"
)

var version = "dev"

var (
	flagRoot    string
	flagVerbose bool
	flagNoSnap  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "phx-index",
	Short:         "Workspace indexing and resolution for Phoenix projects",
	Long:          "phx-index builds an in-memory index of components, schemas, templates and event handlers from a Phoenix workspace, answering the lookup queries an editor needs.",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "workspace root")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoSnap, "no-snapshot", false, "skip the warm-start snapshot")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(queryCmd)
}

// openSession builds a session over --root with flag overrides applied.
func openSession() (*workspace.Session, error) {
	root, err := filepath.Abs(flagRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	cfg := config.Load(root)
	opts := []workspace.Option{workspace.WithConfig(cfg)}
	if flagNoSnap {
		opts = append(opts, workspace.WithoutSnapshot())
	}
	return workspace.New(root, opts...)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Index the workspace once and persist the snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession()
		if err != nil {
			return err
		}
		defer session.Close()
		if err := session.Scan(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("indexed %d components\n", len(session.AllComponents()))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Index the workspace and rescan whenever files change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession()
		if err != nil {
			return err
		}
		defer session.Close()
		if err := session.Scan(cmd.Context()); err != nil {
			return err
		}
		session.Watch(cmd.Context())
		return nil
	},
}
