package main

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/modlink/pkg/config"
	"github.com/arthur-debert/modlink/pkg/filesystem"
	"github.com/arthur-debert/modlink/pkg/linker"
	"github.com/arthur-debert/modlink/pkg/resolve"
	"github.com/arthur-debert/modlink/pkg/store"
	"github.com/arthur-debert/modlink/pkg/tree"
)

var (
	summaryStyle = lipgloss.NewStyle().Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

func newLinkCmd() *cobra.Command {
	var (
		force      bool
		global     bool
		projectDir string
	)

	cmd := &cobra.Command{
		Use:   "link <plan.json>",
		Short: "Materialize a fetch plan into node_modules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(projectDir)
			if err != nil {
				return err
			}

			fs := filesystem.NewOS()
			contentStore := store.New(fs, cfg.StoreDir)

			plan, err := store.LoadPlan(fs, contentStore, args[0])
			if err != nil {
				return err
			}

			baseModules := filepath.Join(projectDir, "node_modules")

			nodes, roots, err := tree.Build(plan.Packages, plan.RootIDs, baseModules)
			if err != nil {
				return err
			}

			resolved, warnings, err := resolve.Resolve(nodes, roots)
			if err != nil {
				return err
			}

			opts := linker.Options{
				Force:       force,
				Concurrency: cfg.Concurrency,
			}
			if global {
				opts.BinDir = cfg.GlobalBinDir
			}

			stats, err := linker.New(fs, opts).Link(cmd.Context(), resolved, baseModules)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, w := range warnings {
				fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("warning: %s: peer %s@%s (%s)",
					w.Pkg, w.Peer, w.Range, w.Kind)))
			}
			fmt.Fprintln(out, summaryStyle.Render(fmt.Sprintf(
				"linked %d packages (%d already current) into %s",
				stats.Hardlinked, stats.Skipped, baseModules)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Relink packages even when already current")
	cmd.Flags().BoolVar(&global, "global", false, "Link bins into the global bin directory")
	cmd.Flags().StringVar(&projectDir, "dir", ".", "Project directory to install into")

	return cmd
}
