package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vboxkit/vboxkit/internal/progress"
	"github.com/vboxkit/vboxkit/internal/ui"
)

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Prepare the hypervisor for use",
	Long: `Run the full readiness workflow: repair the kernel driver if needed,
load the session registry and install the extension pack.

Driver repair and the extension pack license both require interactive
confirmation; run this from a terminal.`,
	RunE: runReady,
}

func init() {
	rootCmd.AddCommand(readyCmd)
}

func runReady(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.validate(); err != nil {
		return err
	}

	// A nil terminal means no interactive channel; EnsureReady reports
	// the phases that need one.
	var interaction ui.Interaction
	if t := ui.NewTerminal(); t != nil {
		interaction = t
	}

	pf := progress.NewLogger(slog.Default(), "ready")
	if err := eng.hv.EnsureReady(pf, interaction); err != nil {
		return err
	}

	fmt.Println("Hypervisor is ready.")
	return nil
}
