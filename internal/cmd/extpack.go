package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vboxkit/vboxkit/internal/hypervisor"
	"github.com/vboxkit/vboxkit/internal/progress"
)

var extpackCmd = &cobra.Command{
	Use:   "extpack",
	Short: "Manage the extension pack",
}

var extpackInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Download, verify and install the extension pack",
	RunE:  runExtpackInstall,
}

func init() {
	extpackCmd.AddCommand(extpackInstallCmd)
	rootCmd.AddCommand(extpackCmd)
}

func runExtpackInstall(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.validate(); err != nil {
		return err
	}

	pf := progress.NewLogger(slog.Default(), "extpack")
	if err := eng.installer.Install(pf); err != nil {
		if errors.Is(err, hypervisor.ErrAlreadyExists) {
			fmt.Println("Extension pack is already installed.")
			return nil
		}
		return err
	}

	fmt.Println("Extension pack installed.")
	return nil
}
