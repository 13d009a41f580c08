package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the hypervisor installation",
	Long:  `Validate the VBoxManage installation and report its version and state.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.validate(); err != nil {
		return err
	}

	fmt.Printf("Version:          %s\n", eng.hv.Version().Raw)
	fmt.Printf("Kernel driver:    %s\n", yesNo(eng.hv.DriverLoaded()))
	fmt.Printf("Extension pack:   %s\n", yesNo(eng.hv.HasExtPack()))
	if iso := eng.hv.GuestAdditionsPath(); iso != "" {
		fmt.Printf("Guest additions:  %s\n", iso)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
