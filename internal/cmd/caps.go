package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var capsCmd = &cobra.Command{
	Use:   "caps",
	Short: "Show host capabilities",
	Long:  `Probe the host CPU features and hypervisor resource ceilings.`,
	RunE:  runCaps,
}

func init() {
	rootCmd.AddCommand(capsCmd)
}

func runCaps(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.validate(); err != nil {
		return err
	}

	caps, err := eng.hv.Capabilities()
	if err != nil {
		return fmt.Errorf("failed to probe capabilities: %w", err)
	}

	fmt.Printf("CPU vendor:       %s\n", caps.CPU.Vendor)
	fmt.Printf("Family/model:     %d/%d (stepping %d)\n", caps.CPU.Family, caps.CPU.Model, caps.CPU.Stepping)
	fmt.Printf("HW virtualization: %s\n", yesNo(caps.CPU.HasHWVirt))
	fmt.Printf("64-bit guests:    %s\n", yesNo(caps.CPU.Has64Bit))
	fmt.Printf("Max CPUs:         %d\n", caps.MaxCPUs)
	fmt.Printf("Max RAM:          %d MB\n", caps.MaxMemoryMB)
	fmt.Printf("Max disk:         %d MB\n", caps.MaxDiskMB)
	return nil
}
