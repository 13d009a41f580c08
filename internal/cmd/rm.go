package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Delete a session",
	Long: `Delete a session from the registry and persisted storage. The machine
itself is not touched; deleting a session only drops the engine's handle.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.loadSessions(); err != nil {
		return err
	}

	sess := eng.registry.Get(args[0])
	if sess == nil {
		fmt.Printf("No session with id %s\n", args[0])
		return nil
	}

	eng.registry.Delete(sess)
	fmt.Printf("Deleted session %s\n", args[0])
	return nil
}
