package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var closeCmd = &cobra.Command{
	Use:   "close <session-id>",
	Short: "Release a session checkout",
	Long: `Release one checkout of a session. The last release tears the session
down; a session whose machine is gone is deleted entirely.`,
	Args: cobra.ExactArgs(1),
	RunE: runClose,
}

func init() {
	rootCmd.AddCommand(closeCmd)
}

func runClose(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.loadSessions(); err != nil {
		return err
	}

	sess := eng.registry.Get(args[0])
	if sess == nil {
		return fmt.Errorf("no session with id %s", args[0])
	}

	eng.registry.Close(sess)
	fmt.Printf("Closed session %s\n", args[0])
	return nil
}
