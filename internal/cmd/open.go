package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	openName   string
	openParams []string
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Check out a session",
	Long: `Check out the session with the given name, creating it if no session
with that name exists. Parameters are key=value pairs attached to the
session.`,
	RunE: runOpen,
}

func init() {
	openCmd.Flags().StringVarP(&openName, "name", "n", "", "session name (required)")
	openCmd.Flags().StringArrayVarP(&openParams, "param", "p", nil, "session parameter key=value (repeatable)")
	_ = openCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.loadSessions(); err != nil {
		return err
	}

	params := map[string]string{"name": openName}
	for _, p := range openParams {
		for i := 0; i < len(p); i++ {
			if p[i] == '=' {
				params[p[:i]] = p[i+1:]
				break
			}
		}
	}

	sess, err := eng.registry.Open(params, nil)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	if err := eng.registry.Persist(sess); err != nil {
		return err
	}

	fmt.Printf("Opened session %s (%s, state %s)\n", sess.InternalID, sess.Name, sess.State)
	return nil
}
