package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List managed sessions",
	Long:  `Reconcile the session registry against the hypervisor and list every session.`,
	RunE:  runPs,
}

func init() {
	rootCmd.AddCommand(psCmd)
}

func runPs(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.loadSessions(); err != nil {
		return err
	}

	sessions := eng.registry.Sessions()
	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return nil
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Name < sessions[j].Name
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tMACHINE\tSTATE")
	_, _ = fmt.Fprintln(w, "--\t----\t-------\t-----")
	for _, sess := range sessions {
		machine := sess.ExternalID
		if machine == "" {
			machine = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sess.InternalID, sess.Name, machine, sess.State)
	}
	_ = w.Flush()
	return nil
}
