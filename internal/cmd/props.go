package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var propsCmd = &cobra.Command{
	Use:   "props <machine-id>",
	Short: "Show guest properties of a machine",
	Args:  cobra.ExactArgs(1),
	RunE:  runProps,
}

func init() {
	rootCmd.AddCommand(propsCmd)
}

func runProps(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := eng.validate(); err != nil {
		return err
	}

	props := eng.hv.GetAllProperties(args[0])
	if len(props) == 0 {
		fmt.Println("No guest properties.")
		return nil
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", k, props[k])
	}
	_ = w.Flush()
	return nil
}
