package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "vboxkit",
	Short: "vboxkit - VirtualBox session orchestration",
	Long: `vboxkit drives a locally installed VirtualBox through VBoxManage,
reconciling persisted session state against the hypervisor's live truth.

Check the installation:
  vboxkit status
  vboxkit ready

Work with sessions:
  vboxkit ps
  vboxkit open --name myvm
  vboxkit close <session-id>`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.vboxkit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}
