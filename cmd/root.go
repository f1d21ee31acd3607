package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"pohchain/logx"
)

var rootCmd = &cobra.Command{
	Use:   "pohchain",
	Short: "Proof-of-history ledger node CLI",
	Long:  "Command line interface for running and managing a single-node proof-of-history ledger.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
