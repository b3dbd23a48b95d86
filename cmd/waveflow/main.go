package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lordsisodia/waveflow/internal/cli"
)

var rootCmd = &cobra.Command{Use: "waveflow"}

func main() {
	rootCmd.PersistentFlags().String("db", "", "Database connection string (optional)")
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
