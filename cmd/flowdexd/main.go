package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowgenius/flowdex/internal/cli"
	"github.com/flowgenius/flowdex/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flowdexd",
		Short: "Flowdex daemon",
		Long:  "Flowdex daemon for running the API server and the background index worker",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
