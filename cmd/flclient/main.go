package main

import (
	"fmt"
	"os"

	"github.com/absmach/flclient/cli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const pathEnv = ".env"

func main() {
	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	rootCmd := &cobra.Command{
		Use:           "flclient",
		Short:         "Federated anomaly detection client",
		Long:          `flclient trains a local anomaly detection model on one client's time series as part of a federated session.`,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(cli.NewStartCmd(), cli.NewInspectCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
