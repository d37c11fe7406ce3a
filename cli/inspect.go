package cli

import (
	"github.com/absmach/flclient/console"
	"github.com/absmach/flclient/pkg/sdk"
	"github.com/spf13/cobra"
)

const defClientURL = "http://localhost:9090"

type inspectFlags struct {
	clientURL string
	tls       bool
	offset    uint64
	limit     uint64
	noColor   bool
}

// NewInspectCmd returns the commands that read a running client's operator API.
func NewInspectCmd() *cobra.Command {
	f := &inspectFlags{}
	var psdk sdk.SDK

	cmd := &cobra.Command{
		Use:   "inspect [rounds|evaluations|health]",
		Short: "Inspect a running client",
		Long: `Read the round journal, evaluation log and session state of a client
started with --http-addr.

Examples:
  # Client started with --http-addr :9090
  flclient inspect rounds --limit 20

  # Another host
  flclient inspect health -u http://10.0.0.7:9090`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			psdk = sdk.NewSDK(sdk.Config{
				ClientURL:       f.clientURL,
				TLSVerification: f.tls,
			})
		},
	}

	render := func(cmd *cobra.Command, v any) error {
		return console.New(cmd.OutOrStdout(), f.noColor).JSON(v)
	}

	roundsCmd := &cobra.Command{
		Use:   "rounds",
		Short: "List journaled rounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := psdk.ListRounds(cmd.Context(), f.offset, f.limit)
			if err != nil {
				return err
			}

			return render(cmd, page)
		},
	}
	roundsCmd.Flags().Uint64VarP(&f.offset, "offset", "o", 0, "Offset")
	roundsCmd.Flags().Uint64VarP(&f.limit, "limit", "l", 10, "Limit")

	evaluationsCmd := &cobra.Command{
		Use:   "evaluations",
		Short: "Show the evaluation log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := psdk.Evaluations(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, page)
		},
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Show the client state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := psdk.Health(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, h)
		},
	}

	cmd.AddCommand(roundsCmd, evaluationsCmd, healthCmd)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&f.clientURL, "client-url", "u", defClientURL, "Operator API URL of the client")
	flags.BoolVar(&f.tls, "tls-verify", true, "Verify the server TLS certificate")
	flags.BoolVar(&f.noColor, "no-color", false, "Disable colored output")

	return cmd
}
