package cli

import (
	"github.com/absmach/flclient"
	"github.com/spf13/cobra"
)

type startFlags struct {
	config    string
	id        string
	ip        string
	port      uint16
	folder    string
	dataDir   string
	transport string
	storage   string
	httpAddr  string
	logLevel  string
	noColor   bool
}

// NewStartCmd returns the command that joins a federated session.
func NewStartCmd() *cobra.Command {
	return newStartCmd(&startFlags{})
}

func newStartCmd(f *startFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Join a federated training session",
		Long: `Load the client's time series, connect to the aggregation server and
answer its fit and evaluate rounds until the server ends the session.

Examples:
  # Client 1 with its dataset under ./Client_1_RF
  flclient start --id 1

  # Explicit server address and dataset folder
  flclient start --id 2 --ip 10.0.0.5 --port 8080 --folder data/client2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flclient.LoadConfig(f.config)
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			return StartClient(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.config, "config", "c", "", "Path to a TOML config file")
	flags.StringVarP(&f.id, "id", "i", "", "Client ID")
	flags.StringVar(&f.ip, "ip", "0.0.0.0", "Aggregation server IP address")
	flags.Uint16VarP(&f.port, "port", "p", 8080, "Aggregation server port")
	flags.StringVarP(&f.folder, "folder", "f", "", "Dataset folder (default Client_<id>_RF)")
	flags.StringVar(&f.dataDir, "data-dir", "data", "Directory containing the dataset folder")
	flags.StringVarP(&f.transport, "transport", "t", "mqtt", "Transport kind (mqtt or websocket)")
	flags.StringVar(&f.storage, "storage", "memory", "Round journal backend (memory, sqlite or badger)")
	flags.StringVar(&f.httpAddr, "http-addr", "", "Operator API listen address, disabled when empty")
	flags.StringVarP(&f.logLevel, "log-level", "l", "info", "Log level")
	flags.BoolVar(&f.noColor, "no-color", false, "Disable colored console output")

	return cmd
}

// apply copies the flags set on the command line over cfg.
func (f *startFlags) apply(cmd *cobra.Command, cfg *flclient.Config) {
	changed := cmd.Flags().Changed
	if changed("id") {
		cfg.ClientID = f.id
	}
	if changed("ip") {
		cfg.ServerIP = f.ip
	}
	if changed("port") {
		cfg.ServerPort = f.port
	}
	if changed("folder") {
		cfg.Folder = f.folder
	}
	if changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if changed("transport") {
		cfg.Transport.Kind = f.transport
	}
	if changed("storage") {
		cfg.Storage.Type = f.storage
	}
	if changed("http-addr") {
		cfg.HTTPAddr = f.httpAddr
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("no-color") {
		cfg.NoColor = f.noColor
	}
}
