package cli

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bullbear/contracts/internal/artifacts"
	"github.com/bullbear/contracts/internal/deployer"
	"github.com/bullbear/contracts/internal/scripts"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var network string

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a deployment script against a network",
		Long: `Connect to a configured network and run a script once.

The network is taken from --network, or from default_network in the config
file when the flag is omitted. The script prints its result on stdout; logs
go to stderr. Any failure is logged and the command exits with status 1.
Nothing is retried.

Available scripts:
  deploy   deploy BullBear and print its address

Examples:
  # Deploy to the default network
  bullbear run deploy

  # Deploy to a named network with JSON logs
  bullbear run deploy --network sepolia --log-format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, opts, args[0], network)
		},
	}

	cmd.Flags().StringVarP(&network, "network", "n", "", "network to run against (default: default_network from config)")
	return cmd
}

func runScript(cmd *cobra.Command, opts *rootOptions, name, network string) error {
	logger, err := opts.newLogger()
	if err != nil {
		return err
	}
	logger = logger.With(slog.String("run_id", uuid.NewString()))

	fail := func(msg string, err error) error {
		logger.Error(msg, slog.String("error", err.Error()))
		return &exitError{code: scripts.ExitFailure}
	}

	if _, err := scripts.Lookup(name); err != nil {
		return fail("script failed", err)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return fail("script failed", err)
	}

	networkName, networkCfg, err := cfg.Network(network)
	if err != nil {
		return fail("script failed", err)
	}
	logger = logger.With(slog.String("network", networkName))

	ctx := cmd.Context()
	store := artifacts.NewStore(cfg.ArtifactsDir())

	rt, err := deployer.Connect(ctx, networkName, networkCfg, store, logger)
	if err != nil {
		return fail("script failed", err)
	}
	defer rt.Close()

	if code := scripts.Run(ctx, name, scripts.NewEnvironment(rt), opts.stdout, logger); code != scripts.ExitSuccess {
		return &exitError{code: code}
	}
	return nil
}
