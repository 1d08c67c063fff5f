package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func newCompilersCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "compilers",
		Short: "Print the configured compiler versions",
		Long: `Print solidity.compilers from the config file, in declaration order.

Build tooling consumes this list to decide which solc versions to install
and compile with. Versions are printed exactly as declared.

Examples:
  bullbear compilers
  # 0.8.4
  # 0.7.0

  bullbear compilers --output json
  # ["0.8.4", "0.7.0"]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			versions := cfg.CompilerVersions()

			switch strings.ToLower(output) {
			case outputJSON:
				return printJSON(opts.stdout, versions)
			case outputYAML:
				return printYAML(opts.stdout, versions)
			case outputText:
				for _, v := range versions {
					fmt.Fprintln(opts.stdout, v)
				}
				return nil
			default:
				return fmt.Errorf("invalid --output %q: must be text, json or yaml", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text, json, yaml)")
	return cmd
}
