package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type networkSummary struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	ChainID       int64  `json:"chain_id"`
	Signer        string `json:"signer"`
	Confirmations uint64 `json:"confirmations"`
	Default       bool   `json:"default"`
}

func newNetworksCmd(opts *rootOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List configured networks",
		Long: `List the network profiles declared in the config file.

Private keys are never printed; the signer column shows "remote" when the
node signs, or the number of configured keys otherwise.

Examples:
  bullbear networks
  bullbear networks --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			defaultName, _, err := cfg.Network("")
			if err != nil {
				return err
			}

			var summaries []networkSummary
			for _, name := range cfg.NetworkNames() {
				_, n, err := cfg.Network(name)
				if err != nil {
					return err
				}
				signer := "remote"
				if !n.Remote() {
					signer = fmt.Sprintf("%d key(s)", len(n.Accounts))
				}
				summaries = append(summaries, networkSummary{
					Name:          name,
					URL:           n.URL,
					ChainID:       n.ChainID,
					Signer:        signer,
					Confirmations: n.Confirmations,
					Default:       name == defaultName,
				})
			}

			if jsonOut {
				return printJSON(opts.stdout, summaries)
			}

			w := tabwriter.NewWriter(opts.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tURL\tCHAIN ID\tSIGNER\tCONFIRMATIONS")
			for _, s := range summaries {
				name := s.Name
				if s.Default {
					name += " *"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n", name, s.URL, s.ChainID, s.Signer, s.Confirmations)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	return cmd
}
