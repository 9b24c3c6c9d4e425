package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Find the server and show what it reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := opts.terminal(cmd)
			if err != nil {
				return err
			}
			base, info, _ := t.Gateway.Server()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "URL\t%s\n", base)
			fmt.Fprintf(w, "OS\t%s\n", info.OS)
			fmt.Fprintf(w, "CWD\t%s\n", info.Cwd)
			if info.Session != "" {
				fmt.Fprintf(w, "SESSION\t%s\n", info.Session)
			}
			return w.Flush()
		},
	}
}
