package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fauxterm/internal/client"
)

func newExecCmd(opts *rootOptions) *cobra.Command {
	var silent bool
	cmd := &cobra.Command{
		Use:   "exec <command>...",
		Short: "Run commands and print their output",
		Example: `  fauxctl exec ls -la
  fauxctl exec "cd /tmp; pwd"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.terminal(cmd)
			if err != nil {
				return err
			}
			b, err := t.Queue.SubmitLine(strings.Join(args, " "), !silent)
			if err != nil {
				return err
			}
			outs, err := b.Wait(cmd.Context())
			if !silent {
				printOutcomes(cmd.OutOrStdout(), outs)
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				return &ExitCodeError{Code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&silent, "silent", "s", false, "run without printing output")
	// everything after the first word belongs to the command
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func printOutcomes(w io.Writer, outs []client.Outcome) {
	for _, o := range outs {
		if o.Output == "" {
			continue
		}
		fmt.Fprint(w, o.Output)
		if !strings.HasSuffix(o.Output, "\n") {
			fmt.Fprintln(w)
		}
	}
}
