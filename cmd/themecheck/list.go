package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newListCmd(global *globalOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the theme files in the theme directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := global.setup(dir)
			if err != nil {
				return err
			}
			defer tk.logger.Sync()

			files, err := tk.loader.Scan(cmd.Context(), tk.cfg.Themes.Directory)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No themes in %s\n", tk.cfg.Themes.Directory)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED\tCHECKSUM")
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					f.Name, humanize.Bytes(uint64(f.Size)), humanize.Time(f.Modified), f.Checksum[:12])
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "theme directory (overrides config)")
	return cmd
}
