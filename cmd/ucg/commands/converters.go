package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ucg-lang/ucg/pkg/convert"
)

func newConvertersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "converters",
		Short: "List the registered output converters",
		Long: `List every converter the out statement can target, with the file
extension its artifacts get and a short description.`,
		Example: `  ucg converters`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := convert.Default()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tEXT\tDESCRIPTION")
			for _, name := range reg.Names() {
				c, _ := reg.Lookup(name)
				fmt.Fprintf(w, "%s\t.%s\t%s\n", name, c.FileExt(), c.Description())
			}
			return w.Flush()
		},
	}

	return cmd
}
