package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ucg-lang/ucg/pkg/convert"
)

func newInspectCommand() *cobra.Command {
	var sym string

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Evaluate a UCG file and print its reduced bindings",
		Long: `Evaluate one UCG file and print the fully reduced value tree in UCG
literal form: the whole binding tuple by default, or a single binding
with --sym.`,
		Example: `  # Print every top-level binding of a file
  ucg inspect app.ucg

  # Print one binding
  ucg inspect --sym server app.ucg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := newBuildRegistry(convert.Default())
			res, err := reg.Build(args[0])
			if err != nil {
				return userErr(err)
			}
			value := res.Bindings
			if sym != "" {
				v, ok := value.AsTuple().Get(sym)
				if !ok {
					return userErr(fmt.Errorf("%s: no binding named %q", args[0], sym))
				}
				value = v
			}
			fmt.Println(value.Literal())
			return nil
		},
	}

	cmd.Flags().StringVar(&sym, "sym", "", "print a single binding by name")

	return cmd
}
