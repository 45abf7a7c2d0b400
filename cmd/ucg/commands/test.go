package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ucg-lang/ucg/pkg/build"
	"github.com/ucg-lang/ucg/pkg/convert"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [path...]",
		Short: "Run UCG assertion tests",
		Long: `Evaluate every *_test.ucg file under the given paths (default: the
current directory) together with its transitive imports, run the assert
statements, and print a PASS/FAIL line per file.

The exit code is nonzero if any assert failed or any file could not be
evaluated.`,
		Example: `  # Run all tests under the current directory
  ucg test

  # Run the tests of one directory tree
  ucg test ./configs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := build.DiscoverFiles(args, true)
			if err != nil {
				return internalErr(err)
			}
			if len(files) == 0 {
				fmt.Println("no test files found")
				return nil
			}
			log.Info().Int("files", len(files)).Msg("Running UCG tests")

			reg := newBuildRegistry(convert.Default())
			broken := map[string]error{}
			for _, file := range files {
				if _, err := reg.Build(file); err != nil {
					broken[file] = err
				}
			}

			// Group asserts by the file they ran in; imported files report
			// under their own path.
			byFile := map[string][]build.AssertResult{}
			var order []string
			for _, a := range reg.Asserts() {
				if _, ok := byFile[a.Path]; !ok {
					order = append(order, a.Path)
				}
				byFile[a.Path] = append(byFile[a.Path], a)
			}

			failedFiles := 0
			passed, total := 0, 0
			for _, path := range order {
				asserts := byFile[path]
				fileOK := true
				for _, a := range asserts {
					total++
					if a.OK {
						passed++
					} else {
						fileOK = false
					}
				}
				if fileOK {
					fmt.Printf("PASS %s (%d assert(s))\n", path, len(asserts))
					continue
				}
				failedFiles++
				fmt.Printf("FAIL %s\n", path)
				for i, a := range asserts {
					if !a.OK {
						fmt.Printf("  %d - NOT OK: %s\n", i+1, a.Desc)
					}
				}
			}
			for _, file := range files {
				if err, ok := broken[file]; ok {
					failedFiles++
					fmt.Printf("FAIL %s\n", file)
					fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
				}
			}

			fmt.Printf("%d/%d assert(s) passed across %d file(s)\n", passed, total, len(files))
			if failedFiles > 0 || passed != total {
				return userErr(fmt.Errorf("%d test file(s) failed", failedFiles))
			}
			return nil
		},
	}

	return cmd
}
