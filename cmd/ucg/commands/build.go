package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ucg-lang/ucg/pkg/build"
	"github.com/ucg-lang/ucg/pkg/convert"
	"github.com/ucg-lang/ucg/pkg/telemetry"
)

func newBuildCommand() *cobra.Command {
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "build [path...]",
		Short: "Build UCG files and emit their out artifacts",
		Long: `Build every non-test UCG file under the given paths (default: the
current directory) and emit each file's out artifact.

Artifacts are written next to their source file with the converter's
extension, so app.ucg with "out json ..." produces app.json.`,
		Example: `  # Build all .ucg files under the current directory
  ucg build

  # Build one file and print the artifact to stdout
  ucg build --stdout app.ucg

  # Build with an extra import root
  ucg build -I ./lib ./configs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := build.DiscoverFiles(args, false)
			if err != nil {
				return internalErr(err)
			}
			log.Info().Int("files", len(files)).Msg("Building UCG files")

			conv := convert.Default()
			reg := newBuildRegistry(conv)
			failed := false
			for _, file := range files {
				res, err := reg.Build(file)
				if err != nil {
					failed = true
					fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
					continue
				}
				if res.Out == nil {
					continue
				}
				if err := emit(conv, res, toStdout); err != nil {
					failed = true
					fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
				}
			}
			if failed {
				return userErr(fmt.Errorf("build failed"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write artifacts to stdout instead of files")

	return cmd
}

// newBuildRegistry wires the shared source registry from the global flags.
func newBuildRegistry(conv *convert.Registry) *build.Registry {
	logger, err := telemetry.NewLogger(telemetry.LoggingConfig{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		logger = telemetry.Nop()
	}
	return build.NewRegistry(
		build.WithImportRoots(importRoots),
		build.WithStrictEnv(strictEnv),
		build.WithConverterCheck(conv.Has),
		build.WithLogger(logger),
	)
}

// emit renders one root's artifact through its converter.
func emit(conv *convert.Registry, res *build.Result, toStdout bool) error {
	c, ok := conv.Lookup(res.Out.Converter)
	if !ok {
		return fmt.Errorf("unknown converter %q", res.Out.Converter)
	}
	if toStdout {
		return c.Convert(res.Out.Value, os.Stdout)
	}
	target := strings.TrimSuffix(res.Path, ".ucg") + "." + c.FileExt()
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if err := c.Convert(res.Out.Value, f); err != nil {
		f.Close()
		return err
	}
	log.Info().Str("artifact", target).Str("converter", res.Out.Converter).Msg("Artifact written")
	return f.Close()
}
