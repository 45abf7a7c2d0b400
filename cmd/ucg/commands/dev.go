package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ucg-lang/ucg/pkg/build"
	"github.com/ucg-lang/ucg/pkg/convert"
)

func newDevCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Development mode commands",
		Long: `Commands for local development of UCG configuration trees.`,
	}

	cmd.AddCommand(newDevWatchCommand())

	return cmd
}

func newDevWatchCommand() *cobra.Command {
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Rebuild on every change to a UCG file",
		Long: `Watch a directory tree and rebuild all non-test UCG files whenever a
.ucg file is written, created, renamed or removed. Build failures are
reported and watching continues.`,
		Example: `  # Watch the current directory
  ucg dev watch

  # Watch a config tree
  ucg dev watch ./configs`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return internalErr(err)
			}
			defer watcher.Close()

			// Watch every directory under the root; fsnotify does not
			// recurse on its own.
			addTree := func(dir string) error {
				return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
					if err != nil {
						return err
					}
					if d.IsDir() {
						return watcher.Add(path)
					}
					return nil
				})
			}
			if err := addTree(root); err != nil {
				return internalErr(err)
			}

			rebuild := func() {
				conv := convert.Default()
				reg := newBuildRegistry(conv)
				files, err := build.DiscoverFiles([]string{root}, false)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%v\n", err)
					return
				}
				for _, file := range files {
					res, err := reg.Build(file)
					if err != nil {
						fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
						continue
					}
					if res.Out == nil {
						continue
					}
					if err := emit(conv, res, toStdout); err != nil {
						fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
					}
				}
			}

			log.Info().Str("root", root).Msg("Watching for changes")
			rebuild()

			// Editors fire bursts of events per save; debounce them into
			// one rebuild.
			var pending <-chan time.Time
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
						continue
					}
					if event.Op&fsnotify.Create != 0 {
						if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
							if err := addTree(event.Name); err != nil {
								log.Warn().Err(err).Str("dir", event.Name).Msg("Cannot watch new directory")
							}
						}
					}
					if !strings.HasSuffix(event.Name, ".ucg") {
						continue
					}
					log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Change detected")
					pending = time.After(200 * time.Millisecond)
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Warn().Err(err).Msg("Watcher error")
				case <-pending:
					pending = nil
					rebuild()
				}
			}
		},
	}

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write artifacts to stdout instead of files")

	return cmd
}
