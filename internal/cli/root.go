package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rubythings/ruport/internal/source"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "csv" | "json"
	Sources string // path to YAML sources file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"csv", "json"}

// DefaultSourcesFile is read when --sources is not given.
const DefaultSourcesFile = "sources.yaml"

// NewRootCommand creates the root command for the ruport CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ruport",
		Short: "Run SQL against named data sources",
		Long:  "Run SQL text or SQL files against data sources declared in a YAML sources file.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "csv", "output format (csv|json)")
	cmd.PersistentFlags().StringVar(&opts.Sources, "sources", DefaultSourcesFile, "path to YAML sources file")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSourcesCommand(opts))

	return cmd
}

// configureLogging installs a stderr text handler, at debug level when verbose.
func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// loadRegistry reads the sources file named by the root options.
func loadRegistry(opts *RootOptions) (*source.Registry, error) {
	reg, err := source.LoadFile(opts.Sources)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load sources", err)
	}
	slog.Debug("sources loaded", "path", opts.Sources, "count", len(reg.Names()))
	return reg, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
