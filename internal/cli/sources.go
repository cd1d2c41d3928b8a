package cli

import (
	"github.com/spf13/cobra"
)

// NewSourcesCommand creates the sources command, which lists the source
// names declared in the sources file.
func NewSourcesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "sources",
		Short:         "List configured source names",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(rootOpts)
			if err != nil {
				return err
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Lines(reg.Names())
		},
	}
}
