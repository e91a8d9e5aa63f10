package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version number",
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "animerec version %s\n", app.opts.Version)
		},
	}
}
