package cmd

import (
	"fmt"

	"github.com/Digital-Shane/vlc-presence/internal/config"
	"github.com/Digital-Shane/vlc-presence/internal/update"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !config.IsRelease() {
				_, err := fmt.Fprintln(out, "vlc-presence dev (self update disabled)")
				return err
			}
			v, err := update.ParseVersion(config.Version)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "vlc-presence %s\n", v)
			return err
		},
	}
}
