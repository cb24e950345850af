/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

// runOptions carries the root command flags
type runOptions struct {
	configPath string
	envFile    string
	skipUpdate bool
	vlcAddress string
	interval   time.Duration
	logLevel   string
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "vlc-presence",
		Short: "Show what VLC is playing on Discord",
		Long: `vlc-presence polls VLC's remote control interface, looks the playing title up
on TMDB and mirrors it to your Discord rich presence with artwork and links.

On start it checks GitHub for a newer release and, when one exists, downloads it
and hands over to the new version after asking for consent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default ~/.vlc-presence/config.json)")
	rootCmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "Environment file with API keys")
	rootCmd.Flags().BoolVar(&opts.skipUpdate, "skip-update", false, "Do not check for a newer release")
	rootCmd.Flags().StringVar(&opts.vlcAddress, "vlc", "", "VLC remote control address (host:port)")
	rootCmd.Flags().DurationVar(&opts.interval, "interval", 0, "Delay between polls, e.g. 10s")
	rootCmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(newVersionCmd(), newConfigCmd(opts))
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return newRootCmd().Execute()
}
