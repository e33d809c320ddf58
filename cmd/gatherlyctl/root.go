package main

import (
	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "gatherlyctl",
	Short: "Find when a group of people is free, from their calendar files",
	Long: `gatherlyctl runs the Gatherly availability engine offline, against local iCalendar files.

No server or database is involved: every member is given as a name and an .ics export.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log parsing details")
}
