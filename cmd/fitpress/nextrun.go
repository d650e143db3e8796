package main

import (
	"fmt"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/spf13/cobra"

	"github.com/eringen/fitpress/generation"
)

var (
	nextRunFrequency string
	nextRunNow       string
)

var nextRunCMD = &cobra.Command{
	Use:   "next-run",
	Short: "print when a schedule would next generate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		if nextRunNow != "" {
			var err error
			if now, err = time.Parse(time.RFC3339, nextRunNow); err != nil {
				return errors.Wrap(err, "parse --now")
			}
		}
		freq := generation.Frequency(nextRunFrequency)
		switch freq {
		case generation.Daily, generation.Weekly, generation.Custom:
		default:
			return errors.Errorf("unknown frequency %q", nextRunFrequency)
		}
		fmt.Fprintln(cmd.OutOrStdout(), generation.NextGenerationTime(freq, now).Format(time.RFC3339))
		return nil
	},
}

var versionCMD = &cobra.Command{
	Use:   "version",
	Short: "print the fitpress version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fitpress %s\n", version)
	},
}

func init() {
	nextRunCMD.Flags().StringVar(&nextRunFrequency, "frequency", string(generation.Daily), "daily, weekly or custom")
	nextRunCMD.Flags().StringVar(&nextRunNow, "now", "", "reference time (RFC 3339), default current time")
	rootCMD.AddCommand(nextRunCMD, versionCMD)
}
