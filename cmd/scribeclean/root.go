package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scribeclean",
		Short: "Transcript post-processing: custom vocabulary correction and disfluency filtering",
		Long: `scribeclean cleans up raw speech-to-text output.

Passes:
  vocabulary - replaces likely mis-heard words with entries from a custom
               word list, using edit distance blended with Soundex
  filter     - removes filler words (um, uh, hmm, ...) and collapses
               stutters such as "I I I" into "I"`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newCleanCmd(), newVersionCmd())
	return root
}
