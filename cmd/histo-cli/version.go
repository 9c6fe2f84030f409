package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeffrom/greedyhisto/internal"
)

var VersionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Print version and exit",
	Long:    ``,
	Run: func(cmd *cobra.Command, args []string) {
		internal.Debugf(tmpConfig, "%+v", tmpConfig)
		fmt.Printf("version: %s, released: %s, commit: %s\n",
			ReleaseVersion, ReleaseDate, ReleaseCommit)
	},
}
