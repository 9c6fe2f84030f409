package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ConfigCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"conf"},
	Short:   "Print the resolved config",
	Long:    ``,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(tmpConfig)
	},
}
