// cmd/felobs/list.go
package felobs

import (
	"github.com/spf13/cobra"
)

// listCmd represents the base 'list' command when called without any subcommands
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Group commands for listing resources",
	Long:  `The 'list' command serves as a parent for subcommands that list various resources like channels and commands.`,
}

func init() {
	rootCmd.AddCommand(listCmd)
}
