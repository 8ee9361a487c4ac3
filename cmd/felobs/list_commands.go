// cmd/felobs/list_commands.go
package felobs

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// commandInfo holds the full invocation path and description of a command.
type commandInfo struct {
	path        string
	description string
}

// commandsCmd represents the 'list commands' subcommand.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Lists all available commands and subcommands",
	Long:  `Recursively walks the command tree and prints each command alongside its description.`,
	Run: func(cmd *cobra.Command, args []string) {
		listAllCommands(cmd.OutOrStdout(), rootCmd)
	},
}

// collectCommandData recursively gathers the invocation path and description
// of every command in the tree rooted at cmd.
func collectCommandData(cmd *cobra.Command, prefix string) []commandInfo {
	path := strings.TrimSpace(prefix + " " + cmd.Name())
	infos := []commandInfo{{path: path, description: cmd.Short}}
	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() || sub.IsAdditionalHelpTopicCommand() {
			continue
		}
		infos = append(infos, collectCommandData(sub, path)...)
	}
	return infos
}

// listAllCommands prints every command and subcommand under root in two
// aligned columns.
func listAllCommands(w io.Writer, root *cobra.Command) {
	infos := collectCommandData(root, "")
	sort.Slice(infos, func(i, j int) bool { return infos[i].path < infos[j].path })

	maxLen := 0
	for _, info := range infos {
		if len(info.path) > maxLen {
			maxLen = len(info.path)
		}
	}

	fmt.Fprintln(w, "Commands and Subcommands:")
	fmt.Fprintln(w)
	for _, info := range infos {
		fmt.Fprintf(w, "  %-*s  %s\n", maxLen, info.path, info.description)
	}
}

func init() {
	listCmd.AddCommand(commandsCmd)
}
