package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-befunge-cfg/internal/config"
	"github.com/l3aro/go-befunge-cfg/pkg/optimize"
)

// passesCmd represents the passes command
var passesCmd = &cobra.Command{
	Use:   "passes",
	Short: "List optimizer levels and their passes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		catalog := optimize.New(optimize.Options{}, nil, newLogger(cmd, config.DefaultConfig())).Passes()

		for _, level := range optimize.Levels() {
			var names []string
			for _, p := range catalog {
				if p.RunsAt(level) {
					names = append(names, p.Name)
				}
			}
			fmt.Fprintf(w, "%d %-11s %s\n", int(level), level, strings.Join(names, ", "))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(passesCmd)
}
