package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
	"github.com/l3aro/go-befunge-cfg/pkg/grid"
	"github.com/l3aro/go-befunge-cfg/pkg/snapshot"
)

// cfgCmd represents the cfg command
var cfgCmd = &cobra.Command{
	Use:   "cfg <file>",
	Short: "Export the raw control flow graph of a program",
	Long: `Builds the control flow graph of a Befunge program and prints it without
running any optimization. Every vertex stands for one grid cell entered from
one direction.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]

		info, err := os.Stat(filePath)
		if err != nil {
			return fmt.Errorf("stat file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("path is a directory, expected a file: %s", filePath)
		}

		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applyOutputFlags(cmd, conf); err != nil {
			return err
		}

		src, err := grid.Load(filePath)
		if err != nil {
			return err
		}
		g, err := cfg.Build(src, conf.VerifyGraph)
		if err != nil {
			return fmt.Errorf("building graph: %w", err)
		}

		snap, err := snapshot.Take(g)
		if err != nil {
			return fmt.Errorf("exporting graph: %w", err)
		}
		return encodeTo(cmd.OutOrStdout(), snap, conf.OutputFormat)
	},
}

func init() {
	cfgCmd.Flags().StringP("format", "f", "", "Output format: text, json or msgpack (default from config)")
	RootCmd.AddCommand(cfgCmd)
}
