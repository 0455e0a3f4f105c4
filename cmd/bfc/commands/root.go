// Package commands provides the CLI commands for the bfc compiler.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-befunge-cfg/internal/config"
	"github.com/l3aro/go-befunge-cfg/internal/log"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "bfc",
	Short: "bfc - Befunge-93 to control flow graph compiler",
	Long: `bfc turns Befunge-93 programs into an optimized control flow graph that
code generators can consume.

Commands:
  compile     Build, optimize and export the graph of one or more programs
  cfg         Export the raw graph of a program without optimizing it
  passes      List the optimizer levels and the passes each one runs
  init        Create a configuration file interactively

Use "bfc [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file path (default: ./.bfc/config.yaml, then ~/.bfc/config.yaml)")
	RootCmd.PersistentFlags().BoolP("verbose", "V", false, "Verbose logging")
}

// loadConfig reads the configuration named by --config, or the layered
// project/environment/global configuration when the flag is empty.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// newLogger builds the logger described by cfg, writing to the command's error stream.
func newLogger(cmd *cobra.Command, cfg *config.Config) log.Logger {
	lc := cfg.LoggerConfig()
	lc.Stderr = cmd.ErrOrStderr()
	return log.New(lc)
}
