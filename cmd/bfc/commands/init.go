package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-befunge-cfg/internal/config"
	"github.com/l3aro/go-befunge-cfg/pkg/optimize"
	"github.com/l3aro/go-befunge-cfg/pkg/snapshot"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize bfc configuration interactively",
	Long: `Guides you through setting up bfc configuration step by step.
Creates a config file with the optimizer level, output format and safety settings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Optimizer ===
	levelOptions := make([]huh.Option[string], 0, len(optimize.Levels()))
	for _, l := range optimize.Levels() {
		levelOptions = append(levelOptions, huh.NewOption(fmt.Sprintf("%d - %s", int(l), l), l.String()))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Optimization level").
				Description("The compiler runs every level up to and including this one").
				Options(levelOptions...).
				Value(&cfg.Level),
			huh.NewConfirm().
				Title("Allow self-modifying programs?").
				Description("When enabled, grid cells that hold code stay in memory instead of failing the build").
				Affirmative("Allow").
				Negative("Refuse").
				Value(&cfg.AllowSelfModification),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Output ===
	var useCache bool
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output format").
				Options(
					huh.NewOption("Text", string(snapshot.FormatText)),
					huh.NewOption("JSON", string(snapshot.FormatJSON)),
					huh.NewOption("MessagePack", string(snapshot.FormatMsgpack)),
				).
				Value(&cfg.OutputFormat),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Debug (every pass that fires)", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&cfg.LogLevel),
			huh.NewConfirm().
				Title("Cache compiled programs?").
				Description("Unchanged programs are served from a snapshot cache next to the config file").
				Value(&useCache),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.bfc/config.yaml)", "global"),
					huh.NewOption("Project (./.bfc/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigFilePath()
	}
	if useCache {
		cfg.CacheFile = filepath.Join(filepath.Dir(configPath), "cache.msgpack")
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Level: %s\n", cfg.Level)
	fmt.Printf("Allow self-modification: %v\n", cfg.AllowSelfModification)
	fmt.Printf("Output format: %s\n", cfg.OutputFormat)
	fmt.Printf("Log level: %s\n", cfg.LogLevel)
	if cfg.CacheFile != "" {
		fmt.Printf("Cache file: %s\n", cfg.CacheFile)
	}
	fmt.Println("================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
