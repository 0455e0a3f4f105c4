package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/l3aro/go-befunge-cfg/internal/config"
	"github.com/l3aro/go-befunge-cfg/internal/log"
	"github.com/l3aro/go-befunge-cfg/internal/scanner"
	"github.com/l3aro/go-befunge-cfg/pkg/cache"
	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
	"github.com/l3aro/go-befunge-cfg/pkg/grid"
	"github.com/l3aro/go-befunge-cfg/pkg/optimize"
	"github.com/l3aro/go-befunge-cfg/pkg/snapshot"
)

const cacheEntries = 512

// compileCmd represents the compile command
var compileCmd = &cobra.Command{
	Use:   "compile <file|dir>...",
	Short: "Build, optimize and export the graph of Befunge programs",
	Long: `Builds the control flow graph of each program, runs the optimizer up to
the configured level and writes the result as text, JSON or msgpack.

A directory argument stands for every .bf, .b93 and .befunge file below it,
minus those matched by .bfcignore files. With several inputs and --out,
--out names a directory that receives one file per program.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

func runCompile(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyOutputFlags(cmd, conf); err != nil {
		return err
	}
	if cmd.Flags().Changed("level") {
		conf.Level, _ = cmd.Flags().GetString("level")
		if err := conf.Validate(); err != nil {
			return err
		}
	}
	format, err := snapshot.ParseFormat(conf.OutputFormat)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	logger := newLogger(cmd, conf)

	files, err := scanner.New(scanner.DefaultOptions()).Expand(args)
	if err != nil {
		return err
	}
	logger.Debug("inputs expanded", "args", len(args), "files", len(files))
	many := len(files) > 1 || anyDir(args)

	var bar *progressbar.ProgressBar
	if len(files) > 1 && term.IsTerminal(int(os.Stderr.Fd())) {
		bar = progressbar.Default(int64(len(files)), "compiling")
		defer bar.Close()
	}

	store := openCache(conf, logger)
	for _, path := range files {
		snap, err := compileFile(path, conf, store, logger)
		if err != nil {
			return err
		}
		if err := writeSnapshot(cmd, snap, format, path, out, many); err != nil {
			return err
		}
		if bar != nil {
			if err := bar.Add(1); err != nil {
				logger.Debug("progress bar update failed", "error", err)
			}
		}
	}

	if store != nil && store.Dirty() {
		if err := store.SaveFile(conf.CacheFile); err != nil {
			return err
		}
		st := store.Stats()
		logger.Debug("cache saved", "path", conf.CacheFile, "hits", st.Hits, "misses", st.Misses)
	}
	return nil
}

// compileFile runs the whole pipeline on one source file. A non-nil store
// short-circuits programs compiled before with the same settings.
func compileFile(path string, conf *config.Config, store *cache.Cache, logger log.Logger) (*snapshot.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", path, err)
	}
	level := conf.OptimizerLevel()
	opts := conf.OptimizerOptions()

	var key string
	if store != nil {
		key = cache.Key(data, level, opts)
		if snap, ok := store.Get(key); ok {
			logger.Debug("cache hit", "file", path, "level", level)
			return snap, nil
		}
	}

	src, err := grid.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing source %s: %w", path, err)
	}
	g, err := cfg.Build(src, conf.VerifyGraph)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", path, err)
	}

	results, err := optimize.New(opts, nil, logger).Run(g, level)
	if err != nil {
		return nil, fmt.Errorf("optimizing %s: %w", path, err)
	}
	rounds := 0
	for _, r := range results {
		rounds += r.Rounds
	}
	logger.Info("compiled", "file", path, "level", level, "rounds", rounds,
		"vertices", g.Len(), "variables", len(g.Variables()))

	snap, err := snapshot.Take(g)
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", path, err)
	}
	snap.Level = level.String()
	if store != nil {
		store.Put(key, snap)
	}
	return snap, nil
}

// openCache loads the configured snapshot cache, or returns nil when caching is off.
func openCache(conf *config.Config, logger log.Logger) *cache.Cache {
	if conf.CacheFile == "" {
		return nil
	}
	store := cache.New(cache.Options{MaxEntries: cacheEntries})
	if err := store.LoadFile(conf.CacheFile); err != nil {
		logger.Warn("ignoring unreadable cache", "path", conf.CacheFile, "error", err)
		return cache.New(cache.Options{MaxEntries: cacheEntries})
	}
	return store
}

// applyOutputFlags folds the --format flag into the config.
func applyOutputFlags(cmd *cobra.Command, conf *config.Config) error {
	if !cmd.Flags().Changed("format") {
		return nil
	}
	format, _ := cmd.Flags().GetString("format")
	if _, err := snapshot.ParseFormat(format); err != nil {
		return err
	}
	conf.OutputFormat = format
	return nil
}

// writeSnapshot writes snap to stdout, to the file out, or into the directory
// out when several programs are compiled at once.
func writeSnapshot(cmd *cobra.Command, snap *snapshot.Snapshot, format snapshot.Format, src, out string, many bool) error {
	if out == "" {
		w := cmd.OutOrStdout()
		if many && format == snapshot.FormatText {
			fmt.Fprintf(w, "== %s ==\n", src)
		}
		return snapshot.Encode(w, snap, format)
	}

	target := out
	if many {
		if err := os.MkdirAll(out, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", out, err)
		}
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		target = filepath.Join(out, base+extension(format))
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if err := snapshot.Encode(f, snap, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return f.Close()
}

func anyDir(paths []string) bool {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func extension(format snapshot.Format) string {
	switch format {
	case snapshot.FormatJSON:
		return ".json"
	case snapshot.FormatMsgpack:
		return ".msgpack"
	}
	return ".txt"
}

// encodeTo is a convenience for commands that print one snapshot.
func encodeTo(w io.Writer, snap *snapshot.Snapshot, format string) error {
	f, err := snapshot.ParseFormat(format)
	if err != nil {
		return err
	}
	return snapshot.Encode(w, snap, f)
}

func init() {
	compileCmd.Flags().StringP("level", "l", "", "Highest optimizer level (name or number, default from config)")
	compileCmd.Flags().StringP("format", "f", "", "Output format: text, json or msgpack (default from config)")
	compileCmd.Flags().StringP("out", "o", "", "Output file, or directory when compiling several programs")
	RootCmd.AddCommand(compileCmd)
}
