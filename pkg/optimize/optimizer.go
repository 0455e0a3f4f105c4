// Package optimize drives the rewrite passes over a control-flow graph. Passes
// are grouped into levels; a level is repeated until a full round changes
// nothing or the iteration cap is reached.
package optimize

import (
	"fmt"

	"github.com/l3aro/go-befunge-cfg/internal/log"
	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
)

// DefaultMaxIterations bounds the rounds of a single level.
const DefaultMaxIterations = 50000

// Options controls pass behavior.
type Options struct {
	// MaxIterations caps the rounds per level. Zero means DefaultMaxIterations.
	MaxIterations int
	// AllowSelfModification skips memory promotion of cells that hold code
	// instead of failing.
	AllowSelfModification bool
}

// LevelResult summarizes one driven level.
type LevelResult struct {
	Level     Level
	Rounds    int
	Changed   bool
	CapHit    bool
	Vertices  int
	Variables int
}

// Optimizer runs a pass catalog over graphs.
type Optimizer struct {
	opts   Options
	passes []Pass
	logger log.Logger
}

// New creates an optimizer. A nil catalog uses DefaultCatalog and a nil
// logger uses the process-wide default.
func New(opts Options, passes []Pass, logger log.Logger) *Optimizer {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if passes == nil {
		passes = DefaultCatalog()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Optimizer{opts: opts, passes: passes, logger: logger}
}

// Passes returns the catalog in execution order.
func (o *Optimizer) Passes() []Pass { return o.passes }

// Optimize runs one round of level: every pass tagged for it is applied once,
// in catalog order. It reports whether any pass changed the graph.
func (o *Optimizer) Optimize(g *cfg.Graph, level Level) (bool, error) {
	return o.round(g, level, 1)
}

func (o *Optimizer) round(g *cfg.Graph, level Level, n int) (bool, error) {
	changed := false
	for _, p := range o.passes {
		if !p.RunsAt(level) {
			continue
		}
		fired, err := p.Apply(g, o.opts)
		if err != nil {
			return changed, fmt.Errorf("pass %s: %w", p.Name, err)
		}
		if fired {
			o.logger.Debug("pass fired", "pass", p.Name, "level", level, "round", n)
			changed = true
		}
	}
	return changed, nil
}

// RunLevel repeats rounds of level until one changes nothing or the
// iteration cap is reached.
func (o *Optimizer) RunLevel(g *cfg.Graph, level Level) (LevelResult, error) {
	res := LevelResult{Level: level}
	for {
		if res.Rounds >= o.opts.MaxIterations {
			res.CapHit = true
			o.logger.Warn("iteration cap reached", "level", level, "rounds", res.Rounds)
			break
		}
		res.Rounds++
		changed, err := o.round(g, level, res.Rounds)
		if err != nil {
			return res, fmt.Errorf("level %s: %w", level, err)
		}
		if !changed {
			break
		}
		res.Changed = true
	}
	res.Vertices = g.Len()
	res.Variables = len(g.Variables())
	o.logger.Info("level done", "level", level, "rounds", res.Rounds,
		"vertices", res.Vertices, "variables", res.Variables)
	return res, nil
}

// Run drives every level up to and including maxLevel, in order.
func (o *Optimizer) Run(g *cfg.Graph, maxLevel Level) ([]LevelResult, error) {
	var results []LevelResult
	for _, l := range Levels() {
		if l > maxLevel {
			break
		}
		res, err := o.RunLevel(g, l)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
