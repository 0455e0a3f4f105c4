package optimize

import (
	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
	"github.com/l3aro/go-befunge-cfg/pkg/rewrite"
)

// Pass is one named graph transformation. Apply performs at most one rewrite
// and reports whether the graph changed.
type Pass struct {
	Name string
	// From and To bound the levels the pass runs in, inclusive.
	From, To Level
	Apply    func(g *cfg.Graph, opts Options) (bool, error)
}

// RunsAt reports whether the pass participates in level l.
func (p Pass) RunsAt(l Level) bool {
	return p.From <= l && l <= p.To
}

// DefaultCatalog returns the standard passes in execution order.
func DefaultCatalog() []Pass {
	return []Pass{
		{Name: "nop-merge-forward", From: LevelMinimize, To: LevelNopify, Apply: rulePass(nopMergeForward)},
		{Name: "nop-merge-backward", From: LevelMinimize, To: LevelNopify, Apply: rulePass(nopMergeBackward)},
		{Name: "nop-decision-target", From: LevelMinimize, To: LevelNopify, Apply: nopDecisionTarget},
		{Name: "decision-same-branches", From: LevelMinimize, To: LevelNopify, Apply: decisionSameBranches},

		{Name: "fold-binary", From: LevelSubstitute, To: LevelNopify, Apply: rulePass(foldBinary)},
		{Name: "fold-not", From: LevelSubstitute, To: LevelNopify, Apply: rulePass(foldNot)},
		{Name: "push-swap", From: LevelSubstitute, To: LevelNopify, Apply: rulePass(pushSwap)},
		{Name: "push-dup", From: LevelSubstitute, To: LevelNopify, Apply: rulePass(pushDup)},
		{Name: "push-pop", From: LevelSubstitute, To: LevelNopify, Apply: rulePass(pushPop)},
		{Name: "swap-swap", From: LevelSubstitute, To: LevelNopify, Apply: rulePass(swapSwap)},
		{Name: "dup-pop", From: LevelSubstitute, To: LevelNopify, Apply: rulePass(dupPop)},
		{Name: "fold-decision", From: LevelSubstitute, To: LevelNopify, Apply: rulePass(foldDecision)},
		{Name: "fold-output", From: LevelSubstitute, To: LevelNopify, Apply: rulePass(foldOutput)},

		{Name: "flatten-get", From: LevelFlatten, To: LevelNopify, Apply: rulePass(flattenGet)},
		{Name: "flatten-set", From: LevelFlatten, To: LevelNopify, Apply: rulePass(flattenSet)},
		{Name: "flatten-set-value", From: LevelFlatten, To: LevelNopify, Apply: rulePass(flattenSetValue)},
		{Name: "merge-output-string", From: LevelFlatten, To: LevelNopify, Apply: rulePass(mergeOutputString)},

		{Name: "prune-decisions", From: LevelVariablize, To: LevelReduce, Apply: pruneDecisions},
		{Name: "promote-constant-memory", From: LevelVariablize, To: LevelNopify, Apply: promoteConstantMemory},
		{Name: "fold-var-pop-set", From: LevelVariablize, To: LevelNopify, Apply: rulePass(foldVarPopSet)},

		{Name: "unstackify", From: LevelUnstackify, To: LevelUnstackify, Apply: unstackifyPass},

		{Name: "dead-variables", From: LevelNopify, To: LevelNopify, Apply: deadVariables},
		{Name: "identity-assignment", From: LevelNopify, To: LevelNopify, Apply: identityAssignment},

		{Name: "form-blocks", From: LevelCombine, To: LevelReduce, Apply: rulePass(formBlocks)},
		{Name: "merge-blocks", From: LevelCombine, To: LevelReduce, Apply: rulePass(mergeBlocks)},
		{Name: "fold-decision-block", From: LevelCombine, To: LevelReduce, Apply: rulePass(foldDecisionBlock, extendDecisionBlock)},

		{Name: "dedup-vertices", From: LevelReduce, To: LevelReduce, Apply: dedupVertices},
	}
}

// rulePass applies the first of rules that finds a match.
func rulePass(rules ...*rewrite.Rule) func(*cfg.Graph, Options) (bool, error) {
	return func(g *cfg.Graph, _ Options) (bool, error) {
		for _, r := range rules {
			changed, err := r.Apply(g)
			if err != nil || changed {
				return changed, err
			}
		}
		return false, nil
	}
}
