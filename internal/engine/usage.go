package engine

import (
	"github.com/vk/brickrun/internal/brick"
	"github.com/vk/brickrun/internal/formula"
	"github.com/vk/brickrun/internal/variables"
)

// IsVariableUsed reports whether a brick or formula that can see v refers
// to it. v may be a variable or a list. A private v is visible only to its
// owner and the owner's clones.
func (e *Engine) IsVariableUsed(v *variables.Variable) bool {
	if v == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range e.actors {
		if !v.IsGlobal() && a.Name != v.Owner() && !(a.IsClone && a.CloneOf == v.Owner()) {
			continue
		}
		for _, s := range a.Scripts {
			if refersTo(s.Bricks, v.Name(), v.IsList()) {
				return true
			}
		}
	}
	return false
}

func refersTo(bricks []brick.Brick, name string, list bool) bool {
	used := false
	brick.Walk(bricks, func(b brick.Brick) {
		if used {
			return
		}
		for _, v := range brick.Variables(b) {
			if v != nil && v.IsList() == list && v.Name() == name {
				used = true
				return
			}
		}
		for _, f := range brick.Formulas(b) {
			for _, ref := range formula.References(f) {
				if ref.List == list && ref.Name == name {
					used = true
					return
				}
			}
		}
	})
	return used
}

func (e *Engine) warnUnknownFunctions(actorName string, scriptIndex int, bricks []brick.Brick) {
	brick.Walk(bricks, func(b brick.Brick) {
		for _, f := range brick.Formulas(b) {
			for _, fn := range formula.Functions(f) {
				if !e.ip.HasFunction(fn) {
					e.logger.Warn("Formula calls an unknown function; it will evaluate to 0.",
						"actor", actorName, "script", scriptIndex, "brick", b.Kind(), "function", fn)
				}
			}
		}
	})
}
