// Package formula implements the expression trees that parameterise bricks
// and the interpreter that evaluates them.
//
// A Formula is an immutable tree. It is owned by exactly one brick; bricks
// that need a copy call Clone, which returns a structurally Equal tree whose
// nodes are all freshly allocated.
package formula

import (
	"sort"
	"strings"

	"github.com/vk/brickrun/internal/value"
)

// Formula is a node in an expression tree. The set of node types is closed.
type Formula interface {
	formulaNode()
}

// Scope selects where a variable reference is resolved.
type Scope int

const (
	// ScopeAuto resolves in the owning actor's scope first, then globally.
	ScopeAuto Scope = iota
	// ScopeGlobal resolves only in the program-wide scope.
	ScopeGlobal
	// ScopeActor resolves only in the owning actor's scope.
	ScopeActor
)

// String implements fmt.Stringer.
func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeActor:
		return "actor"
	default:
		return "var"
	}
}

// Literal is a constant.
type Literal struct {
	Value value.Value
}

// VariableRef reads a variable, or a list when List is set.
type VariableRef struct {
	Scope Scope
	Name  string
	List  bool
}

// SensorRef reads a sensor by id.
type SensorRef struct {
	ID string
}

// UnaryOp applies Op to X.
type UnaryOp struct {
	Op UnaryOperator
	X  Formula
}

// BinaryOp applies Op to L and R.
type BinaryOp struct {
	Op   BinaryOperator
	L, R Formula
}

// FunctionCall invokes a builtin by name.
type FunctionCall struct {
	Name string
	Args []Formula
}

func (*Literal) formulaNode()      {}
func (*VariableRef) formulaNode()  {}
func (*SensorRef) formulaNode()    {}
func (*UnaryOp) formulaNode()      {}
func (*BinaryOp) formulaNode()     {}
func (*FunctionCall) formulaNode() {}

// UnaryOperator enumerates unary operators.
type UnaryOperator int

const (
	Negate UnaryOperator = iota
	Not
)

// BinaryOperator enumerates binary operators.
type BinaryOperator int

const (
	Add BinaryOperator = iota
	Subtract
	Multiply
	Divide
	Modulo
	Equals
	NotEquals
	Less
	LessOrEqual
	Greater
	GreaterOrEqual
	And
	Or
)

var binarySymbols = map[BinaryOperator]string{
	Add: "+", Subtract: "-", Multiply: "*", Divide: "/", Modulo: "%",
	Equals: "==", NotEquals: "!=", Less: "<", LessOrEqual: "<=",
	Greater: ">", GreaterOrEqual: ">=", And: "&&", Or: "||",
}

// String implements fmt.Stringer.
func (op BinaryOperator) String() string { return binarySymbols[op] }

// String implements fmt.Stringer.
func (op UnaryOperator) String() string {
	if op == Not {
		return "!"
	}
	return "-"
}

// Number is shorthand for a numeric literal.
func Number(f float64) Formula { return &Literal{Value: value.Number(f)} }

// Text is shorthand for a text literal.
func Text(s string) Formula { return &Literal{Value: value.Text(s)} }

// Var is shorthand for an auto-scoped variable reference.
func Var(name string) Formula { return &VariableRef{Scope: ScopeAuto, Name: name} }

// Clone returns a deep copy of f. Every node of the result is newly
// allocated. Clone(nil) is nil.
func Clone(f Formula) Formula {
	switch n := f.(type) {
	case nil:
		return nil
	case *Literal:
		return &Literal{Value: n.Value}
	case *VariableRef:
		c := *n
		return &c
	case *SensorRef:
		return &SensorRef{ID: n.ID}
	case *UnaryOp:
		return &UnaryOp{Op: n.Op, X: Clone(n.X)}
	case *BinaryOp:
		return &BinaryOp{Op: n.Op, L: Clone(n.L), R: Clone(n.R)}
	case *FunctionCall:
		args := make([]Formula, len(n.Args))
		for i, a := range n.Args {
			args[i] = Clone(a)
		}
		return &FunctionCall{Name: n.Name, Args: args}
	default:
		return nil
	}
}

// Equal reports whether a and b are structurally identical, ignoring node
// identity.
func Equal(a, b Formula) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case *Literal:
		y, ok := b.(*Literal)
		return ok && value.Equal(x.Value, y.Value)
	case *VariableRef:
		y, ok := b.(*VariableRef)
		return ok && *x == *y
	case *SensorRef:
		y, ok := b.(*SensorRef)
		return ok && x.ID == y.ID
	case *UnaryOp:
		y, ok := b.(*UnaryOp)
		return ok && x.Op == y.Op && Equal(x.X, y.X)
	case *BinaryOp:
		y, ok := b.(*BinaryOp)
		return ok && x.Op == y.Op && Equal(x.L, y.L) && Equal(x.R, y.R)
	case *FunctionCall:
		y, ok := b.(*FunctionCall)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Walk calls fn for f and every node below it in depth-first order.
func Walk(f Formula, fn func(Formula)) {
	if f == nil {
		return
	}
	fn(f)
	switch n := f.(type) {
	case *UnaryOp:
		Walk(n.X, fn)
	case *BinaryOp:
		Walk(n.L, fn)
		Walk(n.R, fn)
	case *FunctionCall:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	}
}

// References returns the unique variable and list references in f, sorted
// by their String form for a deterministic order.
func References(f Formula) []VariableRef {
	seen := make(map[VariableRef]struct{})
	Walk(f, func(n Formula) {
		if ref, ok := n.(*VariableRef); ok {
			seen[*ref] = struct{}{}
		}
	})
	out := make([]VariableRef, 0, len(seen))
	for ref := range seen {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Functions returns the unique, sorted names of all functions called in f.
func Functions(f Formula) []string {
	seen := make(map[string]struct{})
	Walk(f, func(n Formula) {
		if call, ok := n.(*FunctionCall); ok {
			seen[call.Name] = struct{}{}
		}
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// String renders the reference the way it is written in program files.
func (r VariableRef) String() string {
	prefix := r.Scope.String()
	if r.List {
		switch r.Scope {
		case ScopeGlobal:
			prefix = "global_list"
		case ScopeActor:
			prefix = "actor_list"
		default:
			prefix = "list"
		}
	}
	return prefix + "." + r.Name
}

// Source renders f back to expression syntax. It is used in log messages
// and reports, not for persistence.
func Source(f Formula) string {
	var sb strings.Builder
	writeSource(&sb, f)
	return sb.String()
}

func writeSource(sb *strings.Builder, f Formula) {
	switch n := f.(type) {
	case nil:
		sb.WriteString("null")
	case *Literal:
		if n.Value.Tag() == value.TextTag {
			sb.WriteString(`"` + n.Value.Text() + `"`)
		} else {
			sb.WriteString(n.Value.Text())
		}
	case *VariableRef:
		sb.WriteString(n.String())
	case *SensorRef:
		sb.WriteString("sensor." + n.ID)
	case *UnaryOp:
		sb.WriteString(n.Op.String())
		writeSource(sb, n.X)
	case *BinaryOp:
		sb.WriteString("(")
		writeSource(sb, n.L)
		sb.WriteString(" " + n.Op.String() + " ")
		writeSource(sb, n.R)
		sb.WriteString(")")
	case *FunctionCall:
		sb.WriteString(n.Name + "(")
		for i, a := range n.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeSource(sb, a)
		}
		sb.WriteString(")")
	}
}
