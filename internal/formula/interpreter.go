package formula

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/vk/brickrun/internal/report"
	"github.com/vk/brickrun/internal/value"
)

// Context gives the interpreter read-only access to program state. The
// interpreter never writes through it.
type Context interface {
	// Owner names the actor the formula is evaluated for; it is only used
	// to attribute reports.
	Owner() string
	// Variable resolves a variable in the given scope.
	Variable(scope Scope, name string) (value.Value, bool)
	// List resolves a list in the given scope.
	List(scope Scope, name string) ([]value.Value, bool)
	// Sensor reads a sensor value.
	Sensor(id string) (value.Value, bool)
}

// Interpreter evaluates formulas. It is safe to share between actors; the
// only internal state is the random source used by rand().
type Interpreter struct {
	reporter report.Reporter
	rand     *rand.Rand
	builtins map[string]builtin
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithReporter sets where evaluation warnings and errors go.
func WithReporter(r report.Reporter) Option {
	return func(ip *Interpreter) {
		if r != nil {
			ip.reporter = r
		}
	}
}

// WithSeed makes rand() reproducible.
func WithSeed(seed uint64) Option {
	return func(ip *Interpreter) {
		ip.rand = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// NewInterpreter creates an interpreter with the builtin function table.
func NewInterpreter(opts ...Option) *Interpreter {
	ip := &Interpreter{
		reporter: report.Nop{},
		rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		builtins: builtinTable(),
	}
	for _, opt := range opts {
		opt(ip)
	}
	return ip
}

// HasFunction reports whether name is a known builtin.
func (ip *Interpreter) HasFunction(name string) bool {
	_, ok := ip.builtins[name]
	return ok
}

// Evaluate computes the value of f against ctx. It never fails: unknown
// references and functions evaluate to Number 0 and are reported.
func (ip *Interpreter) Evaluate(f Formula, ctx Context) value.Value {
	return (&evaluation{ip: ip, ctx: ctx}).eval(f)
}

type evaluation struct {
	ip  *Interpreter
	ctx Context
}

func (e *evaluation) warn(format string, args ...any) {
	e.ip.reporter.Report(report.Record{
		Kind:    report.EvaluationWarning,
		Owner:   e.ctx.Owner(),
		Message: fmt.Sprintf(format, args...),
	})
}

func (e *evaluation) fail(err error) {
	e.ip.reporter.Report(report.Record{
		Kind:    report.EvaluationError,
		Owner:   e.ctx.Owner(),
		Message: "formula evaluation failed",
		Err:     err,
	})
}

func (e *evaluation) eval(f Formula) value.Value {
	switch n := f.(type) {
	case nil:
		e.fail(fmt.Errorf("empty formula"))
		return value.Zero
	case *Literal:
		return n.Value
	case *VariableRef:
		if n.List {
			items, ok := e.ctx.List(n.Scope, n.Name)
			if !ok {
				e.warn("unknown list %q", n.String())
				return value.Zero
			}
			return value.Text(renderList(items))
		}
		v, ok := e.ctx.Variable(n.Scope, n.Name)
		if !ok {
			e.warn("unknown variable %q", n.String())
			return value.Zero
		}
		return v
	case *SensorRef:
		v, ok := e.ctx.Sensor(n.ID)
		if !ok {
			e.warn("unknown sensor %q", n.ID)
			return value.Zero
		}
		return v
	case *UnaryOp:
		x := e.eval(n.X)
		if n.Op == Not {
			return value.Bool(!x.Bool())
		}
		return value.Number(-x.Number())
	case *BinaryOp:
		return e.binary(n)
	case *FunctionCall:
		return e.call(n)
	default:
		e.fail(fmt.Errorf("unsupported formula node %T", f))
		return value.Zero
	}
}

func (e *evaluation) binary(n *BinaryOp) value.Value {
	// Logical operators short-circuit.
	switch n.Op {
	case And:
		return value.Bool(e.eval(n.L).Bool() && e.eval(n.R).Bool())
	case Or:
		return value.Bool(e.eval(n.L).Bool() || e.eval(n.R).Bool())
	}

	l, r := e.eval(n.L), e.eval(n.R)
	switch n.Op {
	case Add:
		return value.Number(l.Number() + r.Number())
	case Subtract:
		return value.Number(l.Number() - r.Number())
	case Multiply:
		return value.Number(l.Number() * r.Number())
	case Divide:
		return value.Number(l.Number() / r.Number())
	case Modulo:
		return value.Number(math.Mod(l.Number(), r.Number()))
	case Equals:
		return value.Bool(equalValues(l, r))
	case NotEquals:
		return value.Bool(!equalValues(l, r))
	case Less, LessOrEqual, Greater, GreaterOrEqual:
		return value.Bool(compareValues(n.Op, l, r))
	default:
		e.fail(fmt.Errorf("unsupported operator %d", n.Op))
		return value.Zero
	}
}

// equalValues compares numerically when both sides are numeric and by Text
// otherwise.
func equalValues(l, r value.Value) bool {
	if l.IsNumeric() && r.IsNumeric() {
		return l.Number() == r.Number()
	}
	return l.Text() == r.Text()
}

func compareValues(op BinaryOperator, l, r value.Value) bool {
	var c int
	if l.IsNumeric() && r.IsNumeric() {
		a, b := l.Number(), r.Number()
		if math.IsNaN(a) || math.IsNaN(b) {
			return false
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	} else {
		c = strings.Compare(l.Text(), r.Text())
	}
	switch op {
	case Less:
		return c < 0
	case LessOrEqual:
		return c <= 0
	case Greater:
		return c > 0
	default:
		return c >= 0
	}
}

func (e *evaluation) call(n *FunctionCall) value.Value {
	b, ok := e.ip.builtins[n.Name]
	if !ok {
		e.fail(fmt.Errorf("unknown function %q", n.Name))
		return value.Zero
	}
	if len(n.Args) < b.minArgs || (b.maxArgs >= 0 && len(n.Args) > b.maxArgs) {
		e.fail(fmt.Errorf("function %q called with %d arguments", n.Name, len(n.Args)))
		return value.Zero
	}
	v, err := b.fn(&call{e: e, args: n.Args})
	if err != nil {
		e.fail(fmt.Errorf("%s: %w", n.Name, err))
		return value.Zero
	}
	return v
}

// renderList turns a list into text: items separated by spaces, or run
// together when every item is a single character.
func renderList(items []value.Value) string {
	parts := make([]string, len(items))
	single := true
	for i, it := range items {
		parts[i] = it.Text()
		if len([]rune(parts[i])) != 1 {
			single = false
		}
	}
	if single {
		return strings.Join(parts, "")
	}
	return strings.Join(parts, " ")
}
