package script

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/brickrun/internal/brick"
	"github.com/vk/brickrun/internal/formula"
	"github.com/vk/brickrun/internal/value"
)

// ErrUnknownBrick is returned by a Compiler that has no action for a kind.
var ErrUnknownBrick = errors.New("unknown brick kind")

// ActionStep runs one non-control brick. It captures the brick's formulas
// and variable handles by reference, so every call sees the state current
// at that moment.
type ActionStep func() error

// Evaluator evaluates a formula on behalf of the script's actor.
type Evaluator func(formula.Formula) value.Value

// Compiler supplies what compilation needs from the owning actor: an action
// for every non-control brick and formula evaluation for control bricks.
type Compiler interface {
	Action(b brick.Brick) (ActionStep, error)
	Evaluate(f formula.Formula) value.Value
}

// Env is the scheduler side of a running script. The scheduler binds one to
// the script for the duration of a Step.
type Env interface {
	// Tick is the number of the tick being run.
	Tick() uint64
	Now() time.Time
	Broadcast(message string)
	// BroadcastAndWait returns a predicate that turns true once every
	// receiver started for this broadcast has finished.
	BroadcastAndWait(message string) func() bool
	// Stop handles StopOtherScripts and StopAll. StopThisScript never
	// reaches the scheduler.
	Stop(which brick.StopTarget)
	CreateClone(target string)
	// DeleteClone removes the running actor if it is a clone and reports
	// whether it did.
	DeleteClone() bool
}

type opKind int

const (
	opAction opKind = iota
	opWait
	opIf
	opRepeat
	opRepeatUntil
	opForever
	opBroadcast
	opBroadcastAndWait
	opStop
	opCreateClone
	opDeleteClone
)

type op struct {
	kind   opKind
	brick  brick.Brick
	action ActionStep
	// arg is the wait duration, repeat count or loop/if condition.
	arg     formula.Formula
	body    []op
	alt     []op
	message string
	stop    brick.StopTarget
}

// Compile builds the runnable form of the script. Disabled bricks and
// comments are left out. The script must be compiled before it is started.
func (s *Script) Compile(c Compiler) error {
	prog, err := compileSequence(s.Bricks, c)
	if err != nil {
		return err
	}
	s.program = prog
	s.eval = c.Evaluate
	return nil
}

func compileSequence(bricks []brick.Brick, c Compiler) ([]op, error) {
	out := make([]op, 0, len(bricks))
	for i, b := range bricks {
		if b == nil || brick.IsDisabled(b) {
			continue
		}
		o, skip, err := compileBrick(b, c)
		if err != nil {
			return nil, fmt.Errorf("brick %d (%s): %w", i+1, b.Kind(), err)
		}
		if !skip {
			out = append(out, o)
		}
	}
	return out, nil
}

// compileBrick is the single dispatch over brick kinds. Control bricks are
// handled here; everything else is an action from the Compiler.
func compileBrick(b brick.Brick, c Compiler) (o op, skip bool, err error) {
	o.brick = b
	switch x := b.(type) {
	case *brick.Note:
		return o, true, nil
	case *brick.Wait:
		o.kind, o.arg = opWait, x.Seconds
	case *brick.If:
		o.kind, o.arg = opIf, x.Condition
		if o.body, err = compileSequence(x.Then, c); err != nil {
			return o, false, err
		}
		if o.alt, err = compileSequence(x.Else, c); err != nil {
			return o, false, err
		}
	case *brick.Repeat:
		o.kind, o.arg = opRepeat, x.Times
		o.body, err = compileSequence(x.Body, c)
	case *brick.RepeatUntil:
		o.kind, o.arg = opRepeatUntil, x.Condition
		o.body, err = compileSequence(x.Body, c)
	case *brick.Forever:
		o.kind = opForever
		o.body, err = compileSequence(x.Body, c)
	case *brick.Broadcast:
		o.kind, o.message = opBroadcast, x.Message
	case *brick.BroadcastAndWait:
		o.kind, o.message = opBroadcastAndWait, x.Message
	case *brick.Stop:
		o.kind, o.stop = opStop, x.Which
	case *brick.CreateClone:
		o.kind, o.message = opCreateClone, x.Target
	case *brick.DeleteClone:
		o.kind = opDeleteClone
	default:
		o.kind = opAction
		o.action, err = c.Action(b)
		if err == nil && o.action == nil {
			err = fmt.Errorf("%w: %s", ErrUnknownBrick, b.Kind())
		}
	}
	return o, false, err
}
