package script

import (
	"fmt"
	"math"

	"github.com/vk/brickrun/internal/brick"
	"github.com/vk/brickrun/internal/clock"
)

// frame is one level of the execution stack: the root sequence, an if
// branch or a loop body.
type frame struct {
	ops []op
	pc  int
	// loop is the op that owns this frame when it is a loop body.
	loop      *op
	remaining int64
	// recheck is set at the end of a repeat-until iteration. The condition
	// is evaluated before the next one starts.
	recheck bool
}

// Outcome is the result of one Step.
type Outcome struct {
	State State
	// Steps counts the ops executed.
	Steps int
	// Err is set when the script faulted. The script is Stopped.
	Err error
}

// Step runs the script until it suspends, finishes, stops or faults. A
// fault, whether an action error or a panic, stops only this script.
func (s *Script) Step(env Env) (out Outcome) {
	if !s.state.Active() {
		return Outcome{State: s.state}
	}
	if s.eval == nil {
		s.Stop()
		return Outcome{State: Stopped, Err: fmt.Errorf("script %s was not compiled", s.Trigger.Kind)}
	}
	s.state = Running
	s.suspension = Suspension{}

	defer func() {
		if r := recover(); r != nil {
			s.Stop()
			out = Outcome{State: Stopped, Steps: out.Steps, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	for {
		if len(s.stack) == 0 {
			s.state = Finished
			out.State = Finished
			return out
		}
		top := &s.stack[len(s.stack)-1]

		if top.recheck {
			top.recheck = false
			if s.eval(top.loop.arg).Bool() {
				s.pop()
				continue
			}
		}

		if top.pc >= len(top.ops) {
			if top.loop == nil {
				s.pop()
				continue
			}
			top.pc = 0
			switch top.loop.kind {
			case opRepeat:
				top.remaining--
				if top.remaining <= 0 {
					s.pop()
					continue
				}
			case opRepeatUntil:
				top.recheck = true
			}
			// Another iteration follows, so the script's slice of the tick ends.
			return s.suspend(env, Suspension{Kind: NextTick}, out)
		}

		o := &top.ops[top.pc]
		top.pc++
		out.Steps++

		switch o.kind {
		case opAction:
			if err := o.action(); err != nil {
				s.Stop()
				out.State = Stopped
				out.Err = fmt.Errorf("%s: %w", o.brick.Kind(), err)
				return out
			}
		case opWait:
			d := clock.Seconds(s.eval(o.arg).Number())
			return s.suspend(env, Suspension{Kind: Until, Deadline: env.Now().Add(d)}, out)
		case opIf:
			branch := o.alt
			if s.eval(o.arg).Bool() {
				branch = o.body
			}
			if len(branch) > 0 {
				s.stack = append(s.stack, frame{ops: branch})
			}
		case opRepeat:
			n := math.Round(s.eval(o.arg).Number())
			if n >= 1 {
				count := int64(math.MaxInt64)
				if n < math.MaxInt64 {
					count = int64(n)
				}
				s.stack = append(s.stack, frame{ops: o.body, loop: o, remaining: count})
			}
		case opRepeatUntil:
			if !s.eval(o.arg).Bool() {
				s.stack = append(s.stack, frame{ops: o.body, loop: o})
			}
		case opForever:
			s.stack = append(s.stack, frame{ops: o.body, loop: o})
		case opBroadcast:
			env.Broadcast(o.message)
		case opBroadcastAndWait:
			done := env.BroadcastAndWait(o.message)
			return s.suspend(env, Suspension{Kind: Receivers, Done: done}, out)
		case opStop:
			if o.stop != brick.StopThisScript {
				env.Stop(o.stop)
			}
			if o.stop != brick.StopOtherScripts {
				s.Stop()
				out.State = Stopped
				return out
			}
		case opCreateClone:
			env.CreateClone(o.message)
		case opDeleteClone:
			if env.DeleteClone() {
				s.Stop()
				out.State = Stopped
				return out
			}
		}
	}
}

func (s *Script) pop() {
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *Script) suspend(env Env, susp Suspension, out Outcome) Outcome {
	susp.tick = env.Tick()
	s.suspension = susp
	s.state = Suspended
	out.State = Suspended
	return out
}

// Depth returns the number of frames on the execution stack.
func (s *Script) Depth() int { return len(s.stack) }
