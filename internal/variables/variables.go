// Package variables stores user variables and lists.
//
// There are two kinds of scope: one program-wide global scope, and one private
// scope per actor. Names are unique across the scopes an actor can see: a
// variable may not be created globally if some actor already owns one with
// the same name, and vice versa. Lookups still check the private scope first
// so that a program loaded from elsewhere with a collision resolves the same
// way every time.
//
// Bricks hold *Variable handles directly. A handle is the identity of a
// variable; two handles with the same name in different scopes are different
// variables.
package variables

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/vk/brickrun/internal/value"
)

// ErrDuplicateName is returned when a name is already bound in a scope the
// new variable would be visible from.
var ErrDuplicateName = errors.New("variable name already in use")

// ErrUnknownActor is returned by operations on an actor scope that does not
// exist.
var ErrUnknownActor = errors.New("unknown actor scope")

var nextID atomic.Uint64

// Variable is a single user variable or list. Its value is guarded by the
// owning Container's lock.
type Variable struct {
	id     uint64
	name   string
	isList bool
	// owner is empty for globals.
	owner string

	mu       *sync.RWMutex
	value    value.Value
	items    []value.Value
	initial  value.Value
	initList []value.Value
}

// ID returns the variable's identity token.
func (v *Variable) ID() uint64 { return v.id }

// Name returns the variable's name.
func (v *Variable) Name() string { return v.name }

// IsList reports whether v is a list.
func (v *Variable) IsList() bool { return v.isList }

// IsGlobal reports whether v lives in the program-wide scope.
func (v *Variable) IsGlobal() bool { return v.owner == "" }

// Owner returns the owning actor name, or "" for globals.
func (v *Variable) Owner() string { return v.owner }

// Get returns the current value.
func (v *Variable) Get() value.Value {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set replaces the current value.
func (v *Variable) Set(val value.Value) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = val
}

// Items returns a copy of a list's items.
func (v *Variable) Items() []value.Value {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]value.Value, len(v.items))
	copy(out, v.items)
	return out
}

// Len returns the number of items in a list.
func (v *Variable) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

// Append adds an item to the end of a list.
func (v *Variable) Append(item value.Value) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = append(v.items, item)
}

// Insert puts item at the 1-based position pos. Positions past the end
// append; positions below 1 are ignored.
func (v *Variable) Insert(pos int, item value.Value) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if pos < 1 {
		return
	}
	if pos > len(v.items) {
		v.items = append(v.items, item)
		return
	}
	v.items = append(v.items, value.Value{})
	copy(v.items[pos:], v.items[pos-1:])
	v.items[pos-1] = item
}

// Delete removes the item at the 1-based position pos, if it exists.
func (v *Variable) Delete(pos int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if pos < 1 || pos > len(v.items) {
		return
	}
	v.items = append(v.items[:pos-1], v.items[pos:]...)
}

// Replace overwrites the item at the 1-based position pos, if it exists.
func (v *Variable) Replace(pos int, item value.Value) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if pos < 1 || pos > len(v.items) {
		return
	}
	v.items[pos-1] = item
}

func (v *Variable) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = v.initial
	v.items = append([]value.Value(nil), v.initList...)
}

// String implements fmt.Stringer.
func (v *Variable) String() string {
	if v.IsGlobal() {
		return fmt.Sprintf("global.%s", v.name)
	}
	return fmt.Sprintf("%s.%s", v.owner, v.name)
}

// scope holds the variables and lists of one scope, keyed by name.
type scope struct {
	vars  map[string]*Variable
	lists map[string]*Variable
}

func newScope() *scope {
	return &scope{vars: make(map[string]*Variable), lists: make(map[string]*Variable)}
}

func (s *scope) table(isList bool) map[string]*Variable {
	if isList {
		return s.lists
	}
	return s.vars
}

// Container owns the global scope and every actor scope.
type Container struct {
	mu     sync.RWMutex
	values sync.RWMutex
	global *scope
	actors map[string]*scope
}

// New returns an empty container.
func New() *Container {
	return &Container{global: newScope(), actors: make(map[string]*scope)}
}

// AddActor registers an empty private scope for actor. It is a no-op if
// the scope already exists.
func (c *Container) AddActor(actor string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.actors[actor]; !ok {
		c.actors[actor] = newScope()
	}
}

// RemoveActor drops the private scope of actor.
func (c *Container) RemoveActor(actor string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.actors, actor)
}

// AddGlobal creates a program-wide variable.
func (c *Container) AddGlobal(name string, initial value.Value) (*Variable, error) {
	return c.add("", name, false, initial, nil)
}

// AddGlobalList creates a program-wide list.
func (c *Container) AddGlobalList(name string, items []value.Value) (*Variable, error) {
	return c.add("", name, true, value.Zero, items)
}

// AddActorVariable creates a variable private to actor.
func (c *Container) AddActorVariable(actor, name string, initial value.Value) (*Variable, error) {
	return c.add(actor, name, false, initial, nil)
}

// AddActorList creates a list private to actor.
func (c *Container) AddActorList(actor, name string, items []value.Value) (*Variable, error) {
	return c.add(actor, name, true, value.Zero, items)
}

func (c *Container) add(actor, name string, isList bool, initial value.Value, items []value.Value) (*Variable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kind := "variable"
	if isList {
		kind = "list"
	}
	if _, taken := c.global.table(isList)[name]; taken {
		return nil, fmt.Errorf("%s %q: %w (global)", kind, name, ErrDuplicateName)
	}

	target := c.global
	if actor != "" {
		s, ok := c.actors[actor]
		if !ok {
			s = newScope()
			c.actors[actor] = s
		}
		if _, taken := s.table(isList)[name]; taken {
			return nil, fmt.Errorf("%s %q: %w (actor %s)", kind, name, ErrDuplicateName, actor)
		}
		target = s
	} else {
		for owner, s := range c.actors {
			if _, taken := s.table(isList)[name]; taken {
				return nil, fmt.Errorf("%s %q: %w (actor %s)", kind, name, ErrDuplicateName, owner)
			}
		}
	}

	v := &Variable{
		id:       nextID.Add(1),
		name:     name,
		isList:   isList,
		owner:    actor,
		mu:       &c.values,
		value:    initial,
		initial:  initial,
		items:    append([]value.Value(nil), items...),
		initList: append([]value.Value(nil), items...),
	}
	target.table(isList)[name] = v
	return v, nil
}

// Lookup resolves a variable visible to actor: private scope first, then
// global.
func (c *Container) Lookup(actor, name string) (*Variable, bool) {
	return c.lookup(actor, name, false)
}

// LookupList resolves a list visible to actor: private scope first, then
// global.
func (c *Container) LookupList(actor, name string) (*Variable, bool) {
	return c.lookup(actor, name, true)
}

func (c *Container) lookup(actor, name string, isList bool) (*Variable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.actors[actor]; ok {
		if v, ok := s.table(isList)[name]; ok {
			return v, true
		}
	}
	v, ok := c.global.table(isList)[name]
	return v, ok
}

// Global resolves a name in the global scope only.
func (c *Container) Global(name string, isList bool) (*Variable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.global.table(isList)[name]
	return v, ok
}

// Actor resolves a name in actor's private scope only.
func (c *Container) Actor(actor, name string, isList bool) (*Variable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.actors[actor]
	if !ok {
		return nil, false
	}
	v, ok := s.table(isList)[name]
	return v, ok
}

// CloneActorScope creates dst's private scope as a copy of src's, seeded
// with src's current values. The returned map takes every source handle to
// its copy so that cloned bricks can be rewired. Globals are never copied.
func (c *Container) CloneActorScope(src, dst string) (map[*Variable]*Variable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from, ok := c.actors[src]
	if !ok {
		return nil, fmt.Errorf("clone scope of %q: %w", src, ErrUnknownActor)
	}
	if _, exists := c.actors[dst]; exists {
		return nil, fmt.Errorf("clone scope into %q: %w", dst, ErrDuplicateName)
	}

	c.values.RLock()
	defer c.values.RUnlock()

	to := newScope()
	mapping := make(map[*Variable]*Variable, len(from.vars)+len(from.lists))
	for _, table := range []map[string]*Variable{from.vars, from.lists} {
		for name, v := range table {
			cp := &Variable{
				id:       nextID.Add(1),
				name:     name,
				isList:   v.isList,
				owner:    dst,
				mu:       &c.values,
				value:    v.value,
				initial:  v.value,
				items:    append([]value.Value(nil), v.items...),
				initList: append([]value.Value(nil), v.items...),
			}
			to.table(v.isList)[name] = cp
			mapping[v] = cp
		}
	}
	c.actors[dst] = to
	return mapping, nil
}

// Names returns the sorted variable names visible to actor. Pass "" for
// globals only.
func (c *Container) Names(actor string) []string {
	return c.names(actor, false)
}

// ListNames returns the sorted list names visible to actor.
func (c *Container) ListNames(actor string) []string {
	return c.names(actor, true)
}

func (c *Container) names(actor string, isList bool) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for name := range c.global.table(isList) {
		out = append(out, name)
	}
	if s, ok := c.actors[actor]; ok {
		for name := range s.table(isList) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Reset restores every variable and list to the value it was created with.
func (c *Container) Reset() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range append([]*scope{c.global}, c.scopes()...) {
		for _, v := range s.vars {
			v.reset()
		}
		for _, v := range s.lists {
			v.reset()
		}
	}
}

func (c *Container) scopes() []*scope {
	out := make([]*scope, 0, len(c.actors))
	for _, s := range c.actors {
		out = append(out, s)
	}
	return out
}
