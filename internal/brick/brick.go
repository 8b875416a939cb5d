// Package brick defines the instruction set of the engine.
//
// Brick is a closed sum type: every kind is a pointer to a struct in this
// package carrying only the fields that kind needs. Formula fields are owned
// by the brick; control bricks also own their child sequences. Variable
// handles are references into a variables.Container and are not owned.
package brick

import (
	"github.com/vk/brickrun/internal/formula"
	"github.com/vk/brickrun/internal/variables"
)

// Kind names a brick type. The names are also the block labels used in
// program files.
type Kind string

// Brick is one executable instruction.
type Brick interface {
	Kind() Kind
	base() *Base
}

// Base holds the fields every brick has.
type Base struct {
	// Disabled bricks stay in their script but are skipped when it runs.
	Disabled bool
}

// IsDisabled reports whether b is skipped at run time.
func IsDisabled(b Brick) bool { return b.base().Disabled }

// SetDisabled enables or disables b.
func SetDisabled(b Brick, disabled bool) { b.base().Disabled = disabled }

// Motion.
type (
	PlaceAt struct {
		Base
		X, Y formula.Formula
	}
	SetX struct {
		Base
		X formula.Formula
	}
	SetY struct {
		Base
		Y formula.Formula
	}
	ChangeXBy struct {
		Base
		DX formula.Formula
	}
	ChangeYBy struct {
		Base
		DY formula.Formula
	}
	MoveSteps struct {
		Base
		Steps formula.Formula
	}
	TurnLeft struct {
		Base
		Degrees formula.Formula
	}
	TurnRight struct {
		Base
		Degrees formula.Formula
	}
	PointInDirection struct {
		Base
		Degrees formula.Formula
	}
	// GoToActor moves to another actor's current position.
	GoToActor struct {
		Base
		Target string
	}
)

// Looks.
type (
	Show    struct{ Base }
	Hide    struct{ Base }
	SetSize struct {
		Base
		Percent formula.Formula
	}
)

// Data.
type (
	SetVariable struct {
		Base
		Variable *variables.Variable
		Value    formula.Formula
	}
	ChangeVariable struct {
		Base
		Variable *variables.Variable
		Delta    formula.Formula
	}
	AddItem struct {
		Base
		List  *variables.Variable
		Value formula.Formula
	}
	DeleteItem struct {
		Base
		List  *variables.Variable
		Index formula.Formula
	}
	InsertItem struct {
		Base
		List  *variables.Variable
		Index formula.Formula
		Value formula.Formula
	}
	ReplaceItem struct {
		Base
		List  *variables.Variable
		Index formula.Formula
		Value formula.Formula
	}
)

// Pen.
type (
	PenDown    struct{ Base }
	PenUp      struct{ Base }
	SetPenSize struct {
		Base
		Size formula.Formula
	}
	SetPenColor struct {
		Base
		Red, Green, Blue formula.Formula
	}
	// ClearGraphics erases everything drawn so far.
	ClearGraphics struct{ Base }
)

// StopTarget selects what a Stop brick stops.
type StopTarget int

const (
	StopThisScript StopTarget = iota
	StopOtherScripts
	StopAll
)

// Control.
type (
	Wait struct {
		Base
		Seconds formula.Formula
	}
	Repeat struct {
		Base
		Times formula.Formula
		Body  []Brick
	}
	RepeatUntil struct {
		Base
		Condition formula.Formula
		Body      []Brick
	}
	Forever struct {
		Base
		Body []Brick
	}
	If struct {
		Base
		Condition formula.Formula
		Then      []Brick
		Else      []Brick
	}
	Broadcast struct {
		Base
		Message string
	}
	BroadcastAndWait struct {
		Base
		Message string
	}
	Stop struct {
		Base
		Which StopTarget
	}
	// CreateClone clones Target, or the running actor when Target is empty.
	CreateClone struct {
		Base
		Target string
	}
	DeleteClone struct{ Base }
	// Note is a comment; it does nothing when run.
	Note struct {
		Base
		Text string
	}
)

// Sound.
type (
	PlayNote struct {
		Base
		Instrument int
		Pitch      formula.Formula
		Beats      formula.Formula
	}
	PlayDrum struct {
		Base
		Drum  int
		Beats formula.Formula
	}
	SetTempo struct {
		Base
		BPM formula.Formula
	}
	ChangeTempo struct {
		Base
		Delta formula.Formula
	}
	StopAllSounds struct{ Base }
)

const (
	KindPlaceAt          Kind = "place_at"
	KindSetX             Kind = "set_x"
	KindSetY             Kind = "set_y"
	KindChangeXBy        Kind = "change_x_by"
	KindChangeYBy        Kind = "change_y_by"
	KindMoveSteps        Kind = "move_steps"
	KindTurnLeft         Kind = "turn_left"
	KindTurnRight        Kind = "turn_right"
	KindPointInDirection Kind = "point_in_direction"
	KindGoToActor        Kind = "go_to"
	KindShow             Kind = "show"
	KindHide             Kind = "hide"
	KindSetSize          Kind = "set_size"
	KindSetVariable      Kind = "set_variable"
	KindChangeVariable   Kind = "change_variable"
	KindAddItem          Kind = "add_item"
	KindDeleteItem       Kind = "delete_item"
	KindInsertItem       Kind = "insert_item"
	KindReplaceItem      Kind = "replace_item"
	KindPenDown          Kind = "pen_down"
	KindPenUp            Kind = "pen_up"
	KindSetPenSize       Kind = "set_pen_size"
	KindSetPenColor      Kind = "set_pen_color"
	KindClearGraphics    Kind = "clear_graphics"
	KindWait             Kind = "wait"
	KindRepeat           Kind = "repeat"
	KindRepeatUntil      Kind = "repeat_until"
	KindForever          Kind = "forever"
	KindIf               Kind = "if"
	KindBroadcast        Kind = "broadcast"
	KindBroadcastAndWait Kind = "broadcast_and_wait"
	KindStop             Kind = "stop"
	KindCreateClone      Kind = "create_clone"
	KindDeleteClone      Kind = "delete_clone"
	KindNote             Kind = "note"
	KindPlayNote         Kind = "play_note"
	KindPlayDrum         Kind = "play_drum"
	KindSetTempo         Kind = "set_tempo"
	KindChangeTempo      Kind = "change_tempo"
	KindStopAllSounds    Kind = "stop_all_sounds"
)

func (*PlaceAt) Kind() Kind          { return KindPlaceAt }
func (*SetX) Kind() Kind             { return KindSetX }
func (*SetY) Kind() Kind             { return KindSetY }
func (*ChangeXBy) Kind() Kind        { return KindChangeXBy }
func (*ChangeYBy) Kind() Kind        { return KindChangeYBy }
func (*MoveSteps) Kind() Kind        { return KindMoveSteps }
func (*TurnLeft) Kind() Kind         { return KindTurnLeft }
func (*TurnRight) Kind() Kind        { return KindTurnRight }
func (*PointInDirection) Kind() Kind { return KindPointInDirection }
func (*GoToActor) Kind() Kind        { return KindGoToActor }
func (*Show) Kind() Kind             { return KindShow }
func (*Hide) Kind() Kind             { return KindHide }
func (*SetSize) Kind() Kind          { return KindSetSize }
func (*SetVariable) Kind() Kind      { return KindSetVariable }
func (*ChangeVariable) Kind() Kind   { return KindChangeVariable }
func (*AddItem) Kind() Kind          { return KindAddItem }
func (*DeleteItem) Kind() Kind       { return KindDeleteItem }
func (*InsertItem) Kind() Kind       { return KindInsertItem }
func (*ReplaceItem) Kind() Kind      { return KindReplaceItem }
func (*PenDown) Kind() Kind          { return KindPenDown }
func (*PenUp) Kind() Kind            { return KindPenUp }
func (*SetPenSize) Kind() Kind       { return KindSetPenSize }
func (*SetPenColor) Kind() Kind      { return KindSetPenColor }
func (*ClearGraphics) Kind() Kind    { return KindClearGraphics }
func (*Wait) Kind() Kind             { return KindWait }
func (*Repeat) Kind() Kind           { return KindRepeat }
func (*RepeatUntil) Kind() Kind      { return KindRepeatUntil }
func (*Forever) Kind() Kind          { return KindForever }
func (*If) Kind() Kind               { return KindIf }
func (*Broadcast) Kind() Kind        { return KindBroadcast }
func (*BroadcastAndWait) Kind() Kind { return KindBroadcastAndWait }
func (*Stop) Kind() Kind             { return KindStop }
func (*CreateClone) Kind() Kind      { return KindCreateClone }
func (*DeleteClone) Kind() Kind      { return KindDeleteClone }
func (*Note) Kind() Kind             { return KindNote }
func (*PlayNote) Kind() Kind         { return KindPlayNote }
func (*PlayDrum) Kind() Kind         { return KindPlayDrum }
func (*SetTempo) Kind() Kind         { return KindSetTempo }
func (*ChangeTempo) Kind() Kind      { return KindChangeTempo }
func (*StopAllSounds) Kind() Kind    { return KindStopAllSounds }

func (b *PlaceAt) base() *Base          { return &b.Base }
func (b *SetX) base() *Base             { return &b.Base }
func (b *SetY) base() *Base             { return &b.Base }
func (b *ChangeXBy) base() *Base        { return &b.Base }
func (b *ChangeYBy) base() *Base        { return &b.Base }
func (b *MoveSteps) base() *Base        { return &b.Base }
func (b *TurnLeft) base() *Base         { return &b.Base }
func (b *TurnRight) base() *Base        { return &b.Base }
func (b *PointInDirection) base() *Base { return &b.Base }
func (b *GoToActor) base() *Base        { return &b.Base }
func (b *Show) base() *Base             { return &b.Base }
func (b *Hide) base() *Base             { return &b.Base }
func (b *SetSize) base() *Base          { return &b.Base }
func (b *SetVariable) base() *Base      { return &b.Base }
func (b *ChangeVariable) base() *Base   { return &b.Base }
func (b *AddItem) base() *Base          { return &b.Base }
func (b *DeleteItem) base() *Base       { return &b.Base }
func (b *InsertItem) base() *Base       { return &b.Base }
func (b *ReplaceItem) base() *Base      { return &b.Base }
func (b *PenDown) base() *Base          { return &b.Base }
func (b *PenUp) base() *Base            { return &b.Base }
func (b *SetPenSize) base() *Base       { return &b.Base }
func (b *SetPenColor) base() *Base      { return &b.Base }
func (b *ClearGraphics) base() *Base    { return &b.Base }
func (b *Wait) base() *Base             { return &b.Base }
func (b *Repeat) base() *Base           { return &b.Base }
func (b *RepeatUntil) base() *Base      { return &b.Base }
func (b *Forever) base() *Base          { return &b.Base }
func (b *If) base() *Base               { return &b.Base }
func (b *Broadcast) base() *Base        { return &b.Base }
func (b *BroadcastAndWait) base() *Base { return &b.Base }
func (b *Stop) base() *Base             { return &b.Base }
func (b *CreateClone) base() *Base      { return &b.Base }
func (b *DeleteClone) base() *Base      { return &b.Base }
func (b *Note) base() *Base             { return &b.Base }
func (b *PlayNote) base() *Base         { return &b.Base }
func (b *PlayDrum) base() *Base         { return &b.Base }
func (b *SetTempo) base() *Base         { return &b.Base }
func (b *ChangeTempo) base() *Base      { return &b.Base }
func (b *StopAllSounds) base() *Base    { return &b.Base }
