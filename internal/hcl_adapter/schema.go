package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Programs  []*programBlock  `hcl:"program,block"`
	Variables []*variableBlock `hcl:"variable,block"`
	Lists     []*listBlock     `hcl:"list,block"`
	Actors    []*actorBlock    `hcl:"actor,block"`
}

// programBlock names the program. It carries no other settings yet.
type programBlock struct {
	Name   string   `hcl:"name,label"`
	Remain hcl.Body `hcl:",remain"`
}

type variableBlock struct {
	Name  string         `hcl:"name,label"`
	Value hcl.Expression `hcl:"value,optional"`
}

type listBlock struct {
	Name  string         `hcl:"name,label"`
	Items hcl.Expression `hcl:"items,optional"`
}

type actorBlock struct {
	Name      string           `hcl:"name,label"`
	X         *float64         `hcl:"x,optional"`
	Y         *float64         `hcl:"y,optional"`
	Rotation  *float64         `hcl:"rotation,optional"`
	Visible   *bool            `hcl:"visible,optional"`
	Size      *float64         `hcl:"size,optional"`
	Variables []*variableBlock `hcl:"variable,block"`
	Lists     []*listBlock     `hcl:"list,block"`
	Scripts   []*scriptBlock   `hcl:"script,block"`
}

// scriptBlock is one script. When names the trigger without its "when_"
// prefix: started, broadcast, tapped, collision or cloned.
type scriptBlock struct {
	When    string        `hcl:"when"`
	Message *string       `hcl:"message,optional"`
	Target  *string       `hcl:"target,optional"`
	Bricks  []*brickBlock `hcl:"brick,block"`
}

// brickBlock is one brick. Every attribute other than `disabled` is a
// parameter formula; nested brick blocks form the body of control bricks
// and an `else` block holds the alternative branch of `if`.
type brickBlock struct {
	Kind   string        `hcl:"kind,label"`
	Bricks []*brickBlock `hcl:"brick,block"`
	Else   *elseBlock    `hcl:"else,block"`
	Remain hcl.Body      `hcl:",remain"`
}

type elseBlock struct {
	Bricks []*brickBlock `hcl:"brick,block"`
}
