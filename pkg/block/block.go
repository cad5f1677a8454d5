// Package block defines the program-structure graph that the generators consume
package block

import (
	"strconv"
	"strings"
)

// Kind is the discriminant of a block, spelled as in the interchange format
type Kind string

// Block kinds
const (
	// Statements
	ControlsRepeat     Kind = "controls_repeat"
	ControlsRepeatExt  Kind = "controls_repeat_ext"
	ControlsWhileUntil Kind = "controls_whileUntil"
	ControlsFor        Kind = "controls_for"
	ControlsForEach    Kind = "controls_forEach"
	ControlsFlow       Kind = "controls_flow_statements"
	ControlsIf         Kind = "controls_if"
	VariablesSet       Kind = "variables_set"
	MathChange         Kind = "math_change"
	ProcDefReturn      Kind = "procedures_defreturn"
	ProcDefNoReturn    Kind = "procedures_defnoreturn"
	ProcCallNoReturn   Kind = "procedures_callnoreturn"
	ProcIfReturn       Kind = "procedures_ifreturn"

	// Values
	MathNumber      Kind = "math_number"
	Text            Kind = "text"
	LogicBoolean    Kind = "logic_boolean"
	LogicNull       Kind = "logic_null"
	VariablesGet    Kind = "variables_get"
	MathArithmetic  Kind = "math_arithmetic"
	LogicCompare    Kind = "logic_compare"
	LogicOperation  Kind = "logic_operation"
	LogicNegate     Kind = "logic_negate"
	ListsCreateWith Kind = "lists_create_with"
	ProcCallReturn  Kind = "procedures_callreturn"
)

// Shape tells where a block may be plugged in
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeStatement
	ShapeValue
	ShapeDefinition
)

var shapes = map[Kind]Shape{
	ControlsRepeat:     ShapeStatement,
	ControlsRepeatExt:  ShapeStatement,
	ControlsWhileUntil: ShapeStatement,
	ControlsFor:        ShapeStatement,
	ControlsForEach:    ShapeStatement,
	ControlsFlow:       ShapeStatement,
	ControlsIf:         ShapeStatement,
	VariablesSet:       ShapeStatement,
	MathChange:         ShapeStatement,
	ProcCallNoReturn:   ShapeStatement,
	ProcIfReturn:       ShapeStatement,
	ProcDefReturn:      ShapeDefinition,
	ProcDefNoReturn:    ShapeDefinition,
	MathNumber:         ShapeValue,
	Text:               ShapeValue,
	LogicBoolean:       ShapeValue,
	LogicNull:          ShapeValue,
	VariablesGet:       ShapeValue,
	MathArithmetic:     ShapeValue,
	LogicCompare:       ShapeValue,
	LogicOperation:     ShapeValue,
	LogicNegate:        ShapeValue,
	ListsCreateWith:    ShapeValue,
	ProcCallReturn:     ShapeValue,
}

func (k Kind) Shape() Shape      { return shapes[k] }
func (k Kind) IsValue() bool     { return shapes[k] == ShapeValue }
func (k Kind) IsStatement() bool { return shapes[k] == ShapeStatement }

// InputType separates value slots from statement slots
type InputType string

const (
	InputValue     InputType = "value"
	InputStatement InputType = "statement"
)

// Input is a named, ordered child link. Block is nil for an empty slot
type Input struct {
	Name  string    `json:"name"`
	Type  InputType `json:"type"`
	Block *Node     `json:"block,omitempty"`
}

// Node is a single block in the graph
type Node struct {
	Kind      Kind              `json:"kind"`
	ID        string            `json:"id"`
	Fields    map[string]string `json:"fields,omitempty"`
	Inputs    []Input           `json:"inputs,omitempty"`
	Next      *Node             `json:"next,omitempty"`
	Comment   string            `json:"comment,omitempty"`
	Args      []string          `json:"args,omitempty"`
	HasReturn bool              `json:"hasReturn,omitempty"`

	Parent *Node `json:"-"`
	inline bool
}

// Field returns the named field value, or "" when absent
func (n *Node) Field(name string) string {
	if n == nil || n.Fields == nil {
		return ""
	}
	return n.Fields[name]
}

// HasField reports whether the field is present at all, even if empty
func (n *Node) HasField(name string) bool {
	if n == nil || n.Fields == nil {
		return false
	}
	_, ok := n.Fields[name]
	return ok
}

func (n *Node) input(name string, typ InputType) *Input {
	if n == nil {
		return nil
	}
	for i := range n.Inputs {
		if n.Inputs[i].Name == name && n.Inputs[i].Type == typ {
			return &n.Inputs[i]
		}
	}
	return nil
}

// Value returns the block plugged into the named value slot
func (n *Node) Value(name string) *Node {
	if in := n.input(name, InputValue); in != nil {
		return in.Block
	}
	return nil
}

// Statement returns the first block of the named statement slot
func (n *Node) Statement(name string) *Node {
	if in := n.input(name, InputStatement); in != nil {
		return in.Block
	}
	return nil
}

// HasInput reports whether a slot with that name is declared on the block
func (n *Node) HasInput(name string) bool {
	if n == nil {
		return false
	}
	for _, in := range n.Inputs {
		if in.Name == name {
			return true
		}
	}
	return false
}

// CountInputs returns how many declared slots share a name prefix, e.g. IF0, IF1
func (n *Node) CountInputs(prefix string) int {
	count := 0
	for _, in := range n.Inputs {
		if strings.HasPrefix(in.Name, prefix) {
			count++
		}
	}
	return count
}

// Inline reports whether the block is plugged into another block's value slot.
// Only non-inline blocks carry visible comments.
func (n *Node) Inline() bool { return n != nil && n.inline }

// --- Node Constructors ---

func newNode(kind Kind, id string, fields map[string]string) *Node {
	return &Node{Kind: kind, ID: id, Fields: fields}
}

// New creates a bare block of the given kind
func New(kind Kind, id string) *Node { return newNode(kind, id, nil) }

// WithField sets a field and returns the node for chaining
func (n *Node) WithField(name, value string) *Node {
	if n.Fields == nil {
		n.Fields = make(map[string]string)
	}
	n.Fields[name] = value
	return n
}

// WithValue plugs child into a value slot
func (n *Node) WithValue(name string, child *Node) *Node {
	n.Inputs = append(n.Inputs, Input{Name: name, Type: InputValue, Block: child})
	if child != nil {
		child.Parent, child.inline = n, true
	}
	return n
}

// WithStatement attaches a statement chain to a statement slot
func (n *Node) WithStatement(name string, child *Node) *Node {
	n.Inputs = append(n.Inputs, Input{Name: name, Type: InputStatement, Block: child})
	if child != nil {
		child.Parent = n
	}
	return n
}

// WithComment attaches a user comment
func (n *Node) WithComment(text string) *Node {
	n.Comment = text
	return n
}

// Then links next as the statement following n and returns next
func (n *Node) Then(next *Node) *Node {
	n.Next = next
	if next != nil {
		next.Parent = n
	}
	return next
}

func NewNumber(id, value string) *Node {
	return newNode(MathNumber, id, map[string]string{"NUM": value})
}
func NewText(id, value string) *Node {
	return newNode(Text, id, map[string]string{"TEXT": value})
}
func NewBoolean(id string, value bool) *Node {
	v := "FALSE"
	if value {
		v = "TRUE"
	}
	return newNode(LogicBoolean, id, map[string]string{"BOOL": v})
}
func NewVariableGet(id, name string) *Node {
	return newNode(VariablesGet, id, map[string]string{"VAR": name})
}
func NewVariableSet(id, name string, value *Node) *Node {
	return newNode(VariablesSet, id, map[string]string{"VAR": name}).WithValue("VALUE", value)
}
func NewArithmetic(id, op string, a, b *Node) *Node {
	return newNode(MathArithmetic, id, map[string]string{"OP": op}).WithValue("A", a).WithValue("B", b)
}
func NewCompare(id, op string, a, b *Node) *Node {
	return newNode(LogicCompare, id, map[string]string{"OP": op}).WithValue("A", a).WithValue("B", b)
}
func NewLogic(id, op string, a, b *Node) *Node {
	return newNode(LogicOperation, id, map[string]string{"OP": op}).WithValue("A", a).WithValue("B", b)
}
func NewNegate(id string, expr *Node) *Node {
	return newNode(LogicNegate, id, nil).WithValue("BOOL", expr)
}
func NewRepeat(id string, times *Node, body *Node) *Node {
	return newNode(ControlsRepeatExt, id, nil).WithValue("TIMES", times).WithStatement("DO", body)
}
func NewWhile(id string, until bool, cond *Node, body *Node) *Node {
	mode := "WHILE"
	if until {
		mode = "UNTIL"
	}
	return newNode(ControlsWhileUntil, id, map[string]string{"MODE": mode}).WithValue("BOOL", cond).WithStatement("DO", body)
}
func NewFor(id, variable string, from, to, by *Node, body *Node) *Node {
	return newNode(ControlsFor, id, map[string]string{"VAR": variable}).
		WithValue("FROM", from).WithValue("TO", to).WithValue("BY", by).WithStatement("DO", body)
}
func NewForEach(id, variable string, list *Node, body *Node) *Node {
	return newNode(ControlsForEach, id, map[string]string{"VAR": variable}).WithValue("LIST", list).WithStatement("DO", body)
}
func NewFlow(id, flow string) *Node {
	return newNode(ControlsFlow, id, map[string]string{"FLOW": flow})
}
func NewProcedure(id, name string, args []string, body *Node, ret *Node) *Node {
	kind := ProcDefNoReturn
	if ret != nil {
		kind = ProcDefReturn
	}
	n := newNode(kind, id, map[string]string{"NAME": name}).WithStatement("STACK", body)
	n.Args = args
	if ret != nil {
		n.WithValue("RETURN", ret)
	}
	return n
}
func NewCall(id, name string, returns bool, args ...*Node) *Node {
	kind := ProcCallNoReturn
	if returns {
		kind = ProcCallReturn
	}
	n := newNode(kind, id, map[string]string{"NAME": name})
	for i, arg := range args {
		n.WithValue("ARG"+strconv.Itoa(i), arg)
		n.Args = append(n.Args, "arg"+strconv.Itoa(i))
	}
	return n
}
func NewIfReturn(id string, cond, value *Node, hasReturn bool) *Node {
	n := newNode(ProcIfReturn, id, nil).WithValue("CONDITION", cond)
	n.HasReturn = hasReturn
	if hasReturn {
		n.WithValue("VALUE", value)
	}
	return n
}

// Walk visits node, its inputs in declaration order, then the statements that follow it
func Walk(node *Node, visitor func(n *Node)) {
	for n := node; n != nil; n = n.Next {
		visitor(n)
		for _, in := range n.Inputs {
			Walk(in.Block, visitor)
		}
	}
}
