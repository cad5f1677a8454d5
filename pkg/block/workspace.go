package block

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrCycle       = errors.New("block graph contains a cycle")
	ErrUnknownKind = errors.New("unknown block kind")
	ErrMisplaced   = errors.New("block cannot be connected here")
)

// VarKind is the declared kind of a user variable
type VarKind int

const (
	VarInteger VarKind = iota
	VarDecimal
	VarLinkbot
)

func (k VarKind) String() string {
	switch k {
	case VarDecimal:
		return "Number"
	case VarLinkbot:
		return "Linkbot"
	default:
		return "int"
	}
}

// ParseVarKind maps a type tag onto a VarKind. Unknown tags fall back to VarInteger
// and report ok=false so callers can warn.
func ParseVarKind(tag string) (kind VarKind, ok bool) {
	switch tag {
	case "", "int", "Integer":
		return VarInteger, true
	case "Number":
		return VarDecimal, true
	case "Linkbot":
		return VarLinkbot, true
	}
	return VarInteger, false
}

// Variable is a user variable with its declared type tag
type Variable struct {
	Name string  `json:"name"`
	Type string  `json:"type,omitempty"`
	Kind VarKind `json:"-"`
	// Unknown is set when Type named no known kind
	Unknown bool `json:"-"`
}

// Workspace is a rooted forest of blocks plus the declared variables
type Workspace struct {
	Variables []Variable `json:"variables,omitempty"`
	Blocks    []*Node    `json:"blocks"`

	all       []Variable
	validated bool
}

// Decode reads a JSON workspace from r. The result is validated
func Decode(r io.Reader) (*Workspace, error) {
	var ws Workspace
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ws); err != nil {
		return nil, fmt.Errorf("decoding workspace: %w", err)
	}
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return &ws, nil
}

// Load decodes the workspace stored at path
func Load(path string) (*Workspace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ws, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ws, nil
}

// NewWorkspace builds a validated workspace from in-memory roots
func NewWorkspace(vars []Variable, roots ...*Node) (*Workspace, error) {
	ws := &Workspace{Variables: vars, Blocks: roots}
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Validate links parents, rejects cycles and unknown kinds, resolves variable
// kinds and collects every variable the blocks reference
func (ws *Workspace) Validate() error {
	visited := make(map[*Node]bool)
	seen := make(map[string]bool)
	ws.all = ws.all[:0]

	add := func(v Variable) {
		key := strings.ToLower(v.Name)
		if seen[key] {
			return
		}
		seen[key] = true
		ws.all = append(ws.all, v)
	}

	for i := range ws.Variables {
		v := &ws.Variables[i]
		kind, ok := ParseVarKind(v.Type)
		v.Kind, v.Unknown = kind, !ok
		add(*v)
	}

	// allowed reports whether a block of shape s fits where it was found
	allowed := func(s Shape, parent *Node, inline bool) bool {
		switch {
		case inline:
			return s == ShapeValue
		case parent == nil:
			return true
		default:
			return s == ShapeStatement
		}
	}

	var link func(n, parent *Node, inline bool) error
	link = func(n, parent *Node, inline bool) error {
		for ; n != nil; parent, n, inline = n, n.Next, false {
			if visited[n] {
				return fmt.Errorf("block '%s' (%s): %w", n.ID, n.Kind, ErrCycle)
			}
			visited[n] = true
			shape := n.Kind.Shape()
			if shape == ShapeUnknown {
				return fmt.Errorf("block '%s' (%s): %w", n.ID, n.Kind, ErrUnknownKind)
			}
			if !allowed(shape, parent, inline) || (shape != ShapeStatement && n.Next != nil) {
				return fmt.Errorf("block '%s' (%s): %w", n.ID, n.Kind, ErrMisplaced)
			}
			n.Parent, n.inline = parent, inline
			for _, name := range referencedVars(n) {
				add(Variable{Name: name})
			}
			for _, in := range n.Inputs {
				if err := link(in.Block, n, in.Type == InputValue); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, root := range ws.Blocks {
		if err := link(root, nil, false); err != nil {
			return err
		}
	}
	ws.validated = true
	return nil
}

func referencedVars(n *Node) []string {
	switch n.Kind {
	case VariablesGet, VariablesSet, MathChange, ControlsFor, ControlsForEach:
		if name := n.Field("VAR"); name != "" {
			return []string{name}
		}
	case ProcDefReturn, ProcDefNoReturn:
		return n.Args
	}
	return nil
}

// AllVariables returns the declared variables followed by every other variable
// referenced in the graph, deduplicated case-insensitively, in first-seen order
func (ws *Workspace) AllVariables() []Variable {
	out := make([]Variable, len(ws.all))
	copy(out, ws.all)
	return out
}

// Validated reports whether Validate has succeeded on this workspace
func (ws *Workspace) Validated() bool { return ws.validated }
