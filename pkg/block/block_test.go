package block

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleWorkspace = `{
  "variables": [{"name": "speed", "type": "Number"}, {"name": "bot", "type": "Linkbot"}],
  "blocks": [
    {
      "kind": "controls_for",
      "id": "for1",
      "comment": "count up",
      "fields": {"VAR": "i"},
      "inputs": [
        {"name": "FROM", "type": "value", "block": {"kind": "math_number", "id": "n1", "fields": {"NUM": "1"}}},
        {"name": "TO", "type": "value", "block": {"kind": "variables_get", "id": "g1", "fields": {"VAR": "Limit"}}},
        {"name": "DO", "type": "statement", "block": {
          "kind": "variables_set", "id": "s1", "fields": {"VAR": "SPEED"},
          "inputs": [{"name": "VALUE", "type": "value", "block": {"kind": "variables_get", "id": "g2", "fields": {"VAR": "i"}}}]
        }}
      ],
      "next": {"kind": "controls_flow_statements", "id": "f1", "fields": {"FLOW": "BREAK"}}
    },
    {"kind": "procedures_defnoreturn", "id": "p1", "fields": {"NAME": "drive"}, "args": ["dist"]}
  ]
}`

func TestDecodeLinksGraph(t *testing.T) {
	ws, err := Decode(strings.NewReader(sampleWorkspace))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	loop := ws.Blocks[0]
	if got := loop.Value("FROM"); got == nil || got.Field("NUM") != "1" {
		t.Fatalf("FROM slot = %+v", got)
	}
	if !loop.Value("TO").Inline() {
		t.Errorf("value child should be inline")
	}
	body := loop.Statement("DO")
	if body.Inline() {
		t.Errorf("statement child should not be inline")
	}
	if body.Parent != loop {
		t.Errorf("statement child parent not linked")
	}
	if loop.Next.Parent != loop {
		t.Errorf("next block parent not linked")
	}
	if loop.Inline() {
		t.Errorf("root block should not be inline")
	}
}

func TestAllVariables(t *testing.T) {
	ws, err := Decode(strings.NewReader(sampleWorkspace))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []Variable{
		{Name: "speed", Type: "Number", Kind: VarDecimal},
		{Name: "bot", Type: "Linkbot", Kind: VarLinkbot},
		{Name: "i"},
		{Name: "Limit"},
		{Name: "dist"},
	}
	if diff := cmp.Diff(want, ws.AllVariables()); diff != "" {
		t.Errorf("AllVariables mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateErrors(t *testing.T) {
	loop := NewWhile("w1", false, NewBoolean("b1", true), nil)
	loop.Then(loop)

	tests := []struct {
		name string
		ws   *Workspace
		want error
	}{
		{"cycle", &Workspace{Blocks: []*Node{loop}}, ErrCycle},
		{"unknown kind", &Workspace{Blocks: []*Node{New("math_wat", "x1")}}, ErrUnknownKind},
		{"statement in value slot", &Workspace{Blocks: []*Node{
			NewVariableSet("s1", "x", NewFlow("f1", "BREAK")),
		}}, ErrMisplaced},
		{"value in statement slot", &Workspace{Blocks: []*Node{
			NewRepeat("r1", NewNumber("n1", "3"), NewNumber("n2", "4")),
		}}, ErrMisplaced},
		{"nested definition", &Workspace{Blocks: []*Node{
			NewRepeat("r1", NewNumber("n1", "3"), NewProcedure("p1", "f", nil, nil, nil)),
		}}, ErrMisplaced},
		{"value with next", &Workspace{Blocks: func() []*Node {
			n := NewNumber("n1", "1")
			n.Then(NewFlow("f1", "BREAK"))
			return []*Node{n}
		}()}, ErrMisplaced},
		{"shared child", &Workspace{Blocks: func() []*Node {
			shared := NewNumber("n", "1")
			return []*Node{NewArithmetic("a", "ADD", shared, shared)}
		}()}, ErrCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ws.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseVarKind(t *testing.T) {
	tests := []struct {
		tag  string
		kind VarKind
		ok   bool
	}{
		{"", VarInteger, true},
		{"Number", VarDecimal, true},
		{"Linkbot", VarLinkbot, true},
		{"Colour", VarInteger, false},
	}
	for _, tt := range tests {
		kind, ok := ParseVarKind(tt.tag)
		if kind != tt.kind || ok != tt.ok {
			t.Errorf("ParseVarKind(%q) = %v, %v; want %v, %v", tt.tag, kind, ok, tt.kind, tt.ok)
		}
	}
}

func TestUnknownVariableType(t *testing.T) {
	ws, err := NewWorkspace([]Variable{{Name: "c", Type: "Colour"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := ws.AllVariables()[0]; !got.Unknown || got.Kind != VarInteger {
		t.Errorf("got %+v, want unknown integer", got)
	}
}

func TestWalkOrder(t *testing.T) {
	first := NewVariableSet("s1", "x", NewArithmetic("a1", "ADD", NewNumber("n1", "1"), NewNumber("n2", "2")))
	first.Then(NewFlow("f1", "BREAK"))

	var ids []string
	Walk(first, func(n *Node) { ids = append(ids, n.ID) })
	want := []string{"s1", "a1", "n1", "n2", "f1"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("Walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestCountInputs(t *testing.T) {
	n := New(ListsCreateWith, "l").
		WithValue("ADD0", NewNumber("a", "1")).
		WithValue("ADD1", nil).
		WithValue("ADD2", NewNumber("b", "3"))
	if got := n.CountInputs("ADD"); got != 3 {
		t.Errorf("CountInputs = %d, want 3", got)
	}
	if n.Value("ADD1") != nil {
		t.Errorf("empty slot should yield nil")
	}
	if !n.HasInput("ADD1") {
		t.Errorf("empty slot should still be declared")
	}
}
