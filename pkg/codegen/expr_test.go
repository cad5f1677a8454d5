package codegen

import (
	"testing"

	"github.com/xplshn/blockc/pkg/block"
	"github.com/xplshn/blockc/pkg/config"
)

func num(v string) *block.Node  { return block.NewNumber("", v) }
func get(v string) *block.Node  { return block.NewVariableGet("", v) }
func text(v string) *block.Node { return block.NewText("", v) }

func arith(op string, a, b *block.Node) *block.Node { return block.NewArithmetic("", op, a, b) }
func compare(op string, a, b *block.Node) *block.Node {
	return block.NewCompare("", op, a, b)
}
func logic(op string, a, b *block.Node) *block.Node { return block.NewLogic("", op, a, b) }

// emitValue generates expr as the VALUE of an assignment and returns the operand text
func emitValue(t *testing.T, lang *Language, expr *block.Node, outer Order) string {
	t.Helper()
	wrapper := block.NewVariableSet("w", "result", expr)
	ws, err := block.NewWorkspace(nil, wrapper)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	g := NewGenerator(config.NewConfig(), lang)
	g.Init(ws)
	code, err := g.ValueToCode(wrapper, "VALUE", outer)
	if err != nil {
		t.Fatalf("ValueToCode: %v", err)
	}
	return code
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		name string
		expr *block.Node
		want string
	}{
		{"looser left operand", arith("MULTIPLY", arith("ADD", num("1"), num("2")), num("3")), "(1 + 2) * 3"},
		{"tighter right operand", arith("ADD", num("1"), arith("MULTIPLY", num("2"), num("3"))), "1 + 2 * 3"},
		{"non-associative right", arith("MINUS", get("a"), arith("MINUS", get("b"), get("c"))), "a - (b - c)"},
		{"left-associative chain", arith("MINUS", arith("MINUS", get("a"), get("b")), get("c")), "a - b - c"},
		{"associative right", arith("ADD", get("a"), arith("ADD", get("b"), get("c"))), "a + b + c"},
		{"mixed multiplicative", arith("MULTIPLY", get("a"), arith("DIVIDE", get("b"), get("c"))), "a * (b / c)"},
		{"negative literal", arith("MINUS", get("a"), num("-2")), "a - -2"},
		{"power", arith("POWER", arith("ADD", num("1"), num("2")), num("3")), "pow(1 + 2, 3)"},
		{"comparison operands", compare("LT", arith("ADD", num("1"), num("2")), num("3")), "1 + 2 < 3"},
		{"equality of comparison", compare("EQ", compare("LT", get("a"), get("b")), get("c")), "a < b == c"},
		{"or inside and", logic("AND", get("a"), logic("OR", get("b"), get("c"))), "a && (b || c)"},
		{"and inside or", logic("OR", get("a"), logic("AND", get("b"), get("c"))), "a || b && c"},
		{"negate compound", block.NewNegate("", logic("AND", get("a"), get("b"))), "!(a && b)"},
		{"negate atom", block.NewNegate("", get("a")), "!a"},
		{"empty operands", arith("ADD", nil, nil), "0 + 0"},
		{"text", text("it's\n"), `'it\'s\n'`},
		{"number normalized", num("007.50"), "7.5"},
		{"boolean", block.NewBoolean("", true), "true"},
		{"null", block.New(block.LogicNull, ""), "null"},
		{"list", block.New(block.ListsCreateWith, "").
			WithValue("ADD0", num("1")).
			WithValue("ADD1", text("a")).
			WithValue("ADD2", nil), "[1, 'a', null]"},
		{"call", block.NewCall("", "f", true, arith("ADD", num("1"), num("2")), nil), "f(1 + 2, null)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := emitValue(t, Ch, tt.expr, OrderNone); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValueToCodeWrapsForOuterContext(t *testing.T) {
	sum := func() *block.Node { return arith("ADD", get("a"), get("b")) }
	if got := emitValue(t, Ch, sum(), OrderMultiplication); got != "(a + b)" {
		t.Errorf("addition under multiplication = %q", got)
	}
	if got := emitValue(t, Ch, sum(), OrderAddition); got != "a + b" {
		t.Errorf("addition at equal precedence = %q", got)
	}
	if got := emitValue(t, Ch, get("a"), OrderAtomic); got != "a" {
		t.Errorf("atom at atomic precedence = %q", got)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		own, outer Order
		want       string
	}{
		{OrderAddition, OrderMultiplication, "(x)"},
		{OrderAddition, OrderAddition, "x"},
		{OrderAtomic, OrderAtomic, "x"},
		{OrderComma, OrderNone, "x"},
	}
	for _, tt := range tests {
		if got := Wrap("x", tt.own, tt.outer); got != tt.want {
			t.Errorf("Wrap(x, %d, %d) = %q, want %q", tt.own, tt.outer, got, tt.want)
		}
	}
	if got := Wrap("", OrderNone, OrderAtomic); got != "" {
		t.Errorf("empty code must stay empty, got %q", got)
	}
}

func TestPowerPerLanguage(t *testing.T) {
	if got := emitValue(t, JavaScript, arith("POWER", get("a"), num("2")), OrderNone); got != "Math.pow(a, 2)" {
		t.Errorf("js power = %q", got)
	}
}

func TestExpressionErrors(t *testing.T) {
	tests := []*block.Node{
		num("twelve"),
		arith("MODULO", num("1"), num("2")),
		block.NewBoolean("", true).WithField("BOOL", "MAYBE"),
	}
	for _, expr := range tests {
		wrapper := block.NewVariableSet("w", "x", expr)
		ws, err := block.NewWorkspace(nil, wrapper)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := NewGenerator(config.NewConfig(), Ch).Generate(ws); err == nil {
			t.Errorf("%s with fields %v generated without error", expr.Kind, expr.Fields)
		}
	}
}
