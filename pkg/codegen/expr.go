package codegen

import (
	"math"
	"strconv"
	"strings"

	"github.com/xplshn/blockc/pkg/block"
	"github.com/xplshn/blockc/pkg/config"
	"github.com/xplshn/blockc/pkg/names"
	"github.com/xplshn/blockc/pkg/util"
)

type binaryOp struct {
	op          string
	order       Order
	associative bool
}

var arithmeticOps = map[string]binaryOp{
	"ADD":      {" + ", OrderAddition, true},
	"MINUS":    {" - ", OrderSubtraction, false},
	"MULTIPLY": {" * ", OrderMultiplication, true},
	"DIVIDE":   {" / ", OrderDivision, false},
}

var compareOps = map[string]binaryOp{
	"EQ":  {" == ", OrderEquality, false},
	"NEQ": {" != ", OrderEquality, false},
	"LT":  {" < ", OrderRelational, false},
	"LTE": {" <= ", OrderRelational, false},
	"GT":  {" > ", OrderRelational, false},
	"GTE": {" >= ", OrderRelational, false},
}

var logicOps = map[string]binaryOp{
	"AND": {" && ", OrderLogicalAnd, true},
	"OR":  {" || ", OrderLogicalOr, true},
}

// ValueToCode emits the block in the named value slot of n, parenthesized for a
// context that needs precedence outer. An empty slot yields "".
func (g *Generator) ValueToCode(n *block.Node, slot string, outer Order) (string, error) {
	child := n.Value(slot)
	if child == nil {
		return "", nil
	}
	code, own, err := g.exprToCode(child)
	if err != nil {
		return "", err
	}
	return Wrap(code, own, outer), nil
}

// valueOrDefault is ValueToCode with the construct default substituted for an empty slot
func (g *Generator) valueOrDefault(n *block.Node, slot string, outer Order, def string) (string, error) {
	code, err := g.ValueToCode(n, slot, outer)
	if err != nil {
		return "", err
	}
	if code == "" {
		util.Warn(g.cfg, config.WarnEmptySlot, n, "slot '%s' is empty, using %s", slot, def)
		code = def
	}
	return code, nil
}

func (g *Generator) exprToCode(n *block.Node) (string, Order, error) {
	switch n.Kind {
	case block.MathNumber:
		num, err := parseNumber(n, n.Field("NUM"))
		if err != nil {
			return "", OrderAtomic, err
		}
		if strings.HasPrefix(num, "-") {
			return num, OrderUnaryNegation, nil
		}
		return num, OrderAtomic, nil

	case block.Text:
		return g.lang.quote(n.Field("TEXT")), OrderAtomic, nil

	case block.LogicBoolean:
		switch n.Field("BOOL") {
		case "TRUE":
			return "true", OrderAtomic, nil
		case "FALSE":
			return "false", OrderAtomic, nil
		}
		return "", OrderAtomic, util.Error(n, ErrInvalidField, "BOOL must be TRUE or FALSE, got %q", n.Field("BOOL"))

	case block.LogicNull:
		return "null", OrderAtomic, nil

	case block.VariablesGet:
		return g.names.GetName(n.Field("VAR"), names.Variable), OrderAtomic, nil

	case block.MathArithmetic:
		if n.Field("OP") == "POWER" {
			a, err := g.valueOrDefault(n, "A", OrderComma, "0")
			if err != nil {
				return "", OrderAtomic, err
			}
			b, err := g.valueOrDefault(n, "B", OrderComma, "0")
			if err != nil {
				return "", OrderAtomic, err
			}
			return g.lang.PowFunc + "(" + a + ", " + b + ")", OrderFunctionCall, nil
		}
		return g.binary(n, arithmeticOps, "0")

	case block.LogicCompare:
		return g.binary(n, compareOps, "0")

	case block.LogicOperation:
		return g.binary(n, logicOps, "false")

	case block.LogicNegate:
		arg, err := g.valueOrDefault(n, "BOOL", OrderLogicalNot, "true")
		if err != nil {
			return "", OrderAtomic, err
		}
		return "!" + arg, OrderLogicalNot, nil

	case block.ListsCreateWith:
		items := make([]string, n.CountInputs("ADD"))
		for i := range items {
			item, err := g.valueOrDefault(n, "ADD"+strconv.Itoa(i), OrderComma, "null")
			if err != nil {
				return "", OrderAtomic, err
			}
			items[i] = item
		}
		return "[" + strings.Join(items, ", ") + "]", OrderAtomic, nil

	case block.ProcCallReturn:
		call, err := g.call(n)
		return call, OrderFunctionCall, err
	}
	return "", OrderAtomic, util.Error(n, ErrUnknownKind, "block does not produce a value")
}

// binary emits "A op B". The right operand is requested one level tighter so that
// an equal-precedence right operand keeps its grouping, except when it repeats the
// same associative operator.
func (g *Generator) binary(n *block.Node, ops map[string]binaryOp, def string) (string, Order, error) {
	op, ok := ops[n.Field("OP")]
	if !ok {
		return "", OrderAtomic, util.Error(n, ErrInvalidField, "unknown operator %q", n.Field("OP"))
	}
	a, err := g.valueOrDefault(n, "A", op.order, def)
	if err != nil {
		return "", OrderAtomic, err
	}
	rightOrder := op.order - 1
	if b := n.Value("B"); op.associative && b != nil && b.Kind == n.Kind && b.Field("OP") == n.Field("OP") {
		rightOrder = op.order
	}
	b, err := g.valueOrDefault(n, "B", rightOrder, def)
	if err != nil {
		return "", OrderAtomic, err
	}
	return a + op.op + b, op.order, nil
}

// parseNumber normalizes a numeric field the way the editor stores it
func parseNumber(n *block.Node, raw string) (string, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return "", util.Error(n, ErrInvalidField, "%q is not a number", raw)
	}
	return formatNumber(f), nil
}

func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
