package codegen

import (
	"strconv"
	"strings"

	"github.com/xplshn/blockc/pkg/block"
	"github.com/xplshn/blockc/pkg/names"
)

// ifStatement is one stage whose branches each return their own chain, so the
// signal a branch produces flows on to the next stage.
func (g *Generator) ifStatement(n *block.Node) (string, error) {
	var sb strings.Builder
	for i := 0; i == 0 || n.HasInput("IF"+strconv.Itoa(i)); i++ {
		idx := strconv.Itoa(i)
		cond, err := g.valueOrDefault(n, "IF"+idx, OrderNone, "false")
		if err != nil {
			return "", err
		}
		branch, err := g.StatementToCode(n, "DO"+idx)
		if err != nil {
			return "", err
		}
		head := "if (" + cond + ")"
		if i > 0 {
			head = " else " + head
		}
		sb.WriteString(g.block(head, g.returnChain(branch)))
	}
	if n.HasInput("ELSE") {
		branch, err := g.StatementToCode(n, "ELSE")
		if err != nil {
			return "", err
		}
		sb.WriteString(g.block(" else", g.returnChain(branch)))
	}
	return g.flow.stage(sb.String()), nil
}

func (g *Generator) variableSet(n *block.Node) (string, error) {
	value, err := g.valueOrDefault(n, "VALUE", OrderAssignment, "0")
	if err != nil {
		return "", err
	}
	return g.flow.stage(g.names.GetName(n.Field("VAR"), names.Variable) + " = " + value + ";"), nil
}

func (g *Generator) mathChange(n *block.Node) (string, error) {
	delta, err := g.valueOrDefault(n, "DELTA", OrderAssignment, "0")
	if err != nil {
		return "", err
	}
	return g.flow.stage(g.names.GetName(n.Field("VAR"), names.Variable) + " += " + delta + ";"), nil
}
