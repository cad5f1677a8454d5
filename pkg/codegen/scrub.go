package codegen

import (
	"strings"

	"github.com/xplshn/blockc/pkg/block"
	"github.com/xplshn/blockc/pkg/config"
	"github.com/xplshn/blockc/pkg/util"
)

// FinalizeStatement attaches the comments of n and of its value operands, then
// appends the code of the statements chained after n. Inline blocks carry no comments.
func (g *Generator) FinalizeStatement(n *block.Node, code string) (string, error) {
	var sb strings.Builder
	if !n.Inline() && g.cfg.IsFeatureEnabled(config.FeatComments) {
		if n.Comment != "" {
			sb.WriteString(util.PrefixLines(n.Comment, "// "))
			sb.WriteString("\n")
		}
		for _, in := range n.Inputs {
			if in.Type != block.InputValue || in.Block == nil {
				continue
			}
			if c := allNestedComments(in.Block); c != "" {
				sb.WriteString(util.PrefixLines(c, "// "))
			}
		}
	}
	sb.WriteString(code)

	next, err := g.blockToCode(n.Next)
	if err != nil {
		return "", err
	}
	sb.WriteString(next)
	return sb.String(), nil
}

// allNestedComments collects the comments of n and all its descendants, one per line
func allNestedComments(n *block.Node) string {
	var comments []string
	block.Walk(n, func(d *block.Node) {
		if d.Comment != "" {
			comments = append(comments, d.Comment)
		}
	})
	if len(comments) == 0 {
		return ""
	}
	return strings.Join(comments, "\n") + "\n"
}
