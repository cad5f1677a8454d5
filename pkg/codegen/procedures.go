package codegen

import (
	"strconv"
	"strings"

	"github.com/xplshn/blockc/pkg/block"
	"github.com/xplshn/blockc/pkg/config"
	"github.com/xplshn/blockc/pkg/names"
	"github.com/xplshn/blockc/pkg/util"
)

// procedureDefinition stores the procedure in the definition table. With and without
// a return value share this path; the latter simply has no RETURN slot.
func (g *Generator) procedureDefinition(n *block.Node) error {
	funcName := g.names.GetName(n.Field("NAME"), names.Procedure)
	// Names match case-insensitively, so "Walk" and "walk" collide too
	if _, ok := g.defs.get(funcName); ok {
		return util.Error(n, ErrDuplicateProcedure, "'%s'", n.Field("NAME"))
	}

	g.inProcedure = true
	branch, err := g.StatementToCode(n, "STACK")
	g.inProcedure = false
	if err != nil {
		return err
	}

	var stages string
	if g.cfg.IsFeatureEnabled(config.FeatLoopTrap) && g.cfg.LoopTrap != "" {
		stages += g.flow.stage(g.snippet(g.cfg.LoopTrap, n))
	}
	if g.cfg.IsFeatureEnabled(config.FeatStatementPrefix) && g.cfg.StatementPrefix != "" {
		stages += g.flow.stage(g.snippet(g.cfg.StatementPrefix, n))
	}
	stages += branch

	if n.Kind == block.ProcDefReturn {
		ret, err := g.ValueToCode(n, "RETURN", OrderNone)
		if err != nil {
			return err
		}
		if ret != "" {
			stages += g.flow.stage(g.flow.returnFrom(ret))
		} else {
			util.Warn(g.cfg, config.WarnEmptySlot, n, "procedure '%s' returns nothing", n.Field("NAME"))
		}
	}
	stages += g.flow.procedureTail()

	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = g.names.GetName(arg, names.Variable)
	}

	executor := g.block("return new Promise(function(funcResolve, funcReject)", g.chain(stages)+";") + ");"
	code := g.block("function "+funcName+"("+strings.Join(args, ", ")+")", executor)

	code, err = g.FinalizeStatement(n, code)
	if err != nil {
		return err
	}
	g.defs.set(funcName, code)
	return nil
}

// call renders "name(args)" for both call kinds
func (g *Generator) call(n *block.Node) (string, error) {
	funcName := g.names.GetName(n.Field("NAME"), names.Procedure)
	args := make([]string, max(len(n.Args), n.CountInputs("ARG")))
	for i := range args {
		arg, err := g.valueOrDefault(n, "ARG"+strconv.Itoa(i), OrderComma, "null")
		if err != nil {
			return "", err
		}
		args[i] = arg
	}
	return funcName + "(" + strings.Join(args, ", ") + ")", nil
}

// callNoReturn waits for the procedure to settle before the chain moves on
func (g *Generator) callNoReturn(n *block.Node) (string, error) {
	call, err := g.call(n)
	if err != nil {
		return "", err
	}
	return g.flow.stage(g.flow.callStatement(call)), nil
}

func (g *Generator) ifReturn(n *block.Node) (string, error) {
	if !g.inProcedure {
		return "", util.Error(n, ErrReturnOutsideProcedure, "")
	}
	condition, err := g.valueOrDefault(n, "CONDITION", OrderNone, "false")
	if err != nil {
		return "", err
	}
	value := ""
	if n.HasReturn {
		if value, err = g.valueOrDefault(n, "VALUE", OrderNone, "null"); err != nil {
			return "", err
		}
	}
	return g.flow.stage(g.block("if ("+condition+")", g.flow.returnFrom(value))), nil
}
