package codegen

import (
	"math"
	"strconv"

	"github.com/xplshn/blockc/pkg/block"
	"github.com/xplshn/blockc/pkg/config"
	"github.com/xplshn/blockc/pkg/names"
	"github.com/xplshn/blockc/pkg/util"
)

// enterLoop allocates the loop's cancellation token and makes it the target of break
func (g *Generator) enterLoop() string {
	token := ""
	if g.flow.usesTokens() {
		token = g.names.GetDistinctName("loop", names.Variable)
	}
	g.loops = append(g.loops, token)
	return token
}

func (g *Generator) exitLoop() { g.loops = g.loops[:len(g.loops)-1] }

// loopBody renders the iteration function handed to a driver. first and last are
// extra stages around the statements of the DO slot.
func (g *Generator) loopBody(n *block.Node, token, counter, first, last string) (string, error) {
	branch, err := g.StatementToCode(n, "DO")
	if err != nil {
		return "", err
	}
	stages := first + branch + last
	if g.cfg.IsFeatureEnabled(config.FeatLoopTrap) && g.cfg.LoopTrap != "" {
		stages = g.flow.stage(g.snippet(g.cfg.LoopTrap, n)) + stages
	}
	return g.block("function("+g.flow.loopParams(token, counter)+")", g.returnChain(stages)), nil
}

// hoist returns code unchanged when it is cheap to re-evaluate, otherwise it declares
// a fresh variable named after hint and returns that name.
func (g *Generator) hoist(code, hint string, decls *string) string {
	if util.IsIdentifier(code) || util.IsNumber(code) {
		return code
	}
	name := g.names.GetDistinctName(hint, names.Variable)
	*decls += "var " + name + " = " + code + ";\n"
	return name
}

func (g *Generator) repeat(n *block.Node) (string, error) {
	var times string
	var err error
	if n.HasField("TIMES") {
		times, err = parseNumber(n, n.Field("TIMES"))
	} else {
		times, err = g.valueOrDefault(n, "TIMES", OrderAssignment, "0")
	}
	if err != nil {
		return "", err
	}

	var decls string
	end := g.hoist(times, "repeat_end", &decls)
	counter := g.names.GetDistinctName("count", names.Variable)

	token := g.enterLoop()
	body, err := g.loopBody(n, token, counter, "", "")
	g.exitLoop()
	if err != nil {
		return "", err
	}
	return g.flow.stage(decls + "return promiseTimes(" + end + ", " + body + ");"), nil
}

func (g *Generator) whileUntil(n *block.Node) (string, error) {
	until := n.Field("MODE") == "UNTIL"
	outer := OrderNone
	if until {
		outer = OrderLogicalNot
	}
	guard, err := g.valueOrDefault(n, "BOOL", outer, "false")
	if err != nil {
		return "", err
	}
	if until {
		guard = "!" + guard
	}

	token := g.enterLoop()
	body, err := g.loopBody(n, token, "", "", "")
	g.exitLoop()
	if err != nil {
		return "", err
	}
	return g.flow.stage("return promiseWhile(function() { return " + guard + "; }, " + body + ");"), nil
}

func (g *Generator) forLoop(n *block.Node) (string, error) {
	variable := g.names.GetName(n.Field("VAR"), names.Variable)
	from, err := g.valueOrDefault(n, "FROM", OrderAssignment, "0")
	if err != nil {
		return "", err
	}
	to, err := g.valueOrDefault(n, "TO", OrderAssignment, "0")
	if err != nil {
		return "", err
	}
	by, err := g.valueOrDefault(n, "BY", OrderAssignment, "1")
	if err != nil {
		return "", err
	}

	if util.IsNumber(from) && util.IsNumber(to) && util.IsNumber(by) {
		return g.staticFor(n, variable, from, to, by)
	}
	return g.dynamicFor(n, variable, from, to, by)
}

// staticFor handles literal bounds: the direction is known while generating
func (g *Generator) staticFor(n *block.Node, variable, from, to, by string) (string, error) {
	start, _ := strconv.ParseFloat(from, 64)
	end, _ := strconv.ParseFloat(to, 64)
	step, _ := strconv.ParseFloat(by, 64)
	up := start <= end

	cmp, inc := " >= ", variable+"--;"
	if up {
		cmp, inc = " <= ", variable+"++;"
	}
	if step = math.Abs(step); step != 1 {
		if up {
			inc = variable + " += " + formatNumber(step) + ";"
		} else {
			inc = variable + " -= " + formatNumber(step) + ";"
		}
	}

	token := g.enterLoop()
	body, err := g.loopBody(n, token, "", "", g.flow.stage(inc))
	g.exitLoop()
	if err != nil {
		return "", err
	}
	return g.flow.stage(variable + " = " + from + ";\n" +
		"return promiseWhile(function() { return " + variable + cmp + to + "; }, " + body + ");"), nil
}

// dynamicFor decides the direction once, when the loop starts. Later changes to the
// bound variables do not flip it.
func (g *Generator) dynamicFor(n *block.Node, variable, from, to, by string) (string, error) {
	var decls string
	start := g.hoist(from, variable+"_start", &decls)
	end := g.hoist(to, variable+"_end", &decls)

	incVar := g.names.GetDistinctName(variable+"_inc", names.Variable)
	if util.IsNumber(by) {
		step, _ := strconv.ParseFloat(by, 64)
		decls += "var " + incVar + " = " + formatNumber(math.Abs(step)) + ";\n"
	} else {
		decls += "var " + incVar + " = Math.abs(" + by + ");\n"
	}
	decls += g.block("if ("+start+" > "+end+")", incVar+" = -"+incVar+";") + "\n"
	decls += variable + " = " + start + ";\n"

	token := g.enterLoop()
	body, err := g.loopBody(n, token, "", "", g.flow.stage(variable+" += "+incVar+";"))
	g.exitLoop()
	if err != nil {
		return "", err
	}
	guard := incVar + " >= 0 ? " + variable + " <= " + end + " : " + variable + " >= " + end
	return g.flow.stage(decls + "return promiseWhile(function() { return " + guard + "; }, " + body + ");"), nil
}

func (g *Generator) forEach(n *block.Node) (string, error) {
	variable := g.names.GetName(n.Field("VAR"), names.Variable)
	list, err := g.valueOrDefault(n, "LIST", OrderAssignment, "[]")
	if err != nil {
		return "", err
	}

	var decls string
	listVar := list
	if !util.IsIdentifier(list) {
		listVar = g.names.GetDistinctName(variable+"_list", names.Variable)
		decls += "var " + listVar + " = " + list + ";\n"
	}
	indexVar := g.names.GetDistinctName(variable+"_index", names.Variable)
	decls += "var " + indexVar + " = 0;\n"

	token := g.enterLoop()
	body, err := g.loopBody(n, token, "",
		g.flow.stage(variable+" = "+listVar+"["+indexVar+"];"),
		g.flow.stage(indexVar+"++;"))
	g.exitLoop()
	if err != nil {
		return "", err
	}
	guard := indexVar + " < " + listVar + ".length"
	return g.flow.stage(decls + "return promiseWhile(function() { return " + guard + "; }, " + body + ");"), nil
}

func (g *Generator) flowStatement(n *block.Node) (string, error) {
	switch flow := n.Field("FLOW"); flow {
	case "BREAK":
		if len(g.loops) == 0 {
			return "", util.Error(n, ErrBreakOutsideLoop, "")
		}
		return g.flow.stage(g.flow.breakLoop(g.loops[len(g.loops)-1])), nil
	case "CONTINUE":
		return "", util.Error(n, ErrUnsupported, "'continue' has no promise chain encoding")
	default:
		return "", util.Error(n, ErrUnknownFlow, "%q", flow)
	}
}
