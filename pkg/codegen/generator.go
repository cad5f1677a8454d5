package codegen

import (
	"errors"
	"strings"
	"sync"

	"github.com/xplshn/blockc/pkg/block"
	"github.com/xplshn/blockc/pkg/config"
	"github.com/xplshn/blockc/pkg/names"
	"github.com/xplshn/blockc/pkg/util"
)

var (
	ErrUnknownFlow            = errors.New("unknown flow statement")
	ErrUnsupported            = errors.New("unsupported operation")
	ErrUnknownKind            = errors.New("no generator for block kind")
	ErrBreakOutsideLoop       = errors.New("'break' not in a loop")
	ErrReturnOutsideProcedure = errors.New("'return' not in a procedure")
	ErrInvalidField           = errors.New("invalid field value")
	ErrDuplicateProcedure     = errors.New("procedure defined more than once")
)

// Generator turns a workspace into promise-chain source text for one target.
// Passes are serialized; the allocator and tables below belong to the running pass.
type Generator struct {
	mu   sync.Mutex
	cfg  *config.Config
	lang *Language
	flow flowProtocol

	indent string
	names  *names.Names
	defs   *definitions
	// loops holds the cancellation token of every enclosing loop, innermost last
	loops       []string
	inProcedure bool
}

func NewGenerator(cfg *config.Config, lang *Language) *Generator {
	g := &Generator{
		cfg:    cfg,
		lang:   lang,
		flow:   newFlowProtocol(cfg),
		indent: cfg.IndentString(),
		names:  names.New(lang.Reserved...),
		defs:   newDefinitions(),
	}
	g.names.AddReserved(runtimeReserved...)
	g.names.AddReserved(cfg.ReservedWords...)
	return g
}

// Generate runs one full pass over ws
func (g *Generator) Generate(ws *block.Workspace) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !ws.Validated() {
		if err := ws.Validate(); err != nil {
			return "", err
		}
	}
	g.Init(ws)

	var stages strings.Builder
	for _, root := range ws.Blocks {
		code, err := g.blockToCode(root)
		if err != nil {
			g.names.Reset()
			return "", err
		}
		stages.WriteString(code)
	}

	body := ""
	if stages.Len() > 0 {
		body = g.chain(stages.String()) + ";\n"
	}
	return g.Finish(body), nil
}

// Init resets pass state and records the variable preamble
func (g *Generator) Init(ws *block.Workspace) {
	g.names.Reset()
	g.defs = newDefinitions()
	g.loops = g.loops[:0]
	g.inProcedure = false

	var decls []string
	for _, v := range ws.AllVariables() {
		if v.Unknown {
			util.Warn(g.cfg, config.WarnUnknownVarType, nil, "variable '%s' has unknown type '%s', declaring it as %s", v.Name, v.Type, g.lang.IntType)
		}
		decls = append(decls, g.lang.declare(g.names.GetName(v.Name, names.Variable), v.Kind))
	}
	g.defs.set(preambleKey, strings.Join(decls, "\n"))
}

// Finish prepends the definitions to body and closes the pass
func (g *Generator) Finish(body string) string {
	out := g.defs.join("\n\n") + "\n\n\n" + body
	g.defs = newDefinitions()
	g.names.Reset()
	return out
}

// blockToCode emits a statement-position block followed by everything chained after it
func (g *Generator) blockToCode(n *block.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	switch n.Kind.Shape() {
	case block.ShapeDefinition:
		return "", g.procedureDefinition(n)
	case block.ShapeValue:
		code, _, err := g.exprToCode(n)
		if err != nil {
			return "", err
		}
		util.Warn(g.cfg, config.WarnNakedValue, n, "value is not plugged into anything")
		return g.FinalizeStatement(n, g.flow.stage(code+";"))
	case block.ShapeStatement:
		code, err := g.statementCode(n)
		if err != nil {
			return "", err
		}
		return g.FinalizeStatement(n, code)
	default:
		return "", util.Error(n, ErrUnknownKind, "")
	}
}

func (g *Generator) statementCode(n *block.Node) (string, error) {
	switch n.Kind {
	case block.ControlsRepeat, block.ControlsRepeatExt:
		return g.repeat(n)
	case block.ControlsWhileUntil:
		return g.whileUntil(n)
	case block.ControlsFor:
		return g.forLoop(n)
	case block.ControlsForEach:
		return g.forEach(n)
	case block.ControlsFlow:
		return g.flowStatement(n)
	case block.ControlsIf:
		return g.ifStatement(n)
	case block.VariablesSet:
		return g.variableSet(n)
	case block.MathChange:
		return g.mathChange(n)
	case block.ProcCallNoReturn:
		return g.callNoReturn(n)
	case block.ProcIfReturn:
		return g.ifReturn(n)
	default:
		return "", util.Error(n, ErrUnknownKind, "")
	}
}

// StatementToCode emits the chain attached to a statement slot of n
func (g *Generator) StatementToCode(n *block.Node, slot string) (string, error) {
	return g.blockToCode(n.Statement(slot))
}

// chain turns stage text into a Promise.resolve() expression
func (g *Generator) chain(stages string) string {
	stages = strings.TrimRight(stages, "\n")
	if stages == "" {
		return "Promise.resolve()"
	}
	return "Promise.resolve()\n" + util.PrefixLines(stages, g.indent)
}

// returnChain renders "return <chain>;" for use inside a function body
func (g *Generator) returnChain(stages string) string {
	return "return " + g.chain(stages) + ";"
}

// block renders "<head> {\n<body>\n}" with body indented
func (g *Generator) block(head, body string) string {
	return head + " {\n" + util.PrefixLines(body, g.indent) + "\n}"
}

// snippet instantiates a configured loop trap or statement prefix for n
func (g *Generator) snippet(template string, n *block.Node) string {
	return strings.ReplaceAll(template, "%1", g.lang.quote(n.ID))
}
