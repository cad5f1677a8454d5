package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/blockc/pkg/block"
	"github.com/xplshn/blockc/pkg/config"
)

func TestProcedureDefinition(t *testing.T) {
	got := generate(t, config.NewConfig(), Ch, nil,
		block.NewProcedure("p1", "hello", nil, block.NewVariableSet("s1", "x", num("1")), nil))
	want := `int x;

function hello() {
    return new Promise(function(funcResolve, funcReject) {
        Promise.resolve()
            .then(function(flow) {
                if (flow) { return flow; }
                x = 1;
            })
            .then(function(flow) {
                if (flow && flow.kind == "return") {
                    funcResolve(flow.value);
                } else {
                    funcResolve();
                }
            }, funcReject);
    });
}


`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

// doubler defines a returning procedure named after a reserved word and calls it both ways
func doubler() []*block.Node {
	def := block.NewProcedure("p1", "double", []string{"n"},
		block.NewIfReturn("r1", compare("GT", get("n"), num("10")), get("n"), true),
		arith("MULTIPLY", get("n"), num("2")))
	main := block.NewVariableSet("s1", "x", block.NewCall("c1", "double", true, num("4")))
	main.Then(block.NewCall("c2", "double", false, num("1")))
	return []*block.Node{def, main}
}

func TestProceduresTagged(t *testing.T) {
	got := generate(t, testConfig(t, config.ProtocolTagged), Ch, nil, doubler()...)
	assertContains(t, got,
		"int n;\nint x;\n\nfunction double2(n) {",
		"if (n > 10) {",
		`return {kind: "return", value: n};`,
		`return {kind: "return", value: n * 2};`,
		"}, funcReject);",
		"x = double2(4);",
		"return double2(1).then(function() {});",
	)
	if strings.Index(got, "function double2") > strings.Index(got, "\n\n\nPromise.resolve()") {
		t.Errorf("definitions must precede the program body:\n%s", got)
	}
}

func TestProceduresSentinel(t *testing.T) {
	got := generate(t, testConfig(t, config.ProtocolSentinel), Ch, nil, doubler()...)
	assertContains(t, got,
		"function double2(n) {",
		"funcResolve(n);\n",
		"funcResolve(n * 2);\n",
		`return Promise.reject("return");`,
		".catch(function(reason) {",
		`if (reason == "break" || reason == "return") {`,
		"funcReject(reason);",
		"x = double2(4);",
		"return double2(1);",
	)
	if strings.Contains(got, "flow") {
		t.Errorf("sentinel output mentions tagged signals:\n%s", got)
	}
}

func TestIfReturnWithoutValue(t *testing.T) {
	def := block.NewProcedure("p1", "stop", nil, block.NewIfReturn("r1", get("done"), nil, false), nil)

	got := generate(t, testConfig(t, config.ProtocolTagged), JavaScript, nil, def)
	assertContains(t, got, "if (done) {\n                    return {kind: \"return\"};\n                }")

	got = generate(t, testConfig(t, config.ProtocolSentinel), JavaScript, nil,
		block.NewProcedure("p1", "stop", nil, block.NewIfReturn("r1", get("done"), nil, false), nil))
	assertContains(t, got, "if (done) {\n                    funcResolve();\n                    return Promise.reject(\"return\");\n                }")
}

// The recovery stage swallows "return" without resolving, so every sentinel
// return must settle the procedure itself or its callers never resume.
func TestSentinelReturnSettlesProcedure(t *testing.T) {
	stop := block.NewProcedure("p1", "stop", nil, block.NewIfReturn("r1", block.NewBoolean("b1", true), nil, false), nil)
	caller := block.NewCall("c1", "stop", false)
	caller.Then(block.NewVariableSet("s1", "after", num("1")))
	roots := append(doubler(), stop, caller)

	got := generate(t, testConfig(t, config.ProtocolSentinel), JavaScript, nil, roots...)
	lines := strings.Split(got, "\n")
	rejects := 0
	for i, line := range lines {
		if strings.TrimSpace(line) != `return Promise.reject("return");` {
			continue
		}
		rejects++
		if i == 0 || !strings.HasPrefix(strings.TrimSpace(lines[i-1]), "funcResolve(") {
			t.Errorf("line %d rejects with \"return\" without resolving first:\n%s", i+1, got)
		}
	}
	if rejects != 3 {
		t.Errorf("got %d sentinel returns, want 3:\n%s", rejects, got)
	}
	assertContains(t, got, "funcResolve();\n                    return Promise.reject(\"return\");", "return stop();")
}

func TestProcedureStatementPrefix(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatStatementPrefix, true)
	got := generate(t, cfg, Ch, nil, block.NewProcedure("p1", "go", nil, nil, nil))
	assertContains(t, got, "highlightBlock('p1');")
}

func TestCallArguments(t *testing.T) {
	call := block.NewCall("c1", "drive", false, num("1"), nil)
	got := generate(t, config.NewConfig(), JavaScript, nil, call)
	assertContains(t, got, "return drive(1, null).then(function() {});")
}

func TestProcedureComment(t *testing.T) {
	def := block.NewProcedure("p1", "hello", nil, nil, nil).WithComment("greets")
	got := generate(t, config.NewConfig(), Ch, nil, def)
	assertContains(t, got, "// greets\nfunction hello() {")
}

func TestDuplicateProcedure(t *testing.T) {
	first := block.NewProcedure("p1", "walk", nil, block.NewVariableSet("s1", "x", num("1")), nil)
	second := block.NewProcedure("p2", "Walk", nil, block.NewVariableSet("s2", "x", num("2")), nil)
	err := generateErr(t, first, second)
	if !errors.Is(err, ErrDuplicateProcedure) {
		t.Fatalf("Generate() = %v, want %v", err, ErrDuplicateProcedure)
	}
	if !strings.Contains(err.Error(), "'Walk'") {
		t.Errorf("error %q does not name the second definition", err)
	}
}

func TestProcedureNamedLikeThePreamble(t *testing.T) {
	def := block.NewProcedure("p1", "variables", nil, block.NewVariableSet("s1", "x", num("1")), nil)
	got := generate(t, config.NewConfig(), Ch, nil, def)
	assertContains(t, got, "int x;\n\nfunction variables() {")
}
