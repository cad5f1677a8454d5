package codegen

import (
	"fmt"

	"github.com/xplshn/blockc/pkg/config"
	"github.com/xplshn/blockc/pkg/util"
)

// flowProtocol decides how chain stages are spelled and how break and return
// travel through them at run time.
type flowProtocol interface {
	// stage wraps statement text into one .then(...) link
	stage(body string) string
	// loopParams is the parameter list of a loop body function
	loopParams(token, counter string) string
	// usesTokens reports whether every loop needs its own cancellation token
	usesTokens() bool
	breakLoop(token string) string
	// returnFrom performs a procedure return; value is empty when nothing is returned
	returnFrom(value string) string
	callStatement(call string) string
	// procedureTail is the last stages of a procedure chain
	procedureTail() string
}

func newFlowProtocol(cfg *config.Config) flowProtocol {
	indent := cfg.IndentString()
	if cfg.Protocol() == config.ProtocolSentinel {
		return sentinelFlow{indent}
	}
	return taggedFlow{indent}
}

// taggedFlow threads a signal object as the resolved value of every stage.
// A stage that receives a signal passes it on untouched; loop drivers consume
// breaks carrying their own token and procedures unwrap returns.
type taggedFlow struct{ indent string }

func (t taggedFlow) stage(body string) string {
	return ".then(function(flow) {\n" +
		util.PrefixLines("if (flow) { return flow; }\n"+body, t.indent) +
		"\n})\n"
}

func (t taggedFlow) loopParams(token, counter string) string {
	if counter == "" {
		return token
	}
	return token + ", " + counter
}

func (t taggedFlow) usesTokens() bool { return true }

func (t taggedFlow) breakLoop(token string) string {
	return fmt.Sprintf("return {kind: \"break\", loop: %s};", token)
}

func (t taggedFlow) returnFrom(value string) string {
	if value == "" {
		return "return {kind: \"return\"};"
	}
	return fmt.Sprintf("return {kind: \"return\", value: %s};", value)
}

func (t taggedFlow) callStatement(call string) string {
	// Whatever the procedure resolves with is not a signal for this chain
	return "return " + call + ".then(function() {});"
}

func (t taggedFlow) procedureTail() string {
	return ".then(function(flow) {\n" +
		util.PrefixLines("if (flow && flow.kind == \"return\") {\n"+
			t.indent+"funcResolve(flow.value);\n"+
			"} else {\n"+
			t.indent+"funcResolve();\n"+
			"}", t.indent) +
		"\n}, funcReject)\n"
}

// sentinelFlow keeps the legacy runtime contract: break raises a pass-wide flag
// checked by the drivers, return resolves the procedure and rejects with "return"
// so the rest of the chain is skipped.
type sentinelFlow struct{ indent string }

func (s sentinelFlow) stage(body string) string {
	return ".then(function() {\n" + util.PrefixLines(body, s.indent) + "\n})\n"
}

func (s sentinelFlow) loopParams(token, counter string) string { return counter }

func (s sentinelFlow) usesTokens() bool { return false }

func (s sentinelFlow) breakLoop(string) string {
	return "blockly_loop_break_flag = true;\nreturn Promise.resolve();"
}

// returnFrom settles the procedure before rejecting: the recovery stage swallows
// "return" without resolving anything.
func (s sentinelFlow) returnFrom(value string) string {
	return fmt.Sprintf("funcResolve(%s);\nreturn Promise.reject(\"return\");", value)
}

func (s sentinelFlow) callStatement(call string) string { return "return " + call + ";" }

func (s sentinelFlow) procedureTail() string {
	return ".then(function() {\n" +
		s.indent + "funcResolve();\n" +
		"})\n" +
		".catch(function(reason) {\n" +
		util.PrefixLines("if (reason == \"break\" || reason == \"return\") {\n"+
			s.indent+"return;\n"+
			"}\n"+
			"funcReject(reason);", s.indent) +
		"\n})\n"
}
