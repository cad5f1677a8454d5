package util

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xplshn/blockc/pkg/block"
	"github.com/xplshn/blockc/pkg/config"
)

var errBoom = errors.New("boom")

func TestErrorWrapsCause(t *testing.T) {
	n := block.NewFlow("f1", "JUMP")
	err := Error(n, errBoom, "unknown flow statement %q", "JUMP")
	if !errors.Is(err, errBoom) {
		t.Fatalf("errors.Is lost the cause: %v", err)
	}
	want := `block 'f1' (controls_flow_statements): boom: unknown flow statement "JUMP"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWarnRespectsConfig(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	cfg := config.NewConfig()
	n := block.NewNumber("n1", "1")

	cfg.SetWarning(config.WarnNakedValue, false)
	Warn(cfg, config.WarnNakedValue, n, "value is not used")
	if buf.Len() != 0 {
		t.Fatalf("disabled warning printed %q", buf.String())
	}

	cfg.SetWarning(config.WarnNakedValue, true)
	Warn(cfg, config.WarnNakedValue, n, "value is not used")
	got := buf.String()
	if !strings.Contains(got, "block 'n1' (math_number)") || !strings.HasSuffix(got, "value is not used [-Wnaked-value]\n") {
		t.Errorf("unexpected warning %q", got)
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	err := Error(block.NewFlow("f2", "BREAK"), errBoom, "break outside loop")
	if got := Report("prog.json", err); got != err {
		t.Errorf("Report changed the error")
	}
	if !strings.HasPrefix(buf.String(), "prog.json: block 'f2' (controls_flow_statements): ") {
		t.Errorf("unexpected report %q", buf.String())
	}
}

func TestPrefixLines(t *testing.T) {
	got := PrefixLines("a\n\nb\n", "    ")
	if want := "    a\n\n    b\n"; got != want {
		t.Errorf("PrefixLines = %q, want %q", got, want)
	}
}

func TestIsNumberAndIdentifier(t *testing.T) {
	for _, s := range []string{"1", "-3", "2.5", " 7 "} {
		if !IsNumber(s) {
			t.Errorf("IsNumber(%q) = false", s)
		}
	}
	for _, s := range []string{"x", "1e3", "a + 1", "", "-x"} {
		if IsNumber(s) {
			t.Errorf("IsNumber(%q) = true", s)
		}
	}
	for _, s := range []string{"x", "count2", "_a"} {
		if !IsIdentifier(s) {
			t.Errorf("IsIdentifier(%q) = false", s)
		}
	}
	for _, s := range []string{"a + b", "f(x)", "[1, 2]"} {
		if IsIdentifier(s) {
			t.Errorf("IsIdentifier(%q) = true", s)
		}
	}
}
