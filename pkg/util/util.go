package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/xplshn/blockc/pkg/block"
	"github.com/xplshn/blockc/pkg/config"
)

var (
	outMu  sync.Mutex
	output io.Writer = os.Stderr
)

// SetOutput redirects diagnostics and returns the previous writer
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := output
	output = w
	return prev
}

func printf(format string, args ...any) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(output, format, args...)
}

// Diagnostic is a generation error located at a block
type Diagnostic struct {
	BlockID string
	Kind    block.Kind
	Msg     string
	Err     error
}

func (d *Diagnostic) Error() string {
	if d.BlockID == "" && d.Kind == "" {
		return d.Msg
	}
	return fmt.Sprintf("block '%s' (%s): %s", d.BlockID, d.Kind, d.Msg)
}

func (d *Diagnostic) Unwrap() error { return d.Err }

// Error builds a Diagnostic for n wrapping cause, reading "<cause>: <detail>".
// The caller decides whether to abort.
func Error(n *block.Node, cause error, format string, args ...any) error {
	d := &Diagnostic{Msg: fmt.Sprintf(format, args...), Err: cause}
	if n != nil {
		d.BlockID, d.Kind = n.ID, n.Kind
	}
	switch {
	case cause == nil:
	case d.Msg == "":
		d.Msg = cause.Error()
	default:
		d.Msg = cause.Error() + ": " + d.Msg
	}
	return d
}

// Report prints err in the diagnostic format and returns it unchanged
func Report(file string, err error) error {
	if err == nil {
		return nil
	}
	var d *Diagnostic
	if errors.As(err, &d) && d.BlockID != "" {
		printf("%s: block '%s' (%s): \033[31merror:\033[0m %s\n", file, d.BlockID, d.Kind, d.Msg)
		return err
	}
	printf("%s: \033[31merror:\033[0m %v\n", file, err)
	return err
}

// Warn prints a formatted warning if the corresponding warning is enabled
func Warn(cfg *config.Config, wt config.Warning, n *block.Node, format string, args ...any) {
	if cfg == nil || !cfg.IsWarningEnabled(wt) {
		return
	}
	loc := ""
	if n != nil {
		loc = fmt.Sprintf("block '%s' (%s): ", n.ID, n.Kind)
	}
	printf("%s\033[33mwarning:\033[0m %s [-W%s]\n", loc, fmt.Sprintf(format, args...), cfg.Warnings[wt].Name)
}

// Info prints driver progress
func Info(format string, args ...any) {
	printf("\033[36minfo:\033[0m "+format+"\n", args...)
}

// PrefixLines prepends prefix to every non-empty line of text
func PrefixLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

var (
	numberRe     = regexp.MustCompile(`^\s*-?\d+(\.\d+)?\s*$`)
	identifierRe = regexp.MustCompile(`^\w+$`)
)

// IsNumber reports whether s is a plain decimal literal
func IsNumber(s string) bool { return numberRe.MatchString(s) }

// IsIdentifier reports whether s is a bare word that needs no hoisting
func IsIdentifier(s string) bool { return identifierRe.MatchString(s) }
