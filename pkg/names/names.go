// Package names allocates collision-free target identifiers for user-level names.
// An allocator belongs to one generation pass and is not safe for concurrent use.
package names

import (
	"strconv"
	"strings"
)

// Namespace separates variables from procedures
type Namespace string

const (
	Variable  Namespace = "VARIABLE"
	Procedure Namespace = "PROCEDURE"
)

type Names struct {
	reserved map[string]bool
	bindings map[string]string // lower(name) + "_" + namespace -> identifier
	issued   map[string]bool
}

func New(reserved ...string) *Names {
	n := &Names{reserved: make(map[string]bool)}
	n.AddReserved(reserved...)
	n.Reset()
	return n
}

// AddReserved adds words that will never be handed out as identifiers
func (n *Names) AddReserved(words ...string) {
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			n.reserved[w] = true
		}
	}
}

func (n *Names) IsReserved(word string) bool { return n.reserved[word] }

// Reset forgets every binding and issued identifier. Reserved words survive
func (n *Names) Reset() {
	n.bindings = make(map[string]string)
	n.issued = make(map[string]bool)
}

// GetName returns the identifier bound to name in ns, allocating one on first use.
// Lookups ignore case.
func (n *Names) GetName(name string, ns Namespace) string {
	key := strings.ToLower(name) + "_" + string(ns)
	if id, ok := n.bindings[key]; ok {
		return id
	}
	id := n.GetDistinctName(name, ns)
	n.bindings[key] = id
	return id
}

// GetDistinctName always issues a fresh identifier derived from hint
func (n *Names) GetDistinctName(hint string, ns Namespace) string {
	safe := SafeName(hint)
	id := safe
	for i := 2; n.issued[id] || n.reserved[id]; i++ {
		id = safe + strconv.Itoa(i)
	}
	n.issued[id] = true
	return id
}

// SafeName turns an arbitrary string into a legal identifier
func SafeName(name string) string {
	if name == "" {
		return "unnamed"
	}
	var sb strings.Builder
	// One underscore per character, not per byte
	for _, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	safe := sb.String()
	if safe[0] >= '0' && safe[0] <= '9' {
		safe = "my_" + safe
	}
	return safe
}
