package codegen

import "strings"

// preambleKey holds the variable declarations. No generated identifier contains '%'
const preambleKey = "%variables"

// definitions is the insertion-ordered table flushed ahead of the program body
type definitions struct {
	keys []string
	text map[string]string
}

func newDefinitions() *definitions {
	return &definitions{text: make(map[string]string)}
}

// set stores text under key. Replacing a key keeps its original position
func (d *definitions) set(key, text string) {
	if _, ok := d.text[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.text[key] = text
}

func (d *definitions) get(key string) (string, bool) {
	text, ok := d.text[key]
	return text, ok
}

// join concatenates the non-empty entries in insertion order
func (d *definitions) join(sep string) string {
	parts := make([]string, 0, len(d.keys))
	for _, k := range d.keys {
		if t := d.text[k]; t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, sep)
}
