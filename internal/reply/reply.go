// Package reply renders user-facing bot messages from YAML templates.
package reply

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultTemplates []byte

// Vars maps placeholder names to their substitutions.
type Vars map[string]string

// Templates holds reply templates keyed by name.
type Templates struct {
	entries map[string]string
}

// Defaults returns the embedded default templates.
//
// Postcondition: Returns a non-nil Templates. Panics if the embedded file is malformed.
func Defaults() *Templates {
	t, err := Parse(defaultTemplates)
	if err != nil {
		panic(fmt.Sprintf("reply: embedded defaults: %v", err))
	}
	return t
}

// Parse decodes a YAML mapping of key to template. Empty input yields no templates.
func Parse(data []byte) (*Templates, error) {
	entries := make(map[string]string)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding reply templates: %w", err)
	}
	return &Templates{entries: entries}, nil
}

// Load returns the embedded defaults with the keys of the YAML file at path
// layered over them. An empty path yields the defaults unchanged.
//
// Postcondition: Returns a non-nil Templates or a non-nil error.
func Load(path string) (*Templates, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reply templates %q: %w", path, err)
	}
	overrides, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	for k, v := range overrides.entries {
		t.entries[k] = v
	}
	return t, nil
}

// Has reports whether key names a template.
func (t *Templates) Has(key string) bool {
	_, ok := t.entries[key]
	return ok
}

// Render substitutes vars into the template named key.
//
// Postcondition: An unknown key renders as the key itself; placeholders
// without a matching var are left verbatim.
func (t *Templates) Render(key string, vars Vars) string {
	tmpl, ok := t.entries[key]
	if !ok {
		return key
	}
	return substitute(tmpl, vars)
}

func substitute(tmpl string, vars Vars) string {
	var b strings.Builder
	b.Grow(len(tmpl))
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			break
		}
		name := tmpl[open+1 : open+end]
		b.WriteString(tmpl[:open])
		if v, ok := vars[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(tmpl[open : open+end+1])
		}
		tmpl = tmpl[open+end+1:]
	}
	b.WriteString(tmpl)
	return b.String()
}
