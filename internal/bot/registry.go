package bot

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps command names and aliases to Command definitions.
type Registry struct {
	commands map[string]*Command // canonical name → command
	aliases  map[string]string   // alias → canonical name
	// keys holds every name and alias, longest first, for prefix matching.
	keys []string
}

// NewRegistry creates a Registry populated with the given commands.
// Names and aliases are matched case-insensitively.
//
// Precondition: No two commands may share a canonical name or alias.
// Postcondition: Returns a Registry or an error on name/alias collisions.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]*Command, len(cmds)),
		aliases:  make(map[string]string),
	}

	for i := range cmds {
		cmd := &cmds[i]
		name := strings.ToLower(cmd.Name)
		if name == "" {
			return nil, fmt.Errorf("command %d has an empty name", i)
		}
		if _, exists := r.commands[name]; exists {
			return nil, fmt.Errorf("duplicate command name: %q", name)
		}
		if _, exists := r.aliases[name]; exists {
			return nil, fmt.Errorf("command name %q conflicts with an existing alias", name)
		}
		r.commands[name] = cmd
		r.keys = append(r.keys, name)

		for _, alias := range cmd.Aliases {
			alias = strings.ToLower(alias)
			if _, exists := r.commands[alias]; exists {
				return nil, fmt.Errorf("alias %q conflicts with command name %q", alias, alias)
			}
			if existing, exists := r.aliases[alias]; exists {
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", alias, existing, name)
			}
			r.aliases[alias] = name
			r.keys = append(r.keys, alias)
		}
	}

	sort.SliceStable(r.keys, func(i, j int) bool { return len(r.keys[i]) > len(r.keys[j]) })
	return r, nil
}

// DefaultRegistry creates a Registry with all built-in commands.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by exact name or alias.
func (r *Registry) Resolve(input string) (*Command, bool) {
	input = strings.ToLower(input)
	if cmd, ok := r.commands[input]; ok {
		return cmd, true
	}
	if canonical, ok := r.aliases[input]; ok {
		return r.commands[canonical], true
	}
	return nil, false
}

// Match finds the longest name or alias that prefixes body and returns the
// command with the remaining text, leading spaces trimmed.
//
// Postcondition: Returns (nil, "", false) when nothing matches.
func (r *Registry) Match(body string) (*Command, string, bool) {
	lower := strings.ToLower(body)
	for _, key := range r.keys {
		if strings.HasPrefix(lower, key) {
			cmd, _ := r.Resolve(key)
			return cmd, strings.TrimLeft(body[len(key):], " \t"), true
		}
	}
	return nil, "", false
}

// Commands returns all registered commands sorted by name.
func (r *Registry) Commands() []*Command {
	result := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// CommandsByCategory returns commands grouped by category, each group sorted by name.
func (r *Registry) CommandsByCategory() map[string][]*Command {
	categories := make(map[string][]*Command)
	for _, cmd := range r.Commands() {
		categories[cmd.Category] = append(categories[cmd.Category], cmd)
	}
	return categories
}
