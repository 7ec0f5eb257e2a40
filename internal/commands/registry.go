package commands

import "fmt"

// Registry resolves command names and aliases to commands. Commands
// register themselves from init, so the registry is never mutated
// after startup and needs no locking.
type Registry struct {
	byName map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register adds a command under its name and every alias. A collision
// is a programmer error, so it panics rather than returning.
func (r *Registry) Register(c Command) {
	names := append([]string{c.Name()}, c.Aliases()...)
	for _, name := range names {
		if _, taken := r.byName[name]; taken {
			panic(fmt.Sprintf("command name taken: %s", name))
		}
		r.byName[name] = c
	}
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// DefaultRegistry holds every command built into the binary.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry.
func Register(c Command) {
	DefaultRegistry.Register(c)
}
