package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownCommand is returned by Dispatch for an unregistered verb
	ErrUnknownCommand = errors.New("unknown command")
	// ErrSyntax is returned by handlers for malformed arguments
	ErrSyntax = errors.New("syntax error")
)

// CommandHandler handles one text command. args are the whitespace separated
// words after the command name.
type CommandHandler func(args []string) error

// Command is one registered text command
type Command struct {
	Name    string
	Format  string // Usage shown in the dictionary (e.g., "<k> temp <ch>")
	Handler CommandHandler
}

// CommandRegistry maps command names to handlers
type CommandRegistry struct {
	mu         sync.RWMutex
	commands   map[string]*Command
	dictionary string // One usage line per command, sorted
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]*Command),
	}
}

// Register adds a command. Registering a name again replaces its handler.
func (r *CommandRegistry) Register(name string, format string, handler CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands[name] = &Command{
		Name:    name,
		Format:  format,
		Handler: handler,
	}
	r.rebuildDictionary()
}

// GetCommand retrieves a command by name
func (r *CommandRegistry) GetCommand(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch splits line into words and calls the handler named by the first.
// Blank lines are ignored.
func (r *CommandRegistry) Dispatch(line string) error {
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil
	}
	cmd, ok := r.GetCommand(words[0])
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, words[0])
	}
	if err := cmd.Handler(words[1:]); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return nil
}

// GetDictionary returns the usage of every command, one per line
func (r *CommandRegistry) GetDictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dictionary
}

// rebuildDictionary rebuilds the dictionary string
// Must be called with lock held
func (r *CommandRegistry) rebuildDictionary() {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		cmd := r.commands[name]
		b.WriteString(cmd.Name)
		if cmd.Format != "" {
			b.WriteString(" " + cmd.Format)
		}
		b.WriteByte('\n')
	}
	r.dictionary = b.String()
}
