package menu

import (
	"sort"
	"sync"

	"github.com/go-errors/errors"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrCommandDisabled = errors.New("command is disabled")
)

type Command struct {
	Id       string
	Label    string
	Category string
}

// Handler implements a command. Nil predicates count as true.
type Handler struct {
	Execute   func() error
	IsEnabled func() bool
	IsVisible func() bool
}

type registeredCommand struct {
	command Command
	handler Handler
}

type CommandRegistry struct {
	mtx      sync.RWMutex
	commands map[string]*registeredCommand
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]*registeredCommand),
	}
}

// RegisterCommand adds a command, disposing the result removes it again.
func (r *CommandRegistry) RegisterCommand(command Command, handler Handler) (Disposable, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.commands[command.Id]; ok {
		return nil, errors.Errorf("command %v is already registered", command.Id)
	}

	registered := &registeredCommand{command: command, handler: handler}
	r.commands[command.Id] = registered

	return DisposeFunc(func() {
		r.mtx.Lock()
		defer r.mtx.Unlock()

		if r.commands[command.Id] == registered {
			delete(r.commands, command.Id)
		}
	}), nil
}

func (r *CommandRegistry) ExecuteCommand(id string) error {
	registered, ok := r.get(id)
	if !ok {
		return errors.Errorf("%v: %v", ErrUnknownCommand, id)
	}

	if !enabled(registered) {
		return errors.Errorf("%v: %v", ErrCommandDisabled, id)
	}

	if registered.handler.Execute == nil {
		return nil
	}

	return registered.handler.Execute()
}

func (r *CommandRegistry) IsEnabled(id string) bool {
	registered, ok := r.get(id)
	return ok && enabled(registered)
}

func (r *CommandRegistry) IsVisible(id string) bool {
	registered, ok := r.get(id)
	if !ok {
		return false
	}

	return registered.handler.IsVisible == nil || registered.handler.IsVisible()
}

func (r *CommandRegistry) Command(id string) (Command, bool) {
	registered, ok := r.get(id)
	if !ok {
		return Command{}, false
	}

	return registered.command, true
}

// Commands returns all registered commands sorted by id.
func (r *CommandRegistry) Commands() []Command {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	commands := make([]Command, 0, len(r.commands))
	for _, registered := range r.commands {
		commands = append(commands, registered.command)
	}

	sort.Slice(commands, func(i, j int) bool { return commands[i].Id < commands[j].Id })

	return commands
}

func (r *CommandRegistry) get(id string) (*registeredCommand, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	registered, ok := r.commands[id]
	return registered, ok
}

func enabled(registered *registeredCommand) bool {
	return registered.handler.IsEnabled == nil || registered.handler.IsEnabled()
}
