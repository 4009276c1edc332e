package menu

import (
	"strings"
	"sync"
)

type Path []string

func (p Path) Append(segments ...string) Path {
	path := make(Path, 0, len(p)+len(segments))
	path = append(path, p...)
	return append(path, segments...)
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

var (
	MainMenuBar         = Path{"menubar"}
	File                = MainMenuBar.Append("1_file")
	FileSettingsSubmenu = File.Append("7_settings", "1_settings_submenu")
	Edit                = MainMenuBar.Append("2_edit")
	EditFind            = Edit.Append("3_find")
)

type Action struct {
	CommandId string
	Label     string
}

type registeredAction struct {
	path   Path
	action Action
}

// Registry holds the menu actions contributed per menu path.
type Registry struct {
	mtx     sync.RWMutex
	actions []*registeredAction
}

func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterMenuAction adds an action to path, disposing the result removes
// it again.
func (r *Registry) RegisterMenuAction(path Path, action Action) Disposable {
	registered := &registeredAction{path: path.Append(), action: action}

	r.mtx.Lock()
	r.actions = append(r.actions, registered)
	r.mtx.Unlock()

	return DisposeFunc(func() {
		r.mtx.Lock()
		defer r.mtx.Unlock()

		for i, a := range r.actions {
			if a == registered {
				r.actions = append(r.actions[:i], r.actions[i+1:]...)
				return
			}
		}
	})
}

// Actions returns the actions registered directly at path.
func (r *Registry) Actions(path Path) []Action {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	key := path.String()

	var actions []Action
	for _, a := range r.actions {
		if a.path.String() == key {
			actions = append(actions, a.action)
		}
	}

	return actions
}

func (r *Registry) paths() []Path {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	seen := make(map[string]bool)

	var paths []Path
	for _, a := range r.actions {
		if key := a.path.String(); !seen[key] {
			seen[key] = true
			paths = append(paths, a.path)
		}
	}

	return paths
}
