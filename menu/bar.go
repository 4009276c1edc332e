package menu

import "sync"

// Updater rebuilds the rendered menu after contributions changed.
type Updater interface {
	Update()
}

// Item is a rendered menu entry.
type Item struct {
	Path    Path
	Label   string
	Command string
	Enabled bool
}

type BarConfig struct {
	Menus    *Registry
	Commands *CommandRegistry
	Logger   Logger
}

// Bar renders the registered actions into menu items. Actions of commands
// that are unknown or invisible are left out.
type Bar struct {
	menus    *Registry
	commands *CommandRegistry
	log      Logger

	mtx   sync.RWMutex
	items []Item
}

var _ Updater = (*Bar)(nil)

func NewBar(config *BarConfig) *Bar {
	bar := &Bar{
		menus:    config.Menus,
		commands: config.Commands,
	}

	if config.Logger != nil {
		bar.log = config.Logger
	} else {
		bar.log = noopLogger{}
	}

	return bar
}

func (b *Bar) Update() {
	var items []Item

	for _, path := range b.menus.paths() {
		for _, action := range b.menus.Actions(path) {
			if !b.commands.IsVisible(action.CommandId) {
				continue
			}

			items = append(items, Item{
				Path:    path,
				Label:   action.Label,
				Command: action.CommandId,
				Enabled: b.commands.IsEnabled(action.CommandId),
			})
		}
	}

	b.mtx.Lock()
	b.items = items
	b.mtx.Unlock()

	b.log.Debugf("Rebuilt menu with %d items", len(items))
}

func (b *Bar) Items() []Item {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	return append([]Item(nil), b.items...)
}
