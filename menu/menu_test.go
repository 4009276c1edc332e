package menu

import (
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRegistry(t *testing.T) {
	r := NewCommandRegistry()
	executed := 0
	enabled := false

	d, err := r.RegisterCommand(Command{Id: "studio:test", Label: "Test"}, Handler{
		Execute:   func() error { executed++; return nil },
		IsEnabled: func() bool { return enabled },
	})
	require.NoError(t, err)

	_, err = r.RegisterCommand(Command{Id: "studio:test"}, Handler{})
	assert.Error(t, err)

	assert.True(t, r.IsVisible("studio:test"))
	assert.False(t, r.IsEnabled("studio:test"))
	assert.Error(t, r.ExecuteCommand("studio:test"))
	assert.Equal(t, 0, executed)

	enabled = true
	require.NoError(t, r.ExecuteCommand("studio:test"))
	assert.Equal(t, 1, executed)

	command, ok := r.Command("studio:test")
	require.True(t, ok)
	assert.Equal(t, "Test", command.Label)

	d.Dispose()

	_, ok = r.Command("studio:test")
	assert.False(t, ok)
	assert.False(t, r.IsVisible("studio:test"))
	assert.Error(t, r.ExecuteCommand("studio:test"))
}

func TestExecuteReturnsHandlerError(t *testing.T) {
	r := NewCommandRegistry()

	_, err := r.RegisterCommand(Command{Id: "studio:fail"}, Handler{
		Execute: func() error { return errors.New("failed") },
	})
	require.NoError(t, err)

	assert.EqualError(t, r.ExecuteCommand("studio:fail"), "failed")
}

func TestMenuRegistry(t *testing.T) {
	r := NewRegistry()
	update := FileSettingsSubmenu.Append("3_settings_submenu_update")

	d := r.RegisterMenuAction(update, Action{CommandId: "studio:check-for-updates", Label: "Check for Updates"})
	r.RegisterMenuAction(EditFind, Action{CommandId: "studio:change-language", Label: "Change Language"})

	assert.Equal(t, []Action{{CommandId: "studio:check-for-updates", Label: "Check for Updates"}}, r.Actions(update))
	assert.Len(t, r.Actions(EditFind), 1)
	assert.Empty(t, r.Actions(FileSettingsSubmenu))

	d.Dispose()
	assert.Empty(t, r.Actions(update))
}

func TestPathAppendDoesNotAlias(t *testing.T) {
	base := make(Path, 1, 4)
	base[0] = "menubar"

	a := base.Append("a")
	b := base.Append("b")

	assert.Equal(t, "menubar/a", a.String())
	assert.Equal(t, "menubar/b", b.String())
}

func TestDisposableCollectionDisposesInReverse(t *testing.T) {
	var order []int
	c := &DisposableCollection{}

	for i := 0; i < 3; i++ {
		i := i
		c.Push(DisposeFunc(func() { order = append(order, i) }))
	}

	assert.Equal(t, 3, c.Len())

	c.Dispose()
	c.Dispose()

	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Equal(t, 0, c.Len())
}

func TestBarSkipsInvisibleCommands(t *testing.T) {
	commands := NewCommandRegistry()
	menus := NewRegistry()
	visible := true

	_, err := commands.RegisterCommand(Command{Id: "studio:a"}, Handler{
		IsVisible: func() bool { return visible },
		IsEnabled: func() bool { return visible },
	})
	require.NoError(t, err)

	menus.RegisterMenuAction(EditFind, Action{CommandId: "studio:a", Label: "A"})
	menus.RegisterMenuAction(EditFind, Action{CommandId: "studio:unknown", Label: "Unknown"})

	bar := NewBar(&BarConfig{Menus: menus, Commands: commands})

	bar.Update()
	assert.Equal(t, []Item{{Path: EditFind, Label: "A", Command: "studio:a", Enabled: true}}, bar.Items())

	visible = false
	bar.Update()
	assert.Empty(t, bar.Items())
}
