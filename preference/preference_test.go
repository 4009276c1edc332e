package preference

import (
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	language string
	err      error
}

func (m *memStore) GetLanguage() (string, error) { return m.language, m.err }

func (m *memStore) SetLanguage(language string) error {
	if m.err != nil {
		return m.err
	}
	m.language = language
	return nil
}

func TestLanguageDefaults(t *testing.T) {
	store := &memStore{}
	p := New(&Config{Store: store})
	assert.Equal(t, "en-US", p.Language())

	store.language = "klingon"
	assert.Equal(t, "en-US", p.Language())

	store.err = errors.New("disk on fire")
	assert.Equal(t, "en-US", p.Language())
}

func TestSetLanguageNotifiesListeners(t *testing.T) {
	store := &memStore{}
	p := New(&Config{Store: store})

	var order []string
	var events []ChangeEvent
	p.OnPreferenceChanged(func(e ChangeEvent) {
		order = append(order, "first")
		events = append(events, e)
	})
	remove := p.OnPreferenceChanged(func(e ChangeEvent) {
		order = append(order, "second")
	})

	require.NoError(t, p.SetLanguage("zh-CN"))
	assert.Equal(t, "zh-CN", store.language)
	assert.Equal(t, []ChangeEvent{{PreferenceName: LanguagePreference, NewValue: "zh-CN", OldValue: "en-US"}}, events)
	assert.Equal(t, []string{"first", "second"}, order)

	// unchanged values are not announced
	require.NoError(t, p.SetLanguage("zh-CN"))
	assert.Len(t, events, 1)

	remove()
	require.NoError(t, p.SetLanguage("en-US"))
	assert.Len(t, events, 2)
	assert.Equal(t, []string{"first", "second", "first"}, order)
}

func TestSetLanguageRejectsInvalidValues(t *testing.T) {
	store := &memStore{}
	p := New(&Config{Store: store})

	called := false
	p.OnPreferenceChanged(func(ChangeEvent) { called = true })

	assert.Error(t, p.SetLanguage("de-DE"))
	assert.Empty(t, store.language)
	assert.False(t, called)
}

func TestLanguageSchema(t *testing.T) {
	assert.Equal(t, []string{"en-US", "zh-CN"}, LanguageSchema.Enum)
	assert.NoError(t, LanguageSchema.Validate("en-US"))
	assert.Error(t, LanguageSchema.Validate(""))
}
