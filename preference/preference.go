package preference

import (
	"sort"
	"sync"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/studiod/locale"
)

const LanguagePreference = "studio.language"

// Schema describes an enumerated string preference.
type Schema struct {
	Name        string
	Enum        []string
	Default     string
	Description string
}

var LanguageSchema = Schema{
	Name:        LanguagePreference,
	Enum:        locale.Codes(),
	Default:     locale.Default,
	Description: "The studio language",
}

func (s Schema) Validate(value string) error {
	for _, allowed := range s.Enum {
		if value == allowed {
			return nil
		}
	}

	return errors.Errorf("%q is not a valid value for %v, expected one of %v", value, s.Name, s.Enum)
}

type Store interface {
	GetLanguage() (string, error)
	SetLanguage(language string) error
}

type ChangeEvent struct {
	PreferenceName string
	NewValue       string
	OldValue       string
}

type Config struct {
	Store  Store
	Logger Logger
}

// Preferences exposes the studio preferences and notifies listeners about
// changes to them.
type Preferences struct {
	store Store
	log   Logger

	mtx            sync.Mutex
	listeners      map[uint32]func(ChangeEvent)
	nextListenerID uint32
}

func New(config *Config) *Preferences {
	p := &Preferences{
		store:     config.Store,
		listeners: make(map[uint32]func(ChangeEvent)),
	}

	if config.Logger != nil {
		p.log = config.Logger
	} else {
		p.log = noopLogger{}
	}

	return p
}

// Language returns the stored language, or the schema default if none or an
// invalid one is stored.
func (p *Preferences) Language() string {
	language, err := p.store.GetLanguage()
	if err != nil {
		p.log.Warnf("Could not read %v: %v", LanguagePreference, err)
		return LanguageSchema.Default
	}

	if LanguageSchema.Validate(language) != nil {
		return LanguageSchema.Default
	}

	return language
}

func (p *Preferences) SetLanguage(language string) error {
	if err := LanguageSchema.Validate(language); err != nil {
		return err
	}

	old := p.Language()

	if err := p.store.SetLanguage(language); err != nil {
		return errors.Errorf("could not save %v: %v", LanguagePreference, err)
	}

	if old == language {
		return nil
	}

	p.log.Infof("Changed %v from %v to %v", LanguagePreference, old, language)

	p.notify(ChangeEvent{
		PreferenceName: LanguagePreference,
		NewValue:       language,
		OldValue:       old,
	})

	return nil
}

// OnPreferenceChanged registers fn for change events and returns a function
// removing it again.
func (p *Preferences) OnPreferenceChanged(fn func(ChangeEvent)) func() {
	p.mtx.Lock()
	id := p.nextListenerID
	p.nextListenerID++
	p.listeners[id] = fn
	p.mtx.Unlock()

	return func() {
		p.mtx.Lock()
		delete(p.listeners, id)
		p.mtx.Unlock()
	}
}

func (p *Preferences) notify(event ChangeEvent) {
	p.mtx.Lock()
	ids := make([]uint32, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, id)
	}
	p.mtx.Unlock()

	// listeners run in registration order
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		p.mtx.Lock()
		fn, ok := p.listeners[id]
		p.mtx.Unlock()

		if ok {
			fn(event)
		}
	}
}
