package locale

import (
	"embed"
	"io/fs"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-errors/errors"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed messages/*.toml
var messageFiles embed.FS

// Translator resolves message ids for the currently selected language.
type Translator struct {
	bundle *i18n.Bundle

	mtx       sync.RWMutex
	current   string
	localizer *i18n.Localizer
}

func NewTranslator() (*Translator, error) {
	bundle := i18n.NewBundle(language.MustParse(Default))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	paths, err := fs.Glob(messageFiles, "messages/*.toml")
	if err != nil {
		return nil, errors.Errorf("could not list message files: %v", err)
	}

	for _, path := range paths {
		data, err := messageFiles.ReadFile(path)
		if err != nil {
			return nil, errors.Errorf("could not read %v: %v", path, err)
		}

		if _, err := bundle.ParseMessageFileBytes(data, path); err != nil {
			return nil, errors.Errorf("could not parse %v: %v", path, err)
		}
	}

	t := &Translator{bundle: bundle}

	if err := t.Init(Default); err != nil {
		return nil, err
	}

	return t, nil
}

// Init switches the current language. Unsupported languages are rejected
// and leave the current one in place.
func (t *Translator) Init(code string) error {
	if !IsSupported(code) {
		return errors.Errorf("unsupported language %q", code)
	}

	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.current = code
	t.localizer = i18n.NewLocalizer(t.bundle, code, Default)

	return nil
}

func (t *Translator) Current() string {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	return t.current
}

// Get returns the translation of id, or id itself if there is none.
func (t *Translator) Get(id string) string {
	t.mtx.RLock()
	localizer := t.localizer
	t.mtx.RUnlock()

	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: id})
	if err != nil || msg == "" {
		return id
	}

	return msg
}
