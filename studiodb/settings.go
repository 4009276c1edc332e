package studiodb

import "time"

var (
	languageKey     = []byte("language")
	stagedUpdateKey = []byte("stagedupdate")
)

// StagedUpdate describes a downloaded update waiting to be installed.
type StagedUpdate struct {
	Version    string    `json:"version"`
	Path       string    `json:"path"`
	Sha256     string    `json:"sha256"`
	Downloaded time.Time `json:"downloaded"`
}

// GetLanguage returns the stored studio language or an empty string.
func (db *DB) GetLanguage() (string, error) {
	var language string

	_, err := db.getJSON(settingsBucket, languageKey, &language)
	if err != nil {
		return "", err
	}

	return language, nil
}

func (db *DB) SetLanguage(language string) error {
	return db.setJSON(settingsBucket, languageKey, language)
}

func (db *DB) GetStagedUpdate() (*StagedUpdate, error) {
	staged := &StagedUpdate{}

	found, err := db.getJSON(settingsBucket, stagedUpdateKey, staged)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return staged, nil
}

// SetStagedUpdate stores the staged update, nil clears it.
func (db *DB) SetStagedUpdate(staged *StagedUpdate) error {
	return db.setJSON(settingsBucket, stagedUpdateKey, staged)
}
