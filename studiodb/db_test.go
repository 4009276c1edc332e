package studiodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	require.NoError(t, err)

	language, err := db.GetLanguage()
	require.NoError(t, err)
	assert.Empty(t, language)

	staged, err := db.GetStagedUpdate()
	require.NoError(t, err)
	assert.Nil(t, staged)

	downloaded := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.SetLanguage("zh-CN"))
	require.NoError(t, db.SetStagedUpdate(&StagedUpdate{
		Version:    "1.4.0",
		Path:       "/tmp/studio-1.4.0.exe",
		Sha256:     "abc123",
		Downloaded: downloaded,
	}))
	require.NoError(t, db.Close())

	db, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()

	language, err = db.GetLanguage()
	require.NoError(t, err)
	assert.Equal(t, "zh-CN", language)

	staged, err = db.GetStagedUpdate()
	require.NoError(t, err)
	require.NotNil(t, staged)
	assert.Equal(t, "1.4.0", staged.Version)
	assert.True(t, downloaded.Equal(staged.Downloaded))
}

func TestClearStagedUpdate(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SetStagedUpdate(&StagedUpdate{Version: "2.0.0"}))
	require.NoError(t, db.SetStagedUpdate(nil))

	staged, err := db.GetStagedUpdate()
	require.NoError(t, err)
	assert.Nil(t, staged)
}
