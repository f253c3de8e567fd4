package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GCP_PROJECT_ID", "ekaro-dev")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "firestore", cfg.DraftBackend)
	assert.Equal(t, "editorDrafts", cfg.EditorDraftsCollection)
	assert.Equal(t, "categories", cfg.CategoriesCollection)
	assert.Equal(t, int64(5242880), cfg.MaxImageSizeBytes)
	assert.Equal(t, 3, cfg.UploadConcurrency)
	assert.Equal(t, 400*time.Millisecond, cfg.DraftSaveDebounce)
	assert.Equal(t, "ekaro-dev", cfg.GetFirestoreProjectID())
	assert.Equal(t, "ekaro-dev", cfg.GetFirebaseProjectID())
}

func TestLoad_DotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DRAFT_BACKEND=memory\nUPLOAD_CONCURRENCY=5\n"), 0o600))
	t.Setenv("UPLOAD_CONCURRENCY", "7")
	t.Setenv("FIRESTORE_PROJECT_ID", "fs-project")
	t.Setenv("GCP_PROJECT_ID", "gcp-project")
	t.Cleanup(func() { os.Unsetenv("DRAFT_BACKEND") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DraftBackend)
	assert.Equal(t, 7, cfg.UploadConcurrency)
	assert.Equal(t, "fs-project", cfg.GetFirestoreProjectID())
}

func TestLoad_BadValue(t *testing.T) {
	t.Setenv("DRAFT_SAVE_DEBOUNCE", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
