package cloud

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"filedeck/vfs"
)

func TestMounts(t *testing.T) {
	mounts := Mounts("/data")

	assert.Len(t, mounts, 3)
	assert.Equal(t, "Google Drive", mounts[vfs.SchemeGDrive].Name)
	assert.Equal(t, filepath.Join("/data", "clouds", "gdrive"), mounts[vfs.SchemeGDrive].Root)
	assert.Equal(t, "Dropbox", mounts[vfs.SchemeDropbox].Name)
	assert.Equal(t, "OneDrive", mounts[vfs.SchemeOneDrive].Name)
}

func TestSeed(t *testing.T) {
	log := zap.NewNop().Sugar()

	t.Run("creates starter trees", func(t *testing.T) {
		mounts := Mounts(t.TempDir())
		assert.NoError(t, Seed(mounts, log))

		content, err := os.ReadFile(filepath.Join(mounts[vfs.SchemeGDrive].Root, "welcome.txt"))
		assert.NoError(t, err)
		assert.Contains(t, string(content), "Google Drive")

		info, err := os.Stat(filepath.Join(mounts[vfs.SchemeDropbox].Root, "Backups"))
		assert.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("reseeding keeps user edits", func(t *testing.T) {
		mounts := Mounts(t.TempDir())
		assert.NoError(t, Seed(mounts, log))

		edited := filepath.Join(mounts[vfs.SchemeOneDrive].Root, "todo.txt")
		assert.NoError(t, os.WriteFile(edited, []byte("my own list"), 0640))

		assert.NoError(t, Seed(mounts, log))

		content, err := os.ReadFile(edited)
		assert.NoError(t, err)
		assert.Equal(t, "my own list", string(content))
	})

	t.Run("restores deleted seed files", func(t *testing.T) {
		mounts := Mounts(t.TempDir())
		assert.NoError(t, Seed(mounts, log))

		removed := filepath.Join(mounts[vfs.SchemeGDrive].Root, "welcome.txt")
		assert.NoError(t, os.Remove(removed))

		assert.NoError(t, Seed(mounts, log))

		_, err := os.Stat(removed)
		assert.NoError(t, err)
	})
}
