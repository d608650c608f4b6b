package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUserConfig(t *testing.T, content string) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := GetUserConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBackupUserConfigNoOpWhenAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path, err := BackupUserConfig()
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBackupUserConfigCreatesTimestampedCopy(t *testing.T) {
	writeUserConfig(t, "version: 1\n")

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestListUserConfigBackupsReturnsCreatedBackups(t *testing.T) {
	writeUserConfig(t, "version: 1\n")

	_, err := BackupUserConfig()
	require.NoError(t, err)

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestCleanupOldBackupsKeepsOnlyMaxBackups(t *testing.T) {
	configPath := writeUserConfig(t, "version: 1\n")

	base := time.Now()
	for i := 0; i < MaxBackups+2; i++ {
		backupPath := configPath + BackupSuffix + "." + strconv.Itoa(i)
		require.NoError(t, os.WriteFile(backupPath, []byte("version: 1\n"), 0o644))
		mtime := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(backupPath, mtime, mtime))
	}

	require.NoError(t, cleanupOldBackups(configPath))

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
}

func TestRestoreUserConfigWritesBackupContent(t *testing.T) {
	path := writeUserConfig(t, "version: 1\n")
	backupPath, err := BackupUserConfig()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("version: 2\n"), 0o644))
	require.NoError(t, RestoreUserConfig(backupPath))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestRestoreUserConfigMissingBackupErrors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	err := RestoreUserConfig(filepath.Join(t.TempDir(), "missing.bak"))
	assert.Error(t, err)
}
