package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/config"
)

func TestPackagesPathFallsBackToDefault(t *testing.T) {
	t.Setenv(config.PackagesEnvVar, "")
	require.Equal(t, config.DefaultPackagesDir, config.PackagesPath())
}

func TestPackagesPathHonorsEnvVar(t *testing.T) {
	t.Setenv(config.PackagesEnvVar, "/opt/packages")
	require.Equal(t, "/opt/packages", config.PackagesPath())
}

func TestLibraryPathBuildsVersionedDirectory(t *testing.T) {
	t.Setenv(config.PackagesEnvVar, "/opt/packages")
	require.Equal(t, "/opt/packages/sockets-v1/sockets.so", config.LibraryPath("sockets", 1, "so"))
}

func TestLoadManifestReturnsZeroValueWhenMissing(t *testing.T) {
	m, err := config.LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.Manifest{}, m)
}

func TestLoadManifestParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".emojicode.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: mypkg\nmajor: 2\nminor: 1\nrequiresNativeBinary: true\n"), 0o644))

	m, err := config.LoadManifest(path)
	require.NoError(t, err)
	require.Equal(t, config.Manifest{Name: "mypkg", Major: 2, Minor: 1, RequiresNativeBinary: true}, m)
}
