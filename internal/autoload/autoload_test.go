package autoload_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-phpls/phpls/internal/autoload"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadRootPSR4AndResolve(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "composer.json"), `{
		"autoload": {
			"psr-4": { "App\\": "src/" }
		}
	}`)
	writeFile(t, filepath.Join(root, "src", "Model", "User.php"), "<?php\nnamespace App\\Model;\nclass User {}\n")

	m, err := autoload.Load(root)
	require.NoError(t, err)

	path, ok := m.Resolve(`App\Model\User`)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "Model", "User.php"), path)
}

func TestResolvePrefersLongestPSR4Prefix(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "composer.json"), `{
		"autoload": {
			"psr-4": {
				"App\\": "src/",
				"App\\Admin\\": "admin-src/"
			}
		}
	}`)
	writeFile(t, filepath.Join(root, "admin-src", "Panel.php"), "<?php\nnamespace App\\Admin;\nclass Panel {}\n")

	m, err := autoload.Load(root)
	require.NoError(t, err)

	path, ok := m.Resolve(`App\Admin\Panel`)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "admin-src", "Panel.php"), path)
}

func TestLoadMergesInstalledDependencies(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "composer.json"), `{"autoload": {"psr-4": {"App\\": "src/"}}}`)
	writeFile(t, filepath.Join(root, "vendor", "composer", "installed.json"), `{
		"packages": [
			{
				"name": "acme/lib",
				"install-path": "../acme/lib",
				"autoload": {"psr-4": {"Acme\\Lib\\": "src/"}}
			}
		]
	}`)
	writeFile(t, filepath.Join(root, "vendor", "acme", "lib", "src", "Widget.php"), "<?php\nnamespace Acme\\Lib;\nclass Widget {}\n")

	m, err := autoload.Load(root)
	require.NoError(t, err)

	path, ok := m.Resolve(`Acme\Lib\Widget`)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "vendor", "acme", "lib", "src", "Widget.php"), path)
}

func TestLoadWithoutComposerJSONIsNotAnError(t *testing.T) {
	root := t.TempDir()
	m, err := autoload.Load(root)
	require.NoError(t, err)
	_, ok := m.Resolve(`Anything\AtAll`)
	assert.False(t, ok)
}

func TestClassmapDirectoryIsExpandedIntoFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "composer.json"), `{"autoload": {"classmap": ["legacy/"]}}`)
	writeFile(t, filepath.Join(root, "legacy", "Old.php"), "<?php\nclass Old {}\n")

	m, err := autoload.Load(root)
	require.NoError(t, err)
	require.Contains(t, m.ClassmapFiles, filepath.Join(root, "legacy", "Old.php"))

	m.RegisterClassmapEntry("Old", filepath.Join(root, "legacy", "Old.php"))
	path, ok := m.Resolve("Old")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "legacy", "Old.php"), path)
}
