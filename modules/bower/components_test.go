package bower

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscoverComponents(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"jquery/.bower.json":             `{"name": "jquery", "main": "dist/jquery.js"}`,
		"jquery/bower.json":              `{"name": "ignored", "main": "nope.js"}`,
		"jquery/dist/jquery.js":          "jq",
		"bootstrap/bower.json":           `{"name": "bootstrap", "main": ["dist/css/*.css", "dist/js/bootstrap.js", "missing.js"]}`,
		"bootstrap/dist/css/a.css":       "a",
		"bootstrap/dist/css/b.css":       "b",
		"bootstrap/dist/js/bootstrap.js": "bs",
		"plain/readme.txt":               "no manifest",
		"stray.txt":                      "not a component",
	})

	// --- Act ---
	components, err := DiscoverComponents(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, components, 3)

	require.Equal(t, "bootstrap", components[0].Name)
	require.Equal(t, []string{
		filepath.Join("dist", "css", "a.css"),
		filepath.Join("dist", "css", "b.css"),
		filepath.Join("dist", "js", "bootstrap.js"),
	}, components[0].Files)

	require.Equal(t, "jquery", components[1].Name)
	require.Equal(t, []string{filepath.Join("dist", "jquery.js")}, components[1].Files)

	require.Equal(t, "plain", components[2].Name)
	require.Empty(t, components[2].Files)
}

func TestDiscoverComponents_MissingDir(t *testing.T) {
	components, err := DiscoverComponents(context.Background(), filepath.Join(t.TempDir(), "missing"))

	require.NoError(t, err)
	require.Empty(t, components)
}

func TestDiscoverComponents_BadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"broken/bower.json": `{"main": 42}`,
	})

	_, err := DiscoverComponents(context.Background(), dir)

	require.ErrorContains(t, err, "main must be a string or a list of strings")
}

func TestDiscoverComponents_IgnoresEscapingName(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"evil/.bower.json": `{"name": "../../escaped", "main": "a.js"}`,
		"evil/a.js":        "a",
	})

	// --- Act ---
	components, err := DiscoverComponents(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, components, 1)
	require.Equal(t, "evil", components[0].Name)
	require.Equal(t, []string{"a.js"}, components[0].Files)
}

func TestDiscoverComponents_SkipsMainOutsideComponent(t *testing.T) {
	// --- Arrange ---
	root := t.TempDir()
	dir := filepath.Join(root, "bower_components")
	writeFiles(t, root, map[string]string{"secret.txt": "secret"})
	writeFiles(t, dir, map[string]string{
		"lib/.bower.json": `{"name": "lib", "main": ["../../secret.txt", "lib.js"]}`,
		"lib/lib.js":      "lib",
	})

	// --- Act ---
	components, err := DiscoverComponents(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, components, 1)
	require.Equal(t, []string{"lib.js"}, components[0].Files)
}
