package yamlcfg

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const installTaskFile = `
targets:
  bower:
    install:
      targetDir: ../resources/lib
      cleanup: true
      layout: byComponent
      verbose: true
      workers: 3
      ratio: 0.5
      tags: [js, css]
      nothing: ~
tasks:
  bower:
    verbose: false
aliases:
  default:
    description: Install front-end packages.
    tasks: [bower:install]
`

func TestLoader_Parse(t *testing.T) {
	// --- Act ---
	model, err := NewLoader().Parse(context.Background(), "bowergrid.yaml", []byte(installTaskFile))

	// --- Assert ---
	require.NoError(t, err)

	target, ok := model.Target("bower", "install")
	require.True(t, ok)
	opts := target.Options
	require.Equal(t, cty.StringVal("../resources/lib"), opts.GetAttr("targetDir"))
	require.Equal(t, cty.True, opts.GetAttr("cleanup"))
	require.Equal(t, cty.StringVal("byComponent"), opts.GetAttr("layout"))
	require.Equal(t, cty.True, opts.GetAttr("verbose"))
	require.True(t, opts.GetAttr("workers").Equals(cty.NumberIntVal(3)).True())
	require.True(t, opts.GetAttr("ratio").Equals(cty.NumberFloatVal(0.5)).True())
	require.Equal(t, 2, opts.GetAttr("tags").LengthInt())
	require.True(t, opts.GetAttr("nothing").IsNull())

	require.Equal(t, cty.False, model.Tasks["bower"].Options.GetAttr("verbose"))
	require.Equal(t, []string{"bower:install"}, model.Aliases["default"].Tasks)
	require.Equal(t, "Install front-end packages.", model.Aliases["default"].Description)
}

func TestLoader_Parse_Empty(t *testing.T) {
	model, err := NewLoader().Parse(context.Background(), "empty.yaml", nil)

	require.NoError(t, err)
	require.Empty(t, model.Tasks)
	require.Empty(t, model.Aliases)
}

func TestLoader_Parse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "unknown top-level key", src: "steps: {}\n", wantErr: "failed to parse YAML file"},
		{name: "malformed", src: "targets: [\n", wantErr: "failed to parse YAML file"},
		{name: "alias without tasks", src: "aliases:\n  default:\n    description: x\n", wantErr: "alias 'default' has no tasks"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().Parse(context.Background(), "broken.yaml", []byte(tc.src))
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoader_Load(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yml"), []byte(installTaskFile), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("aliases:\n  default:\n    tasks: [bower]\n"), 0o644))

	// --- Act ---
	model, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, []string{"bower"}, model.Aliases["default"].Tasks)
	_, ok := model.Target("bower", "install")
	require.True(t, ok)
}
