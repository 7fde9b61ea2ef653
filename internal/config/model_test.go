package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestParseRef(t *testing.T) {
	testCases := []struct {
		ref        string
		wantTask   string
		wantTarget string
		wantArgs   []string
		wantErr    bool
	}{
		{ref: "default", wantTask: "default"},
		{ref: "bower:install", wantTask: "bower", wantTarget: "install"},
		{ref: "bower:install:a:b", wantTask: "bower", wantTarget: "install", wantArgs: []string{"a", "b"}},
		{ref: "", wantErr: true},
		{ref: ":install", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.ref, func(t *testing.T) {
			task, target, args, err := ParseRef(tc.ref)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantTask, task)
			require.Equal(t, tc.wantTarget, target)
			require.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestModel_Merge(t *testing.T) {
	// --- Arrange ---
	base := NewModel()
	base.SetTaskOptions("bower", cty.ObjectVal(map[string]cty.Value{"verbose": cty.False}))
	base.AddTarget(&Target{Task: "bower", Name: "install", Options: cty.EmptyObjectVal})
	base.AddTarget(&Target{Task: "bower", Name: "vendor", Options: cty.EmptyObjectVal})
	base.AddAlias(&Alias{Name: "default", Tasks: []string{"bower:install"}})

	override := NewModel()
	override.AddTarget(&Target{Task: "bower", Name: "install", Options: cty.ObjectVal(map[string]cty.Value{
		"targetDir": cty.StringVal("lib"),
	})})
	override.AddAlias(&Alias{Name: "default", Tasks: []string{"bower"}})

	// --- Act ---
	base.Merge(override)
	base.Merge(nil)

	// --- Assert ---
	require.Equal(t, []string{"install", "vendor"}, base.Tasks["bower"].Order)
	install, ok := base.Target("bower", "install")
	require.True(t, ok)
	require.Equal(t, "lib", install.Options.GetAttr("targetDir").AsString())
	require.True(t, HasOptions(base.Tasks["bower"].Options), "task options must survive a merge without task options")
	require.Equal(t, []string{"bower"}, base.Aliases["default"].Tasks)
}

func TestHasOptions(t *testing.T) {
	require.False(t, HasOptions(cty.NilVal))
	require.False(t, HasOptions(cty.NullVal(cty.DynamicPseudoType)))
	require.True(t, HasOptions(cty.EmptyObjectVal))
}
