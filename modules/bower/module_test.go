package bower

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/bowergrid/internal/hcl"
	"github.com/vk/bowergrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

type recordingInstaller struct {
	calls []Options
}

func (r *recordingInstaller) Install(ctx context.Context, opts Options) error {
	r.calls = append(r.calls, opts)
	return nil
}

func TestModule_OnRunBower_DecodesOverDefaults(t *testing.T) {
	// --- Arrange ---
	installer := &recordingInstaller{}
	m := &Module{Installer: installer}
	opts := cty.ObjectVal(map[string]cty.Value{
		"targetDir": cty.StringVal("../resources/lib"),
		"cleanup":   cty.True,
		"layout":    cty.StringVal("byComponent"),
		"verbose":   cty.True,
	})
	task := registry.NewTask(TaskName, "install", nil, opts, hcl.NewConverter())

	// --- Act ---
	err := m.OnRunBower(context.Background(), task)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, installer.calls, 1)
	got := installer.calls[0]
	require.Equal(t, "../resources/lib", got.TargetDir)
	require.True(t, got.Cleanup)
	require.Equal(t, LayoutByComponent, got.Layout)
	require.True(t, got.Verbose)
	require.True(t, got.CleanTargetDir)
	require.True(t, got.CleanBowerDir)
	require.True(t, got.Install)
	require.True(t, got.Copy)
	require.Equal(t, "bower_components", got.ComponentsDir)
	require.Equal(t, 4, got.Workers)
}

func TestModule_OnRunBower_InvalidOptions(t *testing.T) {
	testCases := []struct {
		name    string
		opts    cty.Value
		wantErr string
	}{
		{
			name:    "empty target dir",
			opts:    cty.ObjectVal(map[string]cty.Value{"targetDir": cty.StringVal("")}),
			wantErr: "targetDir must not be empty",
		},
		{
			name:    "unknown layout",
			opts:    cty.ObjectVal(map[string]cty.Value{"layout": cty.StringVal("flat")}),
			wantErr: `unknown layout "flat"`,
		},
		{
			name:    "wrong type",
			opts:    cty.ObjectVal(map[string]cty.Value{"cleanup": cty.StringVal("sometimes")}),
			wantErr: "failed to decode option 'cleanup'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			installer := &recordingInstaller{}
			m := &Module{Installer: installer}
			task := registry.NewTask(TaskName, "install", nil, tc.opts, hcl.NewConverter())

			err := m.OnRunBower(context.Background(), task)

			require.ErrorContains(t, err, tc.wantErr)
			require.Empty(t, installer.calls, "the installer must not run with invalid options")
		})
	}
}

func TestModule_Register(t *testing.T) {
	reg := registry.New()
	(&Module{}).Register(reg)

	def, ok := reg.Lookup(TaskName)
	require.True(t, ok)
	require.Equal(t, registry.KindMulti, def.Kind)
}
