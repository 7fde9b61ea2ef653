package taskfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/bowergrid/internal/config"
	"github.com/vk/bowergrid/internal/hcl"
	"github.com/vk/bowergrid/internal/registry"
	"github.com/vk/bowergrid/internal/runner"
	"github.com/vk/bowergrid/modules/bower"
	"github.com/zclconf/go-cty/cty"
)

type recordingInstaller struct {
	calls []bower.Options
}

func (r *recordingInstaller) Install(ctx context.Context, opts bower.Options) error {
	r.calls = append(r.calls, opts)
	return nil
}

func newRunner(t *testing.T, installer bower.Installer) *runner.Runner {
	t.Helper()
	reg := registry.New()
	(&bower.Module{Installer: installer}).Register(reg)
	return runner.New(reg, hcl.NewConverter())
}

func TestNewInstallConfig(t *testing.T) {
	for i := 0; i < 2; i++ {
		cfg := NewInstallConfig()
		require.Equal(t, "../resources/lib", cfg.TargetDir)
		require.True(t, cfg.Cleanup)
		require.Equal(t, bower.LayoutByComponent, cfg.Layout)
		require.True(t, cfg.Verbose)
	}
}

func TestBuiltin_ExposesNamespacedOptions(t *testing.T) {
	// --- Arrange ---
	model, err := Builtin()
	require.NoError(t, err)
	r := newRunner(t, &recordingInstaller{})

	// --- Act ---
	require.NoError(t, Register(context.Background(), r, model))

	// --- Assert ---
	opts, ok := r.Config("bower.install.options")
	require.True(t, ok)
	want := cty.ObjectVal(map[string]cty.Value{
		"targetDir": cty.StringVal("../resources/lib"),
		"cleanup":   cty.True,
		"layout":    cty.StringVal("byComponent"),
		"verbose":   cty.True,
	})
	require.True(t, want.Equals(opts).True(), "unexpected options: %#v", opts)

	def, ok := r.Registry().Lookup("default")
	require.True(t, ok)
	require.Equal(t, registry.KindAlias, def.Kind)
	require.Equal(t, []string{"bower:install"}, def.Tasks)
}

func TestRegister_Idempotent(t *testing.T) {
	// --- Arrange ---
	model, err := Builtin()
	require.NoError(t, err)
	r := newRunner(t, &recordingInstaller{})

	// --- Act ---
	require.NoError(t, Register(context.Background(), r, model))
	require.NoError(t, Register(context.Background(), r, model))

	// --- Assert ---
	require.Equal(t, []string{"bower", "default"}, r.Registry().Names())
	def, _ := r.Registry().Lookup("default")
	require.Equal(t, []string{"bower:install"}, def.Tasks)
	require.Equal(t, []string{"install"}, r.Targets("bower"))
	require.NoError(t, r.Registry().ValidateRegistry(context.Background()))
}

func TestDefaultTask_CallsInstallerOnceWithConfiguredValues(t *testing.T) {
	// --- Arrange ---
	installer := &recordingInstaller{}
	r := newRunner(t, installer)
	model, err := Builtin()
	require.NoError(t, err)
	require.NoError(t, Register(context.Background(), r, model))

	// --- Act ---
	err = r.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, installer.calls, 1)
	got := installer.calls[0]
	require.Equal(t, "../resources/lib", got.TargetDir)
	require.True(t, got.Cleanup)
	require.Equal(t, bower.LayoutByComponent, got.Layout)
	require.True(t, got.Verbose)
}

func TestEmptyTargetDir_ConstructedAndRejectedByInstaller(t *testing.T) {
	// --- Arrange ---
	cfg := NewInstallConfig()
	cfg.TargetDir = ""

	// --- Act ---
	model, err := ModelFor(cfg)

	// --- Assert ---
	require.NoError(t, err, "the registrar must not validate the record")
	target, ok := model.Target("bower", "install")
	require.True(t, ok)
	require.Equal(t, "", target.Options.GetAttr("targetDir").AsString())

	installer := &recordingInstaller{}
	r := newRunner(t, installer)
	require.NoError(t, Register(context.Background(), r, model))

	err = r.Run(context.Background())
	require.ErrorContains(t, err, "targetDir must not be empty")
	require.Empty(t, installer.calls)
}

func TestRegister_AliasConflictWithTask(t *testing.T) {
	r := newRunner(t, &recordingInstaller{})
	model := config.NewModel()
	model.AddAlias(&config.Alias{Name: "bower", Tasks: []string{"default"}})

	err := Register(context.Background(), r, model)

	require.ErrorContains(t, err, "failed to register alias 'bower'")
}

func TestRegister_TaskLevelOptions(t *testing.T) {
	r := newRunner(t, &recordingInstaller{})
	model := config.NewModel()
	model.SetTaskOptions("bower", cty.ObjectVal(map[string]cty.Value{"verbose": cty.True}))

	require.NoError(t, Register(context.Background(), r, model))

	_, ok := r.Config("bower.options")
	require.True(t, ok)
	require.Empty(t, r.Targets("bower"))
}

const hclTaskFile = `
target "bower" "install" {
  options {
    targetDir = "../resources/lib"
    cleanup   = true
    layout    = "byComponent"
    verbose   = true
  }
}

alias "default" {
  description = "Install front-end packages."
  tasks       = ["bower:install"]
}
`

const yamlTaskFile = `
targets:
  bower:
    install:
      targetDir: ../resources/lib
      cleanup: true
      layout: byComponent
      verbose: true
aliases:
  default:
    description: Install front-end packages.
    tasks: [bower:install]
`

func TestLoader_FilesMatchBuiltin(t *testing.T) {
	builtin, err := Builtin()
	require.NoError(t, err)
	wantTarget, _ := builtin.Target("bower", "install")

	for name, src := range map[string]string{"bowergrid.hcl": hclTaskFile, "bowergrid.yaml": yamlTaskFile} {
		t.Run(name, func(t *testing.T) {
			// --- Arrange ---
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

			// --- Act ---
			model, err := NewLoader().Load(context.Background(), path)

			// --- Assert ---
			require.NoError(t, err)
			target, ok := model.Target("bower", "install")
			require.True(t, ok)
			require.True(t, wantTarget.Options.Equals(target.Options).True(), "options differ: %#v", target.Options)
			require.Equal(t, builtin.Aliases["default"], model.Aliases["default"])
		})
	}
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	_, err := NewLoader().Load(context.Background(), dir)
	require.ErrorContains(t, err, "no .hcl, .yaml or .yml files found")

	_, err = NewLoader().Load(context.Background(), filepath.Join(dir, "missing.hcl"))
	require.ErrorContains(t, err, "failed to load task file")

	bad := filepath.Join(dir, "bad.hcl")
	require.NoError(t, os.WriteFile(bad, []byte(`target "bower" {`), 0o644))
	_, err = NewLoader().Load(context.Background(), bad)
	require.ErrorContains(t, err, "failed to parse HCL file")
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	found, err := Discover(dir)
	require.NoError(t, err)
	require.Empty(t, found)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bowergrid.yaml"), []byte(yamlTaskFile), 0o644))
	found, err = Discover(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "bowergrid.yaml"), found)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bowergrid.hcl"), []byte(hclTaskFile), 0o644))
	found, err = Discover(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "bowergrid.hcl"), found)
}
