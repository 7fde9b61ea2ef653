package bower

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Layout is the directory layout strategy used when copying component files
// into the target directory.
type Layout string

const (
	// LayoutByType places files under <targetDir>/<type>/<component>/.
	LayoutByType Layout = "byType"
	// LayoutByComponent places files under <targetDir>/<component>/<type>/.
	LayoutByComponent Layout = "byComponent"
)

// Valid reports whether l is a layout the installer understands.
func (l Layout) Valid() bool {
	return l == LayoutByType || l == LayoutByComponent
}

// Dir returns the directory, relative to the target directory, that files
// of the given type belonging to component are copied into.
func (l Layout) Dir(fileType, component string) string {
	if l == LayoutByComponent {
		return filepath.Join(component, fileType)
	}
	return filepath.Join(fileType, component)
}

// FileType returns the type directory name for a file: its lower-cased
// extension without the dot, or "other".
func FileType(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return "other"
	}
	return ext
}

// Fetcher names.
const (
	FetcherExec = "exec"
	FetcherGit  = "git"
)

// Options is the configuration of a `bower` target.
type Options struct {
	TargetDir string `cty:"targetDir"`
	// Cleanup implies both CleanTargetDir and CleanBowerDir.
	Cleanup bool   `cty:"cleanup"`
	Layout  Layout `cty:"layout"`
	Verbose bool   `cty:"verbose"`

	Install        bool   `cty:"install"`
	Copy           bool   `cty:"copy"`
	CleanTargetDir bool   `cty:"cleanTargetDir"`
	CleanBowerDir  bool   `cty:"cleanBowerDir"`
	ComponentsDir  string `cty:"componentsDir"`
	Manifest       string `cty:"manifest"`
	Fetcher        string `cty:"fetcher"`
	Workers        int    `cty:"workers"`
}

// DefaultOptions returns the options used for anything a target leaves unset.
func DefaultOptions() Options {
	return Options{
		TargetDir:     "./lib",
		Layout:        LayoutByType,
		Install:       true,
		Copy:          true,
		ComponentsDir: "bower_components",
		Manifest:      "bower.json",
		Fetcher:       FetcherExec,
		Workers:       4,
	}
}

// Normalize folds Cleanup into the specific clean flags.
func (o Options) Normalize() Options {
	if o.Cleanup {
		o.CleanTargetDir = true
		o.CleanBowerDir = true
	}
	return o
}

// Validate checks the options before anything touches the filesystem.
func (o Options) Validate() error {
	var errs []error
	if strings.TrimSpace(o.TargetDir) == "" {
		errs = append(errs, errors.New("targetDir must not be empty"))
	}
	if !o.Layout.Valid() {
		errs = append(errs, fmt.Errorf("unknown layout %q: must be %q or %q", o.Layout, LayoutByType, LayoutByComponent))
	}
	if o.Fetcher != FetcherExec && o.Fetcher != FetcherGit {
		errs = append(errs, fmt.Errorf("unknown fetcher %q: must be %q or %q", o.Fetcher, FetcherExec, FetcherGit))
	}
	if o.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", o.Workers))
	}
	if strings.TrimSpace(o.Manifest) == "" {
		errs = append(errs, errors.New("manifest must not be empty"))
	}
	if strings.TrimSpace(o.ComponentsDir) == "" {
		errs = append(errs, errors.New("componentsDir must not be empty"))
	}
	return errors.Join(errs...)
}

// ComponentsPath returns the components directory, resolved against the
// manifest's directory when relative.
func (o Options) ComponentsPath() string {
	if filepath.IsAbs(o.ComponentsDir) {
		return o.ComponentsDir
	}
	return filepath.Join(filepath.Dir(o.Manifest), o.ComponentsDir)
}
