package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/bowergrid/internal/config"
	"github.com/vk/bowergrid/internal/ctxlog"
	"github.com/vk/bowergrid/internal/hcl"
	"github.com/vk/bowergrid/internal/runner"
	"github.com/vk/bowergrid/internal/taskfile"
	"github.com/vk/bowergrid/internal/yamlcfg"
	"github.com/vk/bowergrid/modules/bower"
	"github.com/zclconf/go-cty/cty"
)

// defaultDebounce collapses bursts of editor writes into a single re-run.
const defaultDebounce = 500 * time.Millisecond

// watchSet is the set of files and directories whose changes trigger a
// re-run. Directories match any task file inside them.
type watchSet struct {
	files []string
	dirs  []string
}

// newWatchSet resolves the task files, the extra watch files of cfg and the
// given manifests to absolute paths.
func newWatchSet(cfg *Config, manifests []string) (*watchSet, error) {
	ws := &watchSet{}
	taskFiles := cfg.TaskFiles
	if len(taskFiles) == 0 {
		taskFiles = taskfile.DefaultNames
	}
	paths := slices.Concat(taskFiles, cfg.WatchFiles, manifests)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve watch path %s: %w", p, err)
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			ws.dirs = append(ws.dirs, abs)
			continue
		}
		ws.files = append(ws.files, abs)
	}
	return ws, nil
}

// watchDirs returns the directories to register with fsnotify. Watching the
// parent directory survives editors that replace files on save.
func (ws *watchSet) watchDirs() []string {
	dirs := slices.Clone(ws.dirs)
	for _, f := range ws.files {
		dirs = append(dirs, filepath.Dir(f))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

// manifestPaths returns the manifest of every configured `bower` target.
// Target options win over task-level ones, and the plugin default applies
// when neither sets it.
func manifestPaths(r *runner.Runner) []string {
	var paths []string
	for _, target := range r.Targets(bower.TaskName) {
		manifest := bower.DefaultOptions().Manifest
		for _, key := range []string{runner.ConfigKey(bower.TaskName, ""), runner.ConfigKey(bower.TaskName, target)} {
			if v, ok := r.Config(key); ok {
				if s, ok := stringAttr(v, "manifest"); ok {
					manifest = s
				}
			}
		}
		paths = append(paths, manifest)
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}

// stringAttr returns the known, non-null string attribute name of an object.
func stringAttr(v cty.Value, name string) (string, bool) {
	if !config.HasOptions(v) || !v.IsKnown() || !v.Type().IsObjectType() || !v.Type().HasAttribute(name) {
		return "", false
	}
	attr := v.GetAttr(name)
	if attr.IsNull() || !attr.IsKnown() || !attr.Type().Equals(cty.String) {
		return "", false
	}
	return attr.AsString(), true
}

// matches reports whether a change to name should trigger a re-run.
func (ws *watchSet) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if slices.Contains(ws.files, abs) {
		return true
	}
	if !slices.Contains(ws.dirs, filepath.Dir(abs)) {
		return false
	}
	ext := filepath.Ext(abs)
	return ext == hcl.Extension || slices.Contains(yamlcfg.Extensions, ext)
}

// watch blocks until ctx is done, reloading the task files and re-running
// the configured tasks whenever a watched file changes.
func (a *App) watch(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	ws, err := newWatchSet(a.config, manifestPaths(a.runner))
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(ctx, watcher, ws); err != nil {
		return err
	}

	debounce := a.debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	logger.Info("👀 Watching for changes.", "files", ws.files, "dirs", ws.dirs)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Watcher stopped.")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ws.matches(event.Name) {
				continue
			}
			if event.Has(fsnotify.Remove) {
				logger.Warn("Watched file removed.", "file", event.Name)
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Debug("Change detected.", "file", event.Name, "op", event.Op.String())
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("File watcher error.", "error", err)
		case <-timer.C:
			a.rerun(ctx)
			// A reloaded task file may point at a different manifest.
			next, err := newWatchSet(a.config, manifestPaths(a.runner))
			if err != nil {
				logger.Error("Failed to refresh watched files.", "error", err)
				continue
			}
			if err := addWatchDirs(ctx, watcher, next); err != nil {
				logger.Error("Failed to refresh watched files.", "error", err)
				continue
			}
			ws = next
		}
	}
}

// addWatchDirs registers the directories of ws. Adding a directory twice is
// a no-op for fsnotify. Directories that do not exist yet are skipped.
func addWatchDirs(ctx context.Context, watcher *fsnotify.Watcher, ws *watchSet) error {
	for _, dir := range ws.watchDirs() {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			ctxlog.FromContext(ctx).Warn("Watch directory does not exist, skipping.", "dir", dir)
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	return nil
}

// rerun reloads the task files and runs the tasks again. Failures are
// logged and the previous runner is kept so the next change can recover.
func (a *App) rerun(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	r, err := a.build(ctx)
	if err != nil {
		logger.Error("Failed to reload task file, keeping previous configuration.", "error", err)
	} else {
		a.runner = r
	}
	if err := a.runOnce(ctx); err != nil {
		logger.Error("Run failed, waiting for changes.", "error", err)
	}
}
