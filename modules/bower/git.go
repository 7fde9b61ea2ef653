package bower

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/vk/bowergrid/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedEndpoint is returned for dependencies that need a package
// registry to resolve, such as semver ranges.
var ErrUnsupportedEndpoint = errors.New("unsupported endpoint")

// Source is a git location a dependency is cloned from.
type Source struct {
	URL string
	// Ref is a tag, branch or full commit hash. Empty means the default branch.
	Ref string
}

var (
	shorthandPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
	hashPattern      = regexp.MustCompile(`^[0-9a-f]{40}$`)
	urlPrefixes      = []string{"https://", "http://", "git://", "ssh://", "file://", "git@"}
)

// ParseEndpoint parses a bower.json dependency value. Accepted forms are
// `owner/repo[#ref]` (GitHub shorthand) and git URLs with an optional
// `#ref` suffix.
func ParseEndpoint(endpoint string) (Source, error) {
	raw := strings.TrimSpace(endpoint)
	location, ref, _ := strings.Cut(raw, "#")
	location = strings.TrimPrefix(location, "git+")

	for _, prefix := range urlPrefixes {
		if strings.HasPrefix(location, prefix) {
			return Source{URL: location, Ref: ref}, nil
		}
	}
	if shorthandPattern.MatchString(location) {
		return Source{URL: "https://github.com/" + strings.TrimSuffix(location, ".git") + ".git", Ref: ref}, nil
	}
	return Source{}, fmt.Errorf("%w %q: only git URLs and owner/repo shorthands can be cloned", ErrUnsupportedEndpoint, endpoint)
}

// CloneFunc clones src into dest.
type CloneFunc func(ctx context.Context, dest string, src Source) error

// GitFetcher clones every dependency listed in the manifest straight from
// git, without a package registry.
type GitFetcher struct {
	Workers int
	Clone   CloneFunc
}

// NewGitFetcher returns a fetcher cloning with go-git.
func NewGitFetcher(workers int) *GitFetcher {
	return &GitFetcher{Workers: workers, Clone: cloneWithGoGit}
}

// Fetch clones the manifest's dependencies into the components directory
// and records a .bower.json for each of them.
func (f *GitFetcher) Fetch(ctx context.Context, req FetchRequest) error {
	logger := ctxlog.FromContext(ctx)

	m, err := readManifest(req.Manifest)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	if len(m.Dependencies) == 0 {
		logger.Warn("Manifest declares no dependencies.", "manifest", req.Manifest)
		return nil
	}

	names := make([]string, 0, len(m.Dependencies))
	sources := make(map[string]Source, len(m.Dependencies))
	for name, endpoint := range m.Dependencies {
		if !isLocalName(name) {
			return fmt.Errorf("dependency '%s': name must be a single path element", name)
		}
		src, err := ParseEndpoint(endpoint)
		if err != nil {
			return fmt.Errorf("dependency '%s': %w", name, err)
		}
		names = append(names, name)
		sources[name] = src
	}
	slices.Sort(names)

	if err := os.MkdirAll(req.ComponentsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create components directory: %w", err)
	}

	clone := f.Clone
	if clone == nil {
		clone = cloneWithGoGit
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(f.Workers, 1))
	for _, name := range names {
		src := sources[name]
		dest := filepath.Join(req.ComponentsDir, name)
		g.Go(func() error {
			if req.Verbose {
				logger.Info("Cloning component.", "component", name, "url", src.URL, "ref", src.Ref)
			} else {
				logger.Debug("Cloning component.", "component", name, "url", src.URL, "ref", src.Ref)
			}
			if err := os.RemoveAll(dest); err != nil {
				return fmt.Errorf("failed to remove existing directory for '%s': %w", name, err)
			}
			if err := clone(gctx, dest, src); err != nil {
				return fmt.Errorf("failed to clone '%s' from %s: %w", name, src.URL, err)
			}
			return writeInstalledManifest(dest, name, src)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Cloned components.", "count", len(names))
	return nil
}

// writeInstalledManifest writes the .bower.json bower itself would leave
// behind, naming the component after its dependency key.
func writeInstalledManifest(dir, name string, src Source) error {
	installed := map[string]any{
		"name":    name,
		"_source": src.URL,
		"_target": src.Ref,
	}
	if m, err := readManifest(filepath.Join(dir, "bower.json")); err == nil && len(m.Main) > 0 {
		installed["main"] = []string(m.Main)
	}
	data, err := json.MarshalIndent(installed, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ".bower.json"), data, 0o644)
}

// cloneWithGoGit performs a shallow clone of a tag or branch, or a full clone
// followed by a checkout when the ref is a commit hash.
func cloneWithGoGit(ctx context.Context, dest string, src Source) error {
	if hashPattern.MatchString(src.Ref) {
		repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{URL: src.URL})
		if err != nil {
			return err
		}
		wt, err := repo.Worktree()
		if err != nil {
			return err
		}
		return wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(src.Ref)})
	}

	opts := &git.CloneOptions{URL: src.URL, Depth: 1, SingleBranch: true, Tags: git.NoTags}
	if src.Ref == "" {
		_, err := git.PlainCloneContext(ctx, dest, false, opts)
		return err
	}

	var errs []error
	for _, ref := range []plumbing.ReferenceName{
		plumbing.NewTagReferenceName(src.Ref),
		plumbing.NewBranchReferenceName(src.Ref),
	} {
		opts.ReferenceName = ref
		_, err := git.PlainCloneContext(ctx, dest, false, opts)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", ref, err))
		if rmErr := os.RemoveAll(dest); rmErr != nil {
			return rmErr
		}
	}
	return fmt.Errorf("ref %q not found: %w", src.Ref, errors.Join(errs...))
}
