package bower

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/vk/bowergrid/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// Installer fetches front-end packages and lays them out in a target
// directory. It is the only thing the `bower` task calls.
type Installer interface {
	Install(ctx context.Context, opts Options) error
}

// Bower is the default Installer: clean, fetch, then copy main files.
type Bower struct {
	Fetcher Fetcher
}

// NewInstaller builds the default installer for the fetcher named in opts.
func NewInstaller(opts Options) (*Bower, error) {
	switch opts.Fetcher {
	case FetcherExec:
		return &Bower{Fetcher: NewExecFetcher()}, nil
	case FetcherGit:
		return &Bower{Fetcher: NewGitFetcher(opts.Workers)}, nil
	default:
		return nil, fmt.Errorf("unknown fetcher %q", opts.Fetcher)
	}
}

// Install runs the install pipeline. The target directory is cleaned before
// fetching and the components directory after copying, as requested.
func (b *Bower) Install(ctx context.Context, opts Options) error {
	opts = opts.Normalize()
	logger := ctxlog.FromContext(ctx)
	componentsDir := opts.ComponentsPath()

	if opts.CleanTargetDir {
		logger.Debug("Cleaning target directory.", "dir", opts.TargetDir)
		if err := os.RemoveAll(opts.TargetDir); err != nil {
			return fmt.Errorf("failed to clean target directory: %w", err)
		}
	}

	if opts.Install {
		if b.Fetcher == nil {
			return fmt.Errorf("installer has no fetcher")
		}
		req := FetchRequest{Manifest: opts.Manifest, ComponentsDir: componentsDir, Verbose: opts.Verbose}
		if err := b.Fetcher.Fetch(ctx, req); err != nil {
			return fmt.Errorf("failed to fetch components: %w", err)
		}
	}

	if opts.Copy {
		components, err := DiscoverComponents(ctx, componentsDir)
		if err != nil {
			return err
		}
		copied, err := copyComponents(ctx, components, opts)
		if err != nil {
			return err
		}
		logger.Info("Installed components.", "components", len(components), "files", copied, "target_dir", opts.TargetDir, "layout", opts.Layout)
	}

	if opts.CleanBowerDir {
		logger.Debug("Cleaning components directory.", "dir", componentsDir)
		if err := os.RemoveAll(componentsDir); err != nil {
			return fmt.Errorf("failed to clean components directory: %w", err)
		}
	}
	return nil
}

// copyJob is a single file copy planned by planCopies.
type copyJob struct {
	component string
	src, dst  string
}

// planCopies maps every main file to its destination under the target
// directory. Two files landing on the same destination are an error, since
// one would silently overwrite the other.
func planCopies(components []Component, opts Options) ([]copyJob, error) {
	var jobs []copyJob
	owners := make(map[string]copyJob)
	for _, comp := range components {
		for _, file := range comp.Files {
			base := filepath.Base(file)
			job := copyJob{
				component: comp.Name,
				src:       filepath.Join(comp.Dir, file),
				dst:       filepath.Join(opts.TargetDir, opts.Layout.Dir(FileType(base), comp.Name), base),
			}
			if prev, ok := owners[job.dst]; ok {
				return nil, fmt.Errorf("component '%s': %s and %s both map to %s", job.component, prev.src, job.src, job.dst)
			}
			owners[job.dst] = job
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// copyComponents copies every component's main files into the target
// directory according to the layout, at most opts.Workers at a time.
func copyComponents(ctx context.Context, components []Component, opts Options) (int64, error) {
	logger := ctxlog.FromContext(ctx)
	jobs, err := planCopies(components, opts)
	if err != nil {
		return 0, err
	}

	var copied atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for _, job := range jobs {
		g.Go(func() error {
			if err := copyFile(gctx, job.src, job.dst); err != nil {
				return fmt.Errorf("component '%s': %w", job.component, err)
			}
			copied.Add(1)
			if opts.Verbose {
				logger.Info("Copied file.", "component", job.component, "from", job.src, "to", job.dst)
			} else {
				logger.Debug("Copied file.", "component", job.component, "from", job.src, "to", job.dst)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return copied.Load(), err
	}
	return copied.Load(), nil
}

func copyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		out.Close()
		return fmt.Errorf("failed to set mode on %s: %w", dst, err)
	}
	return out.Close()
}
