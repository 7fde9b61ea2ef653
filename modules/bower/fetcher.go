package bower

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"

	"github.com/vk/bowergrid/internal/ctxlog"
)

// FetchRequest describes what a Fetcher should populate.
type FetchRequest struct {
	// Manifest is the path of the project's bower.json.
	Manifest string
	// ComponentsDir is where packages are placed, one directory each.
	ComponentsDir string
	Verbose       bool
}

// Fetcher populates the components directory from the project's manifest.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) error
}

// ExecFetcher delegates fetching to an external command, `bower install` by
// default, run in the manifest's directory.
type ExecFetcher struct {
	Command []string
	// DirectoryFlag, when set, is followed by the components directory
	// (relative to the manifest's directory) and appended to Command.
	DirectoryFlag string
}

// NewExecFetcher returns a fetcher running `bower install` into the
// requested components directory.
func NewExecFetcher() *ExecFetcher {
	return &ExecFetcher{
		Command:       []string{"bower", "install"},
		DirectoryFlag: "--config.directory=",
	}
}

// Fetch runs the command, streaming its output to the logger.
func (f *ExecFetcher) Fetch(ctx context.Context, req FetchRequest) error {
	logger := ctxlog.FromContext(ctx)
	if len(f.Command) == 0 {
		return errors.New("exec fetcher has no command")
	}

	bin, err := exec.LookPath(f.Command[0])
	if err != nil {
		return fmt.Errorf("%s executable not found: %w", f.Command[0], err)
	}

	dir := filepath.Dir(req.Manifest)
	args := slices.Clone(f.Command[1:])
	if f.DirectoryFlag != "" && req.ComponentsDir != "" {
		componentsDir, err := filepath.Rel(dir, req.ComponentsDir)
		if err != nil {
			if componentsDir, err = filepath.Abs(req.ComponentsDir); err != nil {
				return fmt.Errorf("failed to resolve components directory: %w", err)
			}
		}
		args = append(args, f.DirectoryFlag+componentsDir)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir

	level := slog.LevelDebug
	if req.Verbose {
		level = slog.LevelInfo
	}
	out := &lineLogger{ctx: ctx, logger: logger.With("command", f.Command[0]), level: level}
	cmd.Stdout = out
	cmd.Stderr = out

	logger.Info("Fetching components.", "command", cmd.Args, "dir", cmd.Dir)
	if err := cmd.Run(); err != nil {
		out.Flush()
		return fmt.Errorf("%s failed: %w", f.Command[0], err)
	}
	out.Flush()
	return nil
}

// lineLogger is an io.Writer that logs every complete line it receives.
type lineLogger struct {
	ctx    context.Context
	logger *slog.Logger
	level  slog.Level

	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Write(p)
	for {
		line, err := l.buf.ReadString('\n')
		if err != nil {
			// Keep the partial line for the next write.
			l.buf.Reset()
			l.buf.WriteString(line)
			break
		}
		l.emit(line)
	}
	return len(p), nil
}

// Flush logs any trailing partial line.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buf.Len() > 0 {
		l.emit(l.buf.String())
		l.buf.Reset()
	}
}

func (l *lineLogger) emit(line string) {
	scanner := bufio.NewScanner(bytes.NewBufferString(line))
	for scanner.Scan() {
		if text := scanner.Text(); text != "" {
			l.logger.Log(l.ctx, l.level, text)
		}
	}
}
