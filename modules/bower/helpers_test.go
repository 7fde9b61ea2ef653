package bower

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFiles creates files under root from a map of slash-separated relative
// paths to contents.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func requireFile(t *testing.T, path, content string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "expected file %s", path)
	require.Equal(t, content, string(data))
}

// fakeFetcher records requests and optionally writes components.
type fakeFetcher struct {
	requests []FetchRequest
	files    map[string]string
	err      error
}

func (f *fakeFetcher) Fetch(ctx context.Context, req FetchRequest) error {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return f.err
	}
	for name, content := range f.files {
		path := filepath.Join(req.ComponentsDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
