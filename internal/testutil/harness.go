package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/shelfimport/internal/ctxlog"
	"github.com/vk/shelfimport/internal/shelf"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// NewContext returns a context carrying a debug-level text logger that writes
// into the returned buffer. Set SHELF_TEST_LOGS=true to print the captured
// log when the test finishes.
func NewContext(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Cleanup(func() {
		if os.Getenv("SHELF_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return ctxlog.WithLogger(context.Background(), logger), logBuffer
}

// WriteShelf creates a shelf in a fresh temporary directory holding the given
// module sources and returns its path.
func WriteShelf(t *testing.T, modules map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modules.shelf")
	require.NoError(t, shelf.Create(path, modules))
	return path
}

// WriteShelfData adds resources to an existing shelf.
func WriteShelfData(t *testing.T, path string, data map[string]string) {
	t.Helper()
	s, err := shelf.Open(path, shelf.WithWritable())
	require.NoError(t, err)
	for name, content := range data {
		require.NoError(t, s.PutData(name, []byte(content)))
	}
	require.NoError(t, s.Close())
}

// WriteFiles writes files relative to a fresh temporary directory and
// returns the directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}
	return root
}
