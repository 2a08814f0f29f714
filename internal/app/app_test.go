package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shelfimport/internal/config"
	"github.com/vk/shelfimport/internal/importer"
	"github.com/vk/shelfimport/internal/testutil"
)

// setupApp creates an App with a debug logger writing into the returned log
// buffer. Set SHELF_TEST_LOGS=true to print the log after the test.
func setupApp(t *testing.T, path []string, opts ...Option) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	cfg := &config.Config{Path: path, LogLevel: "debug", LogFormat: "text"}
	a, err := NewApp(out, logs, cfg, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, a.Close())
		if os.Getenv("SHELF_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}

func packageFixture(t *testing.T) string {
	t.Helper()
	dir := testutil.WriteFiles(t, map[string]string{
		"package/__init__.hcl": `message = "This message is in package.__init__"`,
		"package/module1.hcl":  "message = \"This message is in package.module1\"\nshout = upper(message)\n",
		"package/README":       "readme text\n",
	})
	return dir
}

func TestCreateListImport(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	store := filepath.Join(t.TempDir(), "pymotw.shelf")
	a, out, _ := setupApp(t, []string{store})

	// --- Act ---
	require.NoError(t, a.Create(context.Background(), store, packageFixture(t)))
	require.NoError(t, a.List(context.Background(), store))
	require.NoError(t, a.Import(context.Background(), []string{"package", "package.module1"}, ImportOptions{ShowCache: true}))

	// --- Assert ---
	got := out.String()
	assert.Contains(t, got, "Created "+store+" with 2 modules and 1 resources")
	assert.Contains(t, got, "module package.__init__\nmodule package.module1\n")
	assert.Contains(t, got, "data   package/README\n")
	assert.Contains(t, got, "Name      : package.module1\n")
	assert.Contains(t, got, "Package   : package\n")
	assert.Contains(t, got, `File      : <Loader "`+store+`"[package.module1]>`)
	assert.Contains(t, got, `shout = "THIS MESSAGE IS IN PACKAGE.MODULE1"`)
	assert.Contains(t, got, "PATH IMPORTER CACHE:\n  "+store+`: <Finder "`+store+`">`)
}

func TestImport_Reload(t *testing.T) {
	t.Parallel()

	store := testutil.WriteShelf(t, map[string]string{"m": `message = "v1"`})
	a, out, _ := setupApp(t, []string{store})

	require.NoError(t, a.Import(context.Background(), []string{"m"}, ImportOptions{Reload: true}))
	assert.Contains(t, out.String(), "Reloaded  : m (same object: true)")
}

func TestImport_NotFound(t *testing.T) {
	t.Parallel()

	store := testutil.WriteShelf(t, map[string]string{"m": `message = "v1"`})
	a, _, _ := setupApp(t, []string{store})

	err := a.Import(context.Background(), []string{"nope"}, ImportOptions{})
	require.ErrorIs(t, err, importer.ErrNotFound)
}

func TestData(t *testing.T) {
	t.Parallel()

	store := filepath.Join(t.TempDir(), "data.shelf")
	a, out, _ := setupApp(t, []string{store})
	require.NoError(t, a.Create(context.Background(), store, packageFixture(t)))
	out.Reset()

	require.NoError(t, a.Data(context.Background(), "package", "README"))
	assert.Equal(t, "readme text\n", out.String())

	err := a.Data(context.Background(), "package.module1", "README")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a package")
}

func TestNoisyHook(t *testing.T) {
	t.Parallel()

	store := testutil.WriteShelf(t, map[string]string{"m": `message = "found"`})
	a, out, logs := setupApp(t, []string{store}, WithNoisyHook())

	require.Equal(t, []string{NoisyTrigger, store}, a.Importer().Path())
	require.NoError(t, a.Import(context.Background(), []string{"m"}, ImportOptions{ShowCache: true}))

	got := logs.String()
	assert.Contains(t, got, "Checking noisy finder support.")
	assert.Contains(t, got, "Noisy finder does not work for entry.")
	assert.Contains(t, got, "Noisy finder looking for module.")
	assert.Contains(t, got, "New shelf added to import path.")
	assert.Contains(t, out.String(), "  "+NoisyTrigger+": <noisy finder>")
}

func TestNewApp_LogFile(t *testing.T) {
	t.Parallel()

	logFile := filepath.Join(t.TempDir(), "logs", "shelf.log")
	cfg := &config.Config{LogLevel: "debug", LogFormat: "json", LogFile: logFile, LogMaxSize: 1}
	logs := &bytes.Buffer{}

	a, err := NewApp(&bytes.Buffer{}, logs, cfg)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	assert.Empty(t, logs.String(), "records must go to the log file")
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"Logger configured successfully."`)
}
