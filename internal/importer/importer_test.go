package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shelfimport/internal/hclexec"
	"github.com/vk/shelfimport/internal/module"
	"github.com/vk/shelfimport/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// memStore is a path entry held in memory: name -> source. Packages use the
// ".__init__" suffix.
type memStore map[string]string

func (s memStore) lookup(name string) (string, bool, bool) {
	if src, ok := s[name]; ok {
		return src, false, true
	}
	if src, ok := s[name+".__init__"]; ok {
		return src, true, true
	}
	return "", false, false
}

// memHook accepts entries of the form "mem:<id>".
type memHook struct {
	stores map[string]memStore
	calls  int
}

func (h *memHook) hook(ctx context.Context, entry string) (Finder, error) {
	h.calls++
	id, ok := strings.CutPrefix(entry, "mem:")
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotApplicable, entry)
	}
	store, ok := h.stores[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown store %s", ErrNotApplicable, id)
	}
	return &memFinder{entry: entry, store: store}, nil
}

type memFinder struct {
	entry string
	store memStore
}

func (f *memFinder) Find(ctx context.Context, fullname string) (module.Loader, error) {
	if _, _, ok := f.store.lookup(fullname); !ok {
		return nil, nil
	}
	return &memLoader{entry: f.entry, store: f.store}, nil
}

type memLoader struct {
	entry string
	store memStore
}

func (l *memLoader) GetSource(ctx context.Context, fullname string) (string, error) {
	src, _, ok := l.store.lookup(fullname)
	if !ok {
		return "", ErrSourceNotFound
	}
	return src, nil
}

func (l *memLoader) GetCode(ctx context.Context, fullname string) (*hclexec.Unit, error) {
	src, err := l.GetSource(ctx, fullname)
	if err != nil {
		return nil, err
	}
	return hclexec.Compile([]byte(src), "mem:"+fullname)
}

func (l *memLoader) IsPackage(ctx context.Context, fullname string) (bool, error) {
	_, pkg, _ := l.store.lookup(fullname)
	return pkg, nil
}

func (l *memLoader) LoadModule(ctx context.Context, env module.Env, fullname string) (*module.Module, error) {
	code, err := l.GetCode(ctx, fullname)
	if err != nil {
		return nil, err
	}
	m, ok := env.Lookup(fullname)
	if !ok {
		m = env.Register(module.New(fullname))
	}
	id := module.Identity{Name: fullname, File: code.Filename(), Package: module.Parent(fullname), Loader: l}
	if pkg, _ := l.IsPackage(ctx, fullname); pkg {
		id.Path = []string{l.entry}
	}
	m.SetIdentity(id)
	err = code.Exec(ctx, m, m.MetaValue(), func(ctx context.Context, name string) (cty.Value, error) {
		dep, err := env.Import(ctx, name)
		if err != nil {
			return cty.NilVal, err
		}
		return dep.Value(), nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (l *memLoader) GetData(ctx context.Context, path string) ([]byte, error) {
	return nil, errors.New("no data")
}

func newImporter(stores map[string]memStore, entries ...string) (*Importer, *memHook) {
	h := &memHook{stores: stores}
	im := New(registry.New(), h.hook)
	for _, e := range entries {
		im.AppendPath(e)
	}
	return im, h
}

func stringAttr(t *testing.T, m *module.Module, name string) string {
	t.Helper()
	v, ok := m.Get(name)
	require.True(t, ok, "module %s has no %q", m.Name(), name)
	return v.AsString()
}

func TestImport_FirstEntryWins(t *testing.T) {
	t.Parallel()

	im, _ := newImporter(map[string]memStore{
		"a": {"shared": `origin = "a"`},
		"b": {"shared": `origin = "b"`, "only_b": `origin = "b"`},
	}, "mem:a", "mem:b")

	m, err := im.Import(context.Background(), "shared")
	require.NoError(t, err)
	assert.Equal(t, "a", stringAttr(t, m, "origin"))

	m, err = im.Import(context.Background(), "only_b")
	require.NoError(t, err)
	assert.Equal(t, "b", stringAttr(t, m, "origin"))
}

func TestImport_SkipsEntriesNoHookAccepts(t *testing.T) {
	t.Parallel()

	im, h := newImporter(map[string]memStore{
		"a": {"mod": `x = "found"`},
	}, "/not/a/store", "mem:a")

	m, err := im.Import(context.Background(), "mod")
	require.NoError(t, err)
	assert.Equal(t, "found", stringAttr(t, m, "x"))

	cache := im.FinderCache()
	require.Contains(t, cache, "/not/a/store")
	assert.Nil(t, cache["/not/a/store"], "declined entries are cached as nil")
	assert.NotNil(t, cache["mem:a"])
	assert.Equal(t, []string{"/not/a/store", "mem:a"}, im.CachedEntries())

	// A second import of another name must not consult the hooks again.
	calls := h.calls
	_, err = im.Import(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, calls, h.calls)

	im.InvalidateCaches()
	assert.Empty(t, im.FinderCache())
}

func TestImport_NotFound(t *testing.T) {
	t.Parallel()

	im, _ := newImporter(map[string]memStore{"a": {}}, "mem:a")

	_, err := im.Import(context.Background(), "x")
	require.ErrorIs(t, err, ErrNotFound)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "x", nf.Name)
	assert.Equal(t, `no module named "x"`, err.Error())

	_, err = im.Import(context.Background(), "bad..name")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestImport_SubmodulesSearchPackagePath(t *testing.T) {
	t.Parallel()

	// "pkg.sub" exists in both stores, but only the package's own store is
	// searched for it.
	im, _ := newImporter(map[string]memStore{
		"first":  {"pkg.sub": `message = "wrong store"`},
		"second": {"pkg.__init__": `message = "root"`, "pkg.sub": `message = "child"`},
	}, "mem:first", "mem:second")

	sub, err := im.Import(context.Background(), "pkg.sub")
	require.NoError(t, err)
	assert.Equal(t, "child", stringAttr(t, sub, "message"))
	assert.Equal(t, "pkg", sub.Identity().Package)

	pkg, ok := im.Lookup("pkg")
	require.True(t, ok, "importing a sub-module imports its package first")
	assert.Equal(t, []string{"mem:second"}, pkg.Identity().Path)

	bound, ok := pkg.Get("sub")
	require.True(t, ok, "sub-modules are bound into their package")
	assert.Equal(t, "child", bound.GetAttr("message").AsString())
}

func TestImport_ParentNotAPackage(t *testing.T) {
	t.Parallel()

	im, _ := newImporter(map[string]memStore{
		"a": {"plain": `x = 1`, "plain.child": `y = 2`},
	}, "mem:a")

	_, err := im.Import(context.Background(), "plain.child")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `"plain" is not a package`)
}

func TestImport_HookFailureIsFatal(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk on fire")
	im := New(registry.New(), func(ctx context.Context, entry string) (Finder, error) {
		return nil, boom
	})
	im.AppendPath("anything")

	_, err := im.Import(context.Background(), "x")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestImport_ExecutionFailureLeavesModuleRegistered(t *testing.T) {
	t.Parallel()

	im, _ := newImporter(map[string]memStore{
		"a": {"broken": "ok = 1\nbad = nope_var\n"},
	}, "mem:a")

	_, err := im.Import(context.Background(), "broken")
	require.ErrorIs(t, err, ErrExecution)

	m, ok := im.Lookup("broken")
	require.True(t, ok)
	_, ok = m.Get("ok")
	assert.True(t, ok)
}

func TestReload_PreservesIdentity(t *testing.T) {
	t.Parallel()

	store := memStore{"m": `value = "first"`}
	im, _ := newImporter(map[string]memStore{"a": store}, "mem:a")

	first, err := im.Import(context.Background(), "m")
	require.NoError(t, err)

	store["m"] = `value = "second"`
	again, err := im.Import(context.Background(), "m")
	require.NoError(t, err)
	require.Same(t, first, again)
	assert.Equal(t, "first", stringAttr(t, again, "value"), "a plain import returns the registered module")

	reloaded, err := im.Reload(context.Background(), "m")
	require.NoError(t, err)
	require.Same(t, first, reloaded)
	assert.Equal(t, "second", stringAttr(t, reloaded, "value"))
}

func TestReload_RequiresPriorImport(t *testing.T) {
	t.Parallel()

	im, _ := newImporter(map[string]memStore{"a": {"m": `x = 1`}}, "mem:a")
	_, err := im.Reload(context.Background(), "m")
	require.ErrorIs(t, err, ErrNotImported)
}

func TestPathManipulation(t *testing.T) {
	t.Parallel()

	im := New(registry.New())
	im.AppendPath("b")
	im.InsertPath("a")
	im.AppendPath("c")
	assert.Equal(t, []string{"a", "b", "c"}, im.Path())

	p := im.Path()
	p[0] = "mutated"
	assert.Equal(t, "a", im.Path()[0])
}

func TestAddHook(t *testing.T) {
	t.Parallel()

	im := New(registry.New())
	im.AppendPath("mem:a")

	_, err := im.Import(context.Background(), "m")
	require.ErrorIs(t, err, ErrNotFound)

	h := &memHook{stores: map[string]memStore{"a": {"m": `x = 1`}}}
	im.AddHook(h.hook)
	_, err = im.Import(context.Background(), "m")
	require.ErrorIs(t, err, ErrNotFound, "the entry was cached before the hook existed")

	im.InvalidateCaches()
	_, err = im.Import(context.Background(), "m")
	require.NoError(t, err)
}
