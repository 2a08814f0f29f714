package fsutil

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SourceExtension is the file extension of module source files.
const SourceExtension = ".hcl"

// Tree is the content of a directory split into module sources and plain
// data files.
type Tree struct {
	// Modules maps dotted module keys to source text.
	Modules map[string]string
	// Data maps slash-separated relative paths to file contents.
	Data map[string][]byte
}

// ModuleKey maps a relative slash path to the dotted key its source is stored
// under: "a/b.hcl" becomes "a.b" and "a/__init__.hcl" becomes "a.__init__".
// The second result is false for files that are not module sources or whose
// path cannot form a module name.
func ModuleKey(rel string) (string, bool) {
	if path.Ext(rel) != SourceExtension {
		return "", false
	}
	trimmed := strings.TrimSuffix(rel, SourceExtension)
	segments := strings.Split(trimmed, "/")
	for _, s := range segments {
		if s == "" || strings.Contains(s, ".") {
			return "", false
		}
	}
	return strings.Join(segments, "."), true
}

// ReadTree reads every file under root. Files accepted by ModuleKey become
// modules; everything else becomes data.
func ReadTree(root string) (*Tree, error) {
	files, err := FindFiles(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	tree := &Tree{
		Modules: make(map[string]string),
		Data:    make(map[string][]byte),
	}
	for _, rel := range files {
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", rel, err)
		}
		if key, ok := ModuleKey(rel); ok {
			tree.Modules[key] = string(content)
			continue
		}
		tree.Data[rel] = content
	}
	return tree, nil
}
