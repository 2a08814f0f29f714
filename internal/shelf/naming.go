package shelf

import "strings"

// InitSuffix marks the key holding a package's own source.
const InitSuffix = ".__init__"

// InitKey returns the key a package named name is stored under.
func InitKey(name string) string {
	if strings.HasSuffix(name, InitSuffix) {
		return name
	}
	return name + InitSuffix
}

// ResolveKey looks for name, then for its init key, and returns whichever
// key is present first.
func ResolveKey(s *Shelf, name string) (string, bool, error) {
	ok, err := s.Has(name)
	if err != nil {
		return "", false, err
	}
	if ok {
		return name, true, nil
	}
	initKey := InitKey(name)
	ok, err = s.Has(initKey)
	if err != nil {
		return "", false, err
	}
	if ok {
		return initKey, true, nil
	}
	return "", false, nil
}

// ModuleName strips the init suffix from a key, yielding the module name the
// key is imported as.
func ModuleName(key string) string {
	return strings.TrimSuffix(key, InitSuffix)
}
