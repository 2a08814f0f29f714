package shelf

import (
	"errors"
	"fmt"
	"os"
)

// View opens the shelf at path read-only, calls fn, and closes the shelf
// again whether fn returns, fails or panics.
func View(path string, fn func(*Shelf) error, opts ...Option) (err error) {
	s, err := Open(path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close shelf %s: %w", path, cerr)
		}
	}()
	return fn(s)
}

// Validate checks that path is an existing regular file holding a shelf.
// Every failure matches ErrNotAShelf.
func Validate(path string, opts ...Option) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotAShelf, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotAShelf, path)
	}
	err = View(path, func(*Shelf) error { return nil }, opts...)
	if err != nil {
		if errors.Is(err, ErrNotAShelf) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrNotAShelf, err)
	}
	return nil
}

// Create writes a new shelf at path holding the given module sources.
// An existing file at path is replaced.
func Create(path string, modules map[string]string, opts ...Option) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to replace shelf %s: %w", path, err)
	}
	s, err := Open(path, append(opts, WithWritable())...)
	if err != nil {
		return err
	}
	for key, source := range modules {
		if err := s.Put(key, source); err != nil {
			_ = s.Close()
			return err
		}
	}
	return s.Close()
}
