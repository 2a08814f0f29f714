package shelf

import (
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	modulesBucket = []byte("modules")
	dataBucket    = []byte("data")
)

// ErrNotAShelf is returned when a path does not refer to a usable shelf file.
var ErrNotAShelf = errors.New("not a shelf")

// ErrReadOnly is returned by write operations on a shelf opened read-only.
var ErrReadOnly = errors.New("shelf is read-only")

// Shelf is an open handle on a shelf file.
type Shelf struct {
	db       *bolt.DB
	path     string
	writable bool
}

type options struct {
	writable bool
	timeout  time.Duration
}

// Option configures how a shelf is opened.
type Option func(*options)

// WithWritable opens the shelf for writing, creating the file and its buckets
// if they do not exist yet.
func WithWritable() Option {
	return func(o *options) { o.writable = true }
}

// WithTimeout bounds how long Open waits for the file lock. Zero waits forever.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// Open opens the shelf at path. Shelves are opened read-only unless
// WithWritable is given.
func Open(path string, opts ...Option) (*Shelf, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if !o.writable {
		// bbolt creates missing files even in read-only mode; a reader must
		// never leave an empty file behind.
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open shelf %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("failed to open shelf %s: %w", path, ErrNotAShelf)
		}
	}

	db, err := bolt.Open(path, 0o644, &bolt.Options{
		ReadOnly: !o.writable,
		Timeout:  o.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open shelf %s: %w", path, err)
	}

	s := &Shelf{db: db, path: path, writable: o.writable}
	if o.writable {
		err = db.Update(func(tx *bolt.Tx) error {
			if _, err := tx.CreateBucketIfNotExists(modulesBucket); err != nil {
				return err
			}
			_, err := tx.CreateBucketIfNotExists(dataBucket)
			return err
		})
	} else {
		err = db.View(func(tx *bolt.Tx) error {
			if tx.Bucket(modulesBucket) == nil {
				return ErrNotAShelf
			}
			return nil
		})
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open shelf %s: %w", path, err)
	}

	return s, nil
}

// Path returns the location the shelf was opened from.
func (s *Shelf) Path() string {
	return s.path
}

// Close releases the underlying file and its lock.
func (s *Shelf) Close() error {
	return s.db.Close()
}

// Get returns the source stored under key.
func (s *Shelf) Get(key string) (string, bool, error) {
	v, ok, err := s.get(modulesBucket, key)
	return string(v), ok, err
}

// Has reports whether key is present in the modules bucket.
func (s *Shelf) Has(key string) (bool, error) {
	_, ok, err := s.get(modulesBucket, key)
	return ok, err
}

// Keys returns all module keys in byte order.
func (s *Shelf) Keys() ([]string, error) {
	return s.keys(modulesBucket)
}

// Put stores source text under key.
func (s *Shelf) Put(key, source string) error {
	return s.put(modulesBucket, key, []byte(source))
}

// GetData returns the resource stored under path.
func (s *Shelf) GetData(path string) ([]byte, bool, error) {
	return s.get(dataBucket, path)
}

// PutData stores a resource under path.
func (s *Shelf) PutData(path string, data []byte) error {
	return s.put(dataBucket, path, data)
}

// DataKeys returns all resource paths in byte order.
func (s *Shelf) DataKeys() ([]string, error) {
	return s.keys(dataBucket)
}

func (s *Shelf) get(bucket []byte, key string) ([]byte, bool, error) {
	var (
		out []byte
		ok  bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		// Values are only valid for the life of the transaction.
		out = append([]byte{}, v...)
		ok = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q from shelf %s: %w", key, s.path, err)
	}
	return out, ok, nil
}

func (s *Shelf) put(bucket []byte, key string, value []byte) error {
	if !s.writable {
		return ErrReadOnly
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write %q to shelf %s: %w", key, s.path, err)
	}
	return nil
}

func (s *Shelf) keys(bucket []byte) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list shelf %s: %w", s.path, err)
	}
	// ForEach yields keys in byte order.
	return keys, nil
}
