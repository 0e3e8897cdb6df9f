package db

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// --------------------------------------------------------------------------
// Errors & Options
// --------------------------------------------------------------------------

var (
	// ErrTreeNotFound is returned when a tree is accessed after it was dropped.
	ErrTreeNotFound = errors.New("tree not found")
	// ErrReadOnly is returned when a write is attempted through a read-only transaction.
	ErrReadOnly = errors.New("transaction is read-only")
)

// Options configure how the database file is opened.
type Options struct {
	// NoSync skips fsync on commit. Only safe when durability comes from elsewhere (tests, raft log).
	NoSync bool
	// Timeout for acquiring the file lock.
	Timeout time.Duration
	// InitialMmapSize of the data file. bbolt remaps the file when it grows
	// past the mapped size, and remapping waits for every open read
	// transaction. A View from Tree.Snapshot stays open while a snapshot is
	// streamed, so writes stall for that time once the file outgrows this
	// size. It should cover the expected size of the file.
	InitialMmapSize int
}

// DefaultMmapSize is the initial mmap size used when none is configured.
const DefaultMmapSize = 64 << 20

// DefaultOptions returns the options used by the state machine.
func DefaultOptions() *Options {
	return &Options{
		Timeout:         time.Second,
		InitialMmapSize: DefaultMmapSize,
	}
}

// Info reports basic information about the database file.
type Info struct {
	Path      string   `json:"path"`
	SizeBytes int64    `json:"size_bytes"`
	Trees     []string `json:"trees"`
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

// DB is a single bbolt file holding any number of named trees.
// Each tree is an ordered byte keyed map, stored as a top level bucket.
type DB struct {
	bolt *bbolt.DB
}

// Open opens (or creates) the database file at path.
func Open(path string, opts *Options) (*DB, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dir for %s: %w", path, err)
	}
	b, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout:         opts.Timeout,
		NoSync:          opts.NoSync,
		InitialMmapSize: opts.InitialMmapSize,
	})
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}
	return &DB{bolt: b}, nil
}

// Close closes the database file.
func (d *DB) Close() error {
	return d.bolt.Close()
}

// Path returns the path of the database file.
func (d *DB) Path() string {
	return d.bolt.Path()
}

// Sync forces an fsync of the database file.
func (d *DB) Sync() error {
	return d.bolt.Sync()
}

// OpenTree returns the named tree, creating it if necessary.
func (d *DB) OpenTree(name string) (*Tree, error) {
	err := d.bolt.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("open tree %s: %w", name, err)
	}
	return &Tree{db: d, name: []byte(name)}, nil
}

// HasTree reports whether a tree with the given name exists.
func (d *DB) HasTree(name string) (bool, error) {
	found := false
	err := d.bolt.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket([]byte(name)) != nil
		return nil
	})
	return found, err
}

// DropTree removes the named tree and all its content. Dropping a missing tree is not an error.
func (d *DB) DropTree(name string) error {
	return d.bolt.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket([]byte(name))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

// TreeNames lists all trees in the database.
func (d *DB) TreeNames() ([]string, error) {
	var names []string
	err := d.bolt.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

// GetInfo returns information about the database file.
func (d *DB) GetInfo() (Info, error) {
	info := Info{Path: d.Path()}
	if st, err := os.Stat(info.Path); err == nil {
		info.SizeBytes = st.Size()
	}
	names, err := d.TreeNames()
	info.Trees = names
	return info, err
}

// --------------------------------------------------------------------------
// Tree
// --------------------------------------------------------------------------

// Tree is a named, ordered key space inside a DB.
type Tree struct {
	db   *DB
	name []byte
}

// Name returns the name of the tree.
func (t *Tree) Name() string {
	return string(t.name)
}

// Update runs fn inside a single read-write transaction. Either all writes of fn
// become visible or, if fn returns an error, none of them.
func (t *Tree) Update(fn func(tx *Txn) error) error {
	return t.db.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(t.name)
		if b == nil {
			return ErrTreeNotFound
		}
		return fn(&Txn{bucket: b, writable: true})
	})
}

// View runs fn inside a read-only transaction.
func (t *Tree) View(fn func(tx *Txn) error) error {
	return t.db.bolt.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(t.name)
		if b == nil {
			return ErrTreeNotFound
		}
		return fn(&Txn{bucket: b})
	})
}

// Snapshot opens a point-in-time read view of the tree. Later writes are not
// visible through it. The view must be closed.
func (t *Tree) Snapshot() (*View, error) {
	tx, err := t.db.bolt.Begin(false)
	if err != nil {
		return nil, err
	}
	b := tx.Bucket(t.name)
	if b == nil {
		_ = tx.Rollback()
		return nil, ErrTreeNotFound
	}
	return &View{tx: tx, Txn: &Txn{bucket: b}}, nil
}

// Import writes all pairs into the tree inside one transaction.
func (t *Tree) Import(pairs [][2][]byte) error {
	return t.Update(func(tx *Txn) error {
		for _, p := range pairs {
			if err := tx.Put(p[0], p[1]); err != nil {
				return err
			}
		}
		return nil
	})
}

// --------------------------------------------------------------------------
// Transactions & Views
// --------------------------------------------------------------------------

// Txn gives access to a tree inside a transaction. Returned slices are copies
// and stay valid after the transaction ends.
type Txn struct {
	bucket   *bbolt.Bucket
	writable bool
}

// Get returns a copy of the value stored under key, or nil.
func (tx *Txn) Get(key []byte) []byte {
	v := tx.bucket.Get(key)
	if v == nil {
		return nil
	}
	return bytes.Clone(v)
}

// Put stores value under key.
func (tx *Txn) Put(key, value []byte) error {
	if !tx.writable {
		return ErrReadOnly
	}
	return tx.bucket.Put(key, value)
}

// Delete removes key. Removing a missing key is not an error.
func (tx *Txn) Delete(key []byte) error {
	if !tx.writable {
		return ErrReadOnly
	}
	return tx.bucket.Delete(key)
}

// ScanPrefix calls fn in key order for every pair whose key starts with prefix.
// fn must not modify the tree.
func (tx *Txn) ScanPrefix(prefix []byte, fn func(k, v []byte) error) error {
	c := tx.bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(bytes.Clone(k), bytes.Clone(v)); err != nil {
			return err
		}
	}
	return nil
}

// ForEach calls fn in key order for every pair of the tree.
func (tx *Txn) ForEach(fn func(k, v []byte) error) error {
	return tx.ScanPrefix(nil, fn)
}

// View is a read-only transaction kept open for a snapshot.
type View struct {
	*Txn
	tx *bbolt.Tx
}

// Close releases the view.
func (v *View) Close() error {
	return v.tx.Rollback()
}
