package keyspace

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/admariner/datafuse/lib/db"
)

// --------------------------------------------------------------------------
// Key Codecs
// --------------------------------------------------------------------------

// KeyCodec converts keys to bytes. The byte order of encoded keys must match
// the logical order of the keys.
type KeyCodec[K any] interface {
	EncodeKey(k K) []byte
	DecodeKey(b []byte) (K, error)
}

// StringKey encodes string keys as their raw bytes.
type StringKey struct{}

func (StringKey) EncodeKey(k string) []byte { return []byte(k) }

func (StringKey) DecodeKey(b []byte) (string, error) { return string(b), nil }

// Uint64Key encodes integer keys as 8 byte big endian.
type Uint64Key[K ~uint64] struct{}

func (Uint64Key[K]) EncodeKey(k K) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

func (Uint64Key[K]) DecodeKey(b []byte) (K, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid uint64 key length %d", len(b))
	}
	return K(binary.BigEndian.Uint64(b)), nil
}

// ByteKey encodes single byte keys.
type ByteKey[K ~uint8] struct{}

func (ByteKey[K]) EncodeKey(k K) []byte { return []byte{byte(k)} }

func (ByteKey[K]) DecodeKey(b []byte) (K, error) {
	if len(b) != 1 {
		return 0, fmt.Errorf("invalid byte key length %d", len(b))
	}
	return K(b[0]), nil
}

// --------------------------------------------------------------------------
// KeySpace
// --------------------------------------------------------------------------

// Pair is a decoded key and value.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// KeySpace is a typed view of the part of a tree whose keys start with Prefix.
// Values are stored as JSON.
type KeySpace[K, V any] struct {
	Prefix byte
	Name   string
	Keys   KeyCodec[K]
}

// New creates a KeySpace. Prefixes must be unique within a tree.
func New[K, V any](prefix byte, name string, keys KeyCodec[K]) KeySpace[K, V] {
	return KeySpace[K, V]{Prefix: prefix, Name: name, Keys: keys}
}

// Key returns the raw tree key for k.
func (ks KeySpace[K, V]) Key(k K) []byte {
	return append([]byte{ks.Prefix}, ks.Keys.EncodeKey(k)...)
}

func (ks KeySpace[K, V]) decode(raw []byte) (*V, error) {
	if raw == nil {
		return nil, nil
	}
	v := new(V)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("%s: decode value: %w", ks.Name, err)
	}
	return v, nil
}

// Get returns the value stored under k, or nil.
func (ks KeySpace[K, V]) Get(tx *db.Txn, k K) (*V, error) {
	return ks.decode(tx.Get(ks.Key(k)))
}

// Insert stores v under k and returns the previous value.
func (ks KeySpace[K, V]) Insert(tx *db.Txn, k K, v V) (*V, error) {
	key := ks.Key(k)
	prev, err := ks.decode(tx.Get(key))
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: encode value: %w", ks.Name, err)
	}
	return prev, tx.Put(key, raw)
}

// Remove deletes k and returns the removed value.
func (ks KeySpace[K, V]) Remove(tx *db.Txn, k K) (*V, error) {
	key := ks.Key(k)
	prev, err := ks.decode(tx.Get(key))
	if err != nil || prev == nil {
		return prev, err
	}
	return prev, tx.Delete(key)
}

// UpdateAndFetch replaces the value of k with fn(old) and returns the new value.
// If fn returns nil the key is removed.
func (ks KeySpace[K, V]) UpdateAndFetch(tx *db.Txn, k K, fn func(old *V) *V) (*V, error) {
	old, err := ks.Get(tx, k)
	if err != nil {
		return nil, err
	}
	next := fn(old)
	if next == nil {
		_, err = ks.Remove(tx, k)
		return nil, err
	}
	if _, err := ks.Insert(tx, k, *next); err != nil {
		return nil, err
	}
	return next, nil
}

// Range calls fn in key order for every entry of the keyspace.
func (ks KeySpace[K, V]) Range(tx *db.Txn, fn func(k K, v V) error) error {
	return ks.scan(tx, []byte{ks.Prefix}, fn)
}

// ScanPrefix returns all entries whose encoded key starts with the encoding of prefix.
// This is meaningful for codecs where prefixes of keys encode to prefixes of bytes, like StringKey.
func (ks KeySpace[K, V]) ScanPrefix(tx *db.Txn, prefix K) ([]Pair[K, V], error) {
	var out []Pair[K, V]
	err := ks.scan(tx, ks.Key(prefix), func(k K, v V) error {
		out = append(out, Pair[K, V]{Key: k, Value: v})
		return nil
	})
	return out, err
}

// RangeKeys returns all keys of the keyspace in order.
func (ks KeySpace[K, V]) RangeKeys(tx *db.Txn) ([]K, error) {
	var out []K
	err := ks.Range(tx, func(k K, _ V) error {
		out = append(out, k)
		return nil
	})
	return out, err
}

func (ks KeySpace[K, V]) scan(tx *db.Txn, prefix []byte, fn func(k K, v V) error) error {
	return tx.ScanPrefix(prefix, func(rawK, rawV []byte) error {
		k, err := ks.Keys.DecodeKey(rawK[1:])
		if err != nil {
			return fmt.Errorf("%s: decode key: %w", ks.Name, err)
		}
		v, err := ks.decode(rawV)
		if err != nil {
			return err
		}
		return fn(k, *v)
	})
}
