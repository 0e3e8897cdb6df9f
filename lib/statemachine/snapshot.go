package statemachine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/types"
)

// --------------------------------------------------------------------------
// Building Snapshots
// --------------------------------------------------------------------------

// SerializableSnapshot is the transfer format of a snapshot: every raw
// key/value pair of the state machine tree in key order.
type SerializableSnapshot struct {
	KVs [][2][]byte `json:"kvs"`
}

// SnapshotMeta describes a snapshot.
type SnapshotMeta struct {
	LastApplied types.LogID      `json:"last_applied"`
	Membership  types.Membership `json:"membership"`
	SnapshotID  string           `json:"snapshot_id"`
}

// Snapshot is a point-in-time view of the state machine. Entries applied after
// it was taken are not part of it. It must be closed.
type Snapshot struct {
	Meta SnapshotMeta
	view *db.View
}

// Snapshot takes a consistent snapshot of the current state.
func (s *StateMachine) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	view, err := s.tree.Snapshot()
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	last, err := lastApplied(view.Txn)
	if err != nil {
		_ = view.Close()
		return nil, err
	}
	var membership types.Membership
	if v, err := ksMeta.Get(view.Txn, MetaLastMembership); err != nil {
		_ = view.Close()
		return nil, err
	} else if v != nil && v.Membership != nil {
		membership = *v.Membership
	}

	metricSnapshots.Inc()
	return &Snapshot{
		Meta: SnapshotMeta{
			LastApplied: last,
			Membership:  membership,
			SnapshotID:  fmt.Sprintf("%d-%d-%d", last.Term, last.Index, time.Now().Unix()),
		},
		view: view,
	}, nil
}

// KVs returns copies of all raw pairs of the snapshot, in key order.
// They stay valid after Close.
func (sn *Snapshot) KVs() ([][2][]byte, error) {
	var kvs [][2][]byte
	err := sn.view.ForEach(func(k, v []byte) error {
		kvs = append(kvs, [2][]byte{bytes.Clone(k), bytes.Clone(v)})
		return nil
	})
	return kvs, err
}

// Serialize returns the snapshot in its transfer format.
func (sn *Snapshot) Serialize() ([]byte, error) {
	kvs, err := sn.KVs()
	if err != nil {
		return nil, err
	}
	return json.Marshal(SerializableSnapshot{KVs: kvs})
}

// WriteTo streams the snapshot in its transfer format to w.
func (sn *Snapshot) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}

	if _, err := io.WriteString(cw, `{"kvs":[`); err != nil {
		return cw.n, err
	}
	first := true
	err := sn.view.ForEach(func(k, v []byte) error {
		pair, err := json.Marshal([2][]byte{k, v})
		if err != nil {
			return err
		}
		if !first {
			if _, err := io.WriteString(cw, ","); err != nil {
				return err
			}
		}
		first = false
		_, err = cw.Write(pair)
		return err
	})
	if err != nil {
		return cw.n, err
	}
	if _, err := io.WriteString(cw, "]}"); err != nil {
		return cw.n, err
	}
	return cw.n, bw.Flush()
}

// Close releases the snapshot view.
func (sn *Snapshot) Close() error {
	return sn.view.Close()
}

// ReadSnapshot decodes a snapshot in transfer format.
func ReadSnapshot(r io.Reader) (*SerializableSnapshot, error) {
	snap := &SerializableSnapshot{}
	if err := json.NewDecoder(bufio.NewReader(r)).Decode(snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
