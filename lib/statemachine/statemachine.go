package statemachine

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/types"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("statemachine")

// Well known sequence names.
const (
	SeqGenericKV      = "generic_kv"
	SeqDatabaseID     = "database_id"
	SeqTableID        = "table_id"
	SeqDatabaseMetaID = "database_meta_id"
)

const (
	treeRaftState      = "raft_state"
	treeStateMachine   = "state_machine/"
	keyStateMachineID  = "state_machine_id"
	defaultSlots       = 3
	defaultMirrorCount = 1
)

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// Config configures a StateMachine.
type Config struct {
	Path         string            // database file
	NoSync       bool              // skip fsync on commit
	InitialSlots uint64            // number of placement slots, defaults to 3
	Replication  types.Replication // copies per slot, defaults to Mirror(1)
	MmapSize     int               // initial mmap size in bytes, defaults to db.DefaultMmapSize
}

func (c Config) withDefaults() Config {
	if c.InitialSlots == 0 {
		c.InitialSlots = defaultSlots
	}
	if c.Replication.Mirror == 0 {
		c.Replication = types.ReplicationMirror(defaultMirrorCount)
	}
	if c.MmapSize <= 0 {
		c.MmapSize = db.DefaultMmapSize
	}
	return c
}

// ID tracks snapshot installation. Epoch names the active tree, Version the
// tree being installed. They differ only while an install is in progress.
type ID struct {
	Epoch   uint64 `json:"epoch"`
	Version uint64 `json:"version"`
}

func (id ID) String() string {
	return fmt.Sprintf("%d %d", id.Epoch, id.Version)
}

func treeName(version uint64) string {
	return fmt.Sprintf("%s%d", treeStateMachine, version)
}

// --------------------------------------------------------------------------
// State Machine
// --------------------------------------------------------------------------

// StateMachine is the deterministic metadata store driven by committed raft entries.
//
// All records live in one db tree, separated into keyspaces. Apply and InstallSnapshot
// take the write lock, reads and Snapshot take the read lock.
type StateMachine struct {
	mu sync.RWMutex

	config    Config
	db        *db.DB
	raftState *db.Tree
	tree      *db.Tree
	id        ID

	slots       []types.Slot
	replication types.Replication

	clock func() time.Time // wall clock used to filter expired values on read
}

// Open opens the state machine stored at config.Path. An install that was
// interrupted by a crash is discarded. On first open the store is marked initialized.
func Open(config Config) (*StateMachine, error) {
	config = config.withDefaults()

	opts := db.DefaultOptions()
	opts.NoSync = config.NoSync
	opts.InitialMmapSize = config.MmapSize
	d, err := db.Open(config.Path, opts)
	if err != nil {
		return nil, err
	}

	s := &StateMachine{
		config:      config,
		db:          d,
		replication: config.Replication,
		clock:       time.Now,
	}
	if err := s.open(); err != nil {
		_ = d.Close()
		return nil, err
	}
	s.initSlots()
	return s, nil
}

func (s *StateMachine) open() error {
	raftState, err := s.db.OpenTree(treeRaftState)
	if err != nil {
		return err
	}
	s.raftState = raftState

	id, err := s.loadID()
	if err != nil {
		return err
	}
	if id.Epoch != id.Version {
		log.Warningf("discarding unfinished snapshot install (%s)", id)
		if err := s.db.DropTree(treeName(id.Version)); err != nil {
			return err
		}
		id.Version = id.Epoch
		if err := s.writeID(id); err != nil {
			return err
		}
	}
	s.id = id

	if s.tree, err = s.db.OpenTree(treeName(id.Epoch)); err != nil {
		return err
	}
	if err := s.dropStaleTrees(); err != nil {
		return err
	}

	return s.tree.Update(func(tx *db.Txn) error {
		v, err := ksMeta.Get(tx, MetaInitialized)
		if err != nil || v != nil {
			return err
		}
		log.Infof("initializing state machine %s", s.db.Path())
		initialized := true
		_, err = ksMeta.Insert(tx, MetaInitialized, MetaValue{Bool: &initialized})
		return err
	})
}

// dropStaleTrees removes state machine trees left behind by a crash between
// activating a new tree and dropping the old one.
func (s *StateMachine) dropStaleTrees() error {
	names, err := s.db.TreeNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		if strings.HasPrefix(name, treeStateMachine) && name != s.tree.Name() {
			log.Infof("dropping stale tree %s", name)
			if err := s.db.DropTree(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *StateMachine) loadID() (ID, error) {
	var id ID
	err := s.raftState.View(func(tx *db.Txn) error {
		raw := tx.Get([]byte(keyStateMachineID))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &id)
	})
	return id, err
}

func (s *StateMachine) writeID(id ID) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return s.raftState.Update(func(tx *db.Txn) error {
		return tx.Put([]byte(keyStateMachineID), raw)
	})
}

// ID returns the current install id.
func (s *StateMachine) ID() ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Sync flushes the database file to disk.
func (s *StateMachine) Sync() error {
	return s.db.Sync()
}

// Close closes the underlying database.
func (s *StateMachine) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Info returns information about the underlying database file.
func (s *StateMachine) Info() (db.Info, error) {
	return s.db.GetInfo()
}

// nowSecs returns the wall clock in unix seconds.
func (s *StateMachine) nowSecs() uint64 {
	return uint64(s.clock().Unix())
}

// view runs fn in a read transaction on the active tree.
func (s *StateMachine) view(fn func(tx *db.Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.View(fn)
}

// --------------------------------------------------------------------------
// Meta Reads
// --------------------------------------------------------------------------

// GetLastApplied returns the id of the last applied entry. It is zero for a fresh store.
func (s *StateMachine) GetLastApplied() (types.LogID, error) {
	var id types.LogID
	err := s.view(func(tx *db.Txn) error {
		var err error
		id, err = lastApplied(tx)
		return err
	})
	return id, err
}

// GetMembership returns the last applied membership, or nil.
func (s *StateMachine) GetMembership() (*types.Membership, error) {
	var m *types.Membership
	err := s.view(func(tx *db.Txn) error {
		v, err := ksMeta.Get(tx, MetaLastMembership)
		if v != nil {
			m = v.Membership
		}
		return err
	})
	return m, err
}

// IsInitialized reports whether the store was initialized.
func (s *StateMachine) IsInitialized() (bool, error) {
	var ok bool
	err := s.view(func(tx *db.Txn) error {
		v, err := ksMeta.Get(tx, MetaInitialized)
		ok = v != nil && v.Bool != nil && *v.Bool
		return err
	})
	return ok, err
}

func lastApplied(tx *db.Txn) (types.LogID, error) {
	v, err := ksMeta.Get(tx, MetaLastApplied)
	if err != nil || v == nil || v.LogID == nil {
		return types.LogID{}, err
	}
	return *v.LogID, nil
}
