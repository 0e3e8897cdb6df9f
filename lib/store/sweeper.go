package store

import (
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

// MaintenanceTask is implemented by stores that need periodic upkeep on the
// leader besides expiring values.
type MaintenanceTask interface {
	Maintain() error
}

// Sweeper periodically proposes an ExpireKVs command, so that expired generic
// KV values are removed from every replica at the same log position.
// Only the replica for which isLeader returns true proposes.
type Sweeper struct {
	store    IStore
	interval time.Duration
	isLeader func() bool

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewSweeper creates a sweeper. A nil isLeader means always sweep.
func NewSweeper(s IStore, interval time.Duration, isLeader func() bool) *Sweeper {
	if isLeader == nil {
		isLeader = func() bool { return true }
	}
	return &Sweeper{
		store:    s,
		interval: interval,
		isLeader: isLeader,
		stop:     make(chan struct{}),
	}
}

// Start runs the sweeper in the background until Stop is called.
func (sw *Sweeper) Start() {
	sw.wg.Add(1)
	go func() {
		defer sw.wg.Done()
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()
		for {
			select {
			case <-sw.stop:
				return
			case <-ticker.C:
				sw.Sweep()
			}
		}
	}()
}

// Sweep runs one round if this replica leads.
func (sw *Sweeper) Sweep() {
	if !sw.isLeader() {
		return
	}
	n, err := ExpireKVs(sw.store)
	if err != nil {
		log.Warningf("sweeper: expire kvs failed: %v", err)
	} else if n > 0 {
		log.Debugf("sweeper: removed %d expired values", n)
	}
	if task, ok := sw.store.(MaintenanceTask); ok {
		if err := task.Maintain(); err != nil {
			log.Warningf("sweeper: maintenance failed: %v", err)
		}
	}
}

// Stop stops the sweeper and waits for a running round to finish.
func (sw *Sweeper) Stop() {
	sw.once.Do(func() { close(sw.stop) })
	sw.wg.Wait()
}
