package statemachine

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/admariner/datafuse/lib/types"
)

var (
	metricApplyDuration    = metrics.GetOrCreateHistogram("dmeta_sm_apply_duration_seconds")
	metricApplyErrors      = metrics.GetOrCreateCounter("dmeta_sm_apply_errors_total")
	metricDedupHits        = metrics.GetOrCreateCounter("dmeta_sm_dedup_hits_total")
	metricExpiredKVs       = metrics.GetOrCreateCounter("dmeta_sm_expired_kvs_total")
	metricSnapshots        = metrics.GetOrCreateCounter("dmeta_sm_snapshots_total")
	metricSnapshotInstalls = metrics.GetOrCreateCounter("dmeta_sm_snapshot_installs_total")
)

func observeApply(entry types.Entry, result types.AppliedState, start time.Time) {
	metricApplyDuration.Update(time.Since(start).Seconds())
	name := entry.Type.String()
	if entry.Type == types.EntryTNormal && entry.Normal != nil {
		name = entry.Normal.Cmd.Type.String()
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`dmeta_sm_applied_total{type=%q}`, name)).Inc()
	if result.Type == types.AppliedTError {
		metrics.GetOrCreateCounter(fmt.Sprintf(`dmeta_sm_rejected_total{type=%q}`, name)).Inc()
	}
}
