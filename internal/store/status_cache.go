package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RunStatus is the snapshot kept in the cache for cheap polling of a run
// without hitting cluster_run.
type RunStatus struct {
	RunID      int64      `json:"run_id"`
	Status     string     `json:"status"`
	KFinal     *int       `json:"k_final,omitempty"`
	Error      *string    `json:"error,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// StatusCache stores run status snapshots in a KV with a TTL.
type StatusCache struct {
	kv  KV
	ttl time.Duration
}

func NewStatusCache(kv KV, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &StatusCache{kv: kv, ttl: ttl}
}

func statusKey(runID int64) string {
	return fmt.Sprintf("cluster:run:%d:status", runID)
}

func (c *StatusCache) Put(ctx context.Context, status RunStatus) error {
	status.UpdatedAt = time.Now()
	b, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode run status: %w", err)
	}
	return c.kv.Set(ctx, statusKey(status.RunID), string(b), c.ttl)
}

// Get returns the cached snapshot, or ErrMiss when absent or expired.
func (c *StatusCache) Get(ctx context.Context, runID int64) (*RunStatus, error) {
	raw, err := c.kv.Get(ctx, statusKey(runID))
	if err != nil {
		return nil, err
	}
	var status RunStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, fmt.Errorf("failed to decode run status: %w", err)
	}
	return &status, nil
}

func (c *StatusCache) Invalidate(ctx context.Context, runID int64) error {
	return c.kv.Delete(ctx, statusKey(runID))
}
