// Package cache owns the client's last-known set of reports and the queue of
// mutations waiting for the remote service. Both live in the durable store as
// independently versioned JSON records mirrored in memory, so a corrupted or
// unavailable store degrades to memory-only operation without surfacing an
// error.
package cache

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opencivic/citizen-reports-sync/models"
	"github.com/opencivic/citizen-reports-sync/storage"
)

const (
	cacheStorageKey = "citizen_reports_cache_v2"
	queueStorageKey = "citizen_reports_queue_v1"
)

// ReportCache persists reports and queued operations locally
type ReportCache struct {
	mu         sync.Mutex
	store      storage.Storage
	memReports []models.Report
	memQueue   []models.QueuedOperation
}

// New creates a cache backed by the given store. A nil store means
// memory-only operation.
func New(store storage.Storage) *ReportCache {
	return &ReportCache{store: store}
}

// Reports returns all cached reports, optionally narrowed by filter
func (c *ReportCache) Reports(filter *models.ReportFilter) []models.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	reports := c.readReports()
	if filter == nil || filter.IsZero() {
		return reports
	}

	matched := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if filter.Matches(r) {
			matched = append(matched, r)
		}
	}
	return matched
}

// Report returns the cached report with the given id
func (c *ReportCache) Report(id int) (models.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.readReports() {
		if r.ID == id {
			return r, true
		}
	}
	return models.Report{}, false
}

// Upsert merges the incoming report into the cache and returns the stored
// result. A report whose id matches an existing record is merged field by
// field: set fields win, unset fields keep their cached value, and the
// offline-sync flags are always taken from the incoming record so a replay
// can clear them. A report with no id (or an unknown id) is inserted; missing
// ids are assigned locally as max existing id + 1.
func (c *ReportCache) Upsert(report models.Report) models.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	reports := c.readReports()

	index := -1
	if report.ID != 0 {
		for i, r := range reports {
			if r.ID == report.ID {
				index = i
				break
			}
		}
	}

	if index >= 0 {
		reports[index] = merge(reports[index], report)
		c.writeReports(reports)
		return reports[index]
	}

	if report.ID == 0 {
		report.ID = nextLocalID(reports)
	}
	now := time.Now()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	if report.UpdatedAt.IsZero() {
		report.UpdatedAt = now
	}
	reports = append(reports, report)
	c.writeReports(reports)
	return report
}

// Remove deletes the report with the given id; absent ids are a no-op
func (c *ReportCache) Remove(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reports := c.readReports()
	kept := reports[:0]
	for _, r := range reports {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	c.writeReports(kept)
}

// ReplaceAll swaps the entire cached set, used after a full remote fetch
func (c *ReportCache) ReplaceAll(reports []models.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeReports(append([]models.Report(nil), reports...))
}

// Enqueue appends the operation, or replaces an existing entry with the same
// operation id
func (c *ReportCache) Enqueue(op models.QueuedOperation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	queue := c.readQueue()
	replaced := false
	for i, existing := range queue {
		if existing.ID == op.ID {
			queue[i] = op
			replaced = true
			break
		}
	}
	if !replaced {
		queue = append(queue, op)
	}
	c.writeQueue(queue)
}

// Dequeue removes the operation with the given id; absent ids are a no-op
func (c *ReportCache) Dequeue(opID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	queue := c.readQueue()
	kept := queue[:0]
	for _, op := range queue {
		if op.ID != opID {
			kept = append(kept, op)
		}
	}
	c.writeQueue(kept)
}

// Queue returns the pending operations in insertion order, oldest first
func (c *ReportCache) Queue() []models.QueuedOperation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readQueue()
}

// ClearQueue drops all pending operations
func (c *ReportCache) ClearQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeQueue([]models.QueuedOperation{})
}

// readReports loads the entity record from the store, falling back to the
// in-memory mirror when the record is missing or unparseable. Callers must
// hold c.mu.
func (c *ReportCache) readReports() []models.Report {
	if c.store == nil {
		return append([]models.Report(nil), c.memReports...)
	}
	raw, ok := c.store.Get(cacheStorageKey)
	if !ok {
		return append([]models.Report(nil), c.memReports...)
	}
	var reports []models.Report
	if err := json.Unmarshal([]byte(raw), &reports); err != nil {
		zap.S().Warnw("discarding unreadable report cache record", "error", err)
		return append([]models.Report(nil), c.memReports...)
	}
	return reports
}

func (c *ReportCache) writeReports(reports []models.Report) {
	if c.store != nil {
		b, err := json.Marshal(reports)
		if err == nil {
			if err := c.store.Set(cacheStorageKey, string(b)); err != nil {
				zap.S().Warnw("failed to persist report cache record", "error", err)
			}
		}
	}
	c.memReports = append([]models.Report(nil), reports...)
}

func (c *ReportCache) readQueue() []models.QueuedOperation {
	if c.store == nil {
		return append([]models.QueuedOperation(nil), c.memQueue...)
	}
	raw, ok := c.store.Get(queueStorageKey)
	if !ok {
		return append([]models.QueuedOperation(nil), c.memQueue...)
	}
	var queue []models.QueuedOperation
	if err := json.Unmarshal([]byte(raw), &queue); err != nil {
		zap.S().Warnw("discarding unreadable operation queue record", "error", err)
		return append([]models.QueuedOperation(nil), c.memQueue...)
	}
	return queue
}

func (c *ReportCache) writeQueue(queue []models.QueuedOperation) {
	if c.store != nil {
		b, err := json.Marshal(queue)
		if err == nil {
			if err := c.store.Set(queueStorageKey, string(b)); err != nil {
				zap.S().Warnw("failed to persist operation queue record", "error", err)
			}
		}
	}
	c.memQueue = append([]models.QueuedOperation(nil), queue...)
}

// merge applies the set fields of incoming over cached. The sync flags come
// from incoming unconditionally: clearing them after a successful replay is
// itself an update.
func merge(cached, incoming models.Report) models.Report {
	out := cached
	if incoming.Title != "" {
		out.Title = incoming.Title
	}
	if incoming.Description != "" {
		out.Description = incoming.Description
	}
	if incoming.Category != "" {
		out.Category = incoming.Category
	}
	if incoming.Location != "" {
		out.Location = incoming.Location
	}
	if incoming.Latitude != nil {
		out.Latitude = incoming.Latitude
	}
	if incoming.Longitude != nil {
		out.Longitude = incoming.Longitude
	}
	if incoming.Status != "" {
		out.Status = incoming.Status
	}
	if incoming.UserID != 0 {
		out.UserID = incoming.UserID
	}
	if incoming.UserName != "" {
		out.UserName = incoming.UserName
	}
	if incoming.Photos != nil {
		out.Photos = incoming.Photos
	}
	if !incoming.CreatedAt.IsZero() {
		out.CreatedAt = incoming.CreatedAt
	}
	if !incoming.UpdatedAt.IsZero() {
		out.UpdatedAt = incoming.UpdatedAt
	} else {
		out.UpdatedAt = time.Now()
	}
	out.IsOfflineEntry = incoming.IsOfflineEntry
	out.PendingAction = incoming.PendingAction
	return out
}

func nextLocalID(reports []models.Report) int {
	maxID := 0
	for _, r := range reports {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}
