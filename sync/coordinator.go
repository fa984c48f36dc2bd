// Package sync orchestrates the report cache, the operation queue, the
// network monitor, and the remote client. Every read and mutation the rest
// of the application performs goes through the Coordinator, which decides at
// call time whether to talk to the remote service or to work against the
// local cache and queue.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opencivic/citizen-reports-sync/cache"
	"github.com/opencivic/citizen-reports-sync/models"
	"github.com/opencivic/citizen-reports-sync/network"
	"github.com/opencivic/citizen-reports-sync/remote"
)

// ErrNotFoundLocally reports a fetch-by-id that failed remotely and has no
// cache entry either
var ErrNotFoundLocally = errors.New("report not found locally")

// Owner supplies the default owner fields stamped onto new reports
type Owner interface {
	CurrentUser() (models.User, bool)
}

// Coordinator routes report operations between the remote service and the
// local cache
type Coordinator struct {
	remote  remote.Client
	cache   *cache.ReportCache
	monitor *network.Monitor
	owner   Owner

	// flushMu serializes queue drains so an automatic replay and a manual
	// flush never interleave
	flushMu chan struct{}
	cancel  func()
}

// New creates a coordinator. owner may be nil; new reports then keep
// whatever owner fields the caller set.
func New(client remote.Client, reportCache *cache.ReportCache, monitor *network.Monitor, owner Owner) *Coordinator {
	return &Coordinator{
		remote:  client,
		cache:   reportCache,
		monitor: monitor,
		owner:   owner,
		flushMu: make(chan struct{}, 1),
	}
}

// Start subscribes to connectivity transitions so the queue replays
// automatically on reconnect, and replays once immediately if the service is
// already reachable. Errors from these automatic drains are logged and
// swallowed; the queue retries on the next transition.
func (c *Coordinator) Start() {
	ch, cancel := c.monitor.Subscribe()
	c.cancel = cancel

	go func() {
		for online := range ch {
			if !online {
				continue
			}
			if err := c.FlushQueue(context.Background()); err != nil {
				zap.S().Warnw("automatic queue replay failed, entries remain queued", "error", err)
			}
		}
	}()

	if c.monitor.IsOnline() && len(c.cache.Queue()) > 0 {
		go func() {
			if err := c.FlushQueue(context.Background()); err != nil {
				zap.S().Warnw("startup queue replay failed, entries remain queued", "error", err)
			}
		}()
	}
}

// Close releases the connectivity subscription
func (c *Coordinator) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Online returns the current connectivity snapshot
func (c *Coordinator) Online() bool {
	return c.monitor.IsOnline()
}

// Subscribe exposes the monitor's deduplicated transition stream
func (c *Coordinator) Subscribe() (<-chan bool, func()) {
	return c.monitor.Subscribe()
}

// Status summarizes the sync state for the facade
func (c *Coordinator) Status() models.SyncStatusResponse {
	offline := 0
	cached := c.cache.Reports(nil)
	for _, r := range cached {
		if r.IsOfflineEntry || r.PendingAction != "" {
			offline++
		}
	}
	return models.SyncStatusResponse{
		Online:       c.monitor.IsOnline(),
		QueueLength:  len(c.cache.Queue()),
		CachedCount:  len(cached),
		OfflineCount: offline,
	}
}

// FetchAll returns the reports matching filter. Online it refreshes the
// cache from the remote service first; not-yet-synced local entries survive
// the refresh, and entries with a queued delete stay hidden. Any remote
// failure degrades to a plain cache read.
func (c *Coordinator) FetchAll(ctx context.Context, filter *models.ReportFilter) ([]models.Report, error) {
	if !c.monitor.IsOnline() {
		return c.cache.Reports(filter), nil
	}

	remoteReports, err := c.remote.ListReports(ctx, nil)
	if err != nil {
		zap.S().Warnw("remote list failed, serving cached reports", "error", err)
		return c.cache.Reports(filter), nil
	}

	c.cache.ReplaceAll(c.mergeRefresh(remoteReports))
	return c.cache.Reports(filter), nil
}

// mergeRefresh folds a full remote fetch over the current cache: remote
// records win, except that locally pending entries keep their local state
// and reports with a queued delete are dropped from the visible set.
func (c *Coordinator) mergeRefresh(remoteReports []models.Report) []models.Report {
	pendingDelete := map[int]bool{}
	for _, op := range c.cache.Queue() {
		if op.Type == models.ActionDelete {
			pendingDelete[op.TargetID] = true
		}
	}

	local := map[int]models.Report{}
	for _, r := range c.cache.Reports(nil) {
		if r.IsOfflineEntry || r.PendingAction != "" {
			local[r.ID] = r
		}
	}

	merged := make([]models.Report, 0, len(remoteReports)+len(local))
	for _, r := range remoteReports {
		if pendingDelete[r.ID] {
			continue
		}
		if pending, ok := local[r.ID]; ok {
			merged = append(merged, pending)
			delete(local, r.ID)
			continue
		}
		merged = append(merged, r)
	}
	for _, r := range local {
		merged = append(merged, r)
	}
	return merged
}

// FetchOne resolves a single report, remote first when online. A report
// found neither remotely nor in the cache fails with ErrNotFoundLocally.
func (c *Coordinator) FetchOne(ctx context.Context, id int) (models.Report, error) {
	if c.monitor.IsOnline() {
		report, err := c.remote.GetReport(ctx, id)
		if err == nil {
			return c.cache.Upsert(report), nil
		}
		zap.S().Warnw("remote get failed, resolving from cache", "id", id, "error", err)
	}

	if report, ok := c.cache.Report(id); ok {
		return report, nil
	}
	return models.Report{}, fmt.Errorf("report %d: %w", id, ErrNotFoundLocally)
}

// Create submits a new report, falling back to the offline path when the
// remote call cannot be made or fails
func (c *Coordinator) Create(ctx context.Context, report models.Report) (models.Report, error) {
	report = c.normalize(report)

	if c.monitor.IsOnline() {
		created, err := c.remote.CreateReport(ctx, report)
		if err == nil {
			return c.cache.Upsert(created), nil
		}
		zap.S().Warnw("remote create failed, persisting offline", "error", err)
	}
	return c.persistOffline(models.ActionCreate, report), nil
}

// Update applies partial updates to the report with the given id
func (c *Coordinator) Update(ctx context.Context, id int, updates models.Report) (models.Report, error) {
	updates.ID = id
	updates.UpdatedAt = time.Now()

	if c.monitor.IsOnline() {
		updated, err := c.remote.UpdateReport(ctx, id, updates)
		if err == nil {
			return c.cache.Upsert(updated), nil
		}
		zap.S().Warnw("remote update failed, persisting offline", "id", id, "error", err)
	}
	return c.persistOffline(models.ActionUpdate, updates), nil
}

// Delete removes the report with the given id. Offline, the entity leaves
// the local cache immediately and the delete is queued for replay.
func (c *Coordinator) Delete(ctx context.Context, id int) error {
	if c.monitor.IsOnline() {
		err := c.remote.DeleteReport(ctx, id)
		if err == nil {
			c.cache.Remove(id)
			return nil
		}
		zap.S().Warnw("remote delete failed, persisting offline", "id", id, "error", err)
	}

	report, _ := c.cache.Report(id)
	report.ID = id
	c.persistOffline(models.ActionDelete, report)
	return nil
}

// persistOffline records a mutation that could not reach the remote service.
// Deletes leave the cache immediately; creates and updates are flagged,
// stored, and queued with the stored snapshot so the replay carries exactly
// what the user last saw.
func (c *Coordinator) persistOffline(action models.QueuedActionType, report models.Report) models.Report {
	if action == models.ActionDelete {
		// a delete of a never-synced local entry cancels its queued
		// create instead of reaching the remote service
		if report.PendingAction == models.ActionCreate {
			c.dropQueuedFor(report.ID)
			c.cache.Remove(report.ID)
			report.IsOfflineEntry = true
			report.PendingAction = models.ActionDelete
			return report
		}

		c.cache.Remove(report.ID)
		c.enqueue(models.ActionDelete, report, report.ID)
		report.IsOfflineEntry = true
		report.PendingAction = models.ActionDelete
		return report
	}

	if cached, ok := c.cache.Report(report.ID); ok {
		// an update to a never-synced entry is still a pending create
		if cached.PendingAction == models.ActionCreate {
			action = models.ActionCreate
		}
	}
	report.IsOfflineEntry = true
	report.PendingAction = action

	stored := c.cache.Upsert(report)

	// an update folded into a pending create replaces the queued create's
	// payload instead of queueing a second operation
	if action == models.ActionCreate {
		for _, op := range c.cache.Queue() {
			if op.Type == models.ActionCreate && op.TargetID == stored.ID {
				op.Payload = stored
				c.cache.Enqueue(op)
				return stored
			}
		}
	}
	c.enqueue(action, stored, stored.ID)
	return stored
}

func (c *Coordinator) enqueue(action models.QueuedActionType, payload models.Report, targetID int) {
	c.cache.Enqueue(models.QueuedOperation{
		ID:        uuid.New().String(),
		Type:      action,
		Payload:   payload,
		TargetID:  targetID,
		CreatedAt: time.Now(),
	})
}

// dropQueuedFor removes every queued operation targeting the given id
func (c *Coordinator) dropQueuedFor(id int) {
	for _, op := range c.cache.Queue() {
		if op.TargetID == id {
			c.cache.Dequeue(op.ID)
		}
	}
}

// FlushQueue replays the queued operations strictly in insertion order. A
// failed entry stays queued and the drain continues with the next entry; the
// joined failures are returned so a manual flush can surface them. Losing
// connectivity mid-drain stops the drain without error, leaving the
// remainder queued for the next transition.
func (c *Coordinator) FlushQueue(ctx context.Context) error {
	select {
	case c.flushMu <- struct{}{}:
		defer func() { <-c.flushMu }()
	case <-ctx.Done():
		return ctx.Err()
	}

	queue := c.cache.Queue()
	if len(queue) == 0 {
		return nil
	}
	zap.S().Infow("replaying queued operations", "count", len(queue))

	// creates replayed earlier in this drain remap the provisional local
	// ids that later entries may still reference
	idRemap := map[int]int{}
	var errs []error

	for _, op := range queue {
		if !c.monitor.IsOnline() {
			zap.S().Info("connectivity lost mid-replay, leaving remaining entries queued")
			break
		}

		targetID := op.TargetID
		if targetID == 0 {
			targetID = op.Payload.ID
		}
		if mapped, ok := idRemap[targetID]; ok {
			targetID = mapped
		}

		if err := c.replay(ctx, op, targetID, idRemap); err != nil {
			zap.S().Warnw("queued operation replay failed, entry stays queued",
				"operation", op.ID, "type", op.Type, "target", targetID, "error", err)
			errs = append(errs, err)
			continue
		}
		c.cache.Dequeue(op.ID)
	}
	return errors.Join(errs...)
}

func (c *Coordinator) replay(ctx context.Context, op models.QueuedOperation, targetID int, idRemap map[int]int) error {
	switch op.Type {
	case models.ActionCreate:
		created, err := c.remote.CreateReport(ctx, stripFlags(op.Payload))
		if err != nil {
			return err
		}
		// the provisional local entry gives way to the remote identity
		if op.TargetID != 0 && op.TargetID != created.ID {
			c.cache.Remove(op.TargetID)
			idRemap[op.TargetID] = created.ID
		}
		c.cache.Upsert(stripFlags(created))
		return nil

	case models.ActionUpdate:
		payload := stripFlags(op.Payload)
		payload.ID = targetID
		updated, err := c.remote.UpdateReport(ctx, targetID, payload)
		if err != nil {
			return err
		}
		c.cache.Upsert(stripFlags(updated))
		return nil

	case models.ActionDelete:
		if err := c.remote.DeleteReport(ctx, targetID); err != nil {
			return err
		}
		c.cache.Remove(targetID)
		return nil
	}
	return fmt.Errorf("unknown queued operation type %q", op.Type)
}

// normalize stamps the fields the remote service expects on every new
// report: timestamps, a default status, and the signed-in user as owner
func (c *Coordinator) normalize(report models.Report) models.Report {
	now := time.Now()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now
	if report.Status == "" {
		report.Status = models.StatusPending
	}
	if c.owner != nil && report.UserID == 0 {
		if user, ok := c.owner.CurrentUser(); ok {
			report.UserID = user.ID
			if report.UserName == "" {
				report.UserName = user.Name
				if report.UserName == "" {
					report.UserName = user.Username
				}
			}
		}
	}
	return report
}

func stripFlags(report models.Report) models.Report {
	report.IsOfflineEntry = false
	report.PendingAction = ""
	return report
}
