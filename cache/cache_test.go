package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/opencivic/citizen-reports-sync/models"
	"github.com/opencivic/citizen-reports-sync/storage"
)

func newTestCache(t *testing.T) *ReportCache {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(store)
}

func TestUpsertAssignsLocalID(t *testing.T) {
	c := newTestCache(t)

	stored := c.Upsert(models.Report{Title: "Pothole", Category: models.CategoryInfrastructure, Status: models.StatusPending})
	assert.Equal(t, 1, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	second := c.Upsert(models.Report{Title: "Fallen sign", Category: models.CategorySecurity, Status: models.StatusPending})
	assert.Equal(t, 2, second.ID)

	got, ok := c.Report(1)
	assert.True(t, ok)
	assert.Equal(t, "Pothole", got.Title)
}

func TestUpsertMergesExistingRecord(t *testing.T) {
	c := newTestCache(t)

	stored := c.Upsert(models.Report{
		Title:       "Pothole",
		Description: "Deep one",
		Category:    models.CategoryInfrastructure,
		Location:    "Main street",
		Status:      models.StatusPending,
	})

	updated := c.Upsert(models.Report{ID: stored.ID, Status: models.StatusResolved})
	assert.Equal(t, models.StatusResolved, updated.Status)
	assert.Equal(t, "Pothole", updated.Title)
	assert.Equal(t, "Main street", updated.Location)
	assert.Equal(t, stored.CreatedAt.Unix(), updated.CreatedAt.Unix())
	assert.False(t, updated.UpdatedAt.Before(stored.UpdatedAt))
}

func TestUpsertClearsSyncFlagsFromIncoming(t *testing.T) {
	c := newTestCache(t)

	stored := c.Upsert(models.Report{
		Title:          "Pothole",
		Status:         models.StatusPending,
		IsOfflineEntry: true,
		PendingAction:  models.ActionCreate,
	})
	assert.True(t, stored.IsOfflineEntry)

	cleared := c.Upsert(models.Report{ID: stored.ID, Title: "Pothole"})
	assert.False(t, cleared.IsOfflineEntry)
	assert.Empty(t, cleared.PendingAction)
}

func TestRemoveIsNoOpForAbsentID(t *testing.T) {
	c := newTestCache(t)
	c.Upsert(models.Report{Title: "Pothole", Status: models.StatusPending})

	c.Remove(99)
	assert.Len(t, c.Reports(nil), 1)

	c.Remove(1)
	assert.Empty(t, c.Reports(nil))
}

func TestReplaceAllOverwritesCache(t *testing.T) {
	c := newTestCache(t)
	c.Upsert(models.Report{Title: "Old", Status: models.StatusPending})

	c.ReplaceAll([]models.Report{
		{ID: 10, Title: "Remote A", Status: models.StatusPending},
		{ID: 11, Title: "Remote B", Status: models.StatusClosed},
	})

	reports := c.Reports(nil)
	assert.Len(t, reports, 2)
	_, ok := c.Report(1)
	assert.False(t, ok)
}

func TestFilterMatchesCacheSemantics(t *testing.T) {
	c := newTestCache(t)
	c.ReplaceAll([]models.Report{
		{ID: 1, Title: "Pothole", Category: models.CategoryInfrastructure, Location: "Carretera Kepashiato", Status: models.StatusPending, CreatedAt: time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Title: "Landslide", Category: models.CategoryEnvironment, Location: "Puente Kiteni", Status: models.StatusInProgress, CreatedAt: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 3, Title: "Broken light", Category: models.CategoryInfrastructure, Location: "plaza central", Status: models.StatusResolved, CreatedAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)},
	})

	byCategory := c.Reports(&models.ReportFilter{Category: models.CategoryInfrastructure})
	assert.Len(t, byCategory, 2)

	byStatus := c.Reports(&models.ReportFilter{Status: models.StatusInProgress})
	assert.Len(t, byStatus, 1)
	assert.Equal(t, 2, byStatus[0].ID)

	// location matching is a case-insensitive substring
	byLocation := c.Reports(&models.ReportFilter{Location: "PLAZA"})
	assert.Len(t, byLocation, 1)
	assert.Equal(t, 3, byLocation[0].ID)

	// the date range excludes reports created before startDate
	start := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
	inRange := c.Reports(&models.ReportFilter{Category: models.CategoryInfrastructure, StartDate: &start})
	assert.Len(t, inRange, 1)
	assert.Equal(t, 1, inRange[0].ID)
}

func TestEnqueueIsIdempotentByOperationID(t *testing.T) {
	c := newTestCache(t)

	c.Enqueue(models.QueuedOperation{ID: "op-1", Type: models.ActionCreate, Payload: models.Report{Title: "First"}})
	c.Enqueue(models.QueuedOperation{ID: "op-1", Type: models.ActionUpdate, Payload: models.Report{Title: "Second"}})

	queue := c.Queue()
	assert.Len(t, queue, 1)
	assert.Equal(t, models.ActionUpdate, queue[0].Type)
	assert.Equal(t, "Second", queue[0].Payload.Title)
}

func TestQueuePreservesInsertionOrder(t *testing.T) {
	c := newTestCache(t)

	c.Enqueue(models.QueuedOperation{ID: "op-1", Type: models.ActionCreate})
	c.Enqueue(models.QueuedOperation{ID: "op-2", Type: models.ActionUpdate, TargetID: 5})
	c.Enqueue(models.QueuedOperation{ID: "op-3", Type: models.ActionDelete, TargetID: 7})

	queue := c.Queue()
	assert.Equal(t, []string{"op-1", "op-2", "op-3"}, []string{queue[0].ID, queue[1].ID, queue[2].ID})

	c.Dequeue("op-2")
	queue = c.Queue()
	assert.Equal(t, []string{"op-1", "op-3"}, []string{queue[0].ID, queue[1].ID})

	c.ClearQueue()
	assert.Empty(t, c.Queue())
}

func TestTimestampsSurviveStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	store, err := storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	created := time.Date(2025, 10, 2, 10, 20, 30, 0, time.UTC)
	c := New(store)
	c.Upsert(models.Report{Title: "Pothole", Status: models.StatusPending, CreatedAt: created, UpdatedAt: created})
	assert.NoError(t, store.Close())

	reopened, err := storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer reopened.Close()

	got, ok := New(reopened).Report(1)
	assert.True(t, ok)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, got.UpdatedAt.Equal(created))
}

func TestCorruptStorageFallsBackToMemoryMirror(t *testing.T) {
	store := storage.NewMemory()
	c := New(store)

	c.Upsert(models.Report{Title: "Pothole", Status: models.StatusPending})
	assert.Len(t, c.Reports(nil), 1)

	// simulate another writer corrupting the durable record
	assert.NoError(t, store.Set("citizen_reports_cache_v2", "{not json"))

	reports := c.Reports(nil)
	assert.Len(t, reports, 1)
	assert.Equal(t, "Pothole", reports[0].Title)
}

func TestNilStoreOperatesInMemory(t *testing.T) {
	c := New(nil)

	stored := c.Upsert(models.Report{Title: "Pothole", Status: models.StatusPending})
	assert.Equal(t, 1, stored.ID)

	got, ok := c.Report(1)
	assert.True(t, ok)
	assert.Equal(t, "Pothole", got.Title)
}

func TestSeedSampleDataIsIdempotent(t *testing.T) {
	c := newTestCache(t)

	first := c.SeedSampleData()
	assert.Len(t, first, 3)

	c.Remove(2)
	second := c.SeedSampleData()
	assert.Len(t, second, 2)
}
