package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	tethermigrations "github.com/goliatone/go-tether/migrations"
	sqlstore "github.com/goliatone/go-tether/store/sql"

	"github.com/goliatone/go-tether/core"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-tether-tests"
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:tether-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = tethermigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != tethermigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, tethermigrations.WithValidationTargets(tethermigrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	var tableName string
	if err := client.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"binding_events",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "binding_events" {
		t.Fatalf("expected binding_events table, got %q", tableName)
	}
}

func TestBindingEventStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewStoreFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new store factory: %v", err)
	}
	store := factory.EventStore()
	if store == nil {
		t.Fatalf("expected event store from factory")
	}

	base := time.Now().UTC().Add(-time.Minute)
	events := []core.BindingEvent{
		{BindingID: "b-1", Owner: "owner-a", Policy: "cross_thread", Type: core.BindingEventFixed, CreatedAt: base},
		{BindingID: "b-1", Owner: "owner-a", Policy: "cross_thread", Type: core.BindingEventBound, Outstanding: 1, CreatedAt: base.Add(time.Second)},
		{BindingID: "b-2", Owner: "owner-b", Policy: "manual", Type: core.BindingEventBound, Outstanding: 1, CreatedAt: base.Add(2 * time.Second)},
		{BindingID: "b-1", Owner: "owner-a", Policy: "cross_thread", Type: core.BindingEventSevered, CreatedAt: base.Add(3 * time.Second)},
	}
	for _, event := range events {
		if err := store.Record(ctx, event); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	page, err := store.List(ctx, core.BindingEventFilter{BindingID: "b-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("expected 3 events for b-1, got %d", page.Total)
	}
	if page.Items[0].Type != core.BindingEventSevered {
		t.Fatalf("expected newest-first ordering, got %s", page.Items[0].Type)
	}
	for _, item := range page.Items {
		if item.ID == "" {
			t.Fatalf("expected identity to be stamped")
		}
	}

	page, err = store.List(ctx, core.BindingEventFilter{Type: core.BindingEventBound})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 bound events, got %d", page.Total)
	}

	from := base.Add(90 * time.Second)
	page, err = store.List(ctx, core.BindingEventFilter{From: &from})
	if err != nil {
		t.Fatalf("list by window: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("expected empty window, got %d", page.Total)
	}
}

func TestBindingEventStore_ListPagination(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewStoreFactoryFromDB(client.DB())
	if err != nil {
		t.Fatalf("new store factory: %v", err)
	}
	store := factory.EventStore()

	base := time.Now().UTC().Add(-time.Minute)
	for i := 0; i < 7; i++ {
		event := core.BindingEvent{
			BindingID: "b-page",
			Owner:     "owner-a",
			Policy:    "single_thread",
			Type:      core.BindingEventBorrowed,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.Record(ctx, event); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	first, err := store.List(ctx, core.BindingEventFilter{BindingID: "b-page", Page: 1, PerPage: 3})
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if len(first.Items) != 3 || first.Total != 7 || !first.HasNext {
		t.Fatalf("unexpected first page: items=%d total=%d hasNext=%v", len(first.Items), first.Total, first.HasNext)
	}

	last, err := store.List(ctx, core.BindingEventFilter{BindingID: "b-page", Page: 3, PerPage: 3})
	if err != nil {
		t.Fatalf("list page 3: %v", err)
	}
	if len(last.Items) != 1 || last.HasNext {
		t.Fatalf("unexpected last page: items=%d hasNext=%v", len(last.Items), last.HasNext)
	}
}

func TestBindingEventStore_PruneEnforcesTTLAndRowCap(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewStoreFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new store factory: %v", err)
	}
	store := factory.EventStore()

	now := time.Now().UTC()
	stale := now.Add(-48 * time.Hour)
	for i := 0; i < 3; i++ {
		if err := store.Record(ctx, core.BindingEvent{
			BindingID: "b-old",
			Owner:     "owner-a",
			Policy:    "manual",
			Type:      core.BindingEventBound,
			CreatedAt: stale.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("record stale: %v", err)
		}
	}
	for i := 0; i < 4; i++ {
		if err := store.Record(ctx, core.BindingEvent{
			BindingID: "b-new",
			Owner:     "owner-a",
			Policy:    "manual",
			Type:      core.BindingEventBound,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("record fresh: %v", err)
		}
	}

	deleted, err := store.Prune(ctx, core.EventRetentionPolicy{
		TTL:    24 * time.Hour,
		RowCap: 2,
	})
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 5 {
		t.Fatalf("expected 5 deletions (3 stale + 2 over cap), got %d", deleted)
	}

	page, err := store.List(ctx, core.BindingEventFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 retained events, got %d", page.Total)
	}
}

func TestCachedBindingEventStore_ListForBinding_MissFetchThenHit(t *testing.T) {
	ctx := context.Background()
	cacheService := newTestEventCacheService(t)
	base := &stubBindingEventStore{}

	cached, err := sqlstore.NewCachedBindingEventStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	base.append(core.BindingEvent{
		ID:        "evt-1",
		BindingID: "b-cached",
		Owner:     "owner-a",
		Policy:    "manual",
		Type:      core.BindingEventBound,
		CreatedAt: time.Now().UTC(),
	})

	first, err := cached.ListForBinding(ctx, "b-cached", 10)
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	if first.Total != 1 {
		t.Fatalf("expected 1 event, got %d", first.Total)
	}
	if base.listCalls != 1 {
		t.Fatalf("expected first list to fetch base store once, got %d", base.listCalls)
	}

	if _, err := cached.ListForBinding(ctx, "b-cached", 10); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if base.listCalls != 1 {
		t.Fatalf("expected second list to be cache hit, base list calls=%d", base.listCalls)
	}
}

func TestCachedBindingEventStore_Record_InvalidatesBindingKey(t *testing.T) {
	ctx := context.Background()
	cacheService := newTestEventCacheService(t)
	base := &stubBindingEventStore{}

	cached, err := sqlstore.NewCachedBindingEventStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	base.append(core.BindingEvent{
		ID:        "evt-1",
		BindingID: "b-cached",
		Owner:     "owner-a",
		Policy:    "manual",
		Type:      core.BindingEventBound,
		CreatedAt: time.Now().UTC(),
	})

	if _, err := cached.ListForBinding(ctx, "b-cached", 10); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if base.listCalls != 1 {
		t.Fatalf("expected one base read after cache prime, got %d", base.listCalls)
	}

	if err := cached.Record(ctx, core.BindingEvent{
		BindingID: "b-cached",
		Owner:     "owner-a",
		Policy:    "manual",
		Type:      core.BindingEventSevered,
	}); err != nil {
		t.Fatalf("record through cached store: %v", err)
	}
	if base.recordCalls != 1 {
		t.Fatalf("expected base record call count=1, got %d", base.recordCalls)
	}

	page, err := cached.ListForBinding(ctx, "b-cached", 10)
	if err != nil {
		t.Fatalf("list after invalidation: %v", err)
	}
	if base.listCalls != 2 {
		t.Fatalf("expected invalidated key to force second base read, got %d", base.listCalls)
	}
	if page.Total != 2 {
		t.Fatalf("expected refreshed page with 2 events, got %d", page.Total)
	}
}

func newTestEventCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

type stubBindingEventStore struct {
	mu          sync.Mutex
	events      []core.BindingEvent
	recordCalls int
	listCalls   int
}

func (s *stubBindingEventStore) append(event core.BindingEvent) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *stubBindingEventStore) Record(_ context.Context, event core.BindingEvent) error {
	s.mu.Lock()
	s.recordCalls++
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

func (s *stubBindingEventStore) List(_ context.Context, filter core.BindingEventFilter) (core.BindingEventPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	items := make([]core.BindingEvent, 0, len(s.events))
	for _, event := range s.events {
		if filter.BindingID != "" && event.BindingID != filter.BindingID {
			continue
		}
		items = append(items, event)
	}
	return core.BindingEventPage{
		Items: items,
		Total: len(items),
	}, nil
}
