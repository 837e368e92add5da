package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-tether/core"
	"github.com/uptrace/bun"
)

// StoreFactory resolves a bun handle out of an opaque persistence client and
// builds the binding event store on top of it. It satisfies
// core.EventStoreFactory so a runtime can be handed the factory plus the
// client and wire persistence itself.
type StoreFactory struct {
	db    *bun.DB
	cache repositorycache.CacheService

	eventStore *BindingEventStore
}

func NewStoreFactory() *StoreFactory {
	return &StoreFactory{}
}

func NewStoreFactoryFromPersistence(client *persistence.Client) (*StoreFactory, error) {
	factory := NewStoreFactory()
	if _, err := factory.BuildEventStore(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewStoreFactoryFromDB(db *bun.DB) (*StoreFactory, error) {
	factory := NewStoreFactory()
	if _, err := factory.BuildEventStore(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// WithCache makes BuildEventStore wrap the store in the caching layer.
func (f *StoreFactory) WithCache(cacheService repositorycache.CacheService) *StoreFactory {
	if f != nil {
		f.cache = cacheService
	}
	return f
}

func (f *StoreFactory) BuildEventStore(persistenceClient any) (core.BindingEventStore, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: store factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.eventStore == nil {
		store, err := NewBindingEventStore(f.db)
		if err != nil {
			return nil, err
		}
		f.eventStore = store
	}
	if f.cache != nil {
		return NewCachedBindingEventStore(f.eventStore, f.cache)
	}
	return f.eventStore, nil
}

func (f *StoreFactory) EventStore() *BindingEventStore {
	if f == nil {
		return nil
	}
	return f.eventStore
}

func (f *StoreFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
