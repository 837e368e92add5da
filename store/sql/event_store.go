package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-tether/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BindingEventStore persists binding events through bun. It doubles as the
// retention pruner the queued sink discovers by assertion.
type BindingEventStore struct {
	db   *bun.DB
	repo repository.Repository[*bindingEventRecord]
}

func NewBindingEventStore(db *bun.DB) (*BindingEventStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*bindingEventRecord](db, bindingEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid binding event repository wiring: %w", err)
		}
	}
	return &BindingEventStore{db: db, repo: repo}, nil
}

func (s *BindingEventStore) Record(ctx context.Context, event core.BindingEvent) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: binding event store is not configured")
	}
	if strings.TrimSpace(event.BindingID) == "" {
		return fmt.Errorf("sqlstore: binding id is required")
	}
	if strings.TrimSpace(string(event.Type)) == "" {
		return fmt.Errorf("sqlstore: event type is required")
	}

	id := strings.TrimSpace(event.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := event.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	owner := strings.TrimSpace(event.Owner)
	if owner == "" {
		owner = "unknown"
	}
	policy := strings.TrimSpace(event.Policy)
	if policy == "" {
		policy = "unknown"
	}

	record := &bindingEventRecord{
		ID:          id,
		BindingID:   strings.TrimSpace(event.BindingID),
		Owner:       owner,
		Policy:      policy,
		EventType:   strings.TrimSpace(string(event.Type)),
		Outstanding: event.Outstanding,
		Metadata:    copyAnyMap(event.Metadata),
		CreatedAt:   createdAt,
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *BindingEventStore) List(ctx context.Context, filter core.BindingEventFilter) (core.BindingEventPage, error) {
	if s == nil || s.repo == nil {
		return core.BindingEventPage{}, fmt.Errorf("sqlstore: binding event store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if bindingID := strings.TrimSpace(filter.BindingID); bindingID != "" {
		selectors = append(selectors, repository.SelectBy("binding_id", "=", bindingID))
	}
	if owner := strings.TrimSpace(filter.Owner); owner != "" {
		selectors = append(selectors, repository.SelectBy("owner", "=", owner))
	}
	if policy := strings.TrimSpace(filter.Policy); policy != "" {
		selectors = append(selectors, repository.SelectBy("policy", "=", policy))
	}
	if eventType := strings.TrimSpace(string(filter.Type)); eventType != "" {
		selectors = append(selectors, repository.SelectBy("event_type", "=", eventType))
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", "<=", filter.To.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.BindingEventPage{}, err
	}
	items := make([]core.BindingEvent, 0, len(records))
	for _, record := range records {
		items = append(items, eventRecordToDomain(record))
	}
	return core.BindingEventPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

func (s *BindingEventStore) Prune(ctx context.Context, policy core.EventRetentionPolicy) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: binding event store is not configured")
	}
	deleted := 0
	now := time.Now().UTC()

	if policy.TTL > 0 {
		cutoff := now.Add(-policy.TTL)
		res, err := s.db.NewDelete().
			Model((*bindingEventRecord)(nil)).
			Where("created_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, err
		}
		affected, _ := res.RowsAffected()
		deleted += int(affected)
	}

	if policy.RowCap > 0 {
		total, err := s.db.NewSelect().Model((*bindingEventRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, err
		}
		excess := total - policy.RowCap
		if excess > 0 {
			res, err := s.db.NewRaw(
				"DELETE FROM binding_events WHERE id IN (SELECT id FROM binding_events ORDER BY created_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, err
			}
			affected, _ := res.RowsAffected()
			deleted += int(affected)
		}
	}

	return deleted, nil
}

func eventRecordToDomain(record *bindingEventRecord) core.BindingEvent {
	if record == nil {
		return core.BindingEvent{}
	}
	return core.BindingEvent{
		ID:          strings.TrimSpace(record.ID),
		BindingID:   strings.TrimSpace(record.BindingID),
		Owner:       strings.TrimSpace(record.Owner),
		Policy:      strings.TrimSpace(record.Policy),
		Type:        core.BindingEventType(strings.TrimSpace(record.EventType)),
		Outstanding: record.Outstanding,
		Metadata:    copyAnyMap(record.Metadata),
		CreatedAt:   record.CreatedAt.UTC(),
	}
}
