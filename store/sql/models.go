package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type bindingEventRecord struct {
	bun.BaseModel `bun:"table:binding_events,alias:be"`

	ID          string         `bun:"id,pk"`
	BindingID   string         `bun:"binding_id,notnull"`
	Owner       string         `bun:"owner,notnull"`
	Policy      string         `bun:"policy,notnull"`
	EventType   string         `bun:"event_type,notnull"`
	Outstanding int            `bun:"outstanding,notnull"`
	Metadata    map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
