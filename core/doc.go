// Package core contains the canonical owner/handle protocol, contracts, and
// orchestration logic. Lower-level adapters (stores, command and query
// surfaces) must depend on this package; core must not depend on any
// storage-specific or transport-specific adapter.
package core
