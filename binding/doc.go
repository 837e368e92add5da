// Package binding implements the reference-accounting state machines that
// govern an owner/handle relationship. A binding starts unsealed, tracks
// outstanding references acquired through handles and guards, and ends with a
// one-way seal that permanently invalidates every handle minted from it.
//
// Three interchangeable policies trade safety cost against synchronization
// cost: Manual performs no counting and relies on an explicit redeem
// discipline, SingleThread counts without synchronization and is only sound
// when confined to one goroutine, and CrossThread counts under a mutex and
// lets Seal block until concurrent releases drain the count.
//
// Higher layers (owners, handles, capability views) live in the core package;
// binding has no knowledge of the value being shared.
package binding
