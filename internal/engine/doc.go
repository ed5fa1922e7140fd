// Package engine reconciles observed log activity against the ban store and
// the live firewall.
//
// A reconciliation pass:
//  1. Queries the firewall for the addresses it currently denies. If the
//     query fails the pass is aborted before any mutation (fail-closed).
//  2. Lists the stored ban records. A failure here also aborts the pass.
//  3. Drops entries whose address already has a record, then matches the
//     remaining paths against the configured patterns.
//  4. Handles every matched address exactly once, first match wins:
//     whitelisted addresses are skipped, addresses the firewall already
//     denies get a record (sync only), everything else is banned and then
//     recorded.
//
// Per-address failures never stop a pass. They are counted, attached to the
// corresponding Action and logged, and the pass continues with the next
// address. Nothing is retried.
//
// The engine is not safe for concurrent passes. Callers run passes from a
// single goroutine (the watch loop or a CLI command).
//
// Batch operations (ClearAll, Redo) and single-address operations (Unban,
// Get, Show) follow the same rules: state queries are live, failures are
// reported per item, and a tally is always produced.
package engine
