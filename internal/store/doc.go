// Package store provides durable storage for ban records.
//
// A ban record explains why an address is denied: the request path that was
// seen and the configured pattern it matched. The address is the identity key.
//
// Two backends implement Backend:
//   - Store: SQLite via database/sql and github.com/mattn/go-sqlite3 (default)
//   - RedisStore: github.com/redis/go-redis/v9, for hosts sharing a Redis
//
// # Record Identity
//
// Save is delete-before-insert: saving a record for an address that already
// has one replaces it. The SQLite backend additionally enforces a UNIQUE index
// on ip_addr once legacy databases have been de-duplicated (migration v1).
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// The table layout (ban_address: ip_addr, access_path, patterns) is kept
// compatible with databases written by earlier releases of the tool.
package store
