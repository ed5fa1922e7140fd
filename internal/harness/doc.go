// Package harness runs ban scenarios end to end and compares their traces
// against golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	pass_id: test-pass-1
//	config:
//	  patterns: ["/wp-*", "/^//\\.env"]
//	  whitelist: ["127.0.0.1"]
//	seed:
//	  records:
//	    - { address: 1.2.3.4, path: /wp-login.php, pattern: "/wp-*" }
//	  firewall: [5.6.7.8]
//	failures:
//	  ban: [9.9.9.9]
//	passes:
//	  - op: reconcile
//	    lines:
//	      - '1.2.3.4 - - [...] "GET /wp-login.php HTTP/1.1" 404 0'
//	    expect: { banned: 1 }
//	  - op: clear
//	assertions:
//	  - type: firewall_denies
//	    addresses: [1.2.3.4]
//	  - type: record_exists
//	    address: 1.2.3.4
//	    pattern: "/wp-*"
//
// # Assertion Types
//
//   - firewall_denies: the firewall denies exactly the listed addresses
//   - record_exists: a record exists for address (pattern/path subset match)
//   - record_absent: no record exists for address
//   - trace_contains: an action of the given kind exists for address
//   - trace_count: the trace holds exactly count actions of the given kind
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite store and a fake
// firewall, with a fixed pass ID, so the same scenario always produces the
// same trace.
package harness
