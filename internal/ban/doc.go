// Package ban provides the shared domain types for logwarden.
//
// This package contains type definitions only. All other internal packages
// import ban; ban imports nothing internal. Keeping it a leaf avoids import
// cycles between the engine and its collaborators (store, firewall, watch).
//
// Key design constraints:
//   - An address is the identity key of a Record (one record per address)
//   - FirewallEntry values are never persisted; the firewall is re-queried
//   - All JSON tags use snake_case
package ban
