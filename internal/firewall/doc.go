// Package firewall is the enforcement point for bans.
//
// A Gateway denies, releases and lists addresses in the host firewall. Two
// backends exist: UFW (default) shells out to ufw, NFT adds and removes
// elements of an nftables set. Both run commands through a Runner so that
// tests can substitute canned output.
//
// ListEnforced is always a live query; nothing here caches firewall state.
// Failures are returned as *ban.Error with code FIREWALL_QUERY (listing) or
// FIREWALL_ACTION (ban/unban of one address).
package firewall
