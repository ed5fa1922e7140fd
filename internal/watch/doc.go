// Package watch drives reconciliation passes from access logs.
//
// RunOnce is the one-shot mode: read the last N lines of every configured
// log, run a single pass, return its report.
//
// Watcher is the continuous mode. It subscribes to file-change notifications
// for the directory of every configured log and runs an incremental pass for
// each notification naming a watched file. Notifications are handled one at
// a time in the Run goroutine; a pass runs to completion before the next
// notification is taken from the channel.
//
// Each watched file moves through the states
//
//	initialized -> idle <-> processing -> stopped
//
// Files that do not exist yet are watched through their directory and read
// from the beginning once they appear.
package watch
