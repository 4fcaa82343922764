// Package watcher reports file system changes below a project root so an
// open search session can be rebuilt.
//
// fsnotify is the primary mechanism; polling is the fallback where fsnotify
// is unavailable (network mounts, some container volumes). Events are
// filtered with the same rules as the scanner (built-in excludes, extra
// patterns and .gitignore files), coalesced by a Debouncer and delivered in
// batches. A Reloader turns batches into session reloads.
package watcher
