// Package logging writes structured JSON logs for jump to a size-rotated
// file under ~/.jump/logs, optionally mirrored to stderr.
//
// Several jump processes may share one log (the MCP server and the CLI), so
// rotation is serialised across processes with a lock file next to the log.
package logging
