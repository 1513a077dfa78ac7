// Package status defines the per-project status codes recorded in the ledger
// and the error kinds shared by the harvesting stages.
package status

import "errors"

// Code is the lifecycle state of one project row in the ledger.
type Code string

// Ledger status values, persisted as literal strings.
const (
	// Empty marks an unprocessed, eligible row.
	Empty Code = ""
	// Downloaded marks a row whose detail and image stages both succeeded.
	Downloaded Code = "downloaded"
	// Error marks a row whose detail stage failed.
	Error Code = "error"
	// Incomplete marks a row whose detail succeeded but image stage degraded.
	Incomplete Code = "incomplete"
	// Duplicate marks a row filtered out before processing.
	Duplicate Code = "duplicate"
	// Delete marks a row classified away during discovery; never processed.
	Delete Code = "delete"
)

// Terminal reports whether a status is never revisited, not even by a reset
// or an explicit redownload run.
func (c Code) Terminal() bool {
	return c == Duplicate || c == Delete
}

// Error kinds caught at stage boundaries and converted to statuses or logs.
var (
	// ErrTransport covers network failures and timeouts; the row is marked
	// error or incomplete and the crawl moves on.
	ErrTransport = errors.New("transport failure")
	// ErrParse covers expected page structure that is missing; stages degrade
	// to best-effort output instead of failing the run.
	ErrParse = errors.New("parse failure")
	// ErrPayload covers a malformed embedded image payload; fatal to one
	// gallery item only.
	ErrPayload = errors.New("payload failure")
	// ErrLedgerCorrupt means the ledger header lacks a status column; fatal to
	// the whole run since row identity cannot be trusted.
	ErrLedgerCorrupt = errors.New("ledger corrupt")
	// ErrFilesystem covers directory or file write failures; fatal to that
	// project's persistence step only.
	ErrFilesystem = errors.New("filesystem failure")
)
