// Package ledger persists the per-project status table that makes the crawl
// resumable. The table is a CSV file whose header must contain a "status"
// column; the project identifier is the first column by convention. All
// mutations rewrite the whole file through a temp file and an atomic rename,
// so readers at any point see either the fully-old or fully-new table.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/atelierlab/archharvest/internal/status"
)

const statusColumn = "status"

// Row is one project entry in the ledger.
type Row struct {
	ProjectID string
	Link      string
	Keyword   string
	Status    status.Code
}

// Ledger reads and mutates the status table at a fixed path. It assumes a
// single writer; concurrent processes against the same file are out of scope.
type Ledger struct {
	path   string
	logger *zap.Logger
}

// New returns a Ledger bound to path.
func New(path string, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{path: path, logger: logger}
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return l.path
}

// Load returns every project row in file order.
func (l *Ledger) Load() ([]Row, error) {
	header, records, statusIdx, err := l.read()
	if err != nil {
		return nil, err
	}
	_ = header

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		row := Row{ProjectID: rec[0]}
		if len(rec) > 1 {
			row.Link = rec[1]
		}
		if len(rec) > 2 {
			row.Keyword = rec[2]
		}
		if len(rec) > statusIdx {
			row.Status = status.Code(rec[statusIdx])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Commit sets the status of the row identified by projectID and atomically
// rewrites the table. A projectID with no matching row is a logged no-op;
// callers are expected to pre-validate existence. Rows shorter than the
// header are padded with empty columns before the status write.
func (l *Ledger) Commit(projectID string, code status.Code) error {
	header, records, statusIdx, err := l.read()
	if err != nil {
		return err
	}

	matched := false
	for i, rec := range records {
		if len(rec) == 0 || rec[0] != projectID {
			continue
		}
		for len(rec) <= statusIdx {
			rec = append(rec, "")
		}
		rec[statusIdx] = string(code)
		records[i] = rec
		matched = true
	}
	if !matched {
		l.logger.Warn("ledger commit for unknown project",
			zap.String("project_id", projectID),
			zap.String("status", string(code)))
		return nil
	}

	if err := l.write(header, records); err != nil {
		return err
	}
	l.logger.Info("ledger status committed",
		zap.String("project_id", projectID),
		zap.String("status", string(code)))
	return nil
}

// Reset clears every non-terminal status back to empty. Rows marked delete or
// duplicate keep their status; they were filtered, not processed.
func (l *Ledger) Reset() error {
	header, records, statusIdx, err := l.read()
	if err != nil {
		return err
	}
	for i, rec := range records {
		if len(rec) <= statusIdx {
			continue
		}
		if status.Code(rec[statusIdx]).Terminal() {
			continue
		}
		rec[statusIdx] = ""
		records[i] = rec
	}
	return l.write(header, records)
}

// WriteAll replaces the table with the given rows under the canonical header.
// Used once, by discovery, to seed the ledger.
func (l *Ledger) WriteAll(rows []Row) error {
	header := []string{"project_id", "link", "keyword", statusColumn}
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{row.ProjectID, row.Link, row.Keyword, string(row.Status)})
	}
	return l.write(header, records)
}

func (l *Ledger) read() (header []string, records [][]string, statusIdx int, err error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("open ledger %s: %w", l.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read ledger %s: %w", l.path, err)
	}
	if len(all) == 0 {
		return nil, nil, 0, fmt.Errorf("ledger %s has no header: %w", l.path, status.ErrLedgerCorrupt)
	}

	header = all[0]
	statusIdx = -1
	for i, col := range header {
		if col == statusColumn {
			statusIdx = i
			break
		}
	}
	if statusIdx < 0 {
		return nil, nil, 0, fmt.Errorf("ledger %s header %v lacks %q column: %w",
			l.path, header, statusColumn, status.ErrLedgerCorrupt)
	}
	return header, all[1:], statusIdx, nil
}

// write lands the table through a temp file in the same directory followed by
// an atomic rename, so a crash mid-write never corrupts the table.
func (l *Ledger) write(header []string, records [][]string) error {
	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}
	tmpName := tmp.Name()

	writer := csv.NewWriter(tmp)
	writeErr := writer.Write(header)
	if writeErr == nil {
		writeErr = writer.WriteAll(records)
	}
	if writeErr == nil {
		writer.Flush()
		writeErr = writer.Error()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write ledger temp file: %w", writeErr)
	}

	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger %s: %w", l.path, err)
	}
	return nil
}
