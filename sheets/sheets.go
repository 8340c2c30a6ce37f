package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reel-pipeline/config"
	"reel-pipeline/types"

	log "github.com/sirupsen/logrus"
)

// ErrNoTask is the expected empty-queue outcome: every row is already
// posted. Callers treat it as "nothing to do", never as a failure.
var ErrNoTask = errors.New("no eligible task found in sheet")

// CellUpdate writes one value to one cell. Updates are independent;
// there is no transaction across cells.
type CellUpdate struct {
	Row   int // 1-based sheet row
	Col   int // 0-based column index
	Value string
}

// Backend abstracts the tabular store behind the task source.
type Backend interface {
	// ReadAll returns every row including the header row.
	ReadAll(ctx context.Context) ([][]string, error)
	// Apply writes the given cell updates best-effort.
	Apply(ctx context.Context, updates []CellUpdate) error
}

// TaskSource is the single point of truth for what work is next and
// how the outcome is recorded. The sheet provides no locking; the
// claim is advisory (status written immediately as a soft lock).
type TaskSource struct {
	backend Backend
	cfg     config.SheetsConfig
	cols    columnMap
	loc     *time.Location
}

// Open reads the header row, resolves the column layout once and
// returns a ready task source. A sheet without the required columns
// fails here, not on the first read or write.
func Open(ctx context.Context, backend Backend, cfg config.SheetsConfig) (*TaskSource, error) {
	rows, err := backend.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty, expected a header row")
	}

	cols, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	loc := time.Local
	if cfg.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = l
		} else {
			log.Warnf("[sheets] unknown timezone %q, using local", cfg.Timezone)
		}
	}

	log.Infof("[sheets] store open: %d rows, columns resolved: %v", len(rows), cols)
	return &TaskSource{backend: backend, cfg: cfg, cols: cols, loc: loc}, nil
}

// AcquireNext scans the sheet top to bottom and returns the first row
// whose status is empty, "Not Posted" or "Pending". Rows already
// posted or in flight are skipped. Returns ErrNoTask when nothing is
// eligible.
func (s *TaskSource) AcquireNext(ctx context.Context) (*types.Task, error) {
	rows, err := s.backend.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoTask
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}
		status := s.cell(row, FieldStatus)
		if !eligible(status) {
			continue
		}

		task := &types.Task{
			RowID:        i + 1, // sheet rows are 1-based, row 1 is the header
			Topic:        s.cell(row, FieldTopic),
			Description:  s.cell(row, FieldDescription),
			Status:       status,
			YouTubeURL:   s.cell(row, FieldYouTube),
			InstagramURL: s.cell(row, FieldInstagram),
			FacebookURL:  s.cell(row, FieldFacebook),
			Timestamp:    s.cell(row, FieldTimestamp),
		}
		if task.Topic == "" {
			log.Warnf("[sheets] row %d eligible but has no topic, skipping", task.RowID)
			continue
		}

		log.Infof("[sheets] ✅ claimed row %d: %q", task.RowID, task.Topic)

		if s.cfg.ClaimOnAcquire {
			if err := s.UpdateStatus(ctx, task.RowID, types.StatusProcessing, types.Links{}); err != nil {
				log.Warnf("[sheets] soft-lock write failed for row %d: %v", task.RowID, err)
			}
		}
		return task, nil
	}

	return nil, ErrNoTask
}

// eligible reports whether a status string marks a row as ready for
// processing.
func eligible(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", "not posted", "not_posted", "pending":
		return true
	}
	return false
}

// UpdateStatus writes the status, any non-empty links and a timestamp
// back to the row. Each column is a separate range update; a failure
// on one does not roll back the others.
func (s *TaskSource) UpdateStatus(ctx context.Context, rowID int, status types.TaskStatus, links types.Links) error {
	var updates []CellUpdate

	add := func(field Field, value string) {
		if value == "" {
			return
		}
		col, ok := s.cols[field]
		if !ok {
			log.Debugf("[sheets] no column for %s, skipping", field)
			return
		}
		updates = append(updates, CellUpdate{Row: rowID, Col: col, Value: value})
	}

	add(FieldStatus, string(status))
	add(FieldYouTube, links.YouTube)
	add(FieldInstagram, links.Instagram)
	add(FieldFacebook, links.Facebook)
	add(FieldTimestamp, time.Now().In(s.loc).Format("02/01/2006 15:04:05"))

	if len(updates) == 0 {
		log.Warn("[sheets] nothing to update")
		return nil
	}

	if err := s.backend.Apply(ctx, updates); err != nil {
		return fmt.Errorf("update row %d: %w", rowID, err)
	}
	log.Infof("[sheets] ✅ row %d updated: %s", rowID, status)
	return nil
}

func (s *TaskSource) cell(row []string, field Field) string {
	col, ok := s.cols[field]
	if !ok || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
