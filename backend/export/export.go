// Package export writes the admin profile table as an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/staff-directory/backend/pipeline"
	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

// SheetName is the worksheet holding the table.
const SheetName = "Profiles"

// Service produces XLSX bytes from the profile store.
type Service struct {
	store  store.ProfileStore
	logger *zap.Logger
}

func NewService(s store.ProfileStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, logger: logger}
}

// AdminXLSX exports the admin table rows for q. The footer counts the rows
// left after the search, as the admin table footer does.
func (s *Service) AdminXLSX(ctx context.Context, q pipeline.Query) ([]byte, error) {
	start := time.Now()

	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	rows := pipeline.Apply(all, q, pipeline.Admin)

	b, err := ProfilesXLSX(rows, len(rows))
	if err != nil {
		return nil, err
	}
	s.logger.Info("exported profiles",
		zap.Int("rows", len(rows)),
		zap.Int("bytes", len(b)),
		zap.Duration("took", time.Since(start)))
	return b, nil
}

// ProfilesXLSX builds a workbook with one header row, one row per profile in
// the given order and a total footer.
func ProfilesXLSX(rows []profile.Profile, total int) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it rather than adding a second sheet.
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	write := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(SheetName, cell, v)
	}

	for i, field := range profile.Fields {
		if err := write(i+1, 1, profile.Label(field)); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
	}
	for r, p := range rows {
		for i, field := range profile.Fields {
			v, _ := p.Get(field)
			if err := write(i+1, r+2, v); err != nil {
				return nil, fmt.Errorf("xlsx row %d: %w", r+1, err)
			}
		}
	}
	footer := len(rows) + 3
	if err := write(1, footer, "Total profiles"); err != nil {
		return nil, err
	}
	if err := write(2, footer, total); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(SheetName, 1, 1, bold)
	}
	_ = f.SetColWidth(SheetName, "A", "A", 24) // name
	_ = f.SetColWidth(SheetName, "B", "B", 40) // photo
	_ = f.SetColWidth(SheetName, "C", "C", 48) // description
	_ = f.SetColWidth(SheetName, "D", "E", 12) // coordinates
	_ = f.SetColWidth(SheetName, "F", "G", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
