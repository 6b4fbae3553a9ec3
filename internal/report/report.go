// Package report renders the standings as an Excel workbook for admins.
package report

import (
	"bytes"
	"fmt"

	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/storage"
	"github.com/xuri/excelize/v2"
)

const (
	SheetLeaderboard = "Leaderboard"
	SheetMonth       = "Month"
)

type Row struct {
	User  *models.User
	Month *storage.TaskStats
}

var (
	leaderboardHeader = []any{"#", "Name", "Points", "Level", "Day offs used", "Active"}
	monthHeader       = []any{"Name", "Done", "Extra", "Day off", "Total"}
)

// Build writes one leaderboard sheet and one sheet with the month's task
// counts. Rows are expected in leaderboard order.
func Build(month string, rows []Row) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetLeaderboard); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetMonth); err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}

	if err := writeRow(f, SheetLeaderboard, 1, leaderboardHeader); err != nil {
		return nil, err
	}
	monthTitle := append([]any{}, monthHeader...)
	monthTitle[0] = fmt.Sprintf("Name (%s)", month)
	if err := writeRow(f, SheetMonth, 1, monthTitle); err != nil {
		return nil, err
	}

	for i, r := range rows {
		active := "yes"
		if !r.User.Active {
			active = "no"
		}
		if err := writeRow(f, SheetLeaderboard, i+2, []any{
			i + 1, r.User.Name, r.User.Points, r.User.Level, r.User.DayOffUsed, active,
		}); err != nil {
			return nil, err
		}

		stats := r.Month
		if stats == nil {
			stats = &storage.TaskStats{}
		}
		if err := writeRow(f, SheetMonth, i+2, []any{
			r.User.Name, stats.Done, stats.Bonus, stats.DayOff, stats.Total(),
		}); err != nil {
			return nil, err
		}
	}

	for _, sheet := range []string{SheetLeaderboard, SheetMonth} {
		if err := f.SetColWidth(sheet, "A", "B", 24); err != nil {
			return nil, fmt.Errorf("setting column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("getting cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("setting %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
