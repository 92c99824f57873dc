package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"sharehub/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName = "Бронирования"
	headerRow = 1
	firstRow  = 2
)

var headers = []string{"ID", "Вещь", "Арендатор", "Начало", "Конец", "Статус"}

// Ledger maintains a single xlsx file with one row per booking. Writes go
// through a mutex: the worker is the only writer, but operators may trigger
// rebuilds concurrently.
type Ledger struct {
	path   string
	logger *zerolog.Logger
	mu     sync.Mutex
}

func NewLedger(path string, logger *zerolog.Logger) *Ledger {
	return &Ledger{path: path, logger: logger}
}

// UpsertBooking writes the booking row, replacing an existing row with the
// same booking id.
func (l *Ledger) UpsertBooking(booking *models.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.open()
	if err != nil {
		return err
	}
	defer f.Close()

	row, err := l.findRow(f, booking.ID)
	if err != nil {
		return err
	}

	values := []interface{}{
		booking.ID,
		booking.ItemID,
		booking.BookerID,
		booking.Start.Format("02.01.2006 15:04"),
		booking.End.Format("02.01.2006 15:04"),
		booking.Status,
	}
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("error writing cell: %w", err)
		}
	}

	return l.save(f)
}

// UpdateBookingStatus rewrites only the status column of the booking's row.
// Missing rows are not an error: the upsert task may still be queued behind.
func (l *Ledger) UpdateBookingStatus(bookingID int64, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.open()
	if err != nil {
		return err
	}
	defer f.Close()

	row, err := l.lookupRow(f, bookingID)
	if err != nil {
		return err
	}
	if row == 0 {
		l.logger.Warn().Int64("booking_id", bookingID).Msg("booking row not in ledger yet")
		return nil
	}

	cell, _ := excelize.CoordinatesToCellName(len(headers), row)
	if err := f.SetCellValue(sheetName, cell, status); err != nil {
		return fmt.Errorf("error writing status cell: %w", err)
	}
	return l.save(f)
}

func (l *Ledger) open() (*excelize.File, error) {
	if _, err := os.Stat(l.path); err == nil {
		f, err := excelize.OpenFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("error opening ledger: %w", err)
		}
		return f, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, headerRow)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	startCell, _ := excelize.CoordinatesToCellName(1, headerRow)
	_ = f.SetCellStyle(sheetName, startCell, endCell, style)
	_ = f.SetColWidth(sheetName, "A", "F", 18)

	return f, nil
}

// findRow returns the booking's row, or the first free row when absent.
func (l *Ledger) findRow(f *excelize.File, bookingID int64) (int, error) {
	row, err := l.lookupRow(f, bookingID)
	if err != nil {
		return 0, err
	}
	if row != 0 {
		return row, nil
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return 0, fmt.Errorf("error reading ledger rows: %w", err)
	}
	if len(rows) < firstRow {
		return firstRow, nil
	}
	return len(rows) + 1, nil
}

func (l *Ledger) lookupRow(f *excelize.File, bookingID int64) (int, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return 0, fmt.Errorf("error reading ledger rows: %w", err)
	}
	want := strconv.FormatInt(bookingID, 10)
	for i, row := range rows {
		if i+1 < firstRow || len(row) == 0 {
			continue
		}
		if row[0] == want {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (l *Ledger) save(f *excelize.File) error {
	if err := f.SaveAs(l.path); err != nil {
		return fmt.Errorf("error saving ledger: %w", err)
	}
	return nil
}
