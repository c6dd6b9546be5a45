// Package report renders transfers and orders as Excel workbooks.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/invman/internal/model"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04"

type sheet struct {
	f    *excelize.File
	name string
	bold int
	row  int
}

func newSheet(name string) (*sheet, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating style: %w", err)
	}
	f.SetColWidth(name, "A", "A", 24)
	f.SetColWidth(name, "B", "D", 18)
	return &sheet{f: f, name: name, bold: bold}, nil
}

// line writes values into the next row. A bold line styles every cell written.
func (s *sheet) line(bold bool, values ...any) error {
	s.row++
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			return err
		}
		if err := s.f.SetCellValue(s.name, cell, v); err != nil {
			return fmt.Errorf("writing %s: %w", cell, err)
		}
		if bold {
			if err := s.f.SetCellStyle(s.name, cell, cell, s.bold); err != nil {
				return fmt.Errorf("styling %s: %w", cell, err)
			}
		}
	}
	return nil
}

// field writes a bold label and a value.
func (s *sheet) field(label string, value any) error {
	s.row++
	lc, _ := excelize.CoordinatesToCellName(1, s.row)
	vc, _ := excelize.CoordinatesToCellName(2, s.row)
	if err := s.f.SetCellValue(s.name, lc, label); err != nil {
		return err
	}
	if err := s.f.SetCellStyle(s.name, lc, lc, s.bold); err != nil {
		return err
	}
	return s.f.SetCellValue(s.name, vc, value)
}

func (s *sheet) finish(w io.Writer) error {
	defer s.f.Close()
	if err := s.f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Transfer writes a single-sheet workbook describing one stock transfer.
func Transfer(w io.Writer, t *model.Transfer) error {
	s, err := newSheet("Transfer")
	if err != nil {
		return err
	}

	fields := []struct {
		label string
		value any
	}{
		{"Stock Transfer", fmt.Sprintf("#%d", t.ID)},
		{"Status", string(t.Status)},
		{"Product", orDash(t.SourceProductName)},
		{"Quantity", t.Quantity},
		{"Source", t.SourcePath()},
		{"Source Category", orDash(t.SourceCategoryName)},
		{"Destination", t.DestinationPath()},
		{"Destination Category", orDash(t.DestinationCategoryName)},
		{"Notes", orDash(t.Notes)},
		{"Created", formatTime(t.CreatedAt)},
		{"Updated", formatTime(t.UpdatedAt)},
	}
	for _, fv := range fields {
		if err := s.field(fv.label, fv.value); err != nil {
			s.f.Close()
			return fmt.Errorf("writing transfer report: %w", err)
		}
	}
	return s.finish(w)
}

// Order writes a workbook with the order header followed by its lines and total.
func Order(w io.Writer, o *model.Order) error {
	s, err := newSheet("Order")
	if err != nil {
		return err
	}

	write := func() error {
		header := []struct {
			label string
			value any
		}{
			{"Order", fmt.Sprintf("#%d", o.ID)},
			{"Type", string(o.Type)},
			{"Status", string(o.Status)},
			{"Customer", orDash(o.CustomerName)},
			{"Created", formatTime(o.CreatedAt)},
		}
		for _, h := range header {
			if err := s.field(h.label, h.value); err != nil {
				return err
			}
		}

		s.row++
		if err := s.line(true, "Product", "Quantity", "Price", "Subtotal"); err != nil {
			return err
		}
		for _, it := range o.Items {
			if err := s.line(false, it.ProductName, it.Quantity, it.Price.InexactFloat64(), it.Subtotal().InexactFloat64()); err != nil {
				return err
			}
		}
		return s.line(true, "Total", "", "", o.Total.InexactFloat64())
	}

	if err := write(); err != nil {
		s.f.Close()
		return fmt.Errorf("writing order report: %w", err)
	}
	return s.finish(w)
}
