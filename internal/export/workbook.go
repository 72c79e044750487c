package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	fontFamily  = "Nyala"
	serialWidth = 5
)

// cellStyle is the look of a cell. It depends only on the row kind, the
// column and the group unit.
func cellStyle(kind RowKind, col int, unit string) *excelize.Style {
	switch kind {
	case RowTitle:
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 16, Family: fontFamily},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}
	case RowGroupHeader:
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 14, Color: "000000", Family: fontFamily},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
			Border:    []excelize.Border{{Type: "bottom", Color: "999999", Style: 2}},
		}
	case RowColumnHeader:
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: fontFamily},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4F81BD"}},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    box("BBBBBB", 1),
		}
	case RowData:
		s := &excelize.Style{
			Font:      &excelize.Font{Size: 10, Color: "333333", Family: fontFamily},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top"},
			Border:    box("DDDDDD", 1),
		}
		s.CustomNumFmt = numFmt(col, unit)
		return s
	case RowSubtotal:
		s := &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11, Color: "000000", Family: fontFamily},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F2F2F2"}},
			Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
			Border: []excelize.Border{
				{Type: "top", Color: "CCCCCC", Style: 2},
				{Type: "bottom", Color: "CCCCCC", Style: 2},
			},
		}
		if col == colCommodity {
			s.Alignment.Horizontal = "left"
		}
		s.CustomNumFmt = numFmt(col, unit)
		return s
	case RowTotal:
		s := &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 13, Color: "FFFFFF", Family: fontFamily},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"6B8E23"}},
			Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
			Border: []excelize.Border{
				{Type: "top", Color: "000000", Style: 5},
				{Type: "bottom", Color: "000000", Style: 5},
			},
		}
		if col == colUnitPrice {
			s.Alignment.Horizontal = "left"
		}
		if col == colTotal {
			s.CustomNumFmt = numFmt(col, "")
		}
		return s
	default:
		return nil
	}
}

func box(color string, style int) []excelize.Border {
	return []excelize.Border{
		{Type: "top", Color: color, Style: style},
		{Type: "bottom", Color: color, Style: style},
		{Type: "left", Color: color, Style: style},
		{Type: "right", Color: color, Style: style},
	}
}

func numFmt(col int, unit string) *string {
	var f string
	switch col {
	case colAmount:
		if unit == "" {
			f = "0"
		} else {
			f = fmt.Sprintf("0 %q", unit)
		}
	case colUnitPrice, colTotal:
		f = fmt.Sprintf("0.00 %q", currencyUnit)
	default:
		return nil
	}
	return &f
}

// displayText approximates what a cell shows, for column sizing.
func displayText(kind RowKind, col int, unit string, v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		s = strconv.Itoa(x)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
		if col == colUnitPrice || col == colTotal {
			s = strconv.FormatFloat(x, 'f', 2, 64)
		}
	default:
		s = fmt.Sprint(x)
	}
	if f := cellStyle(kind, col, unit); f != nil && f.CustomNumFmt != nil {
		switch col {
		case colAmount:
			if unit != "" {
				s += " " + unit
			}
		case colUnitPrice, colTotal:
			s += " " + currencyUnit
		}
	}
	return s
}

// columnWidths sizes every column to its header plus two, widened to fit the
// widest cell. The serial column stays narrow.
func columnWidths(rows []Row) []float64 {
	widths := make([]float64, numColumns)
	for i, h := range Headers {
		widths[i] = float64(utf8.RuneCountInString(h) + 2)
	}
	for _, r := range rows {
		if r.Kind == RowTitle || r.Kind == RowGroupHeader {
			continue
		}
		for col, v := range r.Cells {
			if col >= numColumns {
				break
			}
			if w := float64(utf8.RuneCountInString(displayText(r.Kind, col, r.Unit, v)) + 2); w > widths[col] {
				widths[col] = w
			}
		}
	}
	widths[colSerial] = serialWidth
	return widths
}

type styleKey struct {
	kind RowKind
	col  int
	unit string
}

// Workbook renders the report into a new excelize file. The caller closes it.
func (r *Report) Workbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := r.render(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (r *Report) render(f *excelize.File) error {
	styles := make(map[styleKey]int)
	styleID := func(kind RowKind, col int, unit string) (int, bool, error) {
		k := styleKey{kind, col, unit}
		if id, ok := styles[k]; ok {
			return id, true, nil
		}
		s := cellStyle(kind, col, unit)
		if s == nil {
			return 0, false, nil
		}
		id, err := f.NewStyle(s)
		if err != nil {
			return 0, false, fmt.Errorf("new style %s/%d: %w", kind, col, err)
		}
		styles[k] = id
		return id, true, nil
	}

	lastCol, err := excelize.ColumnNumberToName(numColumns)
	if err != nil {
		return err
	}

	for i, row := range r.Rows {
		n := i + 1
		first, _ := excelize.CoordinatesToCellName(1, n)
		if len(row.Cells) > 0 {
			cells := row.Cells
			if err := f.SetSheetRow(SheetName, first, &cells); err != nil {
				return fmt.Errorf("write row %d: %w", n, err)
			}
		}

		switch row.Kind {
		case RowBlank:
			continue
		case RowTitle, RowGroupHeader:
			last := lastCol + strconv.Itoa(n)
			if err := f.MergeCell(SheetName, first, last); err != nil {
				return fmt.Errorf("merge row %d: %w", n, err)
			}
			id, ok, err := styleID(row.Kind, 0, row.Unit)
			if err != nil {
				return err
			}
			if ok {
				if err := f.SetCellStyle(SheetName, first, last, id); err != nil {
					return fmt.Errorf("style row %d: %w", n, err)
				}
			}
			continue
		}

		for col := 0; col < numColumns; col++ {
			id, ok, err := styleID(row.Kind, col, row.Unit)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, n)
			if err := f.SetCellStyle(SheetName, cell, cell, id); err != nil {
				return fmt.Errorf("style %s: %w", cell, err)
			}
		}
	}

	for i, w := range columnWidths(r.Rows) {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, name, name, w); err != nil {
			return fmt.Errorf("column width %s: %w", name, err)
		}
	}
	return nil
}

// WriteTo streams the workbook to w.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	f, err := r.Workbook()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.WriteTo(w)
}

// Bytes returns the encoded workbook.
func (r *Report) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the workbook into dir under the report's file name and returns
// the full path.
func (r *Report) Save(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, r.FileName)
	f, err := r.Workbook()
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}
