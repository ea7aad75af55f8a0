// Package export fills the purchase order and asset handover spreadsheets.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/logging"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/storage"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ContentType is the MIME type of generated workbooks
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	defaultRowHeight = 15.0
	lineHeight       = 15.0
	// pointsToPixels converts row heights, pixelsPerChar column widths
	pointsToPixels = 4.0 / 3.0
	pixelsPerChar  = 7.0
	imagePadding   = 4.0
)

// Document is a generated workbook ready to download
type Document struct {
	Filename string
	Content  []byte
}

// span is a horizontal merge inside one row, e.g. {"B", "D"}
type span struct {
	from, to string
}

func (s span) cells(row int) (string, string) {
	return fmt.Sprintf("%s%d", s.from, row), fmt.Sprintf("%s%d", s.to, row)
}

// openTemplate opens the configured template or builds the default layout
func openTemplate(templatePath string, build func() (*excelize.File, error)) (*excelize.File, error) {
	if templatePath == "" {
		return build()
	}
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("open template %s: %w", templatePath, err)
	}
	return f, nil
}

// insertItemRows makes room for extra item rows after lastRow. The new rows
// take the style of lastRow and the same horizontal merges.
func insertItemRows(f *excelize.File, sheet string, lastRow, extra int, lastCol string, merges []span) error {
	if extra <= 0 {
		return nil
	}
	if err := f.InsertRows(sheet, lastRow+1, extra); err != nil {
		return err
	}

	lastColNum, err := excelize.ColumnNameToNumber(lastCol)
	if err != nil {
		return err
	}
	height, err := f.GetRowHeight(sheet, lastRow)
	if err != nil {
		return err
	}

	for row := lastRow + 1; row <= lastRow+extra; row++ {
		for col := 1; col <= lastColNum; col++ {
			src, _ := excelize.CoordinatesToCellName(col, lastRow)
			dst, _ := excelize.CoordinatesToCellName(col, row)
			style, err := f.GetCellStyle(sheet, src)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, dst, dst, style); err != nil {
				return err
			}
		}
		for _, m := range merges {
			from, to := m.cells(row)
			if err := f.MergeCell(sheet, from, to); err != nil {
				return err
			}
		}
		if err := f.SetRowHeight(sheet, row, height); err != nil {
			return err
		}
	}
	return nil
}

// columnsWidth returns the summed width, in characters, of columns from..to
func columnsWidth(f *excelize.File, sheet, from, to string) float64 {
	start, err := excelize.ColumnNameToNumber(from)
	if err != nil {
		return 0
	}
	end, err := excelize.ColumnNameToNumber(to)
	if err != nil {
		return 0
	}
	total := 0.0
	for col := start; col <= end; col++ {
		name, _ := excelize.ColumnNumberToName(col)
		w, err := f.GetColWidth(sheet, name)
		if err != nil {
			continue
		}
		total += w
	}
	return total
}

// estimateLines approximates how many wrapped lines text needs in a cell
// charsPerLine wide. Characters are counted, text is not measured.
func estimateLines(text string, charsPerLine float64) int {
	if charsPerLine < 1 {
		charsPerLine = 1
	}
	lines := 0
	for _, part := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(part)
		l := int(math.Ceil(float64(n) / charsPerLine))
		if l < 1 {
			l = 1
		}
		lines += l
	}
	return lines
}

// fitRowHeight grows the row so text fits the span, never shrinking it
func fitRowHeight(f *excelize.File, sheet string, row int, text string, s span) error {
	width := columnsWidth(f, sheet, s.from, s.to)
	// Wrapped text rarely fills the whole line
	lines := estimateLines(text, width*0.9)
	height := math.Max(defaultRowHeight, float64(lines)*lineHeight)

	current, err := f.GetRowHeight(sheet, row)
	if err == nil && current >= height {
		return nil
	}
	return f.SetRowHeight(sheet, row, height)
}

// addSignature embeds the image at path into the box spanned by s on row.
// Missing or unreadable images are logged and skipped.
func addSignature(ctx context.Context, f *excelize.File, disk storage.Disk, sheet string, row int, s span, p model.StoragePath) {
	if p.IsZero() || disk == nil {
		return
	}
	fields := map[string]interface{}{"path": p.String(), "sheet": sheet, "row": row}

	content, err := storage.ReadAll(ctx, disk, p.String())
	if err != nil {
		logging.Error("signature image not available for export", err, fields)
		return
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		logging.Error("signature image could not be decoded", err, fields)
		return
	}

	rowHeight, err := f.GetRowHeight(sheet, row)
	if err != nil {
		rowHeight = defaultRowHeight
	}
	boxW := columnsWidth(f, sheet, s.from, s.to)*pixelsPerChar - 2*imagePadding
	boxH := rowHeight*pointsToPixels - 2*imagePadding
	scale := math.Min(boxW/float64(cfg.Width), boxH/float64(cfg.Height))
	if scale > 1 {
		scale = 1
	}
	if scale <= 0 {
		return
	}

	ext := strings.ToLower(path.Ext(p.String()))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	offsetX := int((boxW - float64(cfg.Width)*scale) / 2)
	cell, _ := s.cells(row)
	err = f.AddPictureFromBytes(sheet, cell, &excelize.Picture{
		Extension: ext,
		File:      content,
		Format: &excelize.GraphicOptions{
			ScaleX:      scale,
			ScaleY:      scale,
			OffsetX:     offsetX + int(imagePadding),
			OffsetY:     int(imagePadding),
			Positioning: "oneCell",
		},
	})
	if err != nil {
		logging.Error("failed to embed signature image", err, fields)
	}
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// sanitizeFilename drops accents and replaces anything outside [A-Za-z0-9_-]
func sanitizeFilename(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	plain = unsafeFilename.ReplaceAllString(strings.TrimSpace(plain), "_")
	plain = strings.Trim(plain, "_")
	if plain == "" {
		return "sin_nombre"
	}
	return plain
}

func write(f *excelize.File, filename string) (*Document, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &Document{Filename: filename, Content: buf.Bytes()}, nil
}

type layoutStyles struct {
	title  int
	label  int
	value  int
	header int
	cell   int
	center int
}

func newLayoutStyles(f *excelize.File) (layoutStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	var st layoutStyles
	var err error
	if st.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return st, err
	}
	if st.label, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 10},
		Border:    border,
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
	}); err != nil {
		return st, err
	}
	if st.value, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Border:    border,
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
	}); err != nil {
		return st, err
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 10, Color: "FFFFFF"},
		Border:    border,
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}); err != nil {
		return st, err
	}
	if st.cell, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Border:    border,
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	}); err != nil {
		return st, err
	}
	st.center, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	return st, err
}

// cellWriter collects the first error of a sequence of cell writes
type cellWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *cellWriter) set(cell string, value interface{}) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellValue(w.sheet, cell, value)
}

func (w *cellWriter) merge(from, to string) {
	if w.err != nil {
		return
	}
	w.err = w.f.MergeCell(w.sheet, from, to)
}

func (w *cellWriter) style(from, to string, style int) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, from, to, style)
}

func (w *cellWriter) colWidth(from, to string, width float64) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetColWidth(w.sheet, from, to, width)
}

func (w *cellWriter) rowHeight(row int, height float64) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetRowHeight(w.sheet, row, height)
}

// newSheetFile creates a workbook whose only sheet is named sheet
func newSheetFile(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func userName(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Nombre
}
