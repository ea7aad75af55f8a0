package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/storage"

	"github.com/xuri/excelize/v2"
)

const (
	EntregaSheet          = "Entrega"
	entregaLastCol        = "H"
	entregaItemFirstRow   = 7
	EntregaItemRows       = 8
	entregaAccesorioRow   = 16
	entregaSignLabelRow   = 18
	entregaSignImageRow   = 19
	entregaSignNameRow    = 20
	entregaMarkComputo    = "E"
	entregaMarkMobiliario = "F"
	entregaMarkOtro       = "G"
)

var (
	entregaAccesorioSpan = span{"B", "H"}
	signEntrega          = span{"A", "C"}
	signRecibe           = span{"F", "H"}
)

// EntregaExporter fills the fixed asset handover workbook
type EntregaExporter struct {
	templatePath string
	disk         storage.Disk
}

func NewEntregaExporter(templatePath string, disk storage.Disk) *EntregaExporter {
	return &EntregaExporter{templatePath: templatePath, disk: disk}
}

// EntregaFilename is the download name, e.g. entrega_activos_Sistemas_Sede_Norte.xlsx
func EntregaFilename(e *model.CpEntregaActivosFijos) string {
	proceso, sede := "", ""
	if e.Proceso != nil {
		proceso = e.Proceso.Nombre
	}
	if e.Sede != nil {
		sede = e.Sede.Nombre
	}
	return fmt.Sprintf("entrega_activos_%s_%s.xlsx", sanitizeFilename(proceso), sanitizeFilename(sede))
}

func tipoColumn(t model.TipoActivo) string {
	switch t {
	case model.TipoEquipoComputo:
		return entregaMarkComputo
	case model.TipoMobiliario:
		return entregaMarkMobiliario
	default:
		return entregaMarkOtro
	}
}

// Export expects e with its items, their inventario rows and the belongs-to
// relations preloaded
func (x *EntregaExporter) Export(ctx context.Context, e *model.CpEntregaActivosFijos) (*Document, error) {
	f, err := openTemplate(x.templatePath, buildEntregaTemplate)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w := &cellWriter{f: f, sheet: EntregaSheet}

	w.set("B3", e.FechaEntrega.Format("2006-01-02"))
	if e.Sede != nil {
		w.set("D3", e.Sede.Nombre)
	}
	if e.Proceso != nil {
		w.set("G3", e.Proceso.Nombre)
	}
	if e.Personal != nil {
		w.set("B4", e.Personal.Nombre)
		w.set("E4", e.Personal.Cedula)
		w.set("G4", e.Personal.Cargo)
	}
	if w.err != nil {
		return nil, w.err
	}

	lastTemplateRow := entregaItemFirstRow + EntregaItemRows - 1
	extra := len(e.Items) - EntregaItemRows
	if err := insertItemRows(f, EntregaSheet, lastTemplateRow, extra, entregaLastCol, nil); err != nil {
		return nil, fmt.Errorf("insert item rows: %w", err)
	}
	offset := max(extra, 0)

	var accesorios []string
	for i, item := range e.Items {
		row := entregaItemFirstRow + i
		w.set(fmt.Sprintf("A%d", row), i+1)
		if inv := item.Inventario; inv != nil {
			w.set(fmt.Sprintf("B%d", row), inv.Codigo)
			w.set(fmt.Sprintf("C%d", row), inv.Nombre)
			w.set(fmt.Sprintf("D%d", row), inv.Serial)
			w.set(fmt.Sprintf("%s%d", tipoColumn(inv.Tipo), row), "X")
		}
		if item.EsAccesorio {
			w.set(fmt.Sprintf("H%d", row), "Sí")
		}
		if a := strings.TrimSpace(item.Accesorio); a != "" {
			accesorios = append(accesorios, a)
		}
		if w.err != nil {
			return nil, w.err
		}
	}

	accRow := entregaAccesorioRow + offset
	accText := strings.Join(accesorios, ", ")
	w.set(fmt.Sprintf("B%d", accRow), accText)

	nameRow := entregaSignNameRow + offset
	w.set(fmt.Sprintf("A%d", nameRow), userName(e.Coordinador))
	if e.Personal != nil {
		w.set(fmt.Sprintf("F%d", nameRow), e.Personal.Nombre)
	}
	if w.err != nil {
		return nil, w.err
	}
	if err := fitRowHeight(f, EntregaSheet, accRow, accText, entregaAccesorioSpan); err != nil {
		return nil, err
	}

	imageRow := entregaSignImageRow + offset
	addSignature(ctx, f, x.disk, EntregaSheet, imageRow, signEntrega, e.FirmaEntrega)
	addSignature(ctx, f, x.disk, EntregaSheet, imageRow, signRecibe, e.FirmaRecibe)

	return write(f, EntregaFilename(e))
}

// buildEntregaTemplate generates the default handover layout
func buildEntregaTemplate() (*excelize.File, error) {
	f, err := newSheetFile(EntregaSheet)
	if err != nil {
		return nil, err
	}
	st, err := newLayoutStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &cellWriter{f: f, sheet: EntregaSheet}
	w.colWidth("A", "A", 12)
	w.colWidth("B", "B", 14)
	w.colWidth("C", "C", 30)
	w.colWidth("D", "D", 18)
	w.colWidth("E", "G", 12)
	w.colWidth("H", "H", 14)

	w.set("A1", "ENTREGA DE ACTIVOS FIJOS")
	w.merge("A1", "H1")
	w.style("A1", "H1", st.title)
	w.rowHeight(1, 24)

	w.set("A3", "Fecha")
	w.set("C3", "Sede")
	w.set("F3", "Proceso")
	w.merge("D3", "E3")
	w.merge("G3", "H3")
	w.set("A4", "Recibe")
	w.set("D4", "Cédula")
	w.set("F4", "Cargo")
	w.merge("B4", "C4")
	w.merge("G4", "H4")
	w.style("A3", "H4", st.value)
	for _, c := range []string{"A3", "C3", "F3", "A4", "D4", "F4"} {
		w.style(c, c, st.label)
	}

	headers := []string{"#", "Código", "Descripción", "Serial", "Equipo de cómputo", "Mobiliario", "Otro", "Accesorios"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 6)
		w.set(cell, h)
	}
	w.style("A6", "H6", st.header)
	w.rowHeight(6, 30)

	last := entregaItemFirstRow + EntregaItemRows - 1
	w.style(fmt.Sprintf("A%d", entregaItemFirstRow), fmt.Sprintf("H%d", last), st.cell)
	w.style(fmt.Sprintf("E%d", entregaItemFirstRow), fmt.Sprintf("H%d", last), st.center)

	w.set(fmt.Sprintf("A%d", entregaAccesorioRow), "Accesorios")
	w.style(fmt.Sprintf("A%d", entregaAccesorioRow), fmt.Sprintf("A%d", entregaAccesorioRow), st.label)
	from, to := entregaAccesorioSpan.cells(entregaAccesorioRow)
	w.merge(from, to)
	w.style(from, to, st.cell)

	signs := []struct {
		s     span
		label string
	}{
		{signEntrega, "Entrega"},
		{signRecibe, "Recibe"},
	}
	for _, sg := range signs {
		for _, row := range []int{entregaSignLabelRow, entregaSignImageRow, entregaSignNameRow} {
			from, to := sg.s.cells(row)
			w.merge(from, to)
			if row == entregaSignLabelRow {
				w.set(from, sg.label)
				w.style(from, to, st.header)
			} else {
				w.style(from, to, st.center)
			}
		}
	}
	w.rowHeight(entregaSignImageRow, 60)

	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}
