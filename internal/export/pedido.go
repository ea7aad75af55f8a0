package export

import (
	"context"
	"fmt"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/storage"

	"github.com/xuri/excelize/v2"
)

// Pedido sheet coordinates. A template file must follow the same layout.
const (
	PedidoSheet         = "Pedido"
	pedidoLastCol       = "H"
	pedidoItemFirstRow  = 9
	PedidoItemRows      = 10
	pedidoObsRow        = 6
	pedidoSignLabelRow  = 20
	pedidoSignImageRow  = 21
	pedidoSignNameRow   = 22
	pedidoSignEstadoRow = 23
)

var (
	pedidoItemMerges = []span{{"B", "D"}, {"G", "H"}}
	pedidoObsSpan    = span{"B", "H"}
	signElaborado    = span{"A", "B"}
	signCompras      = span{"D", "E"}
	signGerencia     = span{"G", "H"}
)

// PedidoExporter fills the purchase order workbook
type PedidoExporter struct {
	templatePath string
	disk         storage.Disk
}

func NewPedidoExporter(templatePath string, disk storage.Disk) *PedidoExporter {
	return &PedidoExporter{templatePath: templatePath, disk: disk}
}

// PedidoFilename is the download name, e.g. pedido_12_Sede_Norte.xlsx
func PedidoFilename(p *model.CpPedido) string {
	sede := ""
	if p.Sede != nil {
		sede = p.Sede.Nombre
	}
	return fmt.Sprintf("pedido_%d_%s.xlsx", p.Consecutivo, sanitizeFilename(sede))
}

// Export expects p with its items and belongs-to relations preloaded
func (e *PedidoExporter) Export(ctx context.Context, p *model.CpPedido) (*Document, error) {
	f, err := openTemplate(e.templatePath, buildPedidoTemplate)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w := &cellWriter{f: f, sheet: PedidoSheet}

	w.set("B3", p.Consecutivo)
	w.set("E3", p.FechaSolicitud.Format("2006-01-02"))
	if p.Sede != nil {
		w.set("H3", p.Sede.Nombre)
	}
	if p.ProcesoSolicitante != nil {
		w.set("B4", p.ProcesoSolicitante.Nombre)
	}
	if p.TipoSolicitud != nil {
		w.set("E4", p.TipoSolicitud.Nombre)
	}
	w.set("H4", userName(p.ElaboradoPor))
	w.set("B6", p.Observacion)
	if w.err != nil {
		return nil, w.err
	}
	if err := fitRowHeight(f, PedidoSheet, pedidoObsRow, p.Observacion, pedidoObsSpan); err != nil {
		return nil, err
	}

	lastTemplateRow := pedidoItemFirstRow + PedidoItemRows - 1
	extra := len(p.Items) - PedidoItemRows
	if err := insertItemRows(f, PedidoSheet, lastTemplateRow, extra, pedidoLastCol, pedidoItemMerges); err != nil {
		return nil, fmt.Errorf("insert item rows: %w", err)
	}
	offset := max(extra, 0)

	for i, item := range p.Items {
		row := pedidoItemFirstRow + i
		w.set(fmt.Sprintf("A%d", row), i+1)
		w.set(fmt.Sprintf("B%d", row), item.Nombre)
		w.set(fmt.Sprintf("E%d", row), item.Cantidad)
		w.set(fmt.Sprintf("F%d", row), item.UnidadMedida)
		w.set(fmt.Sprintf("G%d", row), item.Referencia)
		if w.err != nil {
			return nil, w.err
		}
		if err := fitRowHeight(f, PedidoSheet, row, item.Nombre, pedidoItemMerges[0]); err != nil {
			return nil, err
		}
	}

	imageRow := pedidoSignImageRow + offset
	nameRow := pedidoSignNameRow + offset
	estadoRow := pedidoSignEstadoRow + offset

	w.set(fmt.Sprintf("A%d", nameRow), userName(p.ElaboradoPor))
	w.set(fmt.Sprintf("D%d", nameRow), userName(p.ProcesoCompra))
	w.set(fmt.Sprintf("G%d", nameRow), userName(p.ResponsableAprobacion))
	w.set(fmt.Sprintf("A%d", estadoRow), "Fecha: "+p.FechaSolicitud.Format("2006-01-02"))
	w.set(fmt.Sprintf("D%d", estadoRow), "Estado: "+string(p.EstadoCompras))
	w.set(fmt.Sprintf("G%d", estadoRow), "Estado: "+string(p.EstadoGerencia))
	if w.err != nil {
		return nil, w.err
	}

	addSignature(ctx, f, e.disk, PedidoSheet, imageRow, signElaborado, p.ElaboradoPorFirma)
	addSignature(ctx, f, e.disk, PedidoSheet, imageRow, signCompras, p.ProcesoCompraFirma)
	addSignature(ctx, f, e.disk, PedidoSheet, imageRow, signGerencia, p.ResponsableAprobacionFirma)

	return write(f, PedidoFilename(p))
}

// buildPedidoTemplate generates the default purchase order layout
func buildPedidoTemplate() (*excelize.File, error) {
	f, err := newSheetFile(PedidoSheet)
	if err != nil {
		return nil, err
	}
	st, err := newLayoutStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &cellWriter{f: f, sheet: PedidoSheet}
	w.colWidth("A", "A", 14)
	w.colWidth("B", "D", 16)
	w.colWidth("E", "F", 12)
	w.colWidth("G", "H", 18)

	w.set("A1", "PEDIDO DE COMPRA")
	w.merge("A1", "H1")
	w.style("A1", "H1", st.title)
	w.rowHeight(1, 24)

	w.set("A3", "Consecutivo")
	w.set("D3", "Fecha")
	w.set("G3", "Sede")
	w.set("A4", "Proceso")
	w.set("D4", "Tipo de solicitud")
	w.set("G4", "Elaborado por")
	w.merge("B4", "C4")
	w.merge("E4", "F4")
	w.style("A3", "H4", st.value)
	for _, c := range []string{"A3", "D3", "G3", "A4", "D4", "G4"} {
		w.style(c, c, st.label)
	}

	w.set("A6", "Observación")
	w.style("A6", "A6", st.label)
	w.merge("B6", "H6")
	w.style("B6", "H6", st.cell)

	w.set("A8", "#")
	w.set("B8", "Descripción")
	w.set("E8", "Cantidad")
	w.set("F8", "Unidad")
	w.set("G8", "Referencia")
	w.merge("B8", "D8")
	w.merge("G8", "H8")
	w.style("A8", "H8", st.header)

	last := pedidoItemFirstRow + PedidoItemRows - 1
	for row := pedidoItemFirstRow; row <= last; row++ {
		for _, m := range pedidoItemMerges {
			from, to := m.cells(row)
			w.merge(from, to)
		}
	}
	w.style(fmt.Sprintf("A%d", pedidoItemFirstRow), fmt.Sprintf("H%d", last), st.cell)
	w.style(fmt.Sprintf("A%d", pedidoItemFirstRow), fmt.Sprintf("A%d", last), st.center)
	w.style(fmt.Sprintf("E%d", pedidoItemFirstRow), fmt.Sprintf("F%d", last), st.center)

	signs := []struct {
		s     span
		label string
	}{
		{signElaborado, "Elaborado por"},
		{signCompras, "Aprobación compras"},
		{signGerencia, "Aprobación gerencia"},
	}
	for _, sg := range signs {
		for _, row := range []int{pedidoSignLabelRow, pedidoSignImageRow, pedidoSignNameRow, pedidoSignEstadoRow} {
			from, to := sg.s.cells(row)
			w.merge(from, to)
			if row == pedidoSignLabelRow {
				w.set(from, sg.label)
				w.style(from, to, st.header)
			} else {
				w.style(from, to, st.center)
			}
		}
	}
	w.rowHeight(pedidoSignImageRow, 60)

	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}
