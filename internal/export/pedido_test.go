package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/storage"

	"github.com/xuri/excelize/v2"
)

func signaturePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 40))
	for x := 0; x < 120; x++ {
		img.Set(x, 20, color.Black)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestExportPedido(t *testing.T) {
	disk, err := storage.NewLocalDisk(t.TempDir())
	if err != nil {
		t.Fatalf("disk: %v", err)
	}
	ctx := context.Background()
	if err := disk.Store(ctx, "firmas_pedidos/elaborado_1.png", bytes.NewReader(signaturePNG(t))); err != nil {
		t.Fatalf("store: %v", err)
	}

	p := &model.CpPedido{
		Consecutivo:        42,
		EstadoCompras:      model.ComprasAprobado,
		EstadoGerencia:     model.GerenciaPendiente,
		FechaSolicitud:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Observacion:        "Compra urgente",
		Sede:               &model.Sede{Nombre: "Sede Ñuñoa"},
		ProcesoSolicitante: &model.Dependencia{Nombre: "Sistemas"},
		TipoSolicitud:      &model.TipoSolicitud{Nombre: "Prioritaria"},
		ElaboradoPor:       &model.User{Nombre: "Ana Pérez"},
		ElaboradoPorFirma:  "firmas_pedidos/elaborado_1.png",
		ProcesoCompra:      &model.User{Nombre: "Luis Gómez"},
		// missing files are skipped
		ProcesoCompraFirma: "firmas_pedidos/compras_borrada.png",
	}
	for i := 0; i < PedidoItemRows+2; i++ {
		p.Items = append(p.Items, model.CpItemPedido{Nombre: fmt.Sprintf("Item %d", i+1), Cantidad: i + 1, UnidadMedida: "unidad"})
	}

	doc, err := NewPedidoExporter("", disk).Export(ctx, p)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if doc.Filename != "pedido_42_Sede_Nunoa.xlsx" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(doc.Content))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	cell := func(name string) string {
		t.Helper()
		v, err := f.GetCellValue(PedidoSheet, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return v
	}

	expected := map[string]string{
		"B3":  "42",
		"E3":  "2025-07-01",
		"H3":  "Sede Ñuñoa",
		"B4":  "Sistemas",
		"E4":  "Prioritaria",
		"B6":  "Compra urgente",
		"B9":  "Item 1",
		"B20": "Item 12",
		"E20": "12",
		"A24": "Ana Pérez",
		"D24": "Luis Gómez",
		"D25": "Estado: aprobado",
		"G25": "Estado: pendiente",
	}
	for name, want := range expected {
		if got := cell(name); got != want {
			t.Fatalf("cell %s: expected %q, got %q", name, want, got)
		}
	}

	pics, err := f.GetPictures(PedidoSheet, "A23")
	if err != nil {
		t.Fatalf("get pictures: %v", err)
	}
	if len(pics) != 1 {
		t.Fatalf("expected elaborado signature embedded, got %d pictures", len(pics))
	}
	pics, _ = f.GetPictures(PedidoSheet, "D23")
	if len(pics) != 0 {
		t.Fatalf("missing signature must be skipped, got %d pictures", len(pics))
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Sede Norte":        "Sede_Norte",
		"  Bogotá / Centro": "Bogota_Centro",
		"":                  "sin_nombre",
		"***":               "sin_nombre",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestEstimateLines(t *testing.T) {
	if got := estimateLines("", 10); got != 1 {
		t.Fatalf("empty text takes one line, got %d", got)
	}
	if got := estimateLines("abcdefghijk", 10); got != 2 {
		t.Fatalf("expected 2 lines, got %d", got)
	}
	if got := estimateLines("a\nb\nc", 10); got != 3 {
		t.Fatalf("expected 3 lines, got %d", got)
	}
}
