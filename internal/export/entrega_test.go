package export

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/storage"

	"github.com/xuri/excelize/v2"
)

func TestExportEntrega(t *testing.T) {
	disk, err := storage.NewLocalDisk(t.TempDir())
	if err != nil {
		t.Fatalf("disk: %v", err)
	}
	ctx := context.Background()
	if err := disk.Store(ctx, "firmas_entregas/recibe_1.png", bytes.NewReader(signaturePNG(t))); err != nil {
		t.Fatalf("store: %v", err)
	}

	e := &model.CpEntregaActivosFijos{
		FechaEntrega: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
		Sede:         &model.Sede{Nombre: "Sede Norte"},
		Proceso:      &model.Dependencia{Nombre: "Sistemas"},
		Personal:     &model.Personal{Nombre: "Ana", Cedula: "1090", Cargo: "Auxiliar"},
		Coordinador:  &model.User{Nombre: "Luis"},
		FirmaRecibe:  "firmas_entregas/recibe_1.png",
	}
	tipos := []model.TipoActivo{model.TipoEquipoComputo, model.TipoOtro}
	for i := 0; i < EntregaItemRows+1; i++ {
		e.Items = append(e.Items, model.CpEntregaActivosFijosItem{
			Inventario: &model.Inventario{Codigo: fmt.Sprintf("INV-%d", i+1), Nombre: "Equipo", Tipo: tipos[i%2]},
		})
	}
	e.Items = append(e.Items, model.CpEntregaActivosFijosItem{
		Inventario:  &model.Inventario{Codigo: "INV-10", Nombre: "Silla", Tipo: model.TipoMobiliario},
		EsAccesorio: true,
		Accesorio:   " cojín ",
	})
	e.Items[0].Accesorio = "cargador"

	doc, err := NewEntregaExporter("", disk).Export(ctx, e)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if doc.Filename != "entrega_activos_Sistemas_Sede_Norte.xlsx" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(doc.Content))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	// 10 items push the footer two rows down
	expected := map[string]string{
		"B3":  "2025-04-10",
		"D3":  "Sede Norte",
		"G3":  "Sistemas",
		"B4":  "Ana",
		"E4":  "1090",
		"G4":  "Auxiliar",
		"B7":  "INV-1",
		"E7":  "X",
		"G8":  "X",
		"E8":  "",
		"B16": "INV-10",
		"F16": "X",
		"H16": "Sí",
		"B18": "cargador, cojín",
		"A22": "Luis",
		"F22": "Ana",
	}
	for name, want := range expected {
		got, err := f.GetCellValue(EntregaSheet, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if got != want {
			t.Fatalf("cell %s: expected %q, got %q", name, want, got)
		}
	}

	pics, err := f.GetPictures(EntregaSheet, "F21")
	if err != nil {
		t.Fatalf("get pictures: %v", err)
	}
	if len(pics) != 1 {
		t.Fatalf("expected recibe signature embedded, got %d pictures", len(pics))
	}
	pics, _ = f.GetPictures(EntregaSheet, "A21")
	if len(pics) != 0 {
		t.Fatalf("empty entrega signature must be skipped, got %d pictures", len(pics))
	}
}
