package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEstadoComprasDecide(t *testing.T) {
	cases := []struct {
		from EstadoCompras
		d    Decision
		want EstadoCompras
	}{
		{ComprasPendiente, DecisionAprobar, ComprasAprobado},
		{ComprasPendiente, DecisionRechazar, ComprasRechazado},
		{ComprasEnProceso, DecisionAprobar, ComprasAprobado},
		{ComprasAprobado, DecisionRechazar, ComprasRechazado},
		{ComprasRechazado, DecisionAprobar, ComprasAprobado},
	}
	for _, tc := range cases {
		got, err := tc.from.Decide(tc.d)
		if err != nil {
			t.Fatalf("%s + %s: unexpected error %v", tc.from, tc.d, err)
		}
		if got != tc.want {
			t.Fatalf("%s + %s: expected %s, got %s", tc.from, tc.d, tc.want, got)
		}
	}

	if _, err := EstadoCompras("cerrado").Decide(DecisionAprobar); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if _, err := ComprasPendiente.Decide("archivar"); err == nil {
		t.Fatalf("expected error for unknown decision")
	}
}

func TestEstadoGerenciaDecide(t *testing.T) {
	got, err := GerenciaPendiente.Decide(DecisionRechazar)
	if err != nil || got != GerenciaRechazado {
		t.Fatalf("expected rechazado, got %s (%v)", got, err)
	}
	got, err = GerenciaRechazado.Decide(DecisionAprobar)
	if err != nil || got != GerenciaAprobado {
		t.Fatalf("expected aprobado, got %s (%v)", got, err)
	}
	if EstadoGerencia("en proceso").Valid() {
		t.Fatalf("management status has no en proceso value")
	}
}

func TestEstadoComprasSeen(t *testing.T) {
	if got := ComprasPendiente.Seen(); got != ComprasEnProceso {
		t.Fatalf("expected en proceso, got %s", got)
	}
	for _, e := range []EstadoCompras{ComprasAprobado, ComprasRechazado, ComprasEnProceso} {
		if got := e.Seen(); got != e {
			t.Fatalf("Seen must not change %s, got %s", e, got)
		}
	}
}

func TestPedidoPending(t *testing.T) {
	p := &CpPedido{EstadoCompras: ComprasPendiente, EstadoGerencia: GerenciaPendiente}
	if !p.Pending() {
		t.Fatalf("new pedido should be pending")
	}
	p.EstadoCompras = ComprasEnProceso
	if p.Pending() {
		t.Fatalf("pedido in process is not pending")
	}
	p.EstadoCompras = ComprasPendiente
	p.EstadoGerencia = GerenciaAprobado
	if p.Pending() {
		t.Fatalf("pedido approved by management is not pending")
	}
}

func TestApplyReviewWritesStageFields(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &CpPedido{EstadoCompras: ComprasPendiente, EstadoGerencia: GerenciaPendiente}

	prev, err := p.ApplyReview(Review{
		Etapa: EtapaCompras, Decision: DecisionAprobar, UserID: 7,
		Firma: "firmas_pedidos/compras_1.png", Motivo: "ok", At: at,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prev != "" {
		t.Fatalf("expected no replaced signature, got %q", prev)
	}
	if p.EstadoCompras != ComprasAprobado || p.EstadoGerencia != GerenciaPendiente {
		t.Fatalf("unexpected statuses %s/%s", p.EstadoCompras, p.EstadoGerencia)
	}
	if p.ProcesoCompraID == nil || *p.ProcesoCompraID != 7 {
		t.Fatalf("expected reviewer 7, got %v", p.ProcesoCompraID)
	}
	if p.FechaRespuestaCompra == nil || !p.FechaRespuestaCompra.Equal(at) {
		t.Fatalf("expected response date %v, got %v", at, p.FechaRespuestaCompra)
	}

	// A rejection overwrites the approval and hands back the old signature
	prev, err = p.ApplyReview(Review{Etapa: EtapaCompras, Decision: DecisionRechazar, UserID: 8, Motivo: "sin presupuesto", At: at})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prev != "firmas_pedidos/compras_1.png" {
		t.Fatalf("expected replaced signature, got %q", prev)
	}
	if p.EstadoCompras != ComprasRechazado || p.ProcesoCompraFirma != "" || p.MotivoCompras != "sin presupuesto" {
		t.Fatalf("rejection not applied: %+v", p)
	}

	if _, err := p.ApplyReview(Review{Etapa: EtapaElaborado, Decision: DecisionAprobar}); err == nil {
		t.Fatalf("expected error for a stage without review")
	}
}

func TestApplyReviewManagementKeepsSameSignature(t *testing.T) {
	p := &CpPedido{EstadoCompras: ComprasAprobado, EstadoGerencia: GerenciaPendiente, ResponsableAprobacionFirma: "firmas_pedidos/g.png"}
	prev, err := p.ApplyReview(Review{Etapa: EtapaGerencia, Decision: DecisionAprobar, UserID: 2, Firma: "firmas_pedidos/g.png", At: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prev != "" {
		t.Fatalf("same signature must not be reported as replaced, got %q", prev)
	}
	if p.EstadoGerencia != GerenciaAprobado {
		t.Fatalf("expected aprobado, got %s", p.EstadoGerencia)
	}
}

func TestStoragePath(t *testing.T) {
	p := StoragePath("firmas_pedidos/elaborado_1.png")
	if !p.Under("firmas_pedidos") || !p.Under("firmas_pedidos/") {
		t.Fatalf("expected path under firmas_pedidos")
	}
	if StoragePath("firmas_usuarios/1.png").Under("firmas_pedidos") {
		t.Fatalf("profile signature is not under firmas_pedidos")
	}
	if StoragePath("firmas_pedidos_old/x.png").Under("firmas_pedidos") {
		t.Fatalf("prefix match must stop at the folder boundary")
	}

	raw, err := json.Marshal(struct {
		Firma StoragePath `json:"firma"`
		Vacia StoragePath `json:"vacia"`
	}{Firma: p})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"firma":"storage/firmas_pedidos/elaborado_1.png","vacia":null}` {
		t.Fatalf("unexpected JSON %s", raw)
	}

	var back StoragePath
	if err := json.Unmarshal([]byte(`"storage/firmas_pedidos/elaborado_1.png"`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != p {
		t.Fatalf("expected %q, got %q", p, back)
	}
}

func TestConsecutivoNext(t *testing.T) {
	cases := []struct {
		name      string
		ultimo    int
		maxActual int
		want      int
	}{
		{"empty", 0, 0, 1},
		{"deleted pedidos are not reused", 12, 9, 13},
		{"rows imported ahead of the counter", 4, 20, 21},
		{"in sync", 7, 7, 8},
	}
	for _, tc := range cases {
		if got := (Consecutivo{Nombre: SecuenciaPedidos, Ultimo: tc.ultimo}).Next(tc.maxActual); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}
