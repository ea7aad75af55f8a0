package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/logging"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	tplPedidoCreado    = "pedido_creado.html"
	tplPedidoAprobado  = "pedido_aprobado.html"
	tplPedidoRechazado = "pedido_rechazado.html"
)

// Notifier renders and sends workflow emails. Every failure is logged and
// swallowed, callers never see an error.
type Notifier struct {
	mailer    Mailer
	templates map[string]*template.Template
}

func NewNotifier(mailer Mailer) (*Notifier, error) {
	funcs := template.FuncMap{"inc": func(i int) int { return i + 1 }}
	templates := make(map[string]*template.Template)
	for _, name := range []string{tplPedidoCreado, tplPedidoAprobado, tplPedidoRechazado} {
		tpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		templates[name] = tpl
	}
	return &Notifier{mailer: mailer, templates: templates}, nil
}

type pedidoMail struct {
	Destinatario  string
	Consecutivo   int
	Sede          string
	Proceso       string
	TipoSolicitud string
	ElaboradoPor  string
	Fecha         string
	Observacion   string
	Etapa         string
	Revisor       string
	Motivo        string
	Items         []model.CpItemPedido
}

func newPedidoMail(p *model.CpPedido) pedidoMail {
	data := pedidoMail{
		Consecutivo: p.Consecutivo,
		Fecha:       p.FechaSolicitud.Format("2006-01-02"),
		Observacion: p.Observacion,
		Items:       p.Items,
	}
	if p.Sede != nil {
		data.Sede = p.Sede.Nombre
	}
	if p.ProcesoSolicitante != nil {
		data.Proceso = p.ProcesoSolicitante.Nombre
	}
	if p.TipoSolicitud != nil {
		data.TipoSolicitud = p.TipoSolicitud.Nombre
	}
	if p.ElaboradoPor != nil {
		data.ElaboradoPor = p.ElaboradoPor.Nombre
	}
	return data
}

func etapaLabel(etapa model.Etapa) string {
	switch etapa {
	case model.EtapaCompras:
		return "Compras"
	case model.EtapaGerencia:
		return "Gerencia"
	}
	return string(etapa)
}

// review returns the reviewer name and reason recorded for the stage
func review(p *model.CpPedido, etapa model.Etapa) (revisor, motivo string) {
	switch etapa {
	case model.EtapaCompras:
		if p.ProcesoCompra != nil {
			revisor = p.ProcesoCompra.Nombre
		}
		return revisor, p.MotivoCompras
	case model.EtapaGerencia:
		if p.ResponsableAprobacion != nil {
			revisor = p.ResponsableAprobacion.Nombre
		}
		return revisor, p.MotivoGerencia
	}
	return "", ""
}

// PedidoCreado tells every recipient that a new pedido awaits review
func (n *Notifier) PedidoCreado(ctx context.Context, p *model.CpPedido, recipients []model.User) {
	data := newPedidoMail(p)
	subject := fmt.Sprintf("Nuevo pedido de compra #%d", p.Consecutivo)
	for _, u := range recipients {
		if u.Correo == "" {
			continue
		}
		data.Destinatario = u.Nombre
		n.send(ctx, tplPedidoCreado, u.Correo, subject, data, p.ID)
	}
}

// PedidoAprobado tells the creator that a stage approved the pedido
func (n *Notifier) PedidoAprobado(ctx context.Context, p *model.CpPedido, etapa model.Etapa) {
	n.notifyCreator(ctx, tplPedidoAprobado, fmt.Sprintf("Pedido #%d aprobado por %s", p.Consecutivo, etapaLabel(etapa)), p, etapa)
}

// PedidoRechazado tells the creator that a stage rejected the pedido
func (n *Notifier) PedidoRechazado(ctx context.Context, p *model.CpPedido, etapa model.Etapa) {
	n.notifyCreator(ctx, tplPedidoRechazado, fmt.Sprintf("Pedido #%d rechazado por %s", p.Consecutivo, etapaLabel(etapa)), p, etapa)
}

func (n *Notifier) notifyCreator(ctx context.Context, tpl, subject string, p *model.CpPedido, etapa model.Etapa) {
	if p.CreadorPor == nil || p.CreadorPor.Correo == "" {
		logging.LogKV("warn", "pedido creator has no email", map[string]interface{}{"pedido_id": p.ID})
		return
	}
	data := newPedidoMail(p)
	data.Destinatario = p.CreadorPor.Nombre
	data.Etapa = etapaLabel(etapa)
	data.Revisor, data.Motivo = review(p, etapa)
	n.send(ctx, tpl, p.CreadorPor.Correo, subject, data, p.ID)
}

func (n *Notifier) send(ctx context.Context, tpl, to, subject string, data pedidoMail, pedidoID uint) {
	fields := map[string]interface{}{"template": tpl, "to": to, "pedido_id": pedidoID}

	defer func() {
		if r := recover(); r != nil {
			logging.LogKV("error", "notification panicked", map[string]interface{}{"template": tpl, "to": to, "panic": fmt.Sprint(r)})
		}
	}()

	var buf bytes.Buffer
	if err := n.templates[tpl].ExecuteTemplate(&buf, "layout", data); err != nil {
		logging.Error("failed to render notification", err, fields)
		return
	}
	if err := n.mailer.Send(ctx, Message{To: to, Subject: subject, HTML: buf.String()}); err != nil {
		logging.Error("failed to send notification", err, fields)
	}
}
