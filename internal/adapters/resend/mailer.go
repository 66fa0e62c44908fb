// Package resend sends shipment notices through the Resend HTTP API.
package resend

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/BosskingGM/office-gama/internal/core/ports"
	"github.com/go-resty/resty/v2"
)

var (
	_ ports.ShipmentMailer = (*Mailer)(nil)
	_ ports.ShipmentMailer = (*LogMailer)(nil)
)

var shippedTemplate = template.Must(template.New("shipped").Parse(`<h1>¡Tu pedido va en camino!</h1>
<p>Hola {{.FullName}}, tu pedido <strong>#{{.ShortID}}</strong> ya fue enviado.</p>
<table>
{{range .Lines}}<tr><td>{{.VariantID}}</td><td>x{{.Quantity}}</td><td>{{.Price}}</td></tr>
{{end}}</table>
<p><strong>Total:</strong> {{.Total}}</p>
<h3>Dirección de envío</h3>
<p>{{.FullName}}<br>{{.Address}}<br>{{.City}}, CP {{.PostalCode}}<br>Tel: {{.Phone}}</p>
`))

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type emailResponse struct {
	ID string `json:"id"`
}

type shippedView struct {
	ShortID    string
	FullName   string
	Address    string
	City       string
	PostalCode string
	Phone      string
	Total      string
	Lines      []shippedLine
}

type shippedLine struct {
	VariantID string
	Quantity  int
	Price     string
}

// Mailer implements ports.ShipmentMailer.
type Mailer struct {
	client   *resty.Client
	from     string
	currency string
}

// NewMailer creates a Resend client.
func NewMailer(baseURL, apiKey, from, currency string) *Mailer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &Mailer{client: client, from: from, currency: currency}
}

// SendShipped emails the buyer that their order left the warehouse.
// POST /emails
func (m *Mailer) SendShipped(ctx context.Context, order *domain.Order) error {
	subject, html, err := renderShipped(order, m.currency)
	if err != nil {
		return domain.NewServiceError(domain.ErrNotification, "failed to render email", "RENDER_ERROR")
	}

	var result emailResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(emailRequest{
			From:    m.from,
			To:      []string{order.BuyerEmail},
			Subject: subject,
			HTML:    html,
		}).
		SetResult(&result).
		Post("/emails")
	if err != nil {
		return domain.NewServiceError(domain.ErrNotification, "request failed: "+err.Error(), "HTTP_ERROR")
	}
	if resp.IsError() {
		return domain.NewServiceError(domain.ErrNotification,
			fmt.Sprintf("resend returned status %d: %s", resp.StatusCode(), resp.String()), "MAIL_PROVIDER_ERROR")
	}

	log.Printf("Shipment email %s queued for order %s", result.ID, order.ID)
	return nil
}

// LogMailer writes the notice to the log instead of sending it. Used when no
// mail provider is configured.
type LogMailer struct {
	currency string
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(currency string) *LogMailer {
	return &LogMailer{currency: currency}
}

func (l *LogMailer) SendShipped(_ context.Context, order *domain.Order) error {
	subject, _, err := renderShipped(order, l.currency)
	if err != nil {
		return err
	}
	log.Printf("[MAIL] to=%s subject=%q (delivery disabled)", order.BuyerEmail, subject)
	return nil
}

func renderShipped(order *domain.Order, currency string) (subject, html string, err error) {
	view := shippedView{
		ShortID:    shortID(order.ID),
		FullName:   order.FullName,
		Address:    order.Address,
		City:       order.City,
		PostalCode: order.PostalCode,
		Phone:      order.Phone,
		Total:      domain.FormatMoney(order.Total, currency),
	}
	for _, l := range order.Lines {
		view.Lines = append(view.Lines, shippedLine{
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			Price:     domain.FormatMoney(l.UnitPrice, currency),
		})
	}

	var buf bytes.Buffer
	if err := shippedTemplate.Execute(&buf, view); err != nil {
		return "", "", err
	}
	return "Tu pedido #" + view.ShortID + " fue enviado", buf.String(), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
