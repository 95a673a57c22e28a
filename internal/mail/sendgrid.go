package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/pullum327/Reactorder/internal/order"
)

// SendGridSender delivers order confirmations through SendGrid. It
// implements order.Notifier.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	return &SendGridSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *SendGridSender) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	from := sgmail.NewEmail(s.fromName, s.fromEmail)
	to := sgmail.NewEmail(o.Buyer.Name, o.Buyer.Email)
	subject := fmt.Sprintf("Your order is confirmed: %s", o.ID)

	msg := sgmail.NewSingleEmail(from, subject, to, plainBody(o), htmlBody(o))

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func plainBody(o *order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order!\n\nOrder ID: %s\n\n", o.ID)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%s x%d @ $%.2f\n", it.Name, it.Quantity, it.UnitPrice)
	}
	fmt.Fprintf(&b, "\nTotal: $%.2f\n", o.Total)
	return b.String()
}

func htmlBody(o *order.Order) string {
	var rows strings.Builder
	for _, it := range o.Items {
		fmt.Fprintf(&rows, `<tr>
      <td style="padding:8px;border-bottom:1px solid #eee">%s</td>
      <td style="padding:8px;border-bottom:1px solid #eee">%d</td>
      <td style="padding:8px;border-bottom:1px solid #eee">$%.2f</td>
    </tr>`, it.Name, it.Quantity, it.UnitPrice)
	}

	return fmt.Sprintf(`
  <div style="font-family:system-ui,-apple-system,Segoe UI,Roboto,Arial">
    <h2>Thank you for your order!</h2>
    <p>Order ID: <b>%s</b></p>
    <h3>Shipping to</h3>
    <p>%s (%s / %s)<br/>%s</p>
    <h3>Items</h3>
    <table cellpadding="0" cellspacing="0" style="border-collapse:collapse;width:100%%;background:#fff">
      <thead><tr>
        <th align="left" style="padding:8px;border-bottom:2px solid #ddd">Name</th>
        <th align="left" style="padding:8px;border-bottom:2px solid #ddd">Qty</th>
        <th align="left" style="padding:8px;border-bottom:2px solid #ddd">Unit price</th>
      </tr></thead>
      <tbody>%s</tbody>
    </table>
    <p style="margin-top:12px">Total: <b>$%.2f</b></p>
  </div>`, o.ID, o.Buyer.Name, o.Buyer.Email, o.Buyer.Phone, o.Buyer.Address, rows.String(), o.Total)
}
