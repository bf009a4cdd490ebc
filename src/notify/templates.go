package notify

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

var funcs = template.FuncMap{
	"money": Money,
	"date":  func(v any) string { return formatDate(v) },
}

var templates = template.Must(template.New("mail").Funcs(funcs).Parse(`
{{define "order_confirmation"}}
<p>Hi {{.Order.CustomerName}},</p>
<p>Thank you for your order <strong>{{.Order.Reference}}</strong> for {{.Event.Title}}.</p>
<table>
{{range .Order.Items}}<tr><td>{{if .Category}}{{.Category.Name}}{{end}}</td><td>{{.Quantity}} x {{money .UnitPriceCents $.Order.Currency}}</td></tr>
{{end}}<tr><td>Service fee</td><td>{{money .Order.FeesCents .Order.Currency}}</td></tr>
<tr><td>Total</td><td>{{money .Order.TotalCents .Order.Currency}}</td></tr>
</table>
<p>{{.Event.Venue}}, {{date .Event.StartsAt}}</p>
{{end}}

{{define "payment_reminder"}}
<p>Hi {{.Order.CustomerName}},</p>
<p>Your order <strong>{{.Order.Reference}}</strong> for {{.Event.Title}} is waiting for payment of {{money .Order.TotalCents .Order.Currency}}.</p>
<p>The tickets are held for you until {{date .Order.ExpiresAt}}. After that the order expires and the tickets are released.</p>
<p><a href="{{.Link}}">Complete payment</a></p>
{{end}}

{{define "event_reminder"}}
<p>Hi {{.Order.CustomerName}},</p>
<p>{{.Event.Title}} starts {{date .Event.StartsAt}} at {{.Event.Venue}}.</p>
<p>You have {{len .Tickets}} ticket(s) on order {{.Order.Reference}}. Have the QR codes ready at the gate.</p>
<p><a href="{{.Link}}">View my tickets</a></p>
{{end}}

{{define "ticket_delivery"}}
<p>Hi {{.Order.CustomerName}},</p>
<p>Here are your tickets for {{.Event.Title}}.</p>
<ul>
{{range .Tickets}}<li>{{.Number}}: <code>{{.Code}}</code>{{if .Category}} ({{.Category.Name}}){{end}}</li>
{{end}}</ul>
<p><a href="{{.Link}}">Open tickets</a></p>
{{end}}
`))

// Money renders minor units as "IDR 1,500.00".
func Money(cents int64, currency string) string {
	amount := decimal.New(cents, -2).StringFixed(2)
	whole, frac, _ := strings.Cut(amount, ".")
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return strings.ToUpper(currency) + " " + out
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
