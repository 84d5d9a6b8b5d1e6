package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// Formatter renders an order as a Telegram HTML message.
type Formatter struct {
	ShopName string
	Currency string
	Location *time.Location
}

func (f Formatter) Format(o models.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>🛒 New order #%d · %s</b>\n\n", o.ID, esc(f.ShopName))

	b.WriteString("<b>📦 Items:</b>\n")
	for i, item := range o.Items {
		price := decimal.NewFromFloat(item.Price)
		line := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		fmt.Fprintf(&b, "%d. <b>%s</b>\n", i+1, esc(item.Name))
		fmt.Fprintf(&b, "   Quantity: %d\n", item.Quantity)
		fmt.Fprintf(&b, "   Unit price: %s\n", f.money(price))
		fmt.Fprintf(&b, "   Subtotal: %s\n\n", f.money(line))
	}

	fmt.Fprintf(&b, "<b>💰 Total: %s</b>\n\n", f.money(decimal.NewFromFloat(o.Total)))

	b.WriteString("<b>👤 Customer:</b>\n")
	fmt.Fprintf(&b, "Name: %s\n", esc(o.CustomerName))
	fmt.Fprintf(&b, "Phone: %s\n", esc(o.CustomerPhone))
	if o.CustomerEmail != "" {
		fmt.Fprintf(&b, "Email: %s\n", esc(o.CustomerEmail))
	}
	if o.CustomerAddress != "" {
		fmt.Fprintf(&b, "Address: %s\n", esc(o.CustomerAddress))
	}
	if o.CustomerComment != "" {
		fmt.Fprintf(&b, "Comment: %s\n", esc(o.CustomerComment))
	}

	placed := o.CreatedAt
	if f.Location != nil {
		placed = placed.In(f.Location)
	}
	fmt.Fprintf(&b, "\n📅 %s", placed.Format("02.01.2006 15:04"))
	if o.Source != "" {
		fmt.Fprintf(&b, "\n🌐 <i>Source: %s</i>", esc(o.Source))
	}
	return b.String()
}

func (f Formatter) money(d decimal.Decimal) string {
	if f.Currency == "" {
		return d.String()
	}
	return d.String() + " " + esc(f.Currency)
}

// esc escapes & < > " and ' for Telegram HTML.
func esc(s string) string {
	return html.EscapeString(s)
}
