package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/flower_shop/internal/models"
)

// FormatBRL renders 1234.5 as "R$ 1.234,50".
func FormatBRL(v decimal.Decimal) string {
	s := v.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "R$ " + b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

func formatCEP(cep string) string {
	if len(cep) != 8 {
		return cep
	}
	return cep[:5] + "-" + cep[5:]
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// BuildSummary renders the plain-text order message sent through the chat handoff.
func BuildSummary(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Novo pedido %s*\n\n", o.OrderNumber)

	b.WriteString("*Cliente*\n")
	fmt.Fprintf(&b, "Nome: %s\n", o.CustomerName)
	fmt.Fprintf(&b, "Telefone: %s\n", o.CustomerPhone)
	fmt.Fprintf(&b, "E-mail: %s\n\n", orDash(o.CustomerEmail))

	b.WriteString("*Entrega*\n")
	fmt.Fprintf(&b, "Destinatário: %s\n", o.RecipientName)
	if o.RecipientPhone != "" {
		fmt.Fprintf(&b, "Telefone: %s\n", o.RecipientPhone)
	}
	if o.IsGift {
		fmt.Fprintf(&b, "Presenteado: %s (%s)\n", o.PresentedName, o.PresentedPhone)
	}
	addr := o.Street + ", " + o.Number
	if o.Complement != "" {
		addr += " - " + o.Complement
	}
	fmt.Fprintf(&b, "Endereço: %s\n", addr)
	fmt.Fprintf(&b, "Bairro: %s\n", o.Neighborhood)
	fmt.Fprintf(&b, "Cidade: %s - %s\n", o.City, o.State)
	fmt.Fprintf(&b, "CEP: %s\n", formatCEP(o.PostalCode))
	if o.DeliveryDate != nil {
		fmt.Fprintf(&b, "Data: %s\n", o.DeliveryDate.Format("02/01/2006"))
	}
	if o.DeliveryTimeSlot != nil {
		fmt.Fprintf(&b, "Horário: %s (%s - %s)\n", o.DeliveryTimeSlot.Name, o.DeliveryTimeSlot.StartTime, o.DeliveryTimeSlot.EndTime)
	}

	if strings.TrimSpace(o.PersonalizationText) != "" {
		fmt.Fprintf(&b, "\n*Mensagem do cartão*\n%s\n", o.PersonalizationText)
	}

	b.WriteString("\n*Itens*\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%dx %s - %s\n", it.Quantity, it.ProductTitle, FormatBRL(it.LineTotal()))
	}
	fmt.Fprintf(&b, "\n*Total: %s*", FormatBRL(o.TotalPrice))
	return b.String()
}

// ChatLink builds a click-to-chat URL pre-filled with text. Only digits of the phone are kept.
func ChatLink(base, phone, text string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	q := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return base + digits.String() + "?text=" + q
}
