package checkout

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/flower_shop/internal/models"
)

func TestBuildSummary(t *testing.T) {
	date := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	o := &models.Order{
		OrderNumber:         "FL-123456",
		CustomerName:        "Maria Silva",
		CustomerPhone:       "(11) 91234-5678",
		RecipientName:       "Joana",
		IsGift:              true,
		PresentedName:       "Ana",
		PresentedPhone:      "(11) 98888-7777",
		PostalCode:          "01001000",
		Street:              "Praça da Sé",
		Number:              "100",
		Complement:          "Apto 2",
		Neighborhood:        "Sé",
		City:                "São Paulo",
		State:               "SP",
		DeliveryDate:        &date,
		DeliveryTimeSlot:    &models.DeliveryTimeSlot{Name: "Manhã", StartTime: "08:00", EndTime: "12:00"},
		PersonalizationText: "Feliz Natal!",
		TotalPrice:          decimal.RequireFromString("184.80"),
		Items: []models.OrderItem{
			{ProductTitle: "Buquê de Rosas", UnitPrice: decimal.RequireFromString("89.90"), Quantity: 2},
			{ProductTitle: "Cartão", UnitPrice: decimal.RequireFromString("5"), Quantity: 1},
		},
	}

	want := "*Novo pedido FL-123456*\n\n" +
		"*Cliente*\n" +
		"Nome: Maria Silva\n" +
		"Telefone: (11) 91234-5678\n" +
		"E-mail: -\n\n" +
		"*Entrega*\n" +
		"Destinatário: Joana\n" +
		"Presenteado: Ana ((11) 98888-7777)\n" +
		"Endereço: Praça da Sé, 100 - Apto 2\n" +
		"Bairro: Sé\n" +
		"Cidade: São Paulo - SP\n" +
		"CEP: 01001-000\n" +
		"Data: 24/12/2026\n" +
		"Horário: Manhã (08:00 - 12:00)\n" +
		"\n*Mensagem do cartão*\nFeliz Natal!\n" +
		"\n*Itens*\n" +
		"2x Buquê de Rosas - R$ 179,80\n" +
		"1x Cartão - R$ 5,00\n" +
		"\n*Total: R$ 184,80*"

	assert.Equal(t, want, BuildSummary(o))
}
