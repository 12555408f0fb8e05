package worker

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/mudancasja/leadqueue/internal/storage"
)

var (
	leadTemplate = template.Must(template.New("lead").Funcs(template.FuncMap{"brl": formatBRL}).Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Novo orçamento de mudança</h2>
  <p>Olá, {{.Listing.DisplayName}}. Um cliente pediu orçamento para uma mudança atendida pela sua campanha.</p>
  <table cellpadding="4">
    <tr><td><strong>Cliente</strong></td><td>{{.Lead.CustomerName}}</td></tr>
    <tr><td><strong>E-mail</strong></td><td>{{.Lead.CustomerEmail}}</td></tr>
    <tr><td><strong>Telefone</strong></td><td>{{.Lead.CustomerPhone}}</td></tr>
    <tr><td><strong>Origem</strong></td><td>{{.Lead.OriginCity}}/{{.Lead.OriginState}}</td></tr>
    <tr><td><strong>Destino</strong></td><td>{{.Lead.DestinationCity}}/{{.Lead.DestinationState}}</td></tr>
    <tr><td><strong>Imóvel</strong></td><td>{{.Lead.PropertyType}}{{if .Lead.Rooms}}, {{.Lead.Rooms}} cômodos{{end}}</td></tr>
    {{if .Lead.DistanceKm}}<tr><td><strong>Distância</strong></td><td>{{printf "%.0f" .Lead.DistanceKm}} km</td></tr>{{end}}
    {{if .Lead.PriceMax}}<tr><td><strong>Faixa estimada</strong></td><td>{{brl .Lead.PriceMin}} a {{brl .Lead.PriceMax}}</td></tr>{{end}}
  </table>
  <p>Responda diretamente a este e-mail para falar com o cliente.</p>
</body>
</html>`))

	reminderTemplate = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Sua campanha está perto do vencimento</h2>
  <p>Olá, {{.Listing.DisplayName}}.</p>
  <p>A campanha do seu hotsite em {{.Listing.City}}/{{.Listing.State}} vence {{.EndDate}}.
  Renove para continuar recebendo pedidos de orçamento.</p>
</body>
</html>`))
)

type leadView struct {
	Lead    storage.Lead
	Listing storage.Listing
}

type reminderView struct {
	Listing storage.Listing
	EndDate string
}

func renderLead(lead storage.Lead, listing storage.Listing) (subject, html, text string, err error) {
	var buf bytes.Buffer
	if err := leadTemplate.Execute(&buf, leadView{Lead: lead, Listing: listing}); err != nil {
		return "", "", "", fmt.Errorf("render lead email: %w", err)
	}
	subject = fmt.Sprintf("Novo orçamento: %s/%s para %s/%s",
		lead.OriginCity, lead.OriginState, lead.DestinationCity, lead.DestinationState)
	text = fmt.Sprintf("Cliente: %s\nE-mail: %s\nTelefone: %s\nOrigem: %s/%s\nDestino: %s/%s\n",
		lead.CustomerName, lead.CustomerEmail, lead.CustomerPhone,
		lead.OriginCity, lead.OriginState, lead.DestinationCity, lead.DestinationState)
	return subject, buf.String(), text, nil
}

func renderReminder(campaign storage.Campaign, listing storage.Listing) (subject, html, text string, err error) {
	end := "em breve"
	if campaign.EndDate != nil {
		end = "em " + campaign.EndDate.Format("02/01/2006")
	}
	var buf bytes.Buffer
	if err := reminderTemplate.Execute(&buf, reminderView{Listing: listing, EndDate: end}); err != nil {
		return "", "", "", fmt.Errorf("render reminder email: %w", err)
	}
	subject = "Sua campanha vence " + end
	text = fmt.Sprintf("A campanha de %s vence %s. Renove para continuar recebendo orçamentos.\n", listing.DisplayName, end)
	return subject, buf.String(), text, nil
}

// formatBRL renders v as "R$ 1.234,56".
func formatBRL(v float64) string {
	cents := int64(v*100 + 0.5)
	whole, frac := cents/100, cents%100
	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("R$ %s,%02d", b.String(), frac)
}
