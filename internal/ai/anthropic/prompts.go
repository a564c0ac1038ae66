package anthropic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/artuino0/personal-finance-app-sub000/internal/ai"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// promptLocale is the locale of the users and of the generated insights
var promptLocale = language.MustParse("es-MX")

// buildFinancesPrompt creates the analysis prompt for one period of category totals
func buildFinancesPrompt(params ai.FinancesParams) string {
	p := message.NewPrinter(promptLocale)
	currency := params.Currency
	if currency == "" {
		currency = "MXN"
	}

	var b strings.Builder
	b.WriteString(`Eres un asesor de finanzas personales. Analiza los ingresos y gastos del usuario en el periodo indicado y ofrece recomendaciones concretas para mejorar su salud financiera.

**Periodo:** `)
	b.WriteString(p.Sprintf("%s al %s", params.PeriodStart.Format("02/01/2006"), params.PeriodEnd.Format("02/01/2006")))
	b.WriteString("\n\n")

	income, expense := params.Totals()
	b.WriteString(p.Sprintf("**Ingresos totales:** %s\n", formatMoney(p, income, currency)))
	b.WriteString(p.Sprintf("**Gastos totales:** %s\n", formatMoney(p, expense, currency)))
	b.WriteString(p.Sprintf("**Balance:** %s\n\n", formatMoney(p, income-expense, currency)))

	categories := make([]ai.CategoryTotal, len(params.Categories))
	copy(categories, params.Categories)
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Type != categories[j].Type {
			return categories[i].Type < categories[j].Type
		}
		return categories[i].TotalCents > categories[j].TotalCents
	})

	if len(categories) == 0 {
		b.WriteString("No hay movimientos registrados en el periodo.\n")
	} else {
		b.WriteString("**Totales por categoría:**\n")
		for _, c := range categories {
			kind := "Gasto"
			if c.Type == ai.TransactionIncome {
				kind = "Ingreso"
			}
			b.WriteString(p.Sprintf("- %s | %s: %s (%d movimientos)\n", kind, c.Category, formatMoney(p, c.TotalCents, currency), c.Count))
		}
	}

	b.WriteString(`
**Instrucciones:**
- Responde en español de México
- Basa cada recomendación en los datos mostrados
- Señala como alerta cualquier categoría de gasto desproporcionada o un balance negativo
- Asigna prioridad "high", "medium" o "low" a cada recomendación

**Formato de respuesta:**
Devuelve un objeto JSON con esta estructura exacta:

{
  "summary": "Resumen breve del periodo",
  "recommendations": [
    {
      "title": "Título corto",
      "description": "Acción concreta y su impacto esperado",
      "priority": "high|medium|low"
    }
  ],
  "alerts": ["Alerta breve"]
}

**Importante:** Devuelve SOLO el objeto JSON, sin texto adicional.`)

	return b.String()
}

// formatMoney renders minor units with locale digit grouping, e.g. "$1,234.50 MXN"
func formatMoney(p *message.Printer, cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%s %s", sign, p.Sprintf("%.2f", float64(cents)/100), currency)
}
