package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

// ComposeData carries the per-client values substituted into a template.
type ComposeData struct {
	Name     string
	Amount   float64
	DueDate  time.Time
	DaysLate int
}

// RenderTemplate performs literal placeholder substitution. There is no
// templating engine and no escaping: {{nome}}, {{valor}},
// {{data_vencimento}} and {{dias_atraso}} are replaced by direct substring
// replacement, so template authors must avoid conflicting substrings.
func RenderTemplate(body string, data ComposeData) string {
	daysLate := data.DaysLate
	if daysLate < 0 {
		daysLate = 0
	}

	r := strings.NewReplacer(
		"{{nome}}", data.Name,
		"{{valor}}", fmt.Sprintf("%.2f", data.Amount),
		"{{data_vencimento}}", data.DueDate.Format("02/01/2006"),
		"{{dias_atraso}}", strconv.Itoa(daysLate),
	)
	return r.Replace(body)
}

// ComposeFor renders the template for one client at the given reference date.
func ComposeFor(tpl *domain.MessageTemplate, c domain.Client, now time.Time) string {
	return RenderTemplate(tpl.Body, ComposeData{
		Name:     c.Name,
		Amount:   c.DebtAmount,
		DueDate:  c.DueDate,
		DaysLate: c.DaysLate(now),
	})
}
