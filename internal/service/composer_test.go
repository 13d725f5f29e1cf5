package service

import (
	"testing"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

func TestRenderTemplate_AllPlaceholders(t *testing.T) {
	t.Parallel()

	body := "Olá {{nome}}, sua dívida de R$ {{valor}} venceu em {{data_vencimento}} ({{dias_atraso}} dias de atraso)."
	got := RenderTemplate(body, ComposeData{
		Name:     "Maria Silva",
		Amount:   1234.5,
		DueDate:  time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		DaysLate: 7,
	})

	want := "Olá Maria Silva, sua dívida de R$ 1234.50 venceu em 24/08/2026 (7 dias de atraso)."
	if got != want {
		t.Fatalf("rendered mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestRenderTemplate_NegativeDaysClampedToZero(t *testing.T) {
	t.Parallel()

	got := RenderTemplate("{{dias_atraso}}", ComposeData{DaysLate: -3})
	if got != "0" {
		t.Fatalf("expected 0 for pre-due clients, got %s", got)
	}
}

func TestRenderTemplate_UnknownPlaceholderLeftIntact(t *testing.T) {
	t.Parallel()

	got := RenderTemplate("oi {{nome}} {{cpf}}", ComposeData{Name: "Ana"})
	if got != "oi Ana {{cpf}}" {
		t.Fatalf("unknown placeholders must be left as-is, got %s", got)
	}
}

func TestComposeFor_UsesClientFields(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	c := domain.Client{
		Name:       "João",
		DebtAmount: 50,
		DueDate:    time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	}
	tpl := &domain.MessageTemplate{Body: "{{nome}}: {{valor}} / {{dias_atraso}}"}

	got := ComposeFor(tpl, c, now)
	if got != "João: 50.00 / 1" {
		t.Fatalf("unexpected render: %s", got)
	}
}

func TestDaysLate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)

	cases := []struct {
		due  time.Time
		want int
	}{
		{time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), -3},
		{time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), 7},
	}
	for _, tc := range cases {
		c := domain.Client{DueDate: tc.due}
		if got := c.DaysLate(now); got != tc.want {
			t.Errorf("DaysLate(due=%s) = %d, want %d", tc.due.Format("2006-01-02"), got, tc.want)
		}
	}
}
