package rest

import (
	"bytes"
	"net/http/httptest"
	"testing"
)

func TestValidatePhone(t *testing.T) {
	t.Parallel()

	cases := []struct {
		phone string
		ok    bool
	}{
		{"+5511999990001", true},  // + and 13 digits
		{"5511999990001", false},  // missing +
		{"+551199999000", false},  // 12 digits
		{"+55119999900012", false}, // 14 digits
		{"+55 11 99999-0001", false},
		{"+5511abc990001", false},
		{"", false},
	}
	for _, tc := range cases {
		err := validatePhone(tc.phone)
		if (err == nil) != tc.ok {
			t.Errorf("validatePhone(%q) = %v, want ok=%v", tc.phone, err, tc.ok)
		}
	}
}

func TestValidateNotifyRequest_AccumulatesDetails(t *testing.T) {
	t.Parallel()

	body := bytes.NewBufferString(`{"phone":"bad","name":"","flow":""}`)
	r := httptest.NewRequest("POST", "/api/notify", body)

	req, details := ValidateNotifyRequest(r)
	if req != nil {
		t.Fatal("expected nil request on validation failure")
	}
	if len(details) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(details), details)
	}
}

func TestValidateNotifyRequest_Valid(t *testing.T) {
	t.Parallel()

	body := bytes.NewBufferString(`{"phone":"+5511999990001","name":"Maria","flow":"cobranca","customFields":{"valor_divida":10}}`)
	r := httptest.NewRequest("POST", "/api/notify", body)

	req, details := ValidateNotifyRequest(r)
	if details != nil {
		t.Fatalf("unexpected violations: %v", details)
	}
	if req.Phone != "+5511999990001" || req.Flow != "cobranca" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.CustomFields["valor_divida"] != float64(10) {
		t.Fatalf("custom fields not decoded: %+v", req.CustomFields)
	}
}

func TestValidateNotifyRequest_BadJSON(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("POST", "/api/notify", bytes.NewBufferString(`{`))
	if _, details := ValidateNotifyRequest(r); len(details) != 1 {
		t.Fatalf("expected single body violation, got %v", details)
	}
}

func TestValidateClientRequest(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		body := bytes.NewBufferString(`{"name":"Maria","phone":"+5511999990001","debt_amount":100.5,"due_date":"2026-09-05"}`)
		c, err := ValidateClientRequest(httptest.NewRequest("POST", "/api/clients", body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Status != "pending" {
			t.Fatalf("status should default to pending, got %s", c.Status)
		}
	})

	t.Run("bad due date", func(t *testing.T) {
		body := bytes.NewBufferString(`{"name":"Maria","phone":"+5511999990001","debt_amount":1,"due_date":"05/09/2026"}`)
		if _, err := ValidateClientRequest(httptest.NewRequest("POST", "/api/clients", body)); err == nil {
			t.Fatal("expected due_date error")
		}
	})

	t.Run("negative amount", func(t *testing.T) {
		body := bytes.NewBufferString(`{"name":"Maria","phone":"+5511999990001","debt_amount":-1,"due_date":"2026-09-05"}`)
		if _, err := ValidateClientRequest(httptest.NewRequest("POST", "/api/clients", body)); err == nil {
			t.Fatal("expected debt_amount error")
		}
	})
}

func TestValidateTemplateRequest(t *testing.T) {
	t.Parallel()

	t.Run("valid defaults active", func(t *testing.T) {
		body := bytes.NewBufferString(`{"bucket":"due_today","name":"cobranca","body":"oi {{nome}}"}`)
		tpl, err := ValidateTemplateRequest(httptest.NewRequest("POST", "/api/templates", body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !tpl.Active {
			t.Fatal("active should default to true")
		}
	})

	t.Run("unknown bucket", func(t *testing.T) {
		body := bytes.NewBufferString(`{"bucket":"overdue_2d","name":"x","body":"y"}`)
		if _, err := ValidateTemplateRequest(httptest.NewRequest("POST", "/api/templates", body)); err == nil {
			t.Fatal("expected bucket error")
		}
	})
}
