package bot

import (
	"strings"
	"testing"

	"dinein-telegram/models"
	"dinein-telegram/services"
)

func TestParseTablePayload(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{"table_5", "5"},
		{"table-12", "12"},
		{"7", "7"},
		{"", "1"},
		{"  table_3  ", "3"},
		{"table_", "1"},
	}
	for _, tt := range tests {
		if got := parseTablePayload(tt.payload, "1"); got != tt.want {
			t.Errorf("parseTablePayload(%q) = %q, want %q", tt.payload, got, tt.want)
		}
	}
}

func TestCartSummary(t *testing.T) {
	cart := services.NewCart()
	if got := cartSummary(cart); got != "" {
		t.Errorf("summary of empty cart = %q, want empty", got)
	}

	cart.Add(models.MenuItem{ID: "a", Name: "Tea", Price: 1000, Available: true})
	cart.Add(models.MenuItem{ID: "a", Name: "Tea", Price: 1000, Available: true})
	got := cartSummary(cart)
	if !strings.Contains(got, "Tea × 2 — ₹20") {
		t.Errorf("summary missing line total: %q", got)
	}
	if !strings.Contains(got, "Total: ₹20") {
		t.Errorf("summary missing total: %q", got)
	}
}
