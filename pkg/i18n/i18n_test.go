package i18n

import (
	"strings"
	"testing"
)

func TestEnglishCatalog(t *testing.T) {
	p := New("en")
	got := p.T("ledger.note.balance_topup", "ord-1")
	if !strings.Contains(got, "ord-1") {
		t.Fatalf("expected order id in note, got %q", got)
	}
	if !strings.Contains(got, "top-up") {
		t.Fatalf("unexpected english note %q", got)
	}
}

func TestSpanishCatalog(t *testing.T) {
	p := New("es")
	got := p.T("notification.payment_received.title")
	if got != "Pago recibido" {
		t.Fatalf("unexpected spanish title %q", got)
	}
}

func TestUnknownLocaleFallsBack(t *testing.T) {
	p := New("not-a-locale")
	got := p.T("notification.payment_received.title")
	if got != "Payment received" {
		t.Fatalf("expected english fallback, got %q", got)
	}
}
