package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Printer renders localized ledger notes and notification copy.
type Printer struct {
	printer *message.Printer
}

var translations = catalog.NewBuilder(catalog.Fallback(language.English))

func init() {
	set := func(tag language.Tag, key, msg string) {
		// catalog.Builder only errors on malformed patterns, which are
		// all literals here.
		_ = translations.SetString(tag, key, msg)
	}

	set(language.English, "ledger.note.balance_topup", "Account balance top-up for order %s")
	set(language.English, "ledger.note.credit_topup", "Credit point purchase for order %s")
	set(language.English, "ledger.note.reservation_hold", "Deposit held for reservation %s")
	set(language.English, "ledger.note.reservation_prepaid", "Prepaid credit for reservation %s")
	set(language.English, "notification.payment_received.title", "Payment received")
	set(language.English, "notification.payment_received.body", "Order %s was paid: %s %s")
	set(language.English, "notification.reservation_ready.title", "Reservation ready")
	set(language.English, "notification.balance_topup.title", "Balance topped up")
	set(language.English, "notification.credit_topup.title", "Credit points added")

	set(language.Spanish, "ledger.note.balance_topup", "Recarga de saldo para el pedido %s")
	set(language.Spanish, "ledger.note.credit_topup", "Compra de puntos para el pedido %s")
	set(language.Spanish, "ledger.note.reservation_hold", "Depósito retenido para la reserva %s")
	set(language.Spanish, "ledger.note.reservation_prepaid", "Crédito prepagado para la reserva %s")
	set(language.Spanish, "notification.payment_received.title", "Pago recibido")
	set(language.Spanish, "notification.payment_received.body", "El pedido %s fue pagado: %s %s")
	set(language.Spanish, "notification.reservation_ready.title", "Reserva lista")
	set(language.Spanish, "notification.balance_topup.title", "Saldo recargado")
	set(language.Spanish, "notification.credit_topup.title", "Puntos de crédito añadidos")
}

// New builds a printer for the requested locale, falling back to English.
func New(locale string) *Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Printer{printer: message.NewPrinter(tag, message.Catalog(translations))}
}

// T renders the message registered under key with the given arguments.
func (p *Printer) T(key string, args ...interface{}) string {
	if p == nil || p.printer == nil {
		return key
	}
	return p.printer.Sprintf(key, args...)
}
