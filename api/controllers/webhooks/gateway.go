package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lucasmerida/storely-backend/api/responses"
	"github.com/lucasmerida/storely-backend/internal/settlement"
	"github.com/lucasmerida/storely-backend/pkg/config"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
	"github.com/lucasmerida/storely-backend/pkg/logger"
)

const (
	gatewayProvider        = "gateway"
	gatewaySignatureHeader = "X-Gateway-Signature"

	eventPaymentConfirmed = "payment.confirmed"
)

type replayGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	WebhookKey(provider, eventID string) string
	Del(ctx context.Context, keys ...string) error
}

type gatewayEvent struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Data    struct {
		OrderID         string  `json:"order_id"`
		PaymentMethodID *string `json:"payment_method_id,omitempty"`
	} `json:"data"`
}

// GatewayWebhook handles payment confirmations pushed by the external gateway.
// Delivery replays are filtered in redis; the ledger gates stay authoritative.
func GatewayWebhook(svc settlement.Service, cfg *config.Config, guard replayGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "replay guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(gatewaySignatureHeader)
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "gateway signature missing"))
			return
		}
		if !validateGatewaySignature(payload, cfg.Gateway.WebhookSecret, sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid gateway signature"))
			return
		}

		var event gatewayEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		eventID := strings.TrimSpace(event.EventID)
		if eventID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event id missing"))
			return
		}

		if event.Type != eventPaymentConfirmed {
			if logg != nil {
				logg.Info(ctx, fmt.Sprintf("gateway event %s ignored", event.Type))
			}
			responses.WriteSuccess(w, nil)
			return
		}

		orderID, err := uuid.Parse(event.Data.OrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		key := guard.WebhookKey(gatewayProvider, eventID)
		fresh, err := guard.SetNX(ctx, key, "1", cfg.Settlement.WebhookIdempotencyTTL)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook replay"))
			return
		}
		if !fresh {
			responses.WriteSuccess(w, nil)
			return
		}

		input := settlement.MarkOrderPaidInput{OrderID: orderID}
		if event.Data.PaymentMethodID != nil {
			if methodID, parseErr := uuid.Parse(*event.Data.PaymentMethodID); parseErr == nil {
				input.PaymentMethodID = &methodID
			}
		}

		result, err := svc.MarkOrderPaid(ctx, input)
		if err != nil {
			_ = guard.Del(ctx, key)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logCtx := logg.WithOrderID(ctx, orderID.String())
			if result.DispatchErr != nil {
				logg.Error(logCtx, "gateway settlement dispatched partially", result.DispatchErr)
			} else {
				logg.Info(logCtx, fmt.Sprintf("gateway event %s processed", eventID))
			}
		}
		responses.WriteSuccess(w, result)
	}
}

func validateGatewaySignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
