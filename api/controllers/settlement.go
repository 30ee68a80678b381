package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lucasmerida/storely-backend/api/middleware"
	"github.com/lucasmerida/storely-backend/api/responses"
	"github.com/lucasmerida/storely-backend/api/validators"
	"github.com/lucasmerida/storely-backend/internal/settlement"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
	"github.com/lucasmerida/storely-backend/pkg/logger"
	"github.com/lucasmerida/storely-backend/pkg/types"
)

type markOrderPaidRequest struct {
	PaymentMethodID *string `json:"paymentMethodId,omitempty" validate:"omitempty,uuid"`
	FiatRefill      *bool   `json:"fiatRefill,omitempty"`
	CreditRefill    *bool   `json:"creditRefill,omitempty"`
	RsvpID          *string `json:"rsvpId,omitempty" validate:"omitempty,uuid"`
}

// MarkOrderPaid confirms an order payment and settles its ledgers.
func MarkOrderPaid(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var req markOrderPaidRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := settlement.MarkOrderPaidInput{OrderID: orderID}

		if req.PaymentMethodID != nil {
			methodID, err := uuid.Parse(*req.PaymentMethodID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method id"))
				return
			}
			input.PaymentMethodID = &methodID
		}

		if req.FiatRefill != nil || req.CreditRefill != nil || req.RsvpID != nil {
			input.CheckoutAttributes = &types.CheckoutAttributes{
				FiatRefill:   req.FiatRefill,
				CreditRefill: req.CreditRefill,
				RsvpID:       req.RsvpID,
			}
		}

		if actor := strings.TrimSpace(middleware.UserIDFromContext(r.Context())); actor != "" {
			if actorID, err := uuid.Parse(actor); err == nil {
				input.ActorID = &actorID
			}
		}

		result, err := svc.MarkOrderPaid(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ProcessFiatTopUp settles a fiat refill order into the customer balance.
func ProcessFiatTopUp(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return topUpHandler(logg, func(r *http.Request, orderID uuid.UUID) (*settlement.TopUpResult, error) {
		if svc == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable")
		}
		return svc.ProcessFiatTopUp(r.Context(), orderID)
	})
}

// ProcessCreditTopUp settles a credit-point refill order.
func ProcessCreditTopUp(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return topUpHandler(logg, func(r *http.Request, orderID uuid.UUID) (*settlement.TopUpResult, error) {
		if svc == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable")
		}
		return svc.ProcessCreditTopUp(r.Context(), orderID)
	})
}

func topUpHandler(logg *logger.Logger, process func(*http.Request, uuid.UUID) (*settlement.TopUpResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		result, err := process(r, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ClassifyOrder reports how the settlement engine reads an order.
func ClassifyOrder(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		classification, err := svc.ClassifyOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, classification)
	}
}
