package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lucasmerida/storely-backend/api/middleware"
	"github.com/lucasmerida/storely-backend/api/responses"
	"github.com/lucasmerida/storely-backend/internal/reservations"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
	"github.com/lucasmerida/storely-backend/pkg/logger"
)

// ReservationPrepaidPayment attempts to settle a reservation from prepaid credit.
func ReservationPrepaidPayment(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		rsvpID, err := uuid.Parse(chi.URLParam(r, "rsvpId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reservation id"))
			return
		}

		input := reservations.PrepaidPaymentInput{ReservationID: rsvpID}
		if actor := strings.TrimSpace(middleware.UserIDFromContext(r.Context())); actor != "" {
			if actorID, err := uuid.Parse(actor); err == nil {
				input.CreatorID = &actorID
			}
		}

		result, err := svc.ProcessPrepaidPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ReservationAfterPayment runs the HOLD settlement for a paid reservation order.
func ReservationAfterPayment(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		result, err := svc.ProcessAfterPayment(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ReservationDetail returns one reservation.
func ReservationDetail(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		rsvpID, err := uuid.Parse(chi.URLParam(r, "rsvpId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reservation id"))
			return
		}

		reservation, err := svc.GetByID(r.Context(), rsvpID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reservation)
	}
}
