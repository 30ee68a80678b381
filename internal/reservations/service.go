package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/internal/custbalance"
	"github.com/lucasmerida/storely-backend/internal/orders"
	"github.com/lucasmerida/storely-backend/internal/paymentmethods"
	"github.com/lucasmerida/storely-backend/internal/stores"
	"github.com/lucasmerida/storely-backend/internal/storeledger"
	"github.com/lucasmerida/storely-backend/pkg/db/models"
	"github.com/lucasmerida/storely-backend/pkg/enums"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
	"github.com/lucasmerida/storely-backend/pkg/i18n"
	"github.com/lucasmerida/storely-backend/pkg/logger"
	"github.com/lucasmerida/storely-backend/pkg/outbox"
	"github.com/lucasmerida/storely-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service settles reservation payments at both of their two moments:
// prepaid credit at creation time and the HOLD path after an order payment.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	ProcessPrepaidPayment(ctx context.Context, input PrepaidPaymentInput) (*PrepaidPaymentResult, error)
	ProcessAfterPayment(ctx context.Context, orderID uuid.UUID) (*AfterPaymentResult, error)
}

// PrepaidPaymentInput identifies a freshly created reservation to settle
// from the customer's prepaid credit.
type PrepaidPaymentInput struct {
	ReservationID uuid.UUID
	CreatorID     *uuid.UUID
}

// PrepaidPaymentResult reports what the prepaid attempt decided.
type PrepaidPaymentResult struct {
	Status      enums.ReservationStatus `json:"status"`
	AlreadyPaid bool                    `json:"alreadyPaid"`
	OrderID     *uuid.UUID              `json:"orderId,omitempty"`
}

// AfterPaymentResult reports the HOLD settlement outcome.
type AfterPaymentResult struct {
	Success        bool      `json:"success"`
	ReservationID  uuid.UUID `json:"rsvpId"`
	AlreadySettled bool      `json:"alreadySettled"`
}

type service struct {
	repo     Repository
	orders   orders.Service
	stores   stores.Service
	methods  paymentmethods.Service
	balances custbalance.Service
	ledger   storeledger.Service
	events   eventEmitter
	tx       txRunner
	printer  *i18n.Printer
	logg     *logger.Logger
}

// NewService wires the reservation settlement engine.
func NewService(
	repo Repository,
	orderSvc orders.Service,
	storeSvc stores.Service,
	methodSvc paymentmethods.Service,
	balanceSvc custbalance.Service,
	ledgerSvc storeledger.Service,
	events eventEmitter,
	tx txRunner,
	printer *i18n.Printer,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reservation repository required")
	}
	if orderSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order service required")
	}
	if storeSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "store service required")
	}
	if methodSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment method service required")
	}
	if balanceSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer balance service required")
	}
	if ledgerSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "store ledger service required")
	}
	if events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event emitter required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if printer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "printer required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		repo:     repo,
		orders:   orderSvc,
		stores:   storeSvc,
		methods:  methodSvc,
		balances: balanceSvc,
		ledger:   ledgerSvc,
		events:   events,
		tx:       tx,
		printer:  printer,
		logg:     logg,
	}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching reservation")
	}
	if reservation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
	}
	return reservation, nil
}

// ProcessPrepaidPayment settles a new reservation from the customer's
// credit points when the store requires prepayment and the balance covers
// it. When either condition fails the reservation simply stays Pending and
// payment is deferred to the post-payment flow.
func (s *service) ProcessPrepaidPayment(ctx context.Context, input PrepaidPaymentInput) (*PrepaidPaymentResult, error) {
	reservation, err := s.GetByID(ctx, input.ReservationID)
	if err != nil {
		return nil, err
	}
	if reservation.AlreadyPaid {
		return &PrepaidPaymentResult{
			Status:      reservation.Status,
			AlreadyPaid: true,
			OrderID:     reservation.OrderID,
		}, nil
	}

	store, err := s.stores.GetByID(ctx, reservation.StoreID)
	if err != nil {
		return nil, err
	}
	if !store.RequirePrepaid || store.MinPrepaidCredit.IsZero() || store.MinPrepaidCredit.IsNegative() {
		return &PrepaidPaymentResult{Status: reservation.Status}, nil
	}
	if reservation.CustomerID == nil {
		return &PrepaidPaymentResult{Status: reservation.Status}, nil
	}
	if store.CreditExchangeRate.IsZero() || store.CreditExchangeRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "store credit exchange rate must be positive")
	}

	customerID := *reservation.CustomerID
	balance, err := s.balances.GetBalance(ctx, store.ID, customerID, enums.BalanceKindCreditPoints)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(store.MinPrepaidCredit) {
		return &PrepaidPaymentResult{Status: reservation.Status}, nil
	}

	orderTotal := store.MinPrepaidCredit.Mul(store.CreditExchangeRate)
	now := time.Now()
	var result *PrepaidPaymentResult

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reservationRepo := s.repo.WithTx(tx)
		orderSvc := s.orders.WithTx(tx)
		balanceSvc := s.balances.WithTx(tx)
		ledgerSvc := s.ledger.WithTx(tx)

		order := &models.Order{
			StoreID:       store.ID,
			UserID:        &customerID,
			Currency:      store.Currency,
			TotalAmount:   orderTotal,
			IsPaid:        true,
			PaymentStatus: enums.PaymentStatusPaid,
			OrderStatus:   enums.OrderStatusCompleted,
			PaidAt:        &now,
		}
		if err := orderSvc.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating prepaid order")
		}

		spendNote := s.printer.T("ledger.note.reservation_prepaid", reservation.ID.String())
		if _, err := balanceSvc.Append(ctx, custbalance.AppendInput{
			StoreID:     store.ID,
			UserID:      customerID,
			Kind:        enums.BalanceKindCreditPoints,
			Amount:      store.MinPrepaidCredit.Neg(),
			Type:        enums.CustomerLedgerTypeSpend,
			ReferenceID: &order.ID,
			Note:        spendNote,
			CreatorID:   input.CreatorID,
		}); err != nil {
			return err
		}

		// credit spent this way is earned now, not held
		if _, err := ledgerSvc.Append(ctx, storeledger.AppendInput{
			StoreID:       store.ID,
			OrderID:       &order.ID,
			Amount:        orderTotal,
			Fee:           decimal.Zero,
			PlatformFee:   decimal.Zero,
			Type:          enums.StoreLedgerTypeCreditUsage,
			Currency:      store.Currency,
			ReferenceDate: now,
		}); err != nil {
			return err
		}

		reservation.OrderID = &order.ID
		reservation.AlreadyPaid = true
		reservation.PaidAt = &now
		reservation.Status = enums.ReservationStatusReadyToConfirm
		if err := reservationRepo.Update(ctx, reservation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating reservation")
		}

		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationPrepaid,
			AggregateType: enums.AggregateReservation,
			AggregateID:   reservation.ID,
			Version:       1,
			Data: payloads.ReservationPrepaidEvent{
				ReservationID: reservation.ID,
				OrderID:       order.ID,
				StoreID:       store.ID,
				UserID:        customerID,
				Points:        store.MinPrepaidCredit,
				Status:        reservation.Status,
			},
		}); err != nil {
			return err
		}

		result = &PrepaidPaymentResult{
			Status:      reservation.Status,
			AlreadyPaid: true,
			OrderID:     &order.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessAfterPayment runs the HOLD settlement for a reservation whose
// linked order was just confirmed. Revenue stays out of the store ledger
// until the reservation completes; only customer-side entries move here.
func (s *service) ProcessAfterPayment(ctx context.Context, orderID uuid.UUID) (*AfterPaymentResult, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	reservation, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up reservation")
	}
	if reservation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not linked to a reservation")
	}
	if reservation.AlreadyPaid {
		return &AfterPaymentResult{
			Success:        true,
			ReservationID:  reservation.ID,
			AlreadySettled: true,
		}, nil
	}

	store, err := s.stores.GetByID(ctx, reservation.StoreID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethodID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no payment method")
	}
	method, err := s.methods.GetByID(ctx, *order.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	userID := order.UserID
	if userID == nil {
		userID = reservation.CustomerID
	}
	if userID == nil && method.Flow != enums.PaymentFlowCash {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reservation payment requires a customer")
	}

	previousStatus := reservation.Status
	newStatus := previousStatus
	if previousStatus == enums.ReservationStatusPending {
		if store.NoNeedToConfirm {
			newStatus = enums.ReservationStatusReady
		} else {
			newStatus = enums.ReservationStatusReadyToConfirm
		}
	}

	now := time.Now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reservationRepo := s.repo.WithTx(tx)
		balanceSvc := s.balances.WithTx(tx)

		reservation.AlreadyPaid = true
		reservation.PaidAt = &now
		reservation.Status = newStatus
		if store.NoNeedToConfirm {
			reservation.ConfirmedByStore = true
		}
		if reservation.CustomerID == nil && order.UserID != nil {
			reservation.CustomerID = order.UserID
		}
		if err := reservationRepo.Update(ctx, reservation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating reservation")
		}

		if err := s.holdFunds(ctx, balanceSvc, store, method, order, reservation, userID); err != nil {
			return err
		}

		return s.emitAfterPaymentEvents(ctx, tx, store, method, order, reservation, previousStatus, userID, now)
	})
	if err != nil {
		return nil, err
	}

	return &AfterPaymentResult{
		Success:       true,
		ReservationID: reservation.ID,
	}, nil
}

// holdFunds dispatches on the payment flow. No store ledger entry is
// created under any path at this stage.
func (s *service) holdFunds(
	ctx context.Context,
	balanceSvc custbalance.Service,
	store *models.Store,
	method *models.PaymentMethod,
	order *models.Order,
	reservation *models.Reservation,
	userID *uuid.UUID,
) error {
	holdNote := s.printer.T("ledger.note.reservation_hold", reservation.ID.String())

	switch method.Flow {
	case enums.PaymentFlowCreditPoints:
		if store.CreditExchangeRate.IsZero() || store.CreditExchangeRate.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "store credit exchange rate must be positive")
		}
		requiredCredit := order.TotalAmount.Div(store.CreditExchangeRate)
		_, err := balanceSvc.Append(ctx, custbalance.AppendInput{
			StoreID:     store.ID,
			UserID:      *userID,
			Kind:        enums.BalanceKindCreditPoints,
			Amount:      requiredCredit.Neg(),
			Type:        enums.CustomerLedgerTypeHold,
			ReferenceID: &order.ID,
			Note:        holdNote,
		})
		return err

	case enums.PaymentFlowAccountBalance:
		_, err := balanceSvc.Append(ctx, custbalance.AppendInput{
			StoreID:     store.ID,
			UserID:      *userID,
			Kind:        enums.BalanceKindFiat,
			Amount:      order.TotalAmount.Neg(),
			Type:        enums.CustomerLedgerTypeHold,
			ReferenceID: &order.ID,
			Note:        holdNote,
		})
		return err

	case enums.PaymentFlowExternalGateway:
		_, err := balanceSvc.TopUpThenHold(ctx, custbalance.TopUpThenHoldInput{
			StoreID:     store.ID,
			UserID:      *userID,
			Kind:        enums.BalanceKindFiat,
			Amount:      order.TotalAmount,
			ReferenceID: &order.ID,
			TopupNote:   s.printer.T("ledger.note.balance_topup", order.ID.String()),
			HoldNote:    holdNote,
		})
		return err

	case enums.PaymentFlowCash:
		// settled at the venue, nothing to hold
		return nil

	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "unsupported payment flow for reservations")
	}
}

func (s *service) emitAfterPaymentEvents(
	ctx context.Context,
	tx *gorm.DB,
	store *models.Store,
	method *models.PaymentMethod,
	order *models.Order,
	reservation *models.Reservation,
	previousStatus enums.ReservationStatus,
	userID *uuid.UUID,
	heldAt time.Time,
) error {
	if method.Flow != enums.PaymentFlowCash {
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationPaymentHeld,
			AggregateType: enums.AggregateReservation,
			AggregateID:   reservation.ID,
			Version:       1,
			Data: payloads.ReservationPaymentHeldEvent{
				ReservationID: reservation.ID,
				OrderID:       order.ID,
				StoreID:       store.ID,
				UserID:        userID,
				Amount:        order.TotalAmount,
				HeldAt:        heldAt,
			},
		}); err != nil {
			return err
		}
	}

	if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPaymentReceived,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: payloads.PaymentReceivedEvent{
			OrderID:  order.ID,
			StoreID:  store.ID,
			Amount:   order.TotalAmount,
			Currency: order.Currency,
			Flow:     method.Flow,
		},
	}); err != nil {
		return err
	}

	if reservation.Status == previousStatus {
		return nil
	}
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReservationStatusChanged,
		AggregateType: enums.AggregateReservation,
		AggregateID:   reservation.ID,
		Version:       1,
		Data: payloads.ReservationStatusChangedEvent{
			ReservationID: reservation.ID,
			StoreID:       store.ID,
			From:          previousStatus,
			To:            reservation.Status,
			ChangedAt:     heldAt,
		},
	})
}
