package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/internal/classify"
	"github.com/lucasmerida/storely-backend/internal/custbalance"
	"github.com/lucasmerida/storely-backend/internal/fees"
	"github.com/lucasmerida/storely-backend/internal/orders"
	"github.com/lucasmerida/storely-backend/internal/paymentmethods"
	"github.com/lucasmerida/storely-backend/internal/reservations"
	"github.com/lucasmerida/storely-backend/internal/storeledger"
	"github.com/lucasmerida/storely-backend/internal/stores"
	dbpkg "github.com/lucasmerida/storely-backend/pkg/db"
	"github.com/lucasmerida/storely-backend/pkg/db/models"
	"github.com/lucasmerida/storely-backend/pkg/enums"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
	"github.com/lucasmerida/storely-backend/pkg/i18n"
	"github.com/lucasmerida/storely-backend/pkg/logger"
	"github.com/lucasmerida/storely-backend/pkg/metrics"
	"github.com/lucasmerida/storely-backend/pkg/outbox"
	"github.com/lucasmerida/storely-backend/pkg/outbox/payloads"
	"github.com/lucasmerida/storely-backend/pkg/types"
)

// Metric operation labels.
const (
	opMarkOrderPaid = "mark_order_paid"
	opFiatTopUp     = "fiat_topup"
	opCreditTopUp   = "credit_topup"
)

// Name of the partial unique index guarding one store ledger entry per order.
const orderLedgerIndex = "ux_store_ledger_entries_order_id"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the payment settlement coordinator. Every mutation path is
// idempotent: replays and concurrent retries converge on the single
// settled state instead of double-writing ledgers.
type Service interface {
	MarkOrderPaid(ctx context.Context, input MarkOrderPaidInput) (*MarkOrderPaidResult, error)
	ProcessFiatTopUp(ctx context.Context, orderID uuid.UUID) (*TopUpResult, error)
	ProcessCreditTopUp(ctx context.Context, orderID uuid.UUID) (*TopUpResult, error)
	ClassifyOrder(ctx context.Context, orderID uuid.UUID) (classify.Classification, error)
}

// MarkOrderPaidInput confirms one order payment.
type MarkOrderPaidInput struct {
	OrderID            uuid.UUID
	PaymentMethodID    *uuid.UUID
	CheckoutAttributes *types.CheckoutAttributes
	ActorID            *uuid.UUID
}

// MarkOrderPaidResult reports the settlement outcome.
type MarkOrderPaidResult struct {
	Order          *models.Order           `json:"order"`
	AlreadySettled bool                    `json:"alreadySettled"`
	Classification classify.Classification `json:"classification"`

	// DispatchErr aggregates secondary-path failures that happened after
	// the primary settlement committed. Non-nil means partial success:
	// the order is settled but a follow-up path needs a retry.
	DispatchErr error `json:"-"`

	// DispatchError mirrors DispatchErr for the response envelope so API
	// callers can tell a partial success from a clean one.
	DispatchError string `json:"dispatchError,omitempty"`
}

// TopUpResult reports a balance or credit refill outcome.
type TopUpResult struct {
	OrderID        uuid.UUID       `json:"orderId"`
	Amount         decimal.Decimal `json:"amount"`
	AlreadySettled bool            `json:"alreadySettled"`
}

type service struct {
	orders       orders.Service
	stores       stores.Service
	methods      paymentmethods.Service
	ledger       storeledger.Service
	balances     custbalance.Service
	reservations reservations.Service
	classifier   classify.Service
	events       eventEmitter
	tx           txRunner
	metrics      *metrics.SettlementMetrics
	printer      *i18n.Printer
	logg         *logger.Logger
}

// Deps carries the coordinator's collaborators.
type Deps struct {
	Orders       orders.Service
	Stores       stores.Service
	Methods      paymentmethods.Service
	Ledger       storeledger.Service
	Balances     custbalance.Service
	Reservations reservations.Service
	Classifier   classify.Service
	Events       eventEmitter
	Tx           txRunner
	Metrics      *metrics.SettlementMetrics
	Printer      *i18n.Printer
	Logger       *logger.Logger
}

// NewService wires the settlement coordinator.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Orders == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order service required")
	case deps.Stores == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "store service required")
	case deps.Methods == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment method service required")
	case deps.Ledger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "store ledger service required")
	case deps.Balances == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer balance service required")
	case deps.Reservations == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reservation service required")
	case deps.Classifier == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "classifier required")
	case deps.Events == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event emitter required")
	case deps.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	case deps.Printer == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "printer required")
	case deps.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		orders:       deps.Orders,
		stores:       deps.Stores,
		methods:      deps.Methods,
		ledger:       deps.Ledger,
		balances:     deps.Balances,
		reservations: deps.Reservations,
		classifier:   deps.Classifier,
		events:       deps.Events,
		tx:           deps.Tx,
		metrics:      deps.Metrics,
		printer:      deps.Printer,
		logg:         deps.Logger,
	}, nil
}

// MarkOrderPaid is the settlement entrypoint for a confirmed payment. The
// primary effects (order flip, store ledger entry, outbox events) commit in
// one transaction; classification-driven follow-ups run afterwards and
// report failures through DispatchErr without un-settling the order.
func (s *service) MarkOrderPaid(ctx context.Context, input MarkOrderPaidInput) (*MarkOrderPaidResult, error) {
	started := time.Now()
	result, err := s.markOrderPaid(ctx, input)
	s.metrics.ObserveDuration(opMarkOrderPaid, time.Since(started))
	if err != nil {
		s.metrics.IncFailed(opMarkOrderPaid)
		return nil, err
	}
	if result.AlreadySettled {
		s.metrics.IncAlreadySettled(opMarkOrderPaid)
	} else {
		s.metrics.IncSettled(opMarkOrderPaid)
	}
	return result, nil
}

func (s *service) markOrderPaid(ctx context.Context, input MarkOrderPaidInput) (*MarkOrderPaidResult, error) {
	order, err := s.orders.GetByIDWithItems(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return &MarkOrderPaidResult{Order: order, AlreadySettled: true}, nil
	}

	// An unpaid order with a ledger entry means a previous settlement
	// crashed between the ledger write and the response. Converge instead
	// of double-booking.
	hasEntry, err := s.ledger.HasEntryForOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if hasEntry {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Warn(logCtx, "order already has a store ledger entry, treating as settled")
		return &MarkOrderPaidResult{Order: order, AlreadySettled: true}, nil
	}

	store, err := s.stores.GetByID(ctx, order.StoreID)
	if err != nil {
		return nil, err
	}
	methodID := input.PaymentMethodID
	if methodID == nil {
		methodID = order.PaymentMethodID
	}
	method, err := s.methods.Resolve(ctx, store, methodID)
	if err != nil {
		return nil, err
	}

	usesPlatform := s.stores.UsesPlatformProcessing(store)
	breakdown := fees.Calculate(order.TotalAmount, fees.Schedule{
		FeeRate:  method.FeeRate,
		FeeFixed: method.FeeFixed,
	}, store.Tier, usesPlatform)

	classification, err := s.classifier.Classify(ctx, order)
	if err != nil {
		return nil, err
	}

	newStatus := enums.OrderStatusProcessing
	if classification.IsRsvp {
		// reservation orders complete immediately, fulfilment is the
		// booking itself
		newStatus = enums.OrderStatusCompleted
	}

	now := time.Now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderSvc := s.orders.WithTx(tx)
		ledgerSvc := s.ledger.WithTx(tx)

		order.IsPaid = true
		order.PaymentStatus = enums.PaymentStatusPaid
		order.OrderStatus = newStatus
		order.PaidAt = &now
		order.PaymentMethodID = &method.ID
		order.PaymentCost = breakdown.Total()
		if input.CheckoutAttributes != nil {
			encoded, err := input.CheckoutAttributes.Encode()
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding checkout attributes")
			}
			order.CheckoutAttributes = &encoded
		}
		if err := orderSvc.Update(ctx, order); err != nil {
			return err
		}

		note := fmt.Sprintf("Payment confirmed via %s", method.Flow)
		if err := orderSvc.AddNote(ctx, order.ID, note, input.ActorID); err != nil {
			return err
		}

		// Refill orders get their single ledger row (credit_recharge) from
		// the top-up path; a sale row here would collide with the
		// one-entry-per-order index. Reservation revenue stays out until
		// completion.
		if !classification.IsRsvp && !classification.IsFiatRefill && !classification.IsCreditRefill {
			ledgerType := enums.StoreLedgerTypeStorePaymentProvider
			if usesPlatform {
				ledgerType = enums.StoreLedgerTypeHoldByPlatform
			}
			if _, err := ledgerSvc.Append(ctx, storeledger.AppendInput{
				StoreID:       store.ID,
				OrderID:       &order.ID,
				Amount:        order.TotalAmount,
				Fee:           breakdown.LedgerFee(),
				PlatformFee:   breakdown.PlatformFee,
				Type:          ledgerType,
				Currency:      order.Currency,
				ReferenceDate: order.UpdatedAt,
				ClearDays:     method.ClearDays,
			}); err != nil {
				return err
			}
		}

		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderPaidEvent{
				OrderID:  order.ID,
				StoreID:  store.ID,
				UserID:   order.UserID,
				Total:    order.TotalAmount,
				Currency: order.Currency,
				PaidAt:   now,
			},
		}); err != nil {
			return err
		}
		return s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderSettled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderSettledEvent{
				OrderID:        order.ID,
				StoreID:        store.ID,
				UserID:         order.UserID,
				Flow:           method.Flow,
				Total:          order.TotalAmount,
				PaymentCost:    breakdown.Total(),
				Currency:       order.Currency,
				SettledAt:      now,
				IsFiatRefill:   classification.IsFiatRefill,
				IsCreditRefill: classification.IsCreditRefill,
				IsRsvp:         classification.IsRsvp,
			},
		})
	})
	if err != nil {
		// A concurrent settlement won the unique index race. Re-read and
		// echo its result.
		if dbpkg.IsUniqueViolation(err, orderLedgerIndex) {
			settled, readErr := s.orders.GetByIDWithItems(ctx, input.OrderID)
			if readErr != nil {
				return nil, readErr
			}
			return &MarkOrderPaidResult{Order: settled, AlreadySettled: true, Classification: classification}, nil
		}
		return nil, err
	}

	result := &MarkOrderPaidResult{Order: order, Classification: classification}
	result.DispatchErr = s.dispatch(ctx, order.ID, classification)
	if result.DispatchErr != nil {
		result.DispatchError = result.DispatchErr.Error()
	}
	return result, nil
}

// dispatch runs the classification follow-ups. The primary settlement is
// already committed, so failures here are collected, logged, and surfaced
// as a partial-success signal rather than an error.
func (s *service) dispatch(ctx context.Context, orderID uuid.UUID, classification classify.Classification) error {
	var combined error

	if classification.IsFiatRefill {
		if _, err := s.ProcessFiatTopUp(ctx, orderID); err != nil {
			s.dispatchFailed(ctx, orderID, "fiat_topup", err)
			combined = multierr.Append(combined, fmt.Errorf("fiat top-up: %w", err))
		}
	}
	if classification.IsCreditRefill {
		if _, err := s.ProcessCreditTopUp(ctx, orderID); err != nil {
			s.dispatchFailed(ctx, orderID, "credit_topup", err)
			combined = multierr.Append(combined, fmt.Errorf("credit top-up: %w", err))
		}
	}
	if classification.IsRsvp {
		if _, err := s.reservations.ProcessAfterPayment(ctx, orderID); err != nil {
			s.dispatchFailed(ctx, orderID, "reservation", err)
			combined = multierr.Append(combined, fmt.Errorf("reservation settlement: %w", err))
		}
	}
	return combined
}

func (s *service) dispatchFailed(ctx context.Context, orderID uuid.UUID, path string, err error) {
	s.metrics.IncDispatchError(path)
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithField(logCtx, "path", path)
	s.logg.Error(logCtx, "settlement dispatch failed", err)
}

// ProcessFiatTopUp credits the customer's fiat balance for a refill order.
func (s *service) ProcessFiatTopUp(ctx context.Context, orderID uuid.UUID) (*TopUpResult, error) {
	return s.processTopUp(ctx, orderID, topUpSpec{
		operation: opFiatTopUp,
		kind:      enums.BalanceKindFiat,
		noteKey:   "ledger.note.balance_topup",
		matches: func(c classify.Classification) bool {
			return c.IsFiatRefill
		},
		event: func(order *models.Order, entry *models.CustomerLedgerEntry) outbox.DomainEvent {
			return outbox.DomainEvent{
				EventType:     enums.EventBalanceToppedUp,
				AggregateType: enums.AggregateCustomerLedger,
				AggregateID:   entry.ID,
				Version:       1,
				Data: payloads.BalanceToppedUpEvent{
					StoreID:    order.StoreID,
					UserID:     entry.UserID,
					OrderID:    order.ID,
					Amount:     entry.Amount,
					NewBalance: entry.Balance,
					Currency:   order.Currency,
				},
			}
		},
	})
}

// ProcessCreditTopUp credits the customer's credit points for a purchase order.
func (s *service) ProcessCreditTopUp(ctx context.Context, orderID uuid.UUID) (*TopUpResult, error) {
	return s.processTopUp(ctx, orderID, topUpSpec{
		operation: opCreditTopUp,
		kind:      enums.BalanceKindCreditPoints,
		noteKey:   "ledger.note.credit_topup",
		matches: func(c classify.Classification) bool {
			return c.IsCreditRefill
		},
		event: func(order *models.Order, entry *models.CustomerLedgerEntry) outbox.DomainEvent {
			return outbox.DomainEvent{
				EventType:     enums.EventCreditToppedUp,
				AggregateType: enums.AggregateCustomerLedger,
				AggregateID:   entry.ID,
				Version:       1,
				Data: payloads.CreditToppedUpEvent{
					StoreID:    order.StoreID,
					UserID:     entry.UserID,
					OrderID:    order.ID,
					FiatPaid:   order.TotalAmount,
					Points:     entry.Amount,
					NewBalance: entry.Balance,
				},
			}
		},
	})
}

type topUpSpec struct {
	operation string
	kind      enums.BalanceKind
	noteKey   string
	matches   func(classify.Classification) bool
	event     func(*models.Order, *models.CustomerLedgerEntry) outbox.DomainEvent
}

func (s *service) processTopUp(ctx context.Context, orderID uuid.UUID, spec topUpSpec) (*TopUpResult, error) {
	started := time.Now()
	result, err := s.processTopUpInner(ctx, orderID, spec)
	s.metrics.ObserveDuration(spec.operation, time.Since(started))
	if err != nil {
		s.metrics.IncFailed(spec.operation)
		return nil, err
	}
	if result.AlreadySettled {
		s.metrics.IncAlreadySettled(spec.operation)
	} else {
		s.metrics.IncSettled(spec.operation)
	}
	return result, nil
}

func (s *service) processTopUpInner(ctx context.Context, orderID uuid.UUID, spec topUpSpec) (*TopUpResult, error) {
	order, err := s.orders.GetByIDWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Re-classify defensively: this path is reachable directly, not only
	// through MarkOrderPaid's dispatch.
	classification, err := s.classifier.Classify(ctx, order)
	if err != nil {
		return nil, err
	}
	if !spec.matches(classification) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not a refill of this kind")
	}
	if order.UserID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "refill order has no customer")
	}
	userID := *order.UserID

	credited, err := s.balances.HasTopupForReference(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if credited {
		// An existing topup with the order still unpaid means the paid flip
		// was lost somewhere. Repair it before echoing.
		if !order.IsPaid {
			paidAt := time.Now()
			order.IsPaid = true
			order.PaymentStatus = enums.PaymentStatusPaid
			order.OrderStatus = enums.OrderStatusCompleted
			order.PaidAt = &paidAt
			if err := s.orders.Update(ctx, order); err != nil {
				return nil, err
			}
		}
		return &TopUpResult{OrderID: order.ID, Amount: order.TotalAmount, AlreadySettled: true}, nil
	}

	store, err := s.stores.GetByID(ctx, order.StoreID)
	if err != nil {
		return nil, err
	}
	method, err := s.methods.Resolve(ctx, store, order.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	usesPlatform := s.stores.UsesPlatformProcessing(store)
	breakdown := fees.Calculate(order.TotalAmount, fees.Schedule{
		FeeRate:  method.FeeRate,
		FeeFixed: method.FeeFixed,
	}, store.Tier, usesPlatform)

	now := time.Now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderSvc := s.orders.WithTx(tx)
		ledgerSvc := s.ledger.WithTx(tx)
		balanceSvc := s.balances.WithTx(tx)

		entry, err := balanceSvc.Append(ctx, custbalance.AppendInput{
			StoreID:     store.ID,
			UserID:      userID,
			Kind:        spec.kind,
			Amount:      order.TotalAmount,
			Type:        enums.CustomerLedgerTypeTopup,
			ReferenceID: &order.ID,
			Note:        s.printer.T(spec.noteKey, order.ID.String()),
		})
		if err != nil {
			return err
		}

		// Refill revenue is unearned until spent; it still lands in the
		// ledger so the store sees the cash position.
		if _, err := ledgerSvc.Append(ctx, storeledger.AppendInput{
			StoreID:       store.ID,
			OrderID:       &order.ID,
			Amount:        order.TotalAmount,
			Fee:           breakdown.LedgerFee(),
			PlatformFee:   breakdown.PlatformFee,
			Type:          enums.StoreLedgerTypeCreditRecharge,
			Currency:      order.Currency,
			ReferenceDate: now,
			ClearDays:     method.ClearDays,
		}); err != nil {
			return err
		}

		if !order.IsPaid {
			order.IsPaid = true
			order.PaymentStatus = enums.PaymentStatusPaid
			order.OrderStatus = enums.OrderStatusCompleted
			order.PaidAt = &now
			order.PaymentCost = breakdown.Total()
			if err := orderSvc.Update(ctx, order); err != nil {
				return err
			}
		}

		return s.events.Emit(ctx, tx, spec.event(order, entry))
	})
	if err != nil {
		return nil, err
	}

	return &TopUpResult{OrderID: order.ID, Amount: order.TotalAmount}, nil
}

// ClassifyOrder exposes the classifier for inspection endpoints.
func (s *service) ClassifyOrder(ctx context.Context, orderID uuid.UUID) (classify.Classification, error) {
	order, err := s.orders.GetByIDWithItems(ctx, orderID)
	if err != nil {
		return classify.Classification{}, err
	}
	return s.classifier.Classify(ctx, order)
}
