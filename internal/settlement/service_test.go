package settlement

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/internal/classify"
	"github.com/lucasmerida/storely-backend/internal/custbalance"
	"github.com/lucasmerida/storely-backend/internal/orders"
	"github.com/lucasmerida/storely-backend/internal/paymentmethods"
	"github.com/lucasmerida/storely-backend/internal/reservations"
	"github.com/lucasmerida/storely-backend/internal/storeledger"
	"github.com/lucasmerida/storely-backend/internal/stores"
	"github.com/lucasmerida/storely-backend/pkg/db/models"
	"github.com/lucasmerida/storely-backend/pkg/enums"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
	"github.com/lucasmerida/storely-backend/pkg/i18n"
	"github.com/lucasmerida/storely-backend/pkg/logger"
	"github.com/lucasmerida/storely-backend/pkg/outbox"
)

type fakeOrderRepo struct {
	byID  map[uuid.UUID]*models.Order
	notes []*models.OrderNote
}

func newFakeOrderRepo(list ...*models.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{byID: map[uuid.UUID]*models.Order{}}
	for _, o := range list {
		repo.byID[o.ID] = o
	}
	return repo
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.byID[id], nil
}

func (f *fakeOrderRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.byID[id], nil
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	f.byID[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, order *models.Order) error {
	f.byID[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) CreateNote(ctx context.Context, note *models.OrderNote) error {
	f.notes = append(f.notes, note)
	return nil
}

func (f *fakeOrderRepo) ListNotes(ctx context.Context, orderID uuid.UUID) ([]models.OrderNote, error) {
	var out []models.OrderNote
	for _, n := range f.notes {
		if n.OrderID == orderID {
			out = append(out, *n)
		}
	}
	return out, nil
}

type fakeStoreRepo struct {
	byID map[uuid.UUID]*models.Store
}

func (f *fakeStoreRepo) WithTx(tx *gorm.DB) stores.Repository { return f }

func (f *fakeStoreRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	return f.byID[id], nil
}

type fakeMethodRepo struct {
	byID map[uuid.UUID]*models.PaymentMethod
}

func (f *fakeMethodRepo) WithTx(tx *gorm.DB) paymentmethods.Repository { return f }

func (f *fakeMethodRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	return f.byID[id], nil
}

func (f *fakeMethodRepo) FindDefaultForStore(ctx context.Context, storeID uuid.UUID) (*models.PaymentMethod, error) {
	for _, m := range f.byID {
		if m.StoreID == storeID && m.IsDefault {
			return m, nil
		}
	}
	return nil, nil
}

type fakeLedgerSvc struct {
	appends  []storeledger.AppendInput
	existing map[uuid.UUID]bool
}

func (f *fakeLedgerSvc) WithTx(tx *gorm.DB) storeledger.Service { return f }

func (f *fakeLedgerSvc) Append(ctx context.Context, input storeledger.AppendInput) (*models.StoreLedgerEntry, error) {
	// mirror the one-entry-per-order unique index
	if input.OrderID != nil {
		for _, a := range f.appends {
			if a.OrderID != nil && *a.OrderID == *input.OrderID {
				return nil, pkgerrors.New(pkgerrors.CodeDependency, "duplicate store ledger entry for order")
			}
		}
	}
	f.appends = append(f.appends, input)
	return &models.StoreLedgerEntry{StoreID: input.StoreID, Amount: input.Amount}, nil
}

func (f *fakeLedgerSvc) HasEntryForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if f.existing[orderID] {
		return true, nil
	}
	for _, a := range f.appends {
		if a.OrderID != nil && *a.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedgerSvc) ReplayBalance(ctx context.Context, storeID uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// fakeBalanceSvc tracks customer ledger entries in memory with real topup
// idempotency semantics.
type fakeBalanceSvc struct {
	entries []*models.CustomerLedgerEntry
}

func (f *fakeBalanceSvc) WithTx(tx *gorm.DB) custbalance.Service { return f }

func (f *fakeBalanceSvc) Append(ctx context.Context, input custbalance.AppendInput) (*models.CustomerLedgerEntry, error) {
	balance := input.Amount
	for _, e := range f.entries {
		if e.StoreID == input.StoreID && e.UserID == input.UserID && e.Kind == input.Kind {
			balance = balance.Add(e.Amount)
		}
	}
	entry := &models.CustomerLedgerEntry{
		ID:          uuid.New(),
		StoreID:     input.StoreID,
		UserID:      input.UserID,
		Kind:        input.Kind,
		Amount:      input.Amount,
		Balance:     balance,
		Type:        input.Type,
		ReferenceID: input.ReferenceID,
		Note:        input.Note,
	}
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeBalanceSvc) TopUpThenHold(ctx context.Context, input custbalance.TopUpThenHoldInput) ([]*models.CustomerLedgerEntry, error) {
	topup, _ := f.Append(ctx, custbalance.AppendInput{
		StoreID: input.StoreID, UserID: input.UserID, Kind: input.Kind,
		Amount: input.Amount, Type: enums.CustomerLedgerTypeTopup, ReferenceID: input.ReferenceID,
	})
	hold, _ := f.Append(ctx, custbalance.AppendInput{
		StoreID: input.StoreID, UserID: input.UserID, Kind: input.Kind,
		Amount: input.Amount.Neg(), Type: enums.CustomerLedgerTypeHold, ReferenceID: input.ReferenceID,
	})
	return []*models.CustomerLedgerEntry{topup, hold}, nil
}

func (f *fakeBalanceSvc) GetBalance(ctx context.Context, storeID, userID uuid.UUID, kind enums.BalanceKind) (decimal.Decimal, error) {
	balance := decimal.Zero
	for _, e := range f.entries {
		if e.StoreID == storeID && e.UserID == userID && e.Kind == kind {
			balance = balance.Add(e.Amount)
		}
	}
	return balance, nil
}

func (f *fakeBalanceSvc) HasTopupForReference(ctx context.Context, referenceID uuid.UUID) (bool, error) {
	for _, e := range f.entries {
		if e.Type == enums.CustomerLedgerTypeTopup && e.ReferenceID != nil && *e.ReferenceID == referenceID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBalanceSvc) ReplayBalance(ctx context.Context, storeID, userID uuid.UUID, kind enums.BalanceKind) (decimal.Decimal, error) {
	return f.GetBalance(ctx, storeID, userID, kind)
}

type fakeReservationSvc struct {
	afterPaymentCalls []uuid.UUID
	afterPaymentErr   error
}

func (f *fakeReservationSvc) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return nil, nil
}

func (f *fakeReservationSvc) ProcessPrepaidPayment(ctx context.Context, input reservations.PrepaidPaymentInput) (*reservations.PrepaidPaymentResult, error) {
	return nil, nil
}

func (f *fakeReservationSvc) ProcessAfterPayment(ctx context.Context, orderID uuid.UUID) (*reservations.AfterPaymentResult, error) {
	f.afterPaymentCalls = append(f.afterPaymentCalls, orderID)
	if f.afterPaymentErr != nil {
		return nil, f.afterPaymentErr
	}
	return &reservations.AfterPaymentResult{Success: true}, nil
}

type fakeClassifier struct {
	result classify.Classification
}

func (f *fakeClassifier) WithTx(tx *gorm.DB) classify.Service { return f }

func (f *fakeClassifier) Classify(ctx context.Context, order *models.Order) (classify.Classification, error) {
	return f.result, nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	for _, e := range f.events {
		if e.EventType == event.EventType && e.AggregateID == event.AggregateID {
			return nil
		}
	}
	return f.Emit(ctx, tx, event)
}

func (f *fakeEmitter) has(eventType enums.OutboxEventType) bool {
	for _, e := range f.events {
		if e.EventType == eventType {
			return true
		}
	}
	return false
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fixture struct {
	svc      Service
	orders   *fakeOrderRepo
	ledger   *fakeLedgerSvc
	balances *fakeBalanceSvc
	rsvps    *fakeReservationSvc
	emitter  *fakeEmitter
}

func newFixture(t *testing.T, store *models.Store, orderRepo *fakeOrderRepo, methods map[uuid.UUID]*models.PaymentMethod, classification classify.Classification) *fixture {
	t.Helper()

	orderSvc, err := orders.NewService(orderRepo)
	if err != nil {
		t.Fatalf("order service: %v", err)
	}
	storeSvc, err := stores.NewService(&fakeStoreRepo{byID: map[uuid.UUID]*models.Store{store.ID: store}})
	if err != nil {
		t.Fatalf("store service: %v", err)
	}
	methodSvc, err := paymentmethods.NewService(&fakeMethodRepo{byID: methods})
	if err != nil {
		t.Fatalf("payment method service: %v", err)
	}

	ledger := &fakeLedgerSvc{existing: map[uuid.UUID]bool{}}
	balances := &fakeBalanceSvc{}
	rsvps := &fakeReservationSvc{}
	emitter := &fakeEmitter{}

	svc, err := NewService(Deps{
		Orders:       orderSvc,
		Stores:       storeSvc,
		Methods:      methodSvc,
		Ledger:       ledger,
		Balances:     balances,
		Reservations: rsvps,
		Classifier:   &fakeClassifier{result: classification},
		Events:       emitter,
		Tx:           fakeTxRunner{},
		Printer:      i18n.New("en"),
		Logger:       logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("settlement service: %v", err)
	}
	return &fixture{svc: svc, orders: orderRepo, ledger: ledger, balances: balances, rsvps: rsvps, emitter: emitter}
}

func freeTierStore() *models.Store {
	return &models.Store{
		ID:       uuid.New(),
		Tier:     enums.StoreTierFree,
		Currency: enums.CurrencyUSD,
	}
}

func defaultMethod(storeID uuid.UUID) *models.PaymentMethod {
	return &models.PaymentMethod{
		ID:        uuid.New(),
		StoreID:   storeID,
		Flow:      enums.PaymentFlowExternalGateway,
		FeeRate:   decimal.NewFromFloat(0.03),
		FeeFixed:  decimal.NewFromInt(10),
		ClearDays: 7,
		IsDefault: true,
		Enabled:   true,
	}
}

func TestMarkOrderPaidSettlesFreeTierOrder(t *testing.T) {
	store := freeTierStore()
	method := defaultMethod(store.ID)
	userID := uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		StoreID:     store.ID,
		UserID:      &userID,
		Currency:    enums.CurrencyUSD,
		TotalAmount: decimal.NewFromInt(500),
	}
	f := newFixture(t, store, newFakeOrderRepo(order),
		map[uuid.UUID]*models.PaymentMethod{method.ID: method}, classify.Classification{})

	result, err := f.svc.MarkOrderPaid(context.Background(), MarkOrderPaidInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if result.AlreadySettled {
		t.Fatalf("first settlement must not echo")
	}
	if result.DispatchErr != nil {
		t.Fatalf("unexpected dispatch error: %v", result.DispatchErr)
	}

	settled := f.orders.byID[order.ID]
	if !settled.IsPaid || settled.PaymentStatus != enums.PaymentStatusPaid || settled.PaidAt == nil {
		t.Fatalf("order not flipped to paid: %+v", settled)
	}
	if settled.OrderStatus != enums.OrderStatusProcessing {
		t.Fatalf("order status = %s, want processing", settled.OrderStatus)
	}
	// 500 at 3% + 10 fixed: gateway -25, tax -1.25, platform -5
	if !settled.PaymentCost.Equal(decimal.RequireFromString("-31.25")) {
		t.Fatalf("payment cost = %s, want -31.25", settled.PaymentCost)
	}

	if len(f.ledger.appends) != 1 {
		t.Fatalf("expected one store ledger entry, got %d", len(f.ledger.appends))
	}
	entry := f.ledger.appends[0]
	if entry.Type != enums.StoreLedgerTypeHoldByPlatform {
		t.Fatalf("ledger type = %s, want hold_by_platform", entry.Type)
	}
	if !entry.Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("ledger amount = %s, want 500", entry.Amount)
	}
	if !entry.Fee.Equal(decimal.RequireFromString("-26.25")) {
		t.Fatalf("ledger fee = %s, want -26.25 (gateway fee plus tax)", entry.Fee)
	}
	if !entry.PlatformFee.Equal(decimal.NewFromInt(-5)) {
		t.Fatalf("platform fee = %s, want -5", entry.PlatformFee)
	}
	if entry.ClearDays != 7 {
		t.Fatalf("clear days = %d, want 7", entry.ClearDays)
	}

	if len(f.orders.notes) != 1 {
		t.Fatalf("expected one order note, got %d", len(f.orders.notes))
	}
	if !f.emitter.has(enums.EventOrderPaid) || !f.emitter.has(enums.EventOrderSettled) {
		t.Fatalf("expected order_paid and order_settled events")
	}
}

func TestMarkOrderPaidProTierOwnProviderIsFeeFree(t *testing.T) {
	store := &models.Store{
		ID:       uuid.New(),
		Tier:     enums.StoreTierPro,
		Currency: enums.CurrencyUSD,
	}
	method := defaultMethod(store.ID)
	order := &models.Order{
		ID:          uuid.New(),
		StoreID:     store.ID,
		Currency:    enums.CurrencyUSD,
		TotalAmount: decimal.NewFromInt(500),
	}
	f := newFixture(t, store, newFakeOrderRepo(order),
		map[uuid.UUID]*models.PaymentMethod{method.ID: method}, classify.Classification{})

	if _, err := f.svc.MarkOrderPaid(context.Background(), MarkOrderPaidInput{OrderID: order.ID}); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	entry := f.ledger.appends[0]
	if entry.Type != enums.StoreLedgerTypeStorePaymentProvider {
		t.Fatalf("ledger type = %s, want store_payment_provider", entry.Type)
	}
	if !entry.Fee.IsZero() || !entry.PlatformFee.IsZero() {
		t.Fatalf("pro store on own provider must pay no fees, got fee=%s platform=%s", entry.Fee, entry.PlatformFee)
	}
	if !f.orders.byID[order.ID].PaymentCost.IsZero() {
		t.Fatalf("payment cost must be zero")
	}
}

func TestMarkOrderPaidIsIdempotent(t *testing.T) {
	store := freeTierStore()
	method := defaultMethod(store.ID)
	order := &models.Order{
		ID:          uuid.New(),
		StoreID:     store.ID,
		Currency:    enums.CurrencyUSD,
		TotalAmount: decimal.NewFromInt(100),
	}
	f := newFixture(t, store, newFakeOrderRepo(order),
		map[uuid.UUID]*models.PaymentMethod{method.ID: method}, classify.Classification{})

	first, err := f.svc.MarkOrderPaid(context.Background(), MarkOrderPaidInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("first settlement failed: %v", err)
	}
	if first.AlreadySettled {
		t.Fatalf("first settlement must not echo")
	}

	second, err := f.svc.MarkOrderPaid(context.Background(), MarkOrderPaidInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.AlreadySettled {
		t.Fatalf("replay must report already settled")
	}
	if len(f.ledger.appends) != 1 {
		t.Fatalf("replay must not double-book the ledger, got %d entries", len(f.ledger.appends))
	}
}

func TestMarkOrderPaidOrphanLedgerEntryConverges(t *testing.T) {
	store := freeTierStore()
	method := defaultMethod(store.ID)
	order := &models.Order{
		ID:          uuid.New(),
		StoreID:     store.ID,
		Currency:    enums.CurrencyUSD,
		TotalAmount: decimal.NewFromInt(100),
	}
	f := newFixture(t, store, newFakeOrderRepo(order),
		map[uuid.UUID]*models.PaymentMethod{method.ID: method}, classify.Classification{})
	f.ledger.existing[order.ID] = true

	result, err := f.svc.MarkOrderPaid(context.Background(), MarkOrderPaidInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("orphan entry must converge, not fail: %v", err)
	}
	if !result.AlreadySettled {
		t.Fatalf("expected already-settled echo")
	}
	if f.orders.byID[order.ID].IsPaid {
		t.Fatalf("echo must not mutate the order")
	}
}

func TestMarkOrderPaidReservationSkipsStoreLedger(t *testing.T) {
	store := freeTierStore()
	method := defaultMethod(store.ID)
	rsvpID := uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		StoreID:     store.ID,
		Currency:    enums.CurrencyUSD,
		TotalAmount: decimal.NewFromInt(300),
	}
	f := newFixture(t, store, newFakeOrderRepo(order),
		map[uuid.UUID]*models.PaymentMethod{method.ID: method},
		classify.Classification{IsRsvp: true, ReservationID: &rsvpID})

	result, err := f.svc.MarkOrderPaid(context.Background(), MarkOrderPaidInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if result.DispatchErr != nil {
		t.Fatalf("unexpected dispatch error: %v", result.DispatchErr)
	}

	if len(f.ledger.appends) != 0 {
		t.Fatalf("reservation revenue must stay out of the store ledger until completion")
	}
	if f.orders.byID[order.ID].OrderStatus != enums.OrderStatusCompleted {
		t.Fatalf("reservation order must complete immediately")
	}
	if len(f.rsvps.afterPaymentCalls) != 1 || f.rsvps.afterPaymentCalls[0] != order.ID {
		t.Fatalf("expected reservation settlement dispatch, got %v", f.rsvps.afterPaymentCalls)
	}
}

func TestMarkOrderPaidDispatchFailureIsPartialSuccess(t *testing.T) {
	store := freeTierStore()
	method := defaultMethod(store.ID)
	rsvpID := uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		StoreID:     store.ID,
		Currency:    enums.CurrencyUSD,
		TotalAmount: decimal.NewFromInt(300),
	}
	f := newFixture(t, store, newFakeOrderRepo(order),
		map[uuid.UUID]*models.PaymentMethod{method.ID: method},
		classify.Classification{IsRsvp: true, ReservationID: &rsvpID})
	f.rsvps.afterPaymentErr = pkgerrors.New(pkgerrors.CodeDependency, "reservation store down")

	result, err := f.svc.MarkOrderPaid(context.Background(), MarkOrderPaidInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("primary settlement must survive dispatch failure: %v", err)
	}
	if result.DispatchErr == nil {
		t.Fatalf("expected a partial-success dispatch error")
	}
	if result.DispatchError == "" {
		t.Fatalf("partial failure must be visible in the response payload")
	}
	if !f.orders.byID[order.ID].IsPaid {
		t.Fatalf("order must stay settled despite dispatch failure")
	}
}

func TestProcessFiatTopUpCreditsOnce(t *testing.T) {
	store := freeTierStore()
	method := defaultMethod(store.ID)
	userID := uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		StoreID:     store.ID,
		UserID:      &userID,
		Currency:    enums.CurrencyUSD,
		TotalAmount: decimal.NewFromInt(1000),
	}
	f := newFixture(t, store, newFakeOrderRepo(order),
		map[uuid.UUID]*models.PaymentMethod{method.ID: method},
		classify.Classification{IsFiatRefill: true})

	first, err := f.svc.ProcessFiatTopUp(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("top-up failed: %v", err)
	}
	if first.AlreadySettled {
		t.Fatalf("first top-up must not echo")
	}
	if !first.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("amount = %s, want 1000", first.Amount)
	}

	balance, _ := f.balances.GetBalance(context.Background(), store.ID, userID, enums.BalanceKindFiat)
	if !balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("fiat balance = %s, want 1000", balance)
	}

	// the refill order is marked paid and its cash lands as unearned revenue
	if !f.orders.byID[order.ID].IsPaid {
		t.Fatalf("refill order must be marked paid")
	}
	if len(f.ledger.appends) != 1 || f.ledger.appends[0].Type != enums.StoreLedgerTypeCreditRecharge {
		t.Fatalf("expected one credit_recharge store entry, got %+v", f.ledger.appends)
	}
	if !f.emitter.has(enums.EventBalanceToppedUp) {
		t.Fatalf("expected balance_topped_up event")
	}

	second, err := f.svc.ProcessFiatTopUp(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.AlreadySettled {
		t.Fatalf("replay must report already settled")
	}
	balance, _ = f.balances.GetBalance(context.Background(), store.ID, userID, enums.BalanceKindFiat)
	if !balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("replay must not re-credit, balance = %s", balance)
	}
}

func TestProcessCreditTopUpRejectsWrongClassification(t *testing.T) {
	store := freeTierStore()
	method := defaultMethod(store.ID)
	userID := uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		StoreID:     store.ID,
		UserID:      &userID,
		Currency:    enums.CurrencyUSD,
		TotalAmount: decimal.NewFromInt(100),
	}
	f := newFixture(t, store, newFakeOrderRepo(order),
		map[uuid.UUID]*models.PaymentMethod{method.ID: method},
		classify.Classification{IsFiatRefill: true})

	_, err := f.svc.ProcessCreditTopUp(context.Background(), order.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.balances.entries) != 0 {
		t.Fatalf("misclassified order must not credit anything")
	}
}

func TestProcessCreditTopUpRequiresCustomer(t *testing.T) {
	store := freeTierStore()
	method := defaultMethod(store.ID)
	order := &models.Order{
		ID:          uuid.New(),
		StoreID:     store.ID,
		Currency:    enums.CurrencyUSD,
		TotalAmount: decimal.NewFromInt(100),
	}
	f := newFixture(t, store, newFakeOrderRepo(order),
		map[uuid.UUID]*models.PaymentMethod{method.ID: method},
		classify.Classification{IsCreditRefill: true})

	_, err := f.svc.ProcessCreditTopUp(context.Background(), order.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict for anonymous refill, got %v", err)
	}
}
