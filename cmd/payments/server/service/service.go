package service

import (
	"context"
	"log"
	"sync"
	"time"

	paymentgateway "pedidos-saga/cmd/payments/server/payment-gateway"
	"pedidos-saga/pkg/bus"
	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/events"
	"pedidos-saga/pkg/models"
	"pedidos-saga/pkg/scheduler"

	"github.com/google/uuid"
)

// Store is the slice of persistence the payments service needs. Both the
// postgres database and the repository store satisfy it.
type Store interface {
	SavePayment(ctx context.Context, payment models.Payment) error
	GetPayment(ctx context.Context, paymentID string) (models.Payment, error)
	GetPaymentByOrder(ctx context.Context, orderID string) (models.Payment, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	UpdatePayment(ctx context.Context, payment models.Payment) error
	DeletePayment(ctx context.Context, paymentID string) error
	SaveRefund(ctx context.Context, refund models.Refund) error
	ListRefundsByPayment(ctx context.Context, paymentID string) ([]models.Refund, error)
}

type Service struct {
	Store     Store
	Bus       bus.Publisher
	Processor paymentgateway.Processor
	Jobs      *scheduler.Scheduler[string]

	// Delay between accepting a payment and processing it.
	ProcessDelay time.Duration
	// Compensating-write retry policy.
	RetryBackoff time.Duration
	Retries      int

	mu         sync.Mutex
	orderLocks map[string]*orderLock
}

// orderLock is a refcounted per-order mutex. The map entry is removed once
// the last holder releases it, so the lock table does not grow with order
// volume.
type orderLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(store Store, publisher bus.Publisher, processor paymentgateway.Processor) *Service {
	return &Service{
		Store:        store,
		Bus:          publisher,
		Processor:    processor,
		Jobs:         scheduler.New[string](64),
		ProcessDelay: 2 * time.Second,
		RetryBackoff: 500 * time.Millisecond,
		Retries:      3,
		orderLocks:   make(map[string]*orderLock),
	}
}

// lockOrder serializes creation per order so the exists-check and the save
// cannot interleave across concurrent requests.
func (s *Service) lockOrder(orderID string) *orderLock {
	s.mu.Lock()
	lock, ok := s.orderLocks[orderID]
	if !ok {
		lock = &orderLock{}
		s.orderLocks[orderID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (s *Service) unlockOrder(orderID string, lock *orderLock) {
	lock.mu.Unlock()

	s.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.orderLocks, orderID)
	}
	s.mu.Unlock()
}

// CreatePayment accepts a payment as PENDING and schedules its asynchronous
// processing. An order admits exactly one payment; a second attempt conflicts.
func (s *Service) CreatePayment(ctx context.Context, req models.PaymentRequest) (models.Payment, error) {
	lock := s.lockOrder(req.OrderID)
	defer s.unlockOrder(req.OrderID, lock)

	if _, err := s.Store.GetPaymentByOrder(ctx, req.OrderID); err == nil {
		return models.Payment{}, svcerror.New(
			svcerror.ErrConflictError,
			svcerror.WithOp("PaymentService.CreatePayment"),
			svcerror.WithMsg("order "+req.OrderID+" already has a payment"),
			svcerror.WithTime(time.Now().UTC()),
		)
	} else if !svcerror.Is(err, svcerror.ErrNotFoundError) {
		return models.Payment{}, svcerror.AddOp(err, "PaymentService.CreatePayment")
	}

	payment := models.Payment{
		ID:         uuid.NewString(),
		OrderID:    req.OrderID,
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Method:     req.Method,
		Payload:    req.Payload,
		Status:     models.PAYMENT_STATUS_PENDING,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.Store.SavePayment(ctx, payment); err != nil {
		return models.Payment{}, svcerror.AddOp(err, "PaymentService.CreatePayment")
	}

	if err := s.Jobs.Schedule(payment.ID, payment.ID, s.ProcessDelay); err != nil {
		log.Printf("[PAYMENTS] Failed to schedule processing for payment %s: %v", payment.ID, err)
	}

	log.Printf("[PAYMENTS] Payment %s accepted for order %s, processing in %s",
		payment.ID, payment.OrderID, s.ProcessDelay)
	return payment, nil
}

func (s *Service) GetPayment(ctx context.Context, paymentID string) (models.Payment, error) {
	return s.Store.GetPayment(ctx, paymentID)
}

func (s *Service) GetPaymentByOrder(ctx context.Context, orderID string) (models.Payment, error) {
	return s.Store.GetPaymentByOrder(ctx, orderID)
}

func (s *Service) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return s.Store.ListPayments(ctx)
}

// UpdatePayment applies a manual status or transaction override. A status
// change is announced the same way automatic processing announces one.
func (s *Service) UpdatePayment(ctx context.Context, paymentID string, req models.PaymentUpdateRequest) (models.Payment, error) {
	payment, err := s.Store.GetPayment(ctx, paymentID)
	if err != nil {
		return models.Payment{}, svcerror.AddOp(err, "PaymentService.UpdatePayment")
	}

	statusChanged := false
	if req.Status != nil && *req.Status != payment.Status {
		if !req.Status.Valid() {
			return models.Payment{}, svcerror.New(
				svcerror.ErrValidationError,
				svcerror.WithOp("PaymentService.UpdatePayment"),
				svcerror.WithMsg("unknown payment status "+string(*req.Status)),
			)
		}
		payment.Status = *req.Status
		statusChanged = true
	}
	if req.TransactionID != nil {
		payment.TransactionID = *req.TransactionID
	}
	payment.UpdatedAt = time.Now().UTC()

	if err := s.Store.UpdatePayment(ctx, payment); err != nil {
		return models.Payment{}, svcerror.AddOp(err, "PaymentService.UpdatePayment")
	}

	if statusChanged {
		s.publishProcessed(ctx, payment)
	}
	return payment, nil
}

func (s *Service) DeletePayment(ctx context.Context, paymentID string) error {
	s.Jobs.Cancel(paymentID)
	return s.Store.DeletePayment(ctx, paymentID)
}

// CreateRefund records an estorno against an approved payment and announces
// it so the order side can cancel.
func (s *Service) CreateRefund(ctx context.Context, req models.RefundRequest) (models.Refund, error) {
	payment, err := s.Store.GetPayment(ctx, req.PaymentID)
	if err != nil {
		return models.Refund{}, svcerror.AddOp(err, "PaymentService.CreateRefund")
	}

	if payment.Status != models.PAYMENT_STATUS_APPROVED {
		return models.Refund{}, svcerror.New(
			svcerror.ErrValidationError,
			svcerror.WithOp("PaymentService.CreateRefund"),
			svcerror.WithMsg("payment "+payment.ID+" is not approved"),
		)
	}
	if req.Amount > payment.Amount {
		return models.Refund{}, svcerror.New(
			svcerror.ErrValidationError,
			svcerror.WithOp("PaymentService.CreateRefund"),
			svcerror.WithMsg("refund amount exceeds payment amount"),
		)
	}

	refund := models.Refund{
		ID:        uuid.NewString(),
		PaymentID: payment.ID,
		Amount:    req.Amount,
		Reason:    req.Reason,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Store.SaveRefund(ctx, refund); err != nil {
		return models.Refund{}, svcerror.AddOp(err, "PaymentService.CreateRefund")
	}

	evt := events.EventRefundProcessed{
		Metadata:  events.NewMetadata(events.EvtTypeRefundProcessed),
		RefundID:  refund.ID,
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		Amount:    refund.Amount,
	}
	if err := s.Bus.Publish(ctx, bus.ChannelPayments, evt); err != nil {
		log.Printf("[PAYMENTS] Failed to publish refund %s: %v", refund.ID, err)
	}

	log.Printf("[PAYMENTS] Refund %s recorded for payment %s (order %s)",
		refund.ID, payment.ID, payment.OrderID)
	return refund, nil
}

func (s *Service) ListRefundsByPayment(ctx context.Context, paymentID string) ([]models.Refund, error) {
	return s.Store.ListRefundsByPayment(ctx, paymentID)
}

// RunWorker drains scheduled jobs until the context ends. One worker per
// service instance.
func (s *Service) RunWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-s.Jobs.C():
			if !ok {
				return nil
			}
			s.Process(ctx, job.Value)
		}
	}
}

// Process runs one payment through the gateway. Only PENDING payments are
// processed; anything else means the job already ran or was overridden.
func (s *Service) Process(ctx context.Context, paymentID string) {
	payment, err := s.Store.GetPayment(ctx, paymentID)
	if err != nil {
		log.Printf("[PAYMENTS] Cannot process payment %s: %v", paymentID, err)
		return
	}
	if payment.Status != models.PAYMENT_STATUS_PENDING {
		log.Printf("[PAYMENTS] Payment %s already %s, skipping", payment.ID, payment.Status)
		return
	}

	outcome, err := s.Processor.Process(ctx, payment)
	if err != nil {
		log.Printf("[PAYMENTS] Gateway failure for payment %s: %v", payment.ID, err)
		s.compensate(ctx, payment)
		return
	}

	payment.Status = outcome.Status
	payment.TransactionID = outcome.TransactionID
	payment.UpdatedAt = time.Now().UTC()

	if err := s.Store.UpdatePayment(ctx, payment); err != nil {
		log.Printf("[PAYMENTS] Failed to record outcome for payment %s: %v", payment.ID, err)
		s.compensate(ctx, payment)
		return
	}

	s.publishProcessed(ctx, payment)
}

func (s *Service) publishProcessed(ctx context.Context, payment models.Payment) {
	evt := events.EventPaymentProcessed{
		Metadata:  events.NewMetadata(events.EvtTypePaymentProcessed),
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		Status:    payment.Status,
	}
	if err := s.Bus.Publish(ctx, bus.ChannelPayments, evt); err != nil {
		log.Printf("[PAYMENTS] Failed to publish outcome of payment %s: %v", payment.ID, err)
	}
}

// compensate marks the payment FAILED. The write is retried a bounded number
// of times; if every attempt fails the failure is logged and dropped, and no
// event goes out.
func (s *Service) compensate(ctx context.Context, payment models.Payment) {
	payment.Status = models.PAYMENT_STATUS_FAILED
	payment.UpdatedAt = time.Now().UTC()

	var err error
	for attempt := 0; attempt <= s.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				log.Printf("[PAYMENTS] Compensation for payment %s interrupted: %v", payment.ID, ctx.Err())
				return
			case <-time.After(s.RetryBackoff):
			}
		}

		if err = s.Store.UpdatePayment(ctx, payment); err == nil {
			log.Printf("[PAYMENTS] Payment %s marked FAILED", payment.ID)
			return
		}
	}

	log.Printf("[PAYMENTS] Giving up compensating payment %s after %d attempts: %v",
		payment.ID, s.Retries+1, err)
}

// Dispatcher routes the informational feed from the orders channel. The
// payments side only observes; nothing here mutates payment state.
func (s *Service) Dispatcher() *events.Dispatcher {
	d := events.NewDispatcher()
	events.Register(d, events.EvtTypeOrderCreated, s.onOrderCreated)
	events.Register(d, events.EvtTypeOrderStatusUpdated, s.onOrderStatusUpdated)
	events.Register(d, events.EvtTypeOrderDeleted, s.onOrderDeleted)
	return d
}

func (s *Service) onOrderCreated(evt events.EventOrderCreated) error {
	log.Printf("[PAYMENTS] Order %s created for customer %s, total %.2f, awaiting payment",
		evt.OrderID, evt.CustomerID, evt.Total)
	return nil
}

func (s *Service) onOrderStatusUpdated(evt events.EventOrderStatusUpdated) error {
	log.Printf("[PAYMENTS] Order %s moved to %s (%s)", evt.OrderID, evt.Status, evt.Reason)
	return nil
}

func (s *Service) onOrderDeleted(evt events.EventOrderDeleted) error {
	payment, err := s.Store.GetPaymentByOrder(context.Background(), evt.OrderID)
	if err != nil {
		if svcerror.Is(err, svcerror.ErrNotFoundError) {
			return nil
		}
		return err
	}
	if payment.Status == models.PAYMENT_STATUS_PENDING {
		s.Jobs.Cancel(payment.ID)
		log.Printf("[PAYMENTS] Order %s deleted, pending payment %s descheduled", evt.OrderID, payment.ID)
	}
	return nil
}

// Close stops accepting jobs. Pending due jobs still drain through RunWorker.
func (s *Service) Close() {
	s.Jobs.Close()
}
