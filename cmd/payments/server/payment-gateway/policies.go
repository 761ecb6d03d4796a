package paymentgateway

import (
	"context"
	"log"
	"math/rand"

	"pedidos-saga/pkg/models"
)

// AlwaysApprove is the deterministic policy used in development and tests.
type AlwaysApprove struct{}

func (a *AlwaysApprove) Process(ctx context.Context, payment models.Payment) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{
		Status:        models.PAYMENT_STATUS_APPROVED,
		TransactionID: NewTransactionID(),
	}
	log.Printf("[GATEWAY] Payment %s for order %s APPROVED, transaction %s",
		payment.ID, payment.OrderID, outcome.TransactionID)
	return outcome, nil
}

// Probabilistic approves a configurable fraction of attempts and declines
// the rest.
type Probabilistic struct {
	SuccessRate float64
}

func NewProbabilistic(successRate float64) *Probabilistic {
	if successRate < 0 || successRate > 1 {
		successRate = 0.9
	}
	return &Probabilistic{SuccessRate: successRate}
}

func (p *Probabilistic) Process(ctx context.Context, payment models.Payment) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{TransactionID: NewTransactionID()}

	if rand.Float64() < p.SuccessRate {
		outcome.Status = models.PAYMENT_STATUS_APPROVED
		log.Printf("[GATEWAY] Payment %s for order %s APPROVED, transaction %s",
			payment.ID, payment.OrderID, outcome.TransactionID)
	} else {
		outcome.Status = models.PAYMENT_STATUS_DECLINED
		log.Printf("[GATEWAY] Payment %s for order %s DECLINED, transaction %s",
			payment.ID, payment.OrderID, outcome.TransactionID)
	}

	return outcome, nil
}
