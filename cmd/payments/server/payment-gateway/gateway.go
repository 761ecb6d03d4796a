package paymentgateway

import (
	"context"
	"strings"

	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/models"

	"github.com/google/uuid"
)

// Outcome is the gateway's verdict on one payment attempt. DECLINED is a
// business outcome; gateway failures surface as errors instead.
type Outcome struct {
	Status        models.PaymentStatus
	TransactionID string
}

type Processor interface {
	Process(ctx context.Context, payment models.Payment) (Outcome, error)
}

type ProcessorType string

const (
	ProcessorAlwaysApprove ProcessorType = "always-approve"
	ProcessorProbabilistic ProcessorType = "probabilistic"
)

func NewProcessor(processorType ProcessorType, successRate float64) (Processor, error) {
	switch processorType {
	case ProcessorAlwaysApprove:
		return &AlwaysApprove{}, nil
	case ProcessorProbabilistic:
		return NewProbabilistic(successRate), nil
	default:
		return nil, svcerror.New(
			svcerror.ErrValidationError,
			svcerror.WithOp("Gateway.NewProcessor"),
			svcerror.WithMsg("not an available processor type: "+string(processorType)),
		)
	}
}

// NewTransactionID synthesizes the acquirer-style id recorded on every
// processed payment.
func NewTransactionID() string {
	return "trans_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
