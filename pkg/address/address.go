// Package address validates delivery addresses by postal code before an
// order is persisted.
package address

import (
	"context"
	"regexp"
	"time"

	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/models"
)

var cepPattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)

// Lookup resolves a CEP to its registered street/district/city/state fields.
// Implementations return ErrValidationError for unknown or malformed codes.
type Lookup interface {
	Resolve(ctx context.Context, cep string) (models.DeliveryAddress, error)
}

// Validate checks the address against the lookup and fills in fields the
// client left blank. The number and complement are always the caller's.
func Validate(ctx context.Context, lookup Lookup, addr models.DeliveryAddress) (models.DeliveryAddress, error) {
	if !cepPattern.MatchString(addr.CEP) {
		return addr, svcerror.New(
			svcerror.ErrValidationError,
			svcerror.WithOp("address.Validate"),
			svcerror.WithMsg("cep invalido: "+addr.CEP),
			svcerror.WithTime(time.Now().UTC()),
		)
	}

	resolved, err := lookup.Resolve(ctx, addr.CEP)
	if err != nil {
		return addr, svcerror.AddOp(err, "address.Validate")
	}

	if addr.Street == "" {
		addr.Street = resolved.Street
	}
	if addr.District == "" {
		addr.District = resolved.District
	}
	if addr.City == "" {
		addr.City = resolved.City
	}
	if addr.State == "" {
		addr.State = resolved.State
	}
	return addr, nil
}

// Static is a fixed-table lookup for tests and offline runs.
type Static struct {
	Addresses map[string]models.DeliveryAddress
}

func (s Static) Resolve(_ context.Context, cep string) (models.DeliveryAddress, error) {
	addr, ok := s.Addresses[cep]
	if !ok {
		return models.DeliveryAddress{}, svcerror.New(
			svcerror.ErrValidationError,
			svcerror.WithOp("Static.Resolve"),
			svcerror.WithMsg("cep nao encontrado: "+cep),
			svcerror.WithTime(time.Now().UTC()),
		)
	}
	return addr, nil
}
