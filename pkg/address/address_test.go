package address

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/models"
)

func TestValidateFillsMissingFields(t *testing.T) {
	lookup := Static{Addresses: map[string]models.DeliveryAddress{
		"01310-100": {
			Street:   "Avenida Paulista",
			District: "Bela Vista",
			City:     "Sao Paulo",
			State:    "SP",
			CEP:      "01310-100",
		},
	}}

	addr, err := Validate(context.Background(), lookup, models.DeliveryAddress{
		Number: "1000",
		CEP:    "01310-100",
	})
	require.NoError(t, err)

	assert.Equal(t, "Avenida Paulista", addr.Street)
	assert.Equal(t, "Sao Paulo", addr.City)
	assert.Equal(t, "1000", addr.Number)
}

func TestValidateRejectsMalformedCEP(t *testing.T) {
	lookup := Static{}

	_, err := Validate(context.Background(), lookup, models.DeliveryAddress{CEP: "abc"})
	require.Error(t, err)
	assert.True(t, svcerror.Is(err, svcerror.ErrValidationError))
}

func TestValidateKeepsClientFields(t *testing.T) {
	lookup := Static{Addresses: map[string]models.DeliveryAddress{
		"01310-100": {Street: "Avenida Paulista", City: "Sao Paulo", State: "SP"},
	}}

	addr, err := Validate(context.Background(), lookup, models.DeliveryAddress{
		Street: "Av. Paulista, lado par",
		CEP:    "01310-100",
	})
	require.NoError(t, err)
	assert.Equal(t, "Av. Paulista, lado par", addr.Street)
}

func TestViaCEPResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/01310100/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"Sao Paulo","uf":"SP"}`))
	}))
	defer srv.Close()

	client := NewViaCEP(srv.URL, time.Second)
	addr, err := client.Resolve(context.Background(), "01310-100")
	require.NoError(t, err)

	assert.Equal(t, "Avenida Paulista", addr.Street)
	assert.Equal(t, "SP", addr.State)
}

func TestViaCEPResolveUnknownCEP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"erro": true}`))
	}))
	defer srv.Close()

	client := NewViaCEP(srv.URL, time.Second)
	_, err := client.Resolve(context.Background(), "99999-999")
	require.Error(t, err)
	assert.True(t, svcerror.Is(err, svcerror.ErrValidationError))
}
