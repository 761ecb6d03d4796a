package address

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/models"
)

const defaultBaseURL = "https://viacep.com.br/ws"

// ViaCEP resolves postal codes against a ViaCEP-compatible endpoint.
type ViaCEP struct {
	BaseURL string
	Client  *http.Client
}

func NewViaCEP(baseURL string, timeout time.Duration) *ViaCEP {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ViaCEP{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type viaCEPResponse struct {
	CEP      string `json:"cep"`
	Street   string `json:"logradouro"`
	District string `json:"bairro"`
	City     string `json:"localidade"`
	State    string `json:"uf"`
	Err      bool   `json:"erro"`
}

func (v *ViaCEP) Resolve(ctx context.Context, cep string) (models.DeliveryAddress, error) {
	var addr models.DeliveryAddress

	cep = strings.ReplaceAll(cep, "-", "")
	url := v.BaseURL + "/" + cep + "/json/"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return addr, svcerror.New(
			svcerror.ErrInternalError,
			svcerror.WithOp("ViaCEP.Resolve"),
			svcerror.WithCause(err),
		)
	}

	res, err := v.Client.Do(req)
	if err != nil {
		return addr, svcerror.New(
			svcerror.ErrInternalError,
			svcerror.WithOp("ViaCEP.Resolve"),
			svcerror.WithMsg("cep service unreachable"),
			svcerror.WithCause(err),
		)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return addr, svcerror.New(
			svcerror.ErrValidationError,
			svcerror.WithOp("ViaCEP.Resolve"),
			svcerror.WithMsg("cep invalido: "+cep),
			svcerror.WithTime(time.Now().UTC()),
		)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return addr, svcerror.New(
			svcerror.ErrInternalError,
			svcerror.WithOp("ViaCEP.Resolve"),
			svcerror.WithCause(err),
		)
	}

	if body.Err {
		return addr, svcerror.New(
			svcerror.ErrValidationError,
			svcerror.WithOp("ViaCEP.Resolve"),
			svcerror.WithMsg("cep nao encontrado: "+cep),
			svcerror.WithTime(time.Now().UTC()),
		)
	}

	addr.Street = body.Street
	addr.District = body.District
	addr.City = body.City
	addr.State = body.State
	addr.CEP = body.CEP
	return addr, nil
}
