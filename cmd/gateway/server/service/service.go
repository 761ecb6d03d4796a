package service

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	svcerror "pedidos-saga/pkg/error"
)

// Routes maps each resource family to the base URL of its owning service.
type Routes struct {
	Orders      string
	Payments    string
	Restaurants string
}

// ForwardResult carries the upstream response back to the handler verbatim.
type ForwardResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Service struct {
	Client *http.Client
	Routes Routes
}

func NewService(routes Routes, timeout time.Duration) *Service {
	return &Service{
		Client: &http.Client{Timeout: timeout},
		Routes: routes,
	}
}

// TargetFor resolves which service owns a path below /api/v1.
func (s *Service) TargetFor(path string) (string, bool) {
	trimmed := strings.TrimPrefix(path, "/")
	segment, _, _ := strings.Cut(trimmed, "/")

	switch segment {
	case "pedidos":
		return s.Routes.Orders, true
	case "pagamentos", "estornos":
		return s.Routes.Payments, true
	case "restaurantes", "produtos":
		return s.Routes.Restaurants, true
	default:
		return "", false
	}
}

// ErrUpstreamTimeout and ErrUpstreamDown let the handler pick between 504
// and 503.
var (
	ErrUpstreamTimeout = errors.New("gateway: upstream timed out")
	ErrUpstreamDown    = errors.New("gateway: upstream unavailable")
)

// Forward replays the request against the owning service. A connection
// failure means the service is unavailable; a timeout means it did not
// answer in time.
func (s *Service) Forward(ctx context.Context, method, path, rawQuery string, header http.Header, body io.Reader) (ForwardResult, error) {
	target, ok := s.TargetFor(path)
	if !ok {
		return ForwardResult{}, svcerror.New(
			svcerror.ErrNotFoundError,
			svcerror.WithOp("Gateway.Forward"),
			svcerror.WithMsg("no service owns "+path),
		)
	}

	upstream, err := url.Parse(target)
	if err != nil {
		return ForwardResult{}, svcerror.New(
			svcerror.ErrInternalError,
			svcerror.WithOp("Gateway.Forward"),
			svcerror.WithCause(err),
		)
	}
	upstream.Path = path
	upstream.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, method, upstream.String(), body)
	if err != nil {
		return ForwardResult{}, svcerror.New(
			svcerror.ErrInternalError,
			svcerror.WithOp("Gateway.Forward"),
			svcerror.WithCause(err),
		)
	}
	copyHeader(req.Header, header)

	res, err := s.Client.Do(req)
	if err != nil {
		return ForwardResult{}, classifyTransportError(err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return ForwardResult{}, svcerror.New(
			svcerror.ErrInternalError,
			svcerror.WithOp("Gateway.Forward"),
			svcerror.WithMsg("read upstream response"),
			svcerror.WithCause(err),
		)
	}

	return ForwardResult{
		StatusCode: res.StatusCode,
		Header:     res.Header.Clone(),
		Body:       payload,
	}, nil
}

func copyHeader(dst, src http.Header) {
	for key, values := range src {
		if key == "Connection" || key == "Keep-Alive" {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

func classifyTransportError(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ErrUpstreamTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUpstreamTimeout
	}
	return ErrUpstreamDown
}
