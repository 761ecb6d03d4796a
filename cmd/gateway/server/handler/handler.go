package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"pedidos-saga/cmd/gateway/server/service"
	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

// Forward relays anything under /api/v1 to the owning service and hands the
// upstream response back untouched.
func (h *Handler) Forward(c *gin.Context) {
	path := strings.TrimPrefix(c.Request.URL.Path, "/api/v1")

	result, err := h.Service.Forward(
		c.Request.Context(),
		c.Request.Method,
		path,
		c.Request.URL.RawQuery,
		c.Request.Header,
		c.Request.Body,
	)
	if err != nil {
		h.sendForwardError(c, path, err)
		return
	}

	for key, values := range result.Header {
		for _, value := range values {
			c.Writer.Header().Add(key, value)
		}
	}
	c.Data(result.StatusCode, result.Header.Get("Content-Type"), result.Body)
}

func (h *Handler) sendForwardError(c *gin.Context, path string, err error) {
	switch {
	case errors.Is(err, service.ErrUpstreamDown):
		log.Printf("[GATEWAY] Upstream for %s unavailable: %v", path, err)
		utils.SendError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE",
			"Servico temporariamente indisponivel", path)
	case errors.Is(err, service.ErrUpstreamTimeout):
		log.Printf("[GATEWAY] Upstream for %s timed out: %v", path, err)
		utils.SendError(c, http.StatusGatewayTimeout, "GATEWAY_TIMEOUT",
			"Servico nao respondeu a tempo", path)
	case svcerror.Is(err, svcerror.ErrNotFoundError):
		utils.SendError(c, http.StatusNotFound, "NOT_FOUND", "Rota desconhecida", path)
	default:
		log.Printf("[GATEWAY] Failed to forward %s: %v", path, err)
		utils.SendInternalError(c, "Failed to forward request")
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	health := map[string]any{
		"status":  "healthy",
		"service": "api-gateway",
	}
	utils.SendSuccess(c, http.StatusOK, "Service is Healthy", health)
}
