package handler

import (
	"log"
	"net/http"

	"pedidos-saga/cmd/payments/server/service"
	"pedidos-saga/pkg/models"
	"pedidos-saga/pkg/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) CreatePayment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Invalid payment request: %v", err)
		utils.SendValidationError(c, err)
		return
	}

	payment, err := h.Service.CreatePayment(c.Request.Context(), req)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusCreated, "Pagamento recebido e sera processado", payment)
}

func (h *Handler) GetPayment(c *gin.Context) {
	payment, err := h.Service.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Pagamento encontrado", payment)
}

func (h *Handler) GetPaymentByOrder(c *gin.Context) {
	payment, err := h.Service.GetPaymentByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Pagamento encontrado", payment)
}

func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.Service.ListPayments(c.Request.Context())
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Pagamentos listados", payments)
}

func (h *Handler) UpdatePayment(c *gin.Context) {
	var req models.PaymentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	payment, err := h.Service.UpdatePayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Pagamento atualizado", payment)
}

func (h *Handler) DeletePayment(c *gin.Context) {
	if err := h.Service.DeletePayment(c.Request.Context(), c.Param("id")); err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Pagamento removido", nil)
}

func (h *Handler) CreateRefund(c *gin.Context) {
	var req models.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	refund, err := h.Service.CreateRefund(c.Request.Context(), req)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "Estorno processado", refund)
}

func (h *Handler) ListRefundsByPayment(c *gin.Context) {
	refunds, err := h.Service.ListRefundsByPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Estornos listados", refunds)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	health := map[string]any{
		"status":  "healthy",
		"service": "pagamentos",
	}
	utils.SendSuccess(c, http.StatusOK, "Service is Healthy", health)
}
