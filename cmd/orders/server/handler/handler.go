package handler

import (
	"log"
	"net/http"

	"pedidos-saga/cmd/orders/server/service"
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

func (h *Handler) CreateOrder(c *gin.Context) {
	var req models.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Invalid order request: %v", err)
		utils.SendValidationError(c, err)
		return
	}

	order, err := h.Service.CreateOrder(c.Request.Context(), req)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusCreated, "Pedido criado", order)
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.Service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Pedido encontrado", order)
}

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.Service.ListOrders(c.Request.Context())
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Pedidos listados", orders)
}

func (h *Handler) ListOrdersByCustomer(c *gin.Context) {
	orders, err := h.Service.ListOrdersByCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Pedidos do cliente listados", orders)
}

func (h *Handler) ListOrdersByRestaurant(c *gin.Context) {
	orders, err := h.Service.ListOrdersByRestaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Pedidos do restaurante listados", orders)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req models.OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	order, err := h.Service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Status do pedido atualizado", order)
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	if err := h.Service.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Pedido removido", nil)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	health := map[string]any{
		"status":  "healthy",
		"service": "pedidos",
	}
	utils.SendSuccess(c, http.StatusOK, "Service is Healthy", health)
}
