package handler

import (
	"net/http"

	"pedidos-saga/cmd/restaurants/server/service"
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

func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req models.RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	restaurant, err := h.Service.CreateRestaurant(c.Request.Context(), req)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "Restaurante cadastrado", restaurant)
}

func (h *Handler) GetRestaurant(c *gin.Context) {
	restaurant, err := h.Service.GetRestaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Restaurante encontrado", restaurant)
}

func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.Service.ListRestaurants(c.Request.Context())
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Restaurantes listados", restaurants)
}

func (h *Handler) UpdateRestaurant(c *gin.Context) {
	var req models.RestaurantUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	restaurant, err := h.Service.UpdateRestaurant(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Restaurante atualizado", restaurant)
}

func (h *Handler) DeleteRestaurant(c *gin.Context) {
	if err := h.Service.DeleteRestaurant(c.Request.Context(), c.Param("id")); err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Restaurante removido", nil)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	product, err := h.Service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "Produto cadastrado", product)
}

func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.Service.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Produto encontrado", product)
}

func (h *Handler) ListProductsByRestaurant(c *gin.Context) {
	products, err := h.Service.ListProductsByRestaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Produtos listados", products)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	product, err := h.Service.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Produto atualizado", product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.Service.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		utils.SendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Produto removido", nil)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	health := map[string]any{
		"status":  "healthy",
		"service": "restaurantes",
	}
	utils.SendSuccess(c, http.StatusOK, "Service is Healthy", health)
}
