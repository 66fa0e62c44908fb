package handlers

import (
	"net/http"
	"strconv"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/BosskingGM/office-gama/internal/core/service"
	"github.com/gin-gonic/gin"
)

const maxListLimit = 200

// StatusRequest is the body of PATCH /api/v1/admin/orders/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderHandler serves buyer order views and operator order management.
type OrderHandler struct {
	orders    *service.OrderService
	reconcile *service.ReconcileService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders *service.OrderService, reconcile *service.ReconcileService) *OrderHandler {
	return &OrderHandler{orders: orders, reconcile: reconcile}
}

// ListMyOrders handles GET /api/v1/orders
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), domain.OrderFilter{
		BuyerID: c.GetString(ctxBuyerID),
		Limit:   parseLimit(c),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetMyOrder handles GET /api/v1/orders/:id
func (h *OrderHandler) GetMyOrder(c *gin.Context) {
	order, err := h.orders.BuyerOrder(c.Request.Context(), c.GetString(ctxBuyerID), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// AdminListOrders handles GET /api/v1/admin/orders?status=enviado
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), domain.OrderFilter{
		Status: domain.OrderStatus(c.Query("status")),
		Limit:  parseLimit(c),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// AdminGetOrder handles GET /api/v1/admin/orders/:id
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// AdminUpdateStatus handles PATCH /api/v1/admin/orders/:id/status
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// AdminDeleteOrder handles DELETE /api/v1/admin/orders/:id
func (h *OrderHandler) AdminDeleteOrder(c *gin.Context) {
	if err := h.orders.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdminReconcile handles POST /api/v1/admin/inventory/reconcile
func (h *OrderHandler) AdminReconcile(c *gin.Context) {
	report, err := h.reconcile.Sweep(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		return 50
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
