package handler

import (
	"github.com/gin-gonic/gin"
	tradeapp "github.com/matreq/backend/internal/application/trade"
)

// CreateOrdersRequest carries the full workspace; only enriched rows without
// a document number are submitted
type CreateOrdersRequest struct {
	Rows []tradeapp.RowDTO `json:"rows" binding:"dive"`
}

// OrderHandler handles order creation
type OrderHandler struct {
	BaseHandler
	orders *tradeapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *tradeapp.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create godoc
// @Summary      Create orders
// @Description  Groups the selected rows and creates one order per group. Partial success is reported as counts.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body CreateOrdersRequest true "Rows"
// @Success      200 {object} dto.Response{data=tradeapp.CreateOrdersResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	conn, ok := h.connection(c)
	if !ok {
		return
	}

	var req CreateOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.orders.CreateOrders(c.Request.Context(), conn, tradeapp.ToRows(req.Rows))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tradeapp.ToCreateOrdersResponse(result))
}
