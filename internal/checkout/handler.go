package checkout

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderflow/internal/logger"
	"orderflow/pkg/errors"
)

type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.CreateOrder)
	}
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}

// CreateOrder godoc
// @Summary      Place an order
// @Description  Assigns an id and order date, then raises OrderCreated which notifies, posts to the processor and queues the record for reservation.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order  body      Request  true  "Checkout"
// @Success      201    {object}  order.Order
// @Failure      400    {object}  errors.ErrorResponse
// @Failure      503    {object}  errors.ErrorResponse
// @Router       /orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	o, err := h.service.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, o)
}
