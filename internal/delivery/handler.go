package delivery

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"orderflow/internal/constants"
	"orderflow/internal/logger"
	"orderflow/pkg/errors"
	"orderflow/pkg/metrics"
	"orderflow/pkg/models"
)

type Handler struct {
	logger logger.Logger
	newID  func() string
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		logger: log,
		newID:  uuid.NewString,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/api/DeliveryOrderProcessor", h.Accept)
	router.POST("/api/v1/deliveries", h.Accept)
}

// Accept godoc
// @Summary      Accept a delivery order
// @Description  Wraps any JSON document in a delivery envelope with a fresh id and partition key. The document is echoed back unchanged.
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Param        order  body      object  true  "Arbitrary order document"
// @Success      200    {object}  models.DeliveryEnvelope
// @Failure      400    {object}  errors.ErrorResponse
// @Router       /DeliveryOrderProcessor [post]
func (h *Handler) Accept(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		metrics.IncDeliveryRequest("error")
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrInvalidPayload.WithCause(err)))
		return
	}

	if !json.Valid(body) {
		metrics.IncDeliveryRequest("invalid")
		h.logger.WarnwCtx(c.Request.Context(), "Rejected malformed delivery order",
			"size", len(body),
		)
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrInvalidPayload))
		return
	}

	id := h.newID()
	envelope := models.DeliveryEnvelope{
		ID:           id,
		PartitionKey: constants.PartitionKeyPrefix + id,
		Order:        json.RawMessage(body),
	}

	out, err := envelope.Encode()
	if err != nil {
		metrics.IncDeliveryRequest("error")
		c.JSON(http.StatusInternalServerError, errors.ToErrorResponse(errors.ErrInternal.WithCause(err)))
		return
	}

	metrics.IncDeliveryRequest("accepted")
	h.logger.InfowCtx(c.Request.Context(), "Delivery order accepted",
		"id", id,
		"size", len(body),
	)
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}
