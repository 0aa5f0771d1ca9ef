package checkout

import (
	"context"
	"time"

	"orderflow/internal/events"
	"orderflow/internal/logger"
	"orderflow/internal/order"
	"orderflow/pkg/errors"
)

type Publisher interface {
	PublishOrderCreated(ctx context.Context, event events.OrderCreated)
}

type ItemRequest struct {
	CatalogItemID int     `json:"catalogItemId" binding:"required,gt=0"`
	ProductName   string  `json:"productName" binding:"required"`
	PictureURI    string  `json:"pictureUri"`
	UnitPrice     float64 `json:"unitPrice" binding:"gte=0"`
	Units         int     `json:"units" binding:"required,gt=0"`
}

type Request struct {
	BuyerID       string         `json:"buyerId" binding:"required"`
	ShipToAddress *order.Address `json:"shipToAddress" binding:"required"`
	Items         []ItemRequest  `json:"items" binding:"required,min=1,dive"`
}

type Service struct {
	seq    Sequence
	bus    Publisher
	logger logger.Logger
	now    func() time.Time
}

func NewService(seq Sequence, bus Publisher, log logger.Logger) *Service {
	return &Service{
		seq:    seq,
		bus:    bus,
		logger: log,
		now:    time.Now,
	}
}

// PlaceOrder assigns an id and date to the checkout and raises OrderCreated.
// Subscribers run before PlaceOrder returns and do not observe cancellation
// of ctx.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (order.Order, error) {
	id, err := s.seq.Next(ctx)
	if err != nil {
		return order.Order{}, errors.ErrServiceUnavailable.WithMessage("could not allocate order id").WithCause(err)
	}

	o := order.Order{
		ID:            id,
		BuyerID:       req.BuyerID,
		OrderDate:     s.now().UTC(),
		ShipToAddress: req.ShipToAddress,
		Items:         make([]order.Item, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		o.Items = append(o.Items, order.Item{
			ItemOrdered: order.CatalogItemOrdered{
				CatalogItemID: it.CatalogItemID,
				ProductName:   it.ProductName,
				PictureURI:    it.PictureURI,
			},
			UnitPrice: it.UnitPrice,
			Units:     it.Units,
		})
	}

	s.logger.InfowCtx(ctx, "Order placed",
		"order_id", o.ID,
		"buyer_id", o.BuyerID,
		"total", o.Total(),
	)
	// The id is spent at this point, so a client hanging up must not cut
	// the fan-out short.
	s.bus.PublishOrderCreated(context.WithoutCancel(ctx), events.OrderCreated{Order: o, OccurredAt: o.OrderDate})
	return o, nil
}
