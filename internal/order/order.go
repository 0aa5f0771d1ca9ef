package order

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"orderflow/pkg/models"
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zipCode"`
}

type CatalogItemOrdered struct {
	CatalogItemID int    `json:"catalogItemId"`
	ProductName   string `json:"productName"`
	PictureURI    string `json:"pictureUri"`
}

type Item struct {
	ItemOrdered CatalogItemOrdered `json:"itemOrdered"`
	UnitPrice   float64            `json:"unitPrice"`
	Units       int                `json:"units"`
}

// Order is the aggregate raised with the OrderCreated event.
type Order struct {
	ID            int       `json:"id"`
	BuyerID       string    `json:"buyerId"`
	OrderDate     time.Time `json:"orderDate"`
	ShipToAddress *Address  `json:"shipToAddress"`
	Items         []Item    `json:"orderItems"`
}

// Total sums unit price times units, rounded to cents.
func (o Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.UnitPrice * float64(item.Units)
	}
	return math.Round(total*100) / 100
}

// NewRecord projects the order into the record that travels through the
// pipeline. Address and items are snapshotted as raw JSON, so later
// changes to o do not leak into the record.
func NewRecord(o Order) (models.OrderRecord, error) {
	rec := models.OrderRecord{
		OrderID:         o.ID,
		OrderDate:       models.RecordDate(o.OrderDate),
		ListOfItems:     make([]json.RawMessage, 0, len(o.Items)),
		QuantityOfItems: make([]models.ItemQuantity, 0, len(o.Items)),
		FinalPrice:      o.Total(),
	}

	if o.ShipToAddress != nil {
		raw, err := json.Marshal(o.ShipToAddress)
		if err != nil {
			return models.OrderRecord{}, fmt.Errorf("failed to encode shipping address: %w", err)
		}
		rec.ShippingAddress = raw
	}

	for i, item := range o.Items {
		raw, err := json.Marshal(item)
		if err != nil {
			return models.OrderRecord{}, fmt.Errorf("failed to encode order item %d: %w", i, err)
		}
		rec.ListOfItems = append(rec.ListOfItems, raw)
		rec.QuantityOfItems = append(rec.QuantityOfItems, models.ItemQuantity{
			ItemID:   strconv.Itoa(item.ItemOrdered.CatalogItemID),
			Quantity: item.Units,
		})
	}

	return rec, nil
}
