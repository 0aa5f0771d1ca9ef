package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// RecordDateLayout is the wire format of OrderRecord.OrderDate (dd/MM/yyyy HH:mm:ss).
const RecordDateLayout = "02/01/2006 15:04:05"

// RecordDate is a timestamp that serializes with RecordDateLayout.
type RecordDate time.Time

func (d RecordDate) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(time.Time(d).Format(RecordDateLayout))), nil
}

func (d *RecordDate) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("order date must be a string: %w", err)
	}
	t, err := time.Parse(RecordDateLayout, s)
	if err != nil {
		return fmt.Errorf("order date %q: %w", s, err)
	}
	*d = RecordDate(t)
	return nil
}

func (d RecordDate) Time() time.Time {
	return time.Time(d)
}

type ItemQuantity struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// OrderRecord is the payload carried from the dispatcher to the sink.
// It is built once per order; later stages forward its serialized bytes
// and never modify a record in place.
type OrderRecord struct {
	OrderID         int               `json:"orderId"`
	OrderDate       RecordDate        `json:"orderDate"`
	ShippingAddress json.RawMessage   `json:"shippingAddress"`
	ListOfItems     []json.RawMessage `json:"listOfItems"`
	QuantityOfItems []ItemQuantity    `json:"quantityOfItems"`
	FinalPrice      float64           `json:"finalPrice"`
}

// Marshal returns the canonical JSON encoding. Missing shipping address
// encodes as null and missing collections as empty arrays.
func (r OrderRecord) Marshal() ([]byte, error) {
	if r.ListOfItems == nil {
		r.ListOfItems = []json.RawMessage{}
	}
	if r.QuantityOfItems == nil {
		r.QuantityOfItems = []ItemQuantity{}
	}
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order record %d: %w", r.OrderID, err)
	}
	return body, nil
}

// PeekOrderID extracts orderId from a serialized record without decoding
// the rest of it. ok is false for empty, malformed or id-less payloads.
func PeekOrderID(body []byte) (id string, ok bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", false
	}

	var probe struct {
		OrderID json.RawMessage `json:"orderId"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || len(probe.OrderID) == 0 {
		return "", false
	}

	raw := string(probe.OrderID)
	if raw == "null" {
		return "", false
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	if raw == "" {
		return "", false
	}
	return raw, true
}
