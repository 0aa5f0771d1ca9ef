package models

import (
	"bytes"
	"encoding/json"
)

// DeliveryEnvelope is returned by the delivery ingress endpoint. Order is
// the caller's payload echoed back untouched.
type DeliveryEnvelope struct {
	ID           string          `json:"id"`
	PartitionKey string          `json:"partitionKey"`
	Order        json.RawMessage `json:"order"`
}

// Encode writes the envelope with Order copied byte for byte. json.Marshal
// would compact and HTML-escape it.
func (e DeliveryEnvelope) Encode() ([]byte, error) {
	id, err := json.Marshal(e.ID)
	if err != nil {
		return nil, err
	}
	key, err := json.Marshal(e.PartitionKey)
	if err != nil {
		return nil, err
	}
	order := []byte(e.Order)
	if len(bytes.TrimSpace(order)) == 0 {
		order = []byte("null")
	}

	var buf bytes.Buffer
	buf.Grow(len(id) + len(key) + len(order) + 40)
	buf.WriteString(`{"id":`)
	buf.Write(id)
	buf.WriteString(`,"partitionKey":`)
	buf.Write(key)
	buf.WriteString(`,"order":`)
	buf.Write(order)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
