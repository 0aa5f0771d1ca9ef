package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRecord_Marshal(t *testing.T) {
	rec := OrderRecord{
		OrderID:         17,
		OrderDate:       RecordDate(time.Date(2024, time.March, 5, 9, 7, 3, 0, time.UTC)),
		ShippingAddress: json.RawMessage(`{"street":"123 Main St","city":"Redmond"}`),
		ListOfItems:     []json.RawMessage{json.RawMessage(`{"units":2}`)},
		QuantityOfItems: []ItemQuantity{{ItemID: "4", Quantity: 2}},
		FinalPrice:      25.5,
	}

	body, err := rec.Marshal()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"orderId": 17,
		"orderDate": "05/03/2024 09:07:03",
		"shippingAddress": {"street":"123 Main St","city":"Redmond"},
		"listOfItems": [{"units":2}],
		"quantityOfItems": [{"itemId":"4","quantity":2}],
		"finalPrice": 25.5
	}`, string(body))
}

func TestOrderRecord_MarshalEmpty(t *testing.T) {
	body, err := OrderRecord{OrderID: 1}.Marshal()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Nil(t, decoded["shippingAddress"])
	assert.Equal(t, []interface{}{}, decoded["listOfItems"])
	assert.Equal(t, []interface{}{}, decoded["quantityOfItems"])
}

func TestRecordDate_RoundTrip(t *testing.T) {
	var d RecordDate
	require.NoError(t, json.Unmarshal([]byte(`"31/12/2023 23:59:58"`), &d))
	assert.Equal(t, time.Date(2023, time.December, 31, 23, 59, 58, 0, time.UTC), d.Time())

	assert.Error(t, json.Unmarshal([]byte(`"2023-12-31"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`12`), &d))
}

func TestPeekOrderID(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantID string
		wantOK bool
	}{
		{name: "numeric id", body: `{"orderId": 42, "finalPrice": 1}`, wantID: "42", wantOK: true},
		{name: "string id", body: `{"orderId": "A-9"}`, wantID: "A-9", wantOK: true},
		{name: "empty body", body: ``, wantOK: false},
		{name: "whitespace body", body: "  \n", wantOK: false},
		{name: "not json", body: `<order/>`, wantOK: false},
		{name: "missing id", body: `{"finalPrice": 1}`, wantOK: false},
		{name: "null id", body: `{"orderId": null}`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := PeekOrderID([]byte(tt.body))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestDeliveryEnvelope_Encode(t *testing.T) {
	env := DeliveryEnvelope{ID: "a", PartitionKey: "part-key-a", Order: json.RawMessage("{ \"x\" : 1 }")}

	out, err := env.Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a","partitionKey":"part-key-a","order":{ "x" : 1 }}`, string(out))

	out, err = DeliveryEnvelope{ID: "b", PartitionKey: "part-key-b"}.Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"id":"b","partitionKey":"part-key-b","order":null}`, string(out))
}
