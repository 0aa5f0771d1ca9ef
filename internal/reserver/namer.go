package reserver

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"orderflow/pkg/models"
)

type Namer interface {
	Name(body []byte) string
}

// TimestampNamer names objects order-{yyyyMMddHHmmssSSS}.json in UTC. Two
// records in the same millisecond get the same name unless Unique is set,
// which appends the record's orderId, or a random UUID when the body
// carries none.
type TimestampNamer struct {
	Now    func() time.Time
	Unique bool
}

func NewTimestampNamer(unique bool) *TimestampNamer {
	return &TimestampNamer{Now: time.Now, Unique: unique}
}

func (n *TimestampNamer) Name(body []byte) string {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	stamp := formatStamp(now())

	if !n.Unique {
		return fmt.Sprintf("order-%s.json", stamp)
	}

	suffix, ok := models.PeekOrderID(body)
	if !ok {
		suffix = uuid.NewString()
	}
	return fmt.Sprintf("order-%s-%s.json", stamp, suffix)
}

func formatStamp(t time.Time) string {
	t = t.UTC()
	return t.Format("20060102150405") + fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
}
