// Package queue publishes booking events to RabbitMQ and consumes them into
// the append-only booking log.
package queue

// TransactionCreatedQueue is the durable queue carrying TransactionCreatedEvent.
const TransactionCreatedQueue = "transaction.created"

// TransactionCreatedEvent is published after a booking commits. It carries
// enough for downstream consumers to log or notify without querying the
// database.
type TransactionCreatedEvent struct {
	TransactionID uint64   `json:"transaction_id"`
	CustomerID    *uint64  `json:"customer_id,omitempty"`
	StaffID       *uint64  `json:"staff_id,omitempty"`
	ShowtimeID    uint64   `json:"showtime_id"`
	RoomName      string   `json:"room_name"`
	MovieTitle    string   `json:"movie_title"`
	StartsAt      string   `json:"starts_at"`
	Seats         []string `json:"seats"`
	ItemCount     int      `json:"item_count"`
	TotalPrice    int64    `json:"total_price"`
	CreatedAt     string   `json:"created_at"`
}
