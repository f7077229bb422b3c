package model

import "time"

// Transaction is a completed purchase. Exactly one of CustomerID and StaffID
// is set. TotalPrice is fixed when the transaction is created.
type Transaction struct {
	ID         uint64            `db:"id" json:"id"`
	CustomerID *uint64           `db:"customer_id" json:"customerId,omitempty"`
	StaffID    *uint64           `db:"staff_id" json:"staffId,omitempty"`
	TotalPrice int64             `db:"total_price" json:"totalPrice"`
	CreatedAt  time.Time         `db:"created_at" json:"date"`
	TicketIDs  []uint64          `db:"-" json:"tickets"`
	Items      []TransactionItem `db:"-" json:"items"`
}

// TransactionItem is one concession line. UnitPrice is the item price at
// purchase time.
type TransactionItem struct {
	ItemID    uint64 `db:"item_id" json:"id"`
	Quantity  int    `db:"quantity" json:"quantity"`
	UnitPrice int64  `db:"unit_price" json:"unitPrice"`
}

// TransactionView is a transaction enriched with the showtime its tickets
// belong to.
type TransactionView struct {
	Transaction
	ShowtimeID    uint64    `db:"showtime_id" json:"showtimeId"`
	ShowtimeStart time.Time `db:"showtime_start" json:"startTime"`
	MovieID       uint64    `db:"movie_id" json:"movieId"`
	MovieTitle    string    `db:"movie_title" json:"movieTitle"`
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	CustomerID *uint64 // only this customer's transactions
	Limit      int     // 0 means no limit
}
