package model

import "time"

// Dashboard summarizes the current theater-local day.
type Dashboard struct {
	Date               time.Time         `json:"date"`
	Revenue            int64             `json:"revenue"`
	TicketsSold        int               `json:"ticketsSold"`
	TicketsRemaining   int               `json:"ticketsRemaining"`
	RecentTransactions []TransactionView `json:"recentTransactions"`
}

// TicketStats counts tickets of a set of showtimes.
type TicketStats struct {
	Sold  int `db:"sold"`
	Total int `db:"total"`
}
