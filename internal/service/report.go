package service

import (
	"context"

	"github.com/iliyamo/cinema-booking/internal/clock"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

const recentTransactions = 5

type ReportService struct {
	store repository.Store
	clock clock.Clock
}

func NewReportService(store repository.Store, clk clock.Clock) *ReportService {
	return &ReportService{store: store, clock: clk}
}

// Dashboard reports today's revenue and ticket sales in theater-local time
// along with the latest transactions.
func (s *ReportService) Dashboard(ctx context.Context, caller Caller) (*model.Dashboard, error) {
	if err := caller.require(model.ManagementRoles...); err != nil {
		return nil, err
	}
	from, to := clock.Today(s.clock)
	out := &model.Dashboard{Date: from}
	err := s.store.View(ctx, func(tx repository.Tx) error {
		revenue, err := tx.RevenueBetween(ctx, from, to)
		if err != nil {
			return err
		}
		stats, err := tx.TicketStatsBetween(ctx, from, to)
		if err != nil {
			return err
		}
		recent, err := tx.ListTransactions(ctx, model.TransactionFilter{Limit: recentTransactions})
		if err != nil {
			return err
		}
		out.Revenue = revenue
		out.TicketsSold = stats.Sold
		out.TicketsRemaining = stats.Total - stats.Sold
		out.RecentTransactions = recent
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to build dashboard")
	}
	return out, nil
}
