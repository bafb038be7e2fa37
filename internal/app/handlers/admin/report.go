package admin

import (
	"context"
	"sort"
	"time"

	"renta/internal/app/dto"
	"renta/internal/app/handlers/support"
	"renta/internal/app/queries"
	"renta/internal/app/uow"
	domainbooking "renta/internal/domain/booking"
	domainpayment "renta/internal/domain/payment"
	domainspaces "renta/internal/domain/spaces"
)

const overviewReportKey = "admin.report.overview"

// OverviewReportQuery assembles the numbers shown on the admin panel
// and fed into the export endpoints.
type OverviewReportQuery struct{}

func (q OverviewReportQuery) Key() string { return overviewReportKey }

type OverviewReportHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *OverviewReportHandler) Handle(ctx context.Context, q OverviewReportQuery) (dto.OverviewReport, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	report := dto.OverviewReport{
		GeneratedAt: time.Now().UTC(),
		Spaces:      map[string]int{},
		Bookings:    map[string]int{},
	}

	spaceCounts, err := unit.Spaces().CountByState(ctx)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	for state, count := range spaceCounts {
		report.Spaces[string(state)] = count
	}

	bookingCounts, err := unit.Bookings().CountByState(ctx)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	for state, count := range bookingCounts {
		report.Bookings[string(state)] = count
	}

	activeTotal, err := unit.Bookings().SumTotals(ctx, domainbooking.ActiveStates)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	report.ActiveTotal = dto.MapMoney(activeTotal)

	collected, err := unit.Transactions().SumByStatus(ctx, domainpayment.StatusSucceeded)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	report.CollectedTotal = dto.MapMoney(collected)

	refunded, err := unit.Transactions().SumByStatus(ctx, domainpayment.StatusRefunded)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	report.RefundedTotal = dto.MapMoney(refunded)

	cancelled, err := unit.Transactions().SumByStatus(ctx, domainpayment.StatusCancelled)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	report.CancelledCharge = dto.MapMoney(cancelled)

	users, err := unit.Users().Count(ctx)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	report.Users = users

	reviews, err := unit.Reviews().Count(ctx)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	report.Reviews = reviews

	topSpaces, err := h.topSpaces(ctx, unit)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	report.TopSpaces = topSpaces

	ledger, err := ledgerByDay(ctx, unit, report.GeneratedAt)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	report.LedgerByDay = ledger

	return report, nil
}

// rankedStates are the states that count towards a space's booking
// tally; cancelled bookings stay out.
var rankedStates = []domainbooking.State{
	domainbooking.StatePending,
	domainbooking.StateConfirmed,
	domainbooking.StateCompleted,
}

const topSpacesLimit = 5

func (h *OverviewReportHandler) topSpaces(ctx context.Context, unit uow.UnitOfWork) ([]dto.SpaceBookingRank, error) {
	counts, err := unit.Bookings().CountBySpace(ctx, rankedStates)
	if err != nil {
		return nil, err
	}
	ranks := make([]dto.SpaceBookingRank, 0, len(counts))
	for spaceID, count := range counts {
		ranks = append(ranks, dto.SpaceBookingRank{SpaceID: string(spaceID), Bookings: count})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Bookings == ranks[j].Bookings {
			return ranks[i].SpaceID < ranks[j].SpaceID
		}
		return ranks[i].Bookings > ranks[j].Bookings
	})
	if len(ranks) > topSpacesLimit {
		ranks = ranks[:topSpacesLimit]
	}
	for i := range ranks {
		space, err := unit.Spaces().ByID(ctx, domainspaces.SpaceID(ranks[i].SpaceID))
		if err != nil {
			continue
		}
		ranks[i].Title = space.Title
	}
	return ranks, nil
}

// ledgerWindow bounds the per-day transaction chart.
const ledgerWindow = 14 * 24 * time.Hour

func ledgerByDay(ctx context.Context, unit uow.UnitOfWork, now time.Time) ([]dto.LedgerDayBucket, error) {
	rows, err := unit.Transactions().ListSince(ctx, now.Add(-ledgerWindow))
	if err != nil {
		return nil, err
	}
	buckets := make([]dto.LedgerDayBucket, 0)
	index := make(map[string]int)
	for _, tx := range rows {
		day := tx.CreatedAt.UTC().Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(buckets)
			index[day] = i
			buckets = append(buckets, dto.LedgerDayBucket{Date: day, Net: dto.MoneyDTO{Currency: "RUB"}})
		}
		buckets[i].Count++
		buckets[i].Net.Amount += tx.Amount.Amount
		if tx.Amount.Currency != "" {
			buckets[i].Net.Currency = tx.Amount.Currency
		}
	}
	return buckets, nil
}

var _ queries.Handler[OverviewReportQuery, dto.OverviewReport] = (*OverviewReportHandler)(nil)
