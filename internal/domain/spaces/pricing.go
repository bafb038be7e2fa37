package spaces

import (
	"errors"
	"strings"
	"time"

	"renta/internal/domain/shared/money"
)

var (
	ErrPriceNotFound  = errors.New("spaces: price not found")
	ErrPeriodUnknown  = errors.New("spaces: unknown pricing period")
	ErrPriceNegative  = errors.New("spaces: price must be positive")
	ErrPeriodRequired = errors.New("spaces: pricing period is required")
)

// Period is a named rental unit measured in whole hours.
type Period struct {
	Code        string
	Description string
	Hours       int
}

// Standard periods mirror the catalog the booking form offers.
var standardPeriods = []Period{
	{Code: "hour", Description: "Per hour", Hours: 1},
	{Code: "day", Description: "Per day", Hours: 24},
	{Code: "week", Description: "Per week", Hours: 24 * 7},
	{Code: "month", Description: "Per month", Hours: 24 * 30},
}

// PeriodByCode resolves a period definition.
func PeriodByCode(code string) (Period, error) {
	code = strings.TrimSpace(strings.ToLower(code))
	if code == "" {
		return Period{}, ErrPeriodRequired
	}
	for _, p := range standardPeriods {
		if p.Code == code {
			return p, nil
		}
	}
	return Period{}, ErrPeriodUnknown
}

// Periods returns the supported period catalog.
func Periods() []Period {
	out := make([]Period, len(standardPeriods))
	copy(out, standardPeriods)
	return out
}

// Price is the rate for one rental period of the space.
// (space, period) pairs are unique; SetPrice upserts.
type Price struct {
	PeriodCode string
	Amount     money.Money
	Active     bool
	UpdatedAt  time.Time
}

// SetPrice creates or replaces the rate for a period.
func (s *Space) SetPrice(periodCode string, amount money.Money, now time.Time) error {
	period, err := PeriodByCode(periodCode)
	if err != nil {
		return err
	}
	if amount.Amount <= 0 {
		return ErrPriceNegative
	}
	entry := Price{PeriodCode: period.Code, Amount: amount, Active: true, UpdatedAt: now.UTC()}
	for i := range s.Prices {
		if s.Prices[i].PeriodCode == period.Code {
			s.Prices[i] = entry
			s.touch(now)
			return nil
		}
	}
	s.Prices = append(s.Prices, entry)
	s.touch(now)
	return nil
}

// DeactivatePrice hides a rate without deleting history.
func (s *Space) DeactivatePrice(periodCode string, now time.Time) error {
	period, err := PeriodByCode(periodCode)
	if err != nil {
		return err
	}
	for i := range s.Prices {
		if s.Prices[i].PeriodCode == period.Code {
			s.Prices[i].Active = false
			s.Prices[i].UpdatedAt = now.UTC()
			s.touch(now)
			return nil
		}
	}
	return ErrPriceNotFound
}

// ActivePrice returns the current rate for a period, failing when the
// rate is missing or deactivated.
func (s *Space) ActivePrice(periodCode string) (Price, error) {
	period, err := PeriodByCode(periodCode)
	if err != nil {
		return Price{}, err
	}
	for _, p := range s.Prices {
		if p.PeriodCode == period.Code && p.Active {
			return p, nil
		}
	}
	return Price{}, ErrPriceNotFound
}

// MinActivePrice is the cheapest visible rate, used for catalog cards.
func (s *Space) MinActivePrice() (Price, bool) {
	var best Price
	found := false
	for _, p := range s.Prices {
		if !p.Active {
			continue
		}
		if !found || p.Amount.Amount < best.Amount.Amount {
			best = p
			found = true
		}
	}
	return best, found
}
