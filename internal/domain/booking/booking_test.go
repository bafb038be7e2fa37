package booking

import (
	"errors"
	"testing"
	"time"

	"renta/internal/domain/shared/money"
	"renta/internal/domain/shared/timerange"
)

var testNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	r, err := timerange.FromDuration(testNow.Add(48*time.Hour), 24*time.Hour)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	b, err := NewBooking(CreateParams{
		ID:             "bk-1",
		SpaceID:        "sp-1",
		TenantID:       "user-1",
		PeriodCode:     "day",
		PeriodsCount:   1,
		Range:          r,
		PricePerPeriod: money.Must(100000, "RUB"),
		CreatedAt:      testNow,
	})
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	return b
}

func TestNewBookingValidation(t *testing.T) {
	r, _ := timerange.FromDuration(testNow, 24*time.Hour)
	base := CreateParams{
		ID:             "bk",
		SpaceID:        "sp",
		TenantID:       "tenant",
		PeriodsCount:   1,
		Range:          r,
		PricePerPeriod: money.Must(1000, "RUB"),
		CreatedAt:      testNow,
	}

	bad := base
	bad.PeriodsCount = 0
	if _, err := NewBooking(bad); !errors.Is(err, ErrPeriodsCount) {
		t.Errorf("zero periods: got %v", err)
	}

	bad = base
	bad.TenantID = "  "
	if _, err := NewBooking(bad); !errors.Is(err, ErrTenantRequired) {
		t.Errorf("blank tenant: got %v", err)
	}

	b, err := NewBooking(base)
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	if b.State != StatePending {
		t.Errorf("fresh booking state: got %s", b.State)
	}
	if b.Total.Amount != 1000 {
		t.Errorf("total: got %d", b.Total.Amount)
	}
	if len(b.PendingEvents()) != 1 {
		t.Errorf("expected a requested event, got %d", len(b.PendingEvents()))
	}
}

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(b *Booking)
		apply   func(b *Booking) error
		wantErr error
		want    State
	}{
		{
			name:  "pending confirms",
			apply: func(b *Booking) error { return b.Confirm(testNow) },
			want:  StateConfirmed,
		},
		{
			name:    "pending cannot complete",
			apply:   func(b *Booking) error { return b.Complete(testNow) },
			wantErr: ErrInvalidState,
		},
		{
			name:    "confirmed completes",
			prepare: func(b *Booking) { _ = b.Confirm(testNow) },
			apply:   func(b *Booking) error { return b.Complete(testNow) },
			want:    StateCompleted,
		},
		{
			name:  "pending cancels",
			apply: func(b *Booking) error { return b.Cancel("changed plans", testNow) },
			want:  StateCancelled,
		},
		{
			name:    "confirmed cancels",
			prepare: func(b *Booking) { _ = b.Confirm(testNow) },
			apply:   func(b *Booking) error { return b.Cancel("", testNow) },
			want:    StateCancelled,
		},
		{
			name: "completed is terminal",
			prepare: func(b *Booking) {
				_ = b.Confirm(testNow)
				_ = b.Complete(testNow)
			},
			apply:   func(b *Booking) error { return b.Cancel("", testNow) },
			wantErr: ErrInvalidState,
		},
		{
			name:    "cancelled is terminal",
			prepare: func(b *Booking) { _ = b.Cancel("", testNow) },
			apply:   func(b *Booking) error { return b.Confirm(testNow) },
			wantErr: ErrInvalidState,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBooking(t)
			if tc.prepare != nil {
				tc.prepare(b)
			}
			err := tc.apply(b)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("transition failed: %v", err)
			}
			if b.State != tc.want {
				t.Errorf("state: got %s, want %s", b.State, tc.want)
			}
		})
	}
}

func TestPrepaymentLifecycle(t *testing.T) {
	b := newTestBooking(t)

	if err := b.AttachPayment("pay-1", testNow); err != nil {
		t.Fatalf("AttachPayment: %v", err)
	}
	if err := b.MarkPrepaid(money.Must(10000, "RUB"), testNow); err != nil {
		t.Fatalf("MarkPrepaid: %v", err)
	}
	if err := b.MarkPrepaid(money.Must(10000, "RUB"), testNow); !errors.Is(err, ErrAlreadyPaid) {
		t.Errorf("second MarkPrepaid: got %v", err)
	}
	if err := b.AttachPayment("pay-2", testNow); !errors.Is(err, ErrAlreadyPaid) {
		t.Errorf("AttachPayment after payment: got %v", err)
	}

	if err := b.MarkRefunded(testNow); err != nil {
		t.Fatalf("MarkRefunded: %v", err)
	}
	if b.Prepayment.Paid {
		t.Error("refund must clear the paid flag")
	}
	if err := b.MarkRefunded(testNow); !errors.Is(err, ErrAlreadyRefunded) {
		t.Errorf("second refund: got %v", err)
	}
}

func TestMarkRefundedRequiresPayment(t *testing.T) {
	b := newTestBooking(t)
	if err := b.MarkRefunded(testNow); !errors.Is(err, ErrNothingToRefund) {
		t.Errorf("refund without payment: got %v", err)
	}
}

func TestClearPaymentRef(t *testing.T) {
	b := newTestBooking(t)
	_ = b.AttachPayment("pay-1", testNow)
	b.ClearPaymentRef(testNow)
	if b.Prepayment.PaymentID != "" {
		t.Error("payment ref should be cleared for unpaid booking")
	}

	_ = b.AttachPayment("pay-2", testNow)
	_ = b.MarkPrepaid(money.Must(100, "RUB"), testNow)
	b.ClearPaymentRef(testNow)
	if b.Prepayment.PaymentID != "pay-2" {
		t.Error("paid booking must keep its payment ref")
	}
}

func TestValidateStart(t *testing.T) {
	if err := ValidateStart(testNow.Add(-time.Minute), testNow); !errors.Is(err, ErrStartInPast) {
		t.Errorf("past start: got %v", err)
	}
	if err := ValidateStart(testNow, testNow); err != nil {
		t.Errorf("start at now: got %v", err)
	}
}

func TestPrepaymentPolicyAmount(t *testing.T) {
	policy := PrepaymentPolicy{Percent: 10, MinimumCharge: 100, CancellationLead: 24 * time.Hour}

	cases := []struct {
		total int64
		want  int64
	}{
		{100000, 10000}, // 10% of 1000.00
		{500, 100},      // floor kicks in: 10% would be 50
		{1000, 100},     // exactly at the floor
		{1010, 101},
	}
	for _, tc := range cases {
		got := policy.Amount(money.Must(tc.total, "RUB"))
		if got.Amount != tc.want {
			t.Errorf("Amount(%d): got %d, want %d", tc.total, got.Amount, tc.want)
		}
		if got.Currency != "RUB" {
			t.Errorf("Amount(%d): currency %q", tc.total, got.Currency)
		}
	}
}

func TestPrepaymentPolicyForfeited(t *testing.T) {
	policy := PrepaymentPolicy{Percent: 10, MinimumCharge: 100, CancellationLead: 24 * time.Hour}

	if !policy.Forfeited(testNow, testNow.Add(23*time.Hour)) {
		t.Error("cancellation 23h before start must forfeit the prepayment")
	}
	if policy.Forfeited(testNow, testNow.Add(25*time.Hour)) {
		t.Error("cancellation 25h before start must allow a refund")
	}
}
