package memory

import (
	"context"
	"slices"
	"time"

	"github.com/fleetline/service-reservation/internal/domain/booking"
	"github.com/fleetline/service-reservation/internal/domain/extension"
	"github.com/fleetline/service-reservation/internal/domain/latefee"
	"github.com/fleetline/service-reservation/internal/domain/payment"
	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/fleetline/service-reservation/internal/domain/vehicle"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
)

// --- Bookings ---

type bookingRepo struct{ v view }

func (r *bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	var out *booking.Booking
	err := r.v.do(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return domain.NewNotFoundError("booking", id.String())
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *bookingRepo) FindByRequesterID(_ context.Context, requesterID uuid.UUID, page, limit int) ([]*booking.Booking, int64, error) {
	return r.page(func(b *booking.Booking) bool { return b.RequesterID() == requesterID }, page, limit)
}

func (r *bookingRepo) ListAll(_ context.Context, status *booking.BookingStatus, page, limit int) ([]*booking.Booking, int64, error) {
	return r.page(func(b *booking.Booking) bool { return status == nil || b.Status() == *status }, page, limit)
}

func (r *bookingRepo) page(match func(*booking.Booking) bool, page, limit int) ([]*booking.Booking, int64, error) {
	all := r.filter(match)
	slices.SortFunc(all, func(a, b *booking.Booking) int { return b.CreatedAt().Compare(a.CreatedAt()) })

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []*booking.Booking{}, total, nil
	}
	end := min(start+limit, len(all))
	return all[start:end], total, nil
}

func (r *bookingRepo) filter(match func(*booking.Booking) bool) []*booking.Booking {
	var out []*booking.Booking
	_ = r.v.do(func(st *state) error {
		for _, b := range st.bookings {
			if match(&b) {
				cp := b
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out
}

func (r *bookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	err := r.v.do(func(st *state) error {
		for _, b := range st.bookings {
			counts[string(b.Status())]++
		}
		return nil
	})
	return counts, err
}

func (r *bookingRepo) FindOverlapping(_ context.Context, vehicleID uuid.UUID, period booking.Period, exclude *uuid.UUID) ([]*booking.Booking, error) {
	return r.filter(func(b *booking.Booking) bool {
		if exclude != nil && b.ID() == *exclude {
			return false
		}
		return b.VehicleID() == vehicleID && b.Status().IsActive() && b.Period().Overlaps(period)
	}), nil
}

func (r *bookingRepo) FindOverdue(_ context.Context, now time.Time, limit int) ([]*booking.Booking, error) {
	var out []*booking.Booking
	_ = r.v.do(func(st *state) error {
		assessed := make(map[uuid.UUID]bool, len(st.lateFees))
		for _, f := range st.lateFees {
			assessed[f.BookingID()] = true
		}
		for _, b := range st.bookings {
			if b.Status() == booking.StatusOngoing && b.ReturnAt().Before(now) && !assessed[b.ID()] {
				cp := b
				out = append(out, &cp)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *booking.Booking) int { return a.ReturnAt().Compare(b.ReturnAt()) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// overlapConflict mirrors the database exclusion constraint.
func overlapConflict(st *state, b *booking.Booking) error {
	if !b.Status().IsActive() {
		return nil
	}
	var ids []string
	for _, other := range st.bookings {
		if other.ID() == b.ID() || other.VehicleID() != b.VehicleID() || !other.Status().IsActive() {
			continue
		}
		if other.Period().Overlaps(b.Period()) {
			ids = append(ids, other.ID().String())
		}
	}
	if len(ids) > 0 {
		return domain.NewConflictError(booking.ReasonPeriodTaken, ids...)
	}
	return nil
}

func (r *bookingRepo) Save(_ context.Context, b *booking.Booking) error {
	return r.v.do(func(st *state) error {
		if _, exists := st.bookings[b.ID()]; exists {
			return domain.NewConflictError("booking already exists", b.ID().String())
		}
		if err := overlapConflict(st, b); err != nil {
			return err
		}
		st.bookings[b.ID()] = *b
		return nil
	})
}

func (r *bookingRepo) Update(_ context.Context, b *booking.Booking) error {
	return r.v.do(func(st *state) error {
		current, ok := st.bookings[b.ID()]
		if !ok {
			return domain.NewNotFoundError("booking", b.ID().String())
		}
		if current.Version() != b.Version()-1 {
			return domain.NewConflictError("booking was modified concurrently", b.ID().String())
		}
		if err := overlapConflict(st, b); err != nil {
			return err
		}
		st.bookings[b.ID()] = *b
		return nil
	})
}

// --- Vehicles ---

type vehicleRepo struct{ v view }

func (r *vehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	var out *vehicle.Vehicle
	err := r.v.do(func(st *state) error {
		v, ok := st.vehicles[id]
		if !ok {
			return domain.NewNotFoundError("vehicle", id.String())
		}
		out = &v
		return nil
	})
	return out, err
}

// FindForUpdate needs no row lock here: transactions already hold the store mutex.
func (r *vehicleRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	return r.FindByID(ctx, id)
}

// --- Peak season rules ---

type ruleRepo struct{ v view }

func (r *ruleRepo) ListActiveBetween(_ context.Context, from, to time.Time) ([]pricing.PeakSeasonRule, error) {
	var out []pricing.PeakSeasonRule
	err := r.v.do(func(st *state) error {
		for _, rule := range st.rules {
			if !rule.Active || rule.EndDate.Before(truncateDay(from)) || rule.StartDate.After(to) {
				continue
			}
			out = append(out, rule)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b pricing.PeakSeasonRule) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, err
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- Extensions ---

type extensionRepo struct{ v view }

func (r *extensionRepo) FindByID(_ context.Context, id uuid.UUID) (*extension.Extension, error) {
	var out *extension.Extension
	err := r.v.do(func(st *state) error {
		e, ok := st.extensions[id]
		if !ok {
			return domain.NewNotFoundError("extension", id.String())
		}
		out = &e
		return nil
	})
	return out, err
}

func (r *extensionRepo) HasPending(_ context.Context, bookingID uuid.UUID) (bool, error) {
	found := false
	err := r.v.do(func(st *state) error {
		found = hasPending(st, bookingID, uuid.Nil)
		return nil
	})
	return found, err
}

func hasPending(st *state, bookingID, except uuid.UUID) bool {
	for _, e := range st.extensions {
		if e.BookingID() == bookingID && e.Status() == extension.StatusPending && e.ID() != except {
			return true
		}
	}
	return false
}

func (r *extensionRepo) ListByBookingID(_ context.Context, bookingID uuid.UUID) ([]*extension.Extension, error) {
	var out []*extension.Extension
	err := r.v.do(func(st *state) error {
		for _, e := range st.extensions {
			if e.BookingID() == bookingID {
				cp := e
				out = append(out, &cp)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *extension.Extension) int { return a.CreatedAt().Compare(b.CreatedAt()) })
	return out, err
}

func (r *extensionRepo) Save(_ context.Context, e *extension.Extension) error {
	return r.v.do(func(st *state) error {
		if e.Status() == extension.StatusPending && hasPending(st, e.BookingID(), e.ID()) {
			return domain.NewConflictError("booking already has a pending extension", e.BookingID().String())
		}
		st.extensions[e.ID()] = *e
		return nil
	})
}

func (r *extensionRepo) Update(_ context.Context, e *extension.Extension) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.extensions[e.ID()]; !ok {
			return domain.NewNotFoundError("extension", e.ID().String())
		}
		st.extensions[e.ID()] = *e
		return nil
	})
}

// --- Late fees ---

type lateFeeRepo struct{ v view }

func (r *lateFeeRepo) FindByID(_ context.Context, id uuid.UUID) (*latefee.LateFee, error) {
	var out *latefee.LateFee
	err := r.v.do(func(st *state) error {
		f, ok := st.lateFees[id]
		if !ok {
			return domain.NewNotFoundError("late fee", id.String())
		}
		out = &f
		return nil
	})
	return out, err
}

func (r *lateFeeRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*latefee.LateFee, error) {
	var out *latefee.LateFee
	err := r.v.do(func(st *state) error {
		for _, f := range st.lateFees {
			if f.BookingID() == bookingID {
				cp := f
				out = &cp
				return nil
			}
		}
		return domain.NewNotFoundError("late fee for booking", bookingID.String())
	})
	return out, err
}

func (r *lateFeeRepo) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	_, err := r.FindByBookingID(ctx, bookingID)
	if domain.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (r *lateFeeRepo) Save(_ context.Context, f *latefee.LateFee) error {
	return r.v.do(func(st *state) error {
		for _, existing := range st.lateFees {
			if existing.BookingID() == f.BookingID() {
				return domain.NewConflictError("late fee already exists for booking", f.BookingID().String())
			}
		}
		st.lateFees[f.ID()] = *f
		return nil
	})
}

func (r *lateFeeRepo) Update(_ context.Context, f *latefee.LateFee) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.lateFees[f.ID()]; !ok {
			return domain.NewNotFoundError("late fee", f.ID().String())
		}
		st.lateFees[f.ID()] = *f
		return nil
	})
}

// --- Payments ---

type paymentRepo struct{ v view }

func (r *paymentRepo) FindByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	var out *payment.Payment
	err := r.v.do(func(st *state) error {
		p, ok := st.payments[id]
		if !ok {
			return domain.NewNotFoundError("payment", id.String())
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *paymentRepo) ListByBookingID(_ context.Context, bookingID uuid.UUID) ([]*payment.Payment, error) {
	var out []*payment.Payment
	err := r.v.do(func(st *state) error {
		for _, p := range st.payments {
			if p.BookingID() == bookingID {
				cp := p
				out = append(out, &cp)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *payment.Payment) int { return a.CreatedAt().Compare(b.CreatedAt()) })
	return out, err
}

func (r *paymentRepo) Save(_ context.Context, p *payment.Payment) error {
	return r.v.do(func(st *state) error {
		st.payments[p.ID()] = *p
		return nil
	})
}

func (r *paymentRepo) Update(_ context.Context, p *payment.Payment) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.payments[p.ID()]; !ok {
			return domain.NewNotFoundError("payment", p.ID().String())
		}
		st.payments[p.ID()] = *p
		return nil
	})
}
