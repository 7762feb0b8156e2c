// Package memory is an in-process Store. Transactions are serialised by a
// single mutex and run against a copy of the data that replaces the live
// copy only on success, giving the same isolation as the Postgres store.
package memory

import (
	"context"
	"sync"

	"github.com/fleetline/service-reservation/internal/application"
	"github.com/fleetline/service-reservation/internal/domain/booking"
	"github.com/fleetline/service-reservation/internal/domain/extension"
	"github.com/fleetline/service-reservation/internal/domain/latefee"
	"github.com/fleetline/service-reservation/internal/domain/payment"
	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/fleetline/service-reservation/internal/domain/vehicle"
	"github.com/google/uuid"
)

type state struct {
	vehicles   map[uuid.UUID]vehicle.Vehicle
	rules      map[uuid.UUID]pricing.PeakSeasonRule
	bookings   map[uuid.UUID]booking.Booking
	extensions map[uuid.UUID]extension.Extension
	lateFees   map[uuid.UUID]latefee.LateFee
	payments   map[uuid.UUID]payment.Payment
}

func newState() *state {
	return &state{
		vehicles:   make(map[uuid.UUID]vehicle.Vehicle),
		rules:      make(map[uuid.UUID]pricing.PeakSeasonRule),
		bookings:   make(map[uuid.UUID]booking.Booking),
		extensions: make(map[uuid.UUID]extension.Extension),
		lateFees:   make(map[uuid.UUID]latefee.LateFee),
		payments:   make(map[uuid.UUID]payment.Payment),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		vehicles:   cloneMap(s.vehicles),
		rules:      cloneMap(s.rules),
		bookings:   cloneMap(s.bookings),
		extensions: cloneMap(s.extensions),
		lateFees:   cloneMap(s.lateFees),
		payments:   cloneMap(s.payments),
	}
}

// Store is an in-memory implementation of application.Store.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{st: newState()}
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// view gives repositories access to one state under one locking discipline.
type view struct {
	lock sync.Locker
	get  func() *state
}

func (v view) do(fn func(st *state) error) error {
	v.lock.Lock()
	defer v.lock.Unlock()
	return fn(v.get())
}

func reposFor(v view) application.Repositories {
	return application.Repositories{
		Bookings:   &bookingRepo{v: v},
		Vehicles:   &vehicleRepo{v: v},
		Rules:      &ruleRepo{v: v},
		Extensions: &extensionRepo{v: v},
		LateFees:   &lateFeeRepo{v: v},
		Payments:   &paymentRepo{v: v},
	}
}

// Repos returns repositories that operate on committed data outside any transaction.
func (s *Store) Repos() application.Repositories {
	return reposFor(view{lock: &s.mu, get: func() *state { return s.st }})
}

// Transaction runs fn against a private copy of the data and commits the
// copy if fn succeeds.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, repos application.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	if err := fn(ctx, reposFor(view{lock: noopLocker{}, get: func() *state { return working }})); err != nil {
		return err
	}
	s.st = working
	return nil
}

// AddVehicle seeds a vehicle. Fleet data is owned elsewhere, so the core
// repositories never write vehicles.
func (s *Store) AddVehicle(v *vehicle.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.vehicles[v.ID()] = *v
}

// AddPeakSeasonRule seeds a peak-season rule.
func (s *Store) AddPeakSeasonRule(r pricing.PeakSeasonRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.rules[r.ID] = r
}
