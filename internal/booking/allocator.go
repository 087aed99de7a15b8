package booking

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/customer"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
)

// Session is what booking needs from the caller's session.
type Session interface {
	Email() (string, bool)
}

type Customers interface {
	FindByEmail(ctx context.Context, email string) (customer.Customer, error)
}

type Publisher interface {
	PublishServicesBooked(ctx context.Context, r Result) error
}

type Allocator struct {
	runner    *store.Runner
	repo      *Repository
	customers Customers
	pub       Publisher
	logger    *zap.Logger
}

// NewAllocator wires the allocator. pub may be nil when messaging is disabled.
func NewAllocator(runner *store.Runner, repo *Repository, customers Customers, pub Publisher, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{runner: runner, repo: repo, customers: customers, pub: pub, logger: logger}
}

// Book allocates every requested service with one mechanic on one day. Each
// service resolves its price, takes one slot from the mechanic's capacity
// and writes a booking row. Processing stops at the first failing service and
// the allocations made so far are returned with the error. Whether those
// allocations survive depends on the runner mode.
func (a *Allocator) Book(ctx context.Context, sess Session, req Request) (Result, error) {
	const op = "booking.book"

	email, ok := sess.Email()
	if !ok {
		return Result{}, apperr.E(apperr.KindSessionNotInitialized, op, "no identity bound to session", nil)
	}
	req.Day = strings.TrimSpace(req.Day)
	if len(req.Services) == 0 {
		return Result{}, apperr.Invalid(op, "at least one service is required")
	}
	if req.Day == "" {
		return Result{}, apperr.Invalid(op, "day is required")
	}
	if req.MechanicID <= 0 {
		return Result{}, apperr.Invalid(op, "mechanic is required")
	}

	cust, err := a.customers.FindByEmail(ctx, email)
	if err != nil {
		return Result{}, err
	}

	res := Result{CustomerID: cust.ID, MechanicID: req.MechanicID, Day: req.Day}
	err = a.runner.InTx(ctx, func(exec store.Executor) error {
		repo := a.repo.WithExecutor(exec)
		res.Allocations = res.Allocations[:0]
		for _, name := range req.Services {
			alloc, err := a.allocate(ctx, repo, cust.ID, req, name)
			if err != nil {
				return err
			}
			res.Allocations = append(res.Allocations, alloc)
		}
		return nil
	})
	if err != nil {
		if a.runner.Mode() == store.ModeAtomic {
			res.Allocations = nil
		}
		a.logger.Warn("booking stopped",
			zap.Int64("customer_id", cust.ID),
			zap.Int64("mechanic_id", req.MechanicID),
			zap.String("day", req.Day),
			zap.Int("requested", len(req.Services)),
			zap.Int("allocated", len(res.Allocations)),
			zap.Stringer("mode", a.runner.Mode()),
			zap.Error(err))
		return res, apperr.Store(op, err)
	}

	if a.pub != nil {
		if err := a.pub.PublishServicesBooked(ctx, res); err != nil {
			a.logger.Warn("publish services booked", zap.Int64("customer_id", cust.ID), zap.Error(err))
		}
	}
	a.logger.Info("services booked",
		zap.Int64("customer_id", cust.ID),
		zap.Int64("mechanic_id", req.MechanicID),
		zap.String("day", req.Day),
		zap.Int("services", len(res.Allocations)))
	return res, nil
}

func (a *Allocator) allocate(ctx context.Context, repo *Repository, customerID int64, req Request, name string) (Allocation, error) {
	serviceID, price, err := repo.ResolveService(ctx, name)
	if err != nil {
		return Allocation{}, err
	}
	b := Booking{
		Key:   Key{CustomerID: customerID, ServiceID: serviceID, MechanicID: req.MechanicID, Day: req.Day},
		Price: price,
	}
	// The slot is claimed before the row is written so that a service which
	// finds no capacity leaves no booking behind.
	if err := repo.Decrement(ctx, req.MechanicID, req.Day); err != nil {
		return Allocation{}, err
	}
	if err := repo.Insert(ctx, b); err != nil {
		return Allocation{}, err
	}
	return Allocation{Service: name, ServiceID: serviceID, Price: price}, nil
}
