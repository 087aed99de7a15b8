// Package fulfillment records receipt of orders and booked services, and the
// reviews customers leave for completed bookings. Both flags only ever move
// from false to true.
package fulfillment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/booking"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
)

// Outcome reports how many rows an update touched. Zero is not an error.
type Outcome struct {
	Changed int64 `json:"changed"`
}

type Review struct {
	booking.Key
	ID      int64  `json:"reviewId,omitempty"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type Publisher interface {
	PublishReviewSubmitted(ctx context.Context, r Review) error
}

type Options struct {
	// RejectDuplicateReviews refuses a second review for the same booking
	// instead of appending another review row.
	RejectDuplicateReviews bool
}

type Service struct {
	runner *store.Runner
	pub    Publisher
	opts   Options
	logger *zap.Logger
}

func NewService(runner *store.Runner, pub Publisher, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, pub: pub, opts: opts, logger: logger}
}

// MarkOrderReceived flags every order the customer placed for productID as
// received. A missing order is reported as zero rows changed.
func (s *Service) MarkOrderReceived(ctx context.Context, customerID, productID int64) (Outcome, error) {
	if customerID <= 0 {
		return Outcome{}, apperr.E(apperr.KindMissingCustomer, "fulfillment.order", "no customer bound to session", nil)
	}
	tag, err := s.runner.Pool().Exec(ctx, `
		UPDATE orders
		SET received = true
		WHERE customer_id = $1 AND product_id = $2
	`, customerID, productID)
	if err != nil {
		return Outcome{}, apperr.Store("fulfillment.order", err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug("mark order received matched nothing",
			zap.Int64("customer_id", customerID), zap.Int64("product_id", productID))
	}
	return Outcome{Changed: tag.RowsAffected()}, nil
}

// MarkServiceReceived flags the booking with exactly key as received. Like
// orders, a missing booking is reported as zero rows changed.
func (s *Service) MarkServiceReceived(ctx context.Context, key booking.Key) (Outcome, error) {
	if key.CustomerID <= 0 {
		return Outcome{}, apperr.E(apperr.KindMissingCustomer, "fulfillment.service", "no customer bound to session", nil)
	}
	tag, err := s.runner.Pool().Exec(ctx, `
		UPDATE customer_services
		SET received = true
		WHERE customer_id = $1 AND service_id = $2 AND mechanic_id = $3 AND day = $4
	`, key.CustomerID, key.ServiceID, key.MechanicID, key.Day)
	if err != nil {
		return Outcome{}, apperr.Store("fulfillment.service", err)
	}
	return Outcome{Changed: tag.RowsAffected()}, nil
}

// SubmitReview writes a review row and sets the booking's reviewed flag.
func (s *Service) SubmitReview(ctx context.Context, r Review) (Review, error) {
	const op = "fulfillment.review"

	if r.CustomerID <= 0 {
		return Review{}, apperr.E(apperr.KindMissingCustomer, op, "no customer bound to session", nil)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return Review{}, apperr.Invalid(op, "rating must be between 1 and 5")
	}
	r.Day = strings.TrimSpace(r.Day)
	r.Comment = strings.TrimSpace(r.Comment)

	var err error
	if s.opts.RejectDuplicateReviews {
		// The claim must not outlive a failed insert, whatever the mode.
		err = s.runner.Tx(ctx, func(exec store.Executor) error {
			if err := claimReview(ctx, exec, r.Key); err != nil {
				return err
			}
			return insertReview(ctx, exec, &r)
		})
	} else {
		err = s.runner.InTx(ctx, func(exec store.Executor) error {
			if err := insertReview(ctx, exec, &r); err != nil {
				return err
			}
			return flagReviewed(ctx, exec, r.Key)
		})
	}
	if err != nil {
		s.logger.Warn("submit review failed",
			zap.Int64("customer_id", r.CustomerID),
			zap.Int64("service_id", r.ServiceID),
			zap.Int64("mechanic_id", r.MechanicID),
			zap.String("day", r.Day),
			zap.Stringer("mode", s.runner.Mode()),
			zap.Error(err))
		return Review{}, apperr.Store(op, err)
	}

	if s.pub != nil {
		if err := s.pub.PublishReviewSubmitted(ctx, r); err != nil {
			s.logger.Warn("publish review submitted", zap.Int64("review_id", r.ID), zap.Error(err))
		}
	}
	return r, nil
}

func insertReview(ctx context.Context, exec store.Executor, r *Review) error {
	err := exec.QueryRow(ctx, `
		INSERT INTO reviews (customer_id, mechanic_id, service_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, r.CustomerID, r.MechanicID, r.ServiceID, r.Rating, r.Comment).Scan(&r.ID)
	if err != nil {
		return apperr.Store("fulfillment.review", fmt.Errorf("insert review: %w", err))
	}
	return nil
}

func flagReviewed(ctx context.Context, exec store.Executor, key booking.Key) error {
	tag, err := exec.Exec(ctx, `
		UPDATE customer_services
		SET reviewed = true
		WHERE customer_id = $1 AND service_id = $2 AND mechanic_id = $3 AND day = $4
	`, key.CustomerID, key.ServiceID, key.MechanicID, key.Day)
	if err != nil {
		return apperr.Store("fulfillment.review", fmt.Errorf("flag reviewed: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.KindBookingNotFound, "fulfillment.review", "booking not found", nil)
	}
	return nil
}

// claimReview flips reviewed from false to true. Only one caller can win the
// flip, so a second submission for the same booking is refused before it
// writes anything.
func claimReview(ctx context.Context, exec store.Executor, key booking.Key) error {
	tag, err := exec.Exec(ctx, `
		UPDATE customer_services
		SET reviewed = true
		WHERE customer_id = $1 AND service_id = $2 AND mechanic_id = $3 AND day = $4 AND reviewed = false
	`, key.CustomerID, key.ServiceID, key.MechanicID, key.Day)
	if err != nil {
		return apperr.Store("fulfillment.review", fmt.Errorf("claim review: %w", err))
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = exec.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM customer_services
			WHERE customer_id = $1 AND service_id = $2 AND mechanic_id = $3 AND day = $4
		)
	`, key.CustomerID, key.ServiceID, key.MechanicID, key.Day).Scan(&exists)
	if err != nil {
		return apperr.Store("fulfillment.review", err)
	}
	if exists {
		return apperr.E(apperr.KindAlreadyReviewed, "fulfillment.review", "booking already reviewed", nil)
	}
	return apperr.E(apperr.KindBookingNotFound, "fulfillment.review", "booking not found", nil)
}
