//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/booking"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/cart"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/customer"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/dedup"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/events"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/fulfillment"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/inventory"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/order"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/testutil"
)

// memSession is an in-memory session bag for driving the workflows directly.
type memSession struct {
	mu         sync.Mutex
	cart       *cart.Cart
	customerID int64
	email      string
}

func (s *memSession) Cart() *cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

func (s *memSession) SaveCart(_ context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = c
	return nil
}

func (s *memSession) CustomerID() (int64, bool) { return s.customerID, s.customerID > 0 }
func (s *memSession) Email() (string, bool)     { return s.email, s.email != "" }

const seedCatalog = `
INSERT INTO customers (id, full_name, email) VALUES (1, 'Ali', 'ali@example.com');
INSERT INTO mechanics (id, full_name, email) VALUES (1, 'Sara', 'sara@example.com');
INSERT INTO products (id, name, price, quantity) VALUES (1, 'Oil Filter', 12.50, 1), (2, 'Wiper', 8.00, 10);
INSERT INTO services (id, name, price) VALUES (1, 'Oil Change', 30.00), (2, 'Tire Rotation', 20.00);
INSERT INTO mechanic_shifts (mechanic_id, day, availability) VALUES (1, 'Monday', 1);
`

func newPool(t *testing.T) *pgxpool.Pool {
	pool := testutil.StartPostgres(t)
	testutil.Seed(t, pool, seedCatalog)
	return pool
}

func count(t *testing.T, pool *pgxpool.Pool, sql string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), sql, args...).Scan(&n))
	return n
}

func TestLastUnitGoesToOneCart(t *testing.T) {
	pool := newPool(t)
	carts := cart.NewService(inventory.NewPostgresRepository(pool), nil)

	var (
		wg      sync.WaitGroup
		results = make([]error, 2)
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = carts.AddItem(context.Background(), &memSession{}, 1, 1)
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case apperr.KindOf(err) == apperr.KindInsufficientStock:
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, count(t, pool, `SELECT quantity FROM products WHERE id = 1`))
}

// checkoutWithBrokenLine places a cart whose second line references a missing
// product, so the second insert fails on the foreign key.
func checkoutWithBrokenLine(t *testing.T, pool *pgxpool.Pool, mode store.Mode) error {
	t.Helper()
	c := cart.New()
	c.Add(cart.Line{ProductID: 2, Name: "Wiper", Price: decimal.RequireFromString("8.00"), Quantity: 1})
	c.Add(cart.Line{ProductID: 404, Name: "Ghost", Price: decimal.RequireFromString("1.00"), Quantity: 1})
	sess := &memSession{cart: c, customerID: 1}

	committer := order.NewCommitter(store.NewRunner(pool, mode, nil), order.NewRepository(pool), nil, nil)
	_, err := committer.Checkout(context.Background(), sess, order.Contact{Name: "Ali"}, "cash")
	require.Equal(t, 2, sess.Cart().Len(), "cart must survive a failed checkout")
	return err
}

func TestCheckoutFailureByMode(t *testing.T) {
	t.Run("compat keeps rows written before the failure", func(t *testing.T) {
		pool := newPool(t)
		err := checkoutWithBrokenLine(t, pool, store.ModeCompat)
		require.ErrorIs(t, err, apperr.ErrOrderCommitFailure)
		assert.Equal(t, 1, count(t, pool, `SELECT count(*) FROM orders WHERE customer_id = 1`))
	})

	t.Run("atomic writes nothing", func(t *testing.T) {
		pool := newPool(t)
		err := checkoutWithBrokenLine(t, pool, store.ModeAtomic)
		require.ErrorIs(t, err, apperr.ErrOrderCommitFailure)
		assert.Equal(t, 0, count(t, pool, `SELECT count(*) FROM orders WHERE customer_id = 1`))
	})
}

func TestCheckoutWritesOneRowPerLine(t *testing.T) {
	pool := newPool(t)
	c := cart.New()
	c.Add(cart.Line{ProductID: 1, Price: decimal.RequireFromString("12.50"), Quantity: 2})
	c.Add(cart.Line{ProductID: 2, Price: decimal.RequireFromString("8.00"), Quantity: 1})
	sess := &memSession{cart: c, customerID: 1}

	committer := order.NewCommitter(store.NewRunner(pool, store.ModeAtomic, nil), order.NewRepository(pool), nil, nil)
	receipt, err := committer.Checkout(context.Background(), sess, order.Contact{Name: "Ali", Address: "1 Main St"}, "cash")
	require.NoError(t, err)
	require.Len(t, receipt.Orders, 2)
	assert.True(t, receipt.Total.Equal(decimal.RequireFromString("33")))
	assert.Equal(t, 0, sess.Cart().Len())

	svc := fulfillment.NewService(store.NewRunner(pool, store.ModeAtomic, nil), nil, fulfillment.Options{}, nil)
	out, err := svc.MarkOrderReceived(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Changed)
	out, err = svc.MarkOrderReceived(context.Background(), 1, 999)
	require.NoError(t, err)
	assert.Zero(t, out.Changed)
}

func bookTwoServices(t *testing.T, pool *pgxpool.Pool, mode store.Mode) (booking.Result, error) {
	t.Helper()
	allocator := booking.NewAllocator(
		store.NewRunner(pool, mode, nil),
		booking.NewRepository(pool),
		customer.NewRepository(pool),
		nil, nil)
	return allocator.Book(context.Background(), &memSession{email: "ali@example.com"}, booking.Request{
		Services:   []string{"Oil Change", "Tire Rotation"},
		Day:        "Monday",
		MechanicID: 1,
	})
}

func TestBookingSingleSlot(t *testing.T) {
	t.Run("compat keeps the first service", func(t *testing.T) {
		pool := newPool(t)
		res, err := bookTwoServices(t, pool, store.ModeCompat)
		require.ErrorIs(t, err, apperr.ErrNoAvailability)
		require.Len(t, res.Allocations, 1)
		assert.Equal(t, "Oil Change", res.Allocations[0].Service)
		assert.Equal(t, 1, count(t, pool, `SELECT count(*) FROM customer_services`))
		assert.Equal(t, 0, count(t, pool, `SELECT availability FROM mechanic_shifts WHERE mechanic_id = 1 AND day = 'Monday'`))
	})

	t.Run("atomic books nothing", func(t *testing.T) {
		pool := newPool(t)
		_, err := bookTwoServices(t, pool, store.ModeAtomic)
		require.ErrorIs(t, err, apperr.ErrNoAvailability)
		assert.Equal(t, 0, count(t, pool, `SELECT count(*) FROM customer_services`))
		assert.Equal(t, 1, count(t, pool, `SELECT availability FROM mechanic_shifts WHERE mechanic_id = 1 AND day = 'Monday'`))
	})
}

func TestReviewTwice(t *testing.T) {
	pool := newPool(t)
	testutil.Seed(t, pool, `INSERT INTO customer_services (customer_id, service_id, mechanic_id, day, price) VALUES (1, 1, 1, 'Monday', 30.00)`)
	key := booking.Key{CustomerID: 1, ServiceID: 1, MechanicID: 1, Day: "Monday"}
	runner := store.NewRunner(pool, store.ModeAtomic, nil)

	t.Run("append mode keeps both reviews", func(t *testing.T) {
		svc := fulfillment.NewService(runner, nil, fulfillment.Options{}, nil)
		for i := 0; i < 2; i++ {
			_, err := svc.SubmitReview(context.Background(), fulfillment.Review{Key: key, Rating: 4})
			require.NoError(t, err)
		}
		assert.Equal(t, 2, count(t, pool, `SELECT count(*) FROM reviews WHERE customer_id = 1`))
		var reviewed bool
		require.NoError(t, pool.QueryRow(context.Background(), `SELECT reviewed FROM customer_services WHERE customer_id = 1`).Scan(&reviewed))
		assert.True(t, reviewed)
	})

	t.Run("reject mode refuses a second review", func(t *testing.T) {
		svc := fulfillment.NewService(runner, nil, fulfillment.Options{RejectDuplicateReviews: true}, nil)
		_, err := svc.SubmitReview(context.Background(), fulfillment.Review{Key: key, Rating: 5})
		require.ErrorIs(t, err, apperr.ErrAlreadyReviewed)
		assert.Equal(t, 2, count(t, pool, `SELECT count(*) FROM reviews WHERE customer_id = 1`))
	})

	t.Run("unknown booking", func(t *testing.T) {
		svc := fulfillment.NewService(runner, nil, fulfillment.Options{}, nil)
		missing := key
		missing.Day = "Friday"
		_, err := svc.SubmitReview(context.Background(), fulfillment.Review{Key: missing, Rating: 3})
		require.ErrorIs(t, err, apperr.ErrBookingNotFound)
	})
}

func TestStockReceivedConsumer(t *testing.T) {
	pool := newPool(t)
	conn := testutil.StartRabbitMQ(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	handlers := events.Handlers(events.ConsumerDeps{
		Runner:    store.NewRunner(pool, store.ModeAtomic, nil),
		Inventory: inventory.NewPostgresRepository(pool),
		Bookings:  booking.NewRepository(pool),
		Dedup:     dedup.NewRepository(pool),
	})
	require.NoError(t, events.StartConsumer(ctx, conn, handlers, nil))

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	publish := func(routingKey string, v any) {
		body, err := json.Marshal(v)
		require.NoError(t, err)
		require.NoError(t, ch.PublishWithContext(ctx, events.EventsExchange, routingKey, false, false, amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		}))
	}

	publish(events.StockReceivedRoutingKey, events.StockReceivedPayload{ProductID: 1, Quantity: 5, Timestamp: time.Now().UTC()})
	publish(events.ShiftScheduledRoutingKey, events.ShiftScheduledPayload{MechanicID: 1, Day: "Tuesday", Capacity: 3, Timestamp: time.Now().UTC()})

	require.Eventually(t, func() bool {
		return count(t, pool, `SELECT quantity FROM products WHERE id = 1`) == 6
	}, 30*time.Second, 200*time.Millisecond)
	require.Eventually(t, func() bool {
		return count(t, pool, `SELECT count(*) FROM mechanic_shifts WHERE mechanic_id = 1 AND day = 'Tuesday' AND availability = 3`) == 1
	}, 30*time.Second, 200*time.Millisecond)
}
