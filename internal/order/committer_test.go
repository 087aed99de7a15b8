package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/cart"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
)

type fakeSession struct {
	cart       *cart.Cart
	customerID int64
	saves      int
	saveErr    error
}

func (f *fakeSession) Cart() *cart.Cart { return f.cart }

func (f *fakeSession) SaveCart(ctx context.Context, c *cart.Cart) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.cart = c
	return nil
}

func (f *fakeSession) CustomerID() (int64, bool) { return f.customerID, f.customerID != 0 }

type fakePublisher struct {
	calls   int
	receipt Receipt
	err     error
}

func (f *fakePublisher) PublishOrderPlaced(ctx context.Context, customerID int64, r Receipt) error {
	f.calls++
	f.receipt = r
	return f.err
}

func twoLineCart() *cart.Cart {
	c := cart.New()
	c.Add(cart.Line{ProductID: 1, Name: "Brake Pads", Price: decimal.RequireFromString("40.00"), Quantity: 2})
	c.Add(cart.Line{ProductID: 2, Name: "Wiper Blade", Price: decimal.RequireFromString("9.50"), Quantity: 1})
	return c
}

var testContact = Contact{Name: "Ali", Phone: "0300", Email: "ali@example.com", Address: "Street 1"}

func expectInsert(mock pgxmock.PgxPoolIface, productID int64, qty int, id int64) {
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(int64(7), productID, "Ali", "0300", "ali@example.com", "Street 1", qty, pgxmock.AnyArg(), "cash").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(id, time.Now()))
}

func TestCheckout(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectInsert(mock, 1, 2, 100)
	expectInsert(mock, 2, 1, 101)

	pub := &fakePublisher{}
	sess := &fakeSession{cart: twoLineCart(), customerID: 7}
	c := NewCommitter(store.NewRunner(mock, store.ModeCompat, nil), NewRepository(mock), pub, nil)

	receipt, err := c.Checkout(context.Background(), sess, testContact, "cash")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, receipt.Orders, 2)
	assert.Equal(t, int64(100), receipt.Orders[0].ID)
	assert.True(t, receipt.Orders[0].TotalPrice.Equal(decimal.RequireFromString("80.00")))
	assert.True(t, receipt.Total.Equal(decimal.RequireFromString("89.50")))
	assert.Equal(t, 0, sess.cart.Len())
	assert.Equal(t, 1, pub.calls)
}

func TestCheckoutRejectsBeforeTouchingStore(t *testing.T) {
	tests := map[string]struct {
		sess *fakeSession
		want error
	}{
		"nil cart":    {sess: &fakeSession{customerID: 7}, want: apperr.ErrEmptyCart},
		"empty cart":  {sess: &fakeSession{cart: cart.New(), customerID: 7}, want: apperr.ErrEmptyCart},
		"no customer": {sess: &fakeSession{cart: twoLineCart()}, want: apperr.ErrMissingCustomer},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			c := NewCommitter(store.NewRunner(mock, store.ModeAtomic, nil), NewRepository(mock), nil, nil)
			_, err = c.Checkout(context.Background(), tt.sess, testContact, "cash")
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, tt.sess.saves)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCheckoutFailureCompatKeepsEarlierRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectInsert(mock, 1, 2, 100)
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(int64(7), int64(2), "Ali", "0300", "ali@example.com", "Street 1", 1, pgxmock.AnyArg(), "cash").
		WillReturnError(errors.New("disk full"))

	pub := &fakePublisher{}
	sess := &fakeSession{cart: twoLineCart(), customerID: 7}
	c := NewCommitter(store.NewRunner(mock, store.ModeCompat, nil), NewRepository(mock), pub, nil)

	_, err = c.Checkout(context.Background(), sess, testContact, "cash")
	require.ErrorIs(t, err, apperr.ErrOrderCommitFailure)
	assert.Equal(t, "order commit failed", apperr.PublicMessage(err))
	// no BEGIN/ROLLBACK expected: the first insert stays committed
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 2, sess.cart.Len())
	assert.Equal(t, 0, sess.saves)
	assert.Equal(t, 0, pub.calls)
}

func TestCheckoutFailureAtomicRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	expectInsert(mock, 1, 2, 100)
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(int64(7), int64(2), "Ali", "0300", "ali@example.com", "Street 1", 1, pgxmock.AnyArg(), "cash").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	sess := &fakeSession{cart: twoLineCart(), customerID: 7}
	c := NewCommitter(store.NewRunner(mock, store.ModeAtomic, nil), NewRepository(mock), nil, nil)

	_, err = c.Checkout(context.Background(), sess, testContact, "cash")
	require.ErrorIs(t, err, apperr.ErrOrderCommitFailure)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 2, sess.cart.Len())
}

func TestCheckoutSucceedsWhenCartClearFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	expectInsert(mock, 1, 2, 100)
	expectInsert(mock, 2, 1, 101)
	mock.ExpectCommit()

	sess := &fakeSession{cart: twoLineCart(), customerID: 7, saveErr: errors.New("cookie too large")}
	c := NewCommitter(store.NewRunner(mock, store.ModeAtomic, nil), NewRepository(mock), &fakePublisher{err: errors.New("broker down")}, nil)

	receipt, err := c.Checkout(context.Background(), sess, testContact, "cash")
	require.NoError(t, err)
	assert.Len(t, receipt.Orders, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
