package views

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
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestListProducts(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id, name, description, price, image_path, quantity FROM products ORDER BY id`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "price", "image_path", "quantity"}).
			AddRow(int64(1), "Brake Pads", "front axle", decimal.RequireFromString("40.00"), "/img/pads.png", 12).
			AddRow(int64(2), "Wiper Blade", "", decimal.RequireFromString("9.50"), "", 0))

	products, err := NewReader(mock).ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Brake Pads", products[0].Name)
	assert.Equal(t, 0, products[1].Available)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailableDays(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT DISTINCT day FROM mechanic_shifts WHERE availability > \$1`).
		WithArgs(0).
		WillReturnRows(pgxmock.NewRows([]string{"day"}).AddRow("Friday").AddRow("Monday"))

	days, err := NewReader(mock).AvailableDays(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Friday", "Monday"}, days)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMechanicsForDay(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT m.id, m.full_name, AVG\(rv.rating\) FROM mechanics m LEFT JOIN reviews rv .+ WHERE m.id IN \(SELECT mechanic_id FROM mechanic_shifts WHERE day = \$1 AND availability > \$2\)`).
		WithArgs("Monday", 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "full_name", "avg"}).
			AddRow(int64(3), "Bilal", decimal.NewNullDecimal(decimal.RequireFromString("4.5"))).
			AddRow(int64(4), "Sana", decimal.NullDecimal{}))

	mechanics, err := NewReader(mock).MechanicsForDay(context.Background(), "Monday")
	require.NoError(t, err)
	require.Len(t, mechanics, 2)
	assert.True(t, mechanics[0].AverageRating.Valid)
	assert.True(t, mechanics[0].AverageRating.Decimal.Equal(decimal.RequireFromString("4.5")))
	assert.False(t, mechanics[1].AverageRating.Valid)
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = NewReader(mock).MechanicsForDay(context.Background(), "")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestCustomerDashboard(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM customer_services cs JOIN services s`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"customer_id", "service_id", "mechanic_id", "day", "name", "full_name", "price", "received", "reviewed"}).
			AddRow(int64(9), int64(1), int64(3), "Monday", "Oil Change", "Bilal", decimal.RequireFromString("25.00"), true, false))
	mock.ExpectQuery(`FROM orders o JOIN products p`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "name", "quantity", "total_price", "payment", "received", "created_at"}).
			AddRow(int64(100), int64(1), "Brake Pads", 2, decimal.RequireFromString("80.00"), "cash", false, time.Now()))

	d, err := NewReader(mock).CustomerDashboard(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, d.Bookings, 1)
	assert.Equal(t, "Bilal", d.Bookings[0].MechanicName)
	assert.True(t, d.Bookings[0].Received)
	require.Len(t, d.Orders, 1)
	assert.Equal(t, "Brake Pads", d.Orders[0].ProductName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMechanicBookings(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM customer_services cs JOIN services s .+ JOIN customers c .+ WHERE cs.mechanic_id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"customer_id", "service_id", "mechanic_id", "day", "name", "full_name", "received", "reviewed"}).
			AddRow(int64(9), int64(1), int64(3), "Monday", "Oil Change", "Ali", false, false))

	bookings, err := NewReader(mock).MechanicBookings(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "Ali", bookings[0].CustomerName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReaderStoreError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM services`).WillReturnError(errors.New("too many connections"))

	_, err := NewReader(mock).ListServices(context.Background())
	require.ErrorIs(t, err, apperr.ErrStoreUnavailable)
}

func TestEmptyResultIsNotNil(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM services`).WillReturnRows(pgxmock.NewRows([]string{"id", "name", "price"}))

	services, err := NewReader(mock).ListServices(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, services)
	assert.Empty(t, services)
}
