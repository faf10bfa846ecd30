package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"qrmenu/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// setupTestDB creates an in-memory SQLite database so the bun queries run
// without a real Postgres server.
func setupTestDB(t *testing.T) *DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	ctx := context.Background()

	for _, model := range []interface{}{
		(*models.Order)(nil),
		(*models.OrderLineItem)(nil),
	} {
		_, err := bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		bunDB.NewDropTable().Model((*models.OrderLineItem)(nil)).IfExists().Exec(ctx)
		bunDB.NewDropTable().Model((*models.Order)(nil)).IfExists().Exec(ctx)
		bunDB.Close()
	})

	return &DB{Bun: bunDB}
}

func sampleOrder(id, restaurantID string, number int) *models.Order {
	return &models.Order{
		ID:            id,
		RestaurantID:  restaurantID,
		OrderNumber:   number,
		CustomerName:  "Dana",
		CustomerPhone: "555-0101",
		TotalAmount:   27.00,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     time.Now(),
	}
}

func TestCreateOrder_PersistsOrderAndLineItems(t *testing.T) {
	d := setupTestDB(t)

	order := sampleOrder("order-1", "rest-1", 1)
	items := []*models.OrderLineItem{
		{ID: "line-1", OrderID: "order-1", MenuItemID: "item-1", ItemName: "Burger", Quantity: 2, UnitPrice: 10.00, CustomizationPrice: 3.50},
	}
	require.NoError(t, d.CreateOrder(order, items))

	found, err := d.GetOrderByID("order-1")
	require.NoError(t, err)

	assert.Equal(t, "Dana", found.CustomerName)
	assert.Equal(t, 27.00, found.TotalAmount)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Burger", found.Items[0].ItemName)
	assert.Equal(t, 3.50, found.Items[0].CustomizationPrice)
}

func TestCreateOrder_DuplicateNumberRejected(t *testing.T) {
	d := setupTestDB(t)

	require.NoError(t, d.CreateOrder(sampleOrder("order-1", "rest-1", 1), nil))

	err := d.CreateOrder(sampleOrder("order-2", "rest-1", 1), nil)
	assert.ErrorIs(t, err, ErrDuplicateOrderNumber)

	// The same number is fine under a different restaurant.
	assert.NoError(t, d.CreateOrder(sampleOrder("order-3", "rest-2", 1), nil))
}

func TestGetOrderByID_NotFound(t *testing.T) {
	d := setupTestDB(t)

	_, err := d.GetOrderByID("ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListOrders_FiltersByRestaurantAndStatus(t *testing.T) {
	d := setupTestDB(t)

	o1 := sampleOrder("order-1", "rest-1", 1)
	o2 := sampleOrder("order-2", "rest-1", 2)
	o2.Status = models.OrderConfirmed
	o3 := sampleOrder("order-3", "rest-2", 1)

	require.NoError(t, d.CreateOrder(o1, nil))
	require.NoError(t, d.CreateOrder(o2, nil))
	require.NoError(t, d.CreateOrder(o3, nil))

	all, err := d.ListOrders("rest-1", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed, err := d.ListOrders("rest-1", models.OrderConfirmed, 0)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "order-2", confirmed[0].ID)

	limited, err := d.ListOrders("rest-1", "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestUpdateOrder_WritesTransitionFields(t *testing.T) {
	d := setupTestDB(t)

	order := sampleOrder("order-1", "rest-1", 1)
	require.NoError(t, d.CreateOrder(order, nil))

	now := time.Now()
	order.Status = models.OrderConfirmed
	order.PaymentStatus = models.PaymentPaid
	order.ConfirmedAt = now
	order.PaidAt = now
	order.UpdatedAt = now
	require.NoError(t, d.UpdateOrder(*order))

	found, err := d.GetOrderByID("order-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, found.Status)
	assert.Equal(t, models.PaymentPaid, found.PaymentStatus)
	assert.False(t, found.ConfirmedAt.IsZero())
}

func TestNextOrderNumber_PerRestaurantSequence(t *testing.T) {
	d := setupTestDB(t)

	n, err := d.NextOrderNumber("rest-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "An empty restaurant starts at 1")

	require.NoError(t, d.CreateOrder(sampleOrder("order-1", "rest-1", n), nil))
	require.NoError(t, d.CreateOrder(sampleOrder("order-2", "rest-2", 7), nil))

	n, err = d.NextOrderNumber("rest-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "The sequence is per restaurant")

	n, err = d.NextOrderNumber("rest-2")
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}
