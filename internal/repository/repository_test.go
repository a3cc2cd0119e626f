package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"foodorder/internal/db"
	"foodorder/internal/model"
)

type repos struct {
	users  UserRepository
	foods  FoodRepository
	orders OrderRepository
}

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.OpenGorm(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	return conn
}

// backends returns the GORM repositories, plus the Mongo ones when MONGO_TEST_URL is set.
func backends(t *testing.T) map[string]repos {
	t.Helper()
	conn := newSQLite(t)
	out := map[string]repos{
		"gorm": {
			users:  NewUserRepository(conn),
			foods:  NewFoodRepository(conn),
			orders: NewOrderRepository(conn),
		},
	}

	uri := os.Getenv("MONGO_TEST_URL")
	if uri == "" {
		return out
	}
	ctx := context.Background()
	client, database, err := db.OpenMongo(ctx, uri, fmt.Sprintf("foodorder_test_%d", time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	require.NoError(t, EnsureMongoIndexes(ctx, database))
	out["mongo"] = mongoRepos(database)
	return out
}

func mongoRepos(database *mongo.Database) repos {
	return repos{
		users:  NewMongoUserRepository(database),
		foods:  NewMongoFoodRepository(database),
		orders: NewMongoOrderRepository(database),
	}
}

func TestUserRepository(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := &model.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash", Role: model.RoleUser}
			require.NoError(t, r.users.Create(ctx, user))
			require.NotEmpty(t, user.ID)

			dup := &model.User{Name: "Other", Email: "alice@example.com", PasswordHash: "hash", Role: model.RoleUser}
			assert.ErrorIs(t, r.users.Create(ctx, dup), ErrDuplicate)

			found, err := r.users.FindByEmail(ctx, "ALICE@example.com")
			require.NoError(t, err)
			assert.Equal(t, user.ID, found.ID)
			assert.Empty(t, found.Cart)

			_, err = r.users.FindByID(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, r.users.UpdateCart(ctx, user.ID, map[string]int{"I1": 2}, 0))
			assert.ErrorIs(t, r.users.UpdateCart(ctx, user.ID, map[string]int{"I1": 3}, 0), ErrVersionConflict)

			found, err = r.users.FindByID(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"I1": 2}, found.Cart)
			assert.Equal(t, int64(1), found.CartVersion)

			require.NoError(t, r.users.IncrementTokenVersion(ctx, user.ID))
			require.NoError(t, r.users.SetRole(ctx, user.ID, model.RoleAdmin))
			found, err = r.users.FindByID(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), found.TokenVersion)
			assert.True(t, found.IsAdmin())

			assert.ErrorIs(t, r.users.SetRole(ctx, "missing", model.RoleAdmin), ErrNotFound)
		})
	}
}

func TestFoodRepository(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			salad := &model.Food{Name: "Greek salad", Price: decimal.RequireFromString("12.50"), Category: "Salad"}
			rolls := &model.Food{Name: "Veg rolls", Price: decimal.NewFromInt(10), Category: "Rolls"}
			require.NoError(t, r.foods.Create(ctx, salad))
			require.NoError(t, r.foods.Create(ctx, rolls))

			n, err := r.foods.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)

			got, err := r.foods.FindByID(ctx, salad.ID)
			require.NoError(t, err)
			assert.True(t, got.Price.Equal(decimal.RequireFromString("12.5")))

			some, err := r.foods.FindByIDs(ctx, []string{rolls.ID, "missing"})
			require.NoError(t, err)
			require.Len(t, some, 1)
			assert.Equal(t, "Veg rolls", some[0].Name)

			require.NoError(t, r.foods.Delete(ctx, salad.ID))
			assert.ErrorIs(t, r.foods.Delete(ctx, salad.ID), ErrNotFound)

			all, err := r.foods.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func newOrder(userID string) *model.Order {
	items := []model.OrderItem{{FoodID: "I1", Name: "Veg rolls", Price: decimal.NewFromInt(10), Quantity: 2}}
	return &model.Order{
		UserID:  userID,
		Items:   items,
		Amount:  model.SumItems(items),
		Address: model.Address{FirstName: "Alice", Street: "1 Main St", City: "Springfield", Phone: "555-0100"},
		Status:  model.OrderStatusPlaced,
		StatusHistory: []model.StatusChange{
			{To: model.OrderStatusPlaced, Actor: model.ActorCustomer, At: time.Now()},
		},
	}
}

func TestOrderRepositoryMarkPaidOnce(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			order := newOrder("u1")
			require.NoError(t, r.orders.Create(ctx, order))
			require.NoError(t, r.orders.SetSession(ctx, order.ID, "cs_test_1"))

			entry := model.StatusChange{From: model.OrderStatusPlaced, To: model.OrderStatusPlaced, Actor: model.ActorSystem, Note: "payment verified", At: time.Now()}
			changed, err := r.orders.MarkPaid(ctx, order.ID, entry)
			require.NoError(t, err)
			assert.True(t, changed)

			changed, err = r.orders.MarkPaid(ctx, order.ID, entry)
			require.NoError(t, err)
			assert.False(t, changed)

			changed, err = r.orders.Cancel(ctx, order.ID, entry)
			require.NoError(t, err)
			assert.False(t, changed, "paid orders cannot be cancelled")

			got, err := r.orders.FindByID(ctx, order.ID)
			require.NoError(t, err)
			assert.True(t, got.Payment)
			assert.Equal(t, model.OrderStatusPlaced, got.Status)
			assert.Equal(t, "cs_test_1", got.SessionID)
			assert.True(t, got.Amount.Equal(decimal.NewFromInt(20)))
			assert.Len(t, got.StatusHistory, 2)
			assert.Equal(t, "Veg rolls", got.Items[0].Name)

			_, err = r.orders.MarkPaid(ctx, "missing", entry)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestOrderRepositoryCancelAndStatus(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			unpaid := newOrder("u1")
			require.NoError(t, r.orders.Create(ctx, unpaid))

			changed, err := r.orders.Cancel(ctx, unpaid.ID, model.StatusChange{From: model.OrderStatusPlaced, To: model.OrderStatusCancelled, Actor: model.ActorSystem, At: time.Now()})
			require.NoError(t, err)
			assert.True(t, changed)

			got, err := r.orders.FindByID(ctx, unpaid.ID)
			require.NoError(t, err)
			assert.Equal(t, model.OrderStatusCancelled, got.Status)
			assert.False(t, got.Payment)

			paid := newOrder("u1")
			paid.Payment = true
			require.NoError(t, r.orders.Create(ctx, paid))

			entry := model.StatusChange{From: model.OrderStatusPlaced, To: model.OrderStatusPreparing, Actor: model.ActorAdmin, At: time.Now()}
			changed, err = r.orders.UpdateStatus(ctx, paid.ID, model.OrderStatusPlaced, model.OrderStatusPreparing, entry)
			require.NoError(t, err)
			assert.True(t, changed)

			changed, err = r.orders.UpdateStatus(ctx, paid.ID, model.OrderStatusPlaced, model.OrderStatusDelivered, entry)
			require.NoError(t, err)
			assert.False(t, changed, "stale from status must not apply")

			mine, err := r.orders.ListByUser(ctx, "u1")
			require.NoError(t, err)
			assert.Len(t, mine, 2)

			none, err := r.orders.ListByUser(ctx, "u2")
			require.NoError(t, err)
			assert.Empty(t, none)

			all, err := r.orders.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}
