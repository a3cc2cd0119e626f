package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foodorder/internal/model"
)

type mongoOrderRepository struct {
	col *mongo.Collection
}

// NewMongoOrderRepository builds an OrderRepository over the orders collection.
func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{col: db.Collection(ordersCollection)}
}

func (r *mongoOrderRepository) Create(ctx context.Context, order *model.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, order)
	return translateMongoError(err)
}

func (r *mongoOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translateMongoError(err)
	}
	return &order, nil
}

func (r *mongoOrderRepository) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *mongoOrderRepository) List(ctx context.Context) ([]model.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoOrderRepository) find(ctx context.Context, filter bson.M) ([]model.Order, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	orders := []model.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *mongoOrderRepository) SetSession(ctx context.Context, id, sessionID string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"session_id": sessionID, "updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoOrderRepository) MarkPaid(ctx context.Context, id string, change model.StatusChange) (bool, error) {
	return r.applyIf(ctx, id,
		bson.M{"status": model.OrderStatusPlaced, "payment": false},
		bson.M{"payment": true},
		change,
	)
}

func (r *mongoOrderRepository) Cancel(ctx context.Context, id string, change model.StatusChange) (bool, error) {
	return r.applyIf(ctx, id,
		bson.M{"status": model.OrderStatusPlaced, "payment": false},
		bson.M{"status": model.OrderStatusCancelled},
		change,
	)
}

func (r *mongoOrderRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, change model.StatusChange) (bool, error) {
	return r.applyIf(ctx, id,
		bson.M{"status": from},
		bson.M{"status": to},
		change,
	)
}

// applyIf performs a single guarded update so concurrent callers cannot both win.
func (r *mongoOrderRepository) applyIf(ctx context.Context, id string, match, set bson.M, change model.StatusChange) (bool, error) {
	filter := bson.M{"_id": id}
	for k, v := range match {
		filter[k] = v
	}
	set["updated_at"] = time.Now()

	res, err := r.col.UpdateOne(ctx, filter, bson.M{
		"$set":  set,
		"$push": bson.M{"status_history": change},
	})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		if err := exists(ctx, r.col, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}
