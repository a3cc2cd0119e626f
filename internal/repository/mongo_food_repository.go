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

type mongoFoodRepository struct {
	col *mongo.Collection
}

// NewMongoFoodRepository builds a FoodRepository over the foods collection.
func NewMongoFoodRepository(db *mongo.Database) FoodRepository {
	return &mongoFoodRepository{col: db.Collection(foodsCollection)}
}

func (r *mongoFoodRepository) Create(ctx context.Context, food *model.Food) error {
	if food.ID == "" {
		food.ID = uuid.NewString()
	}
	now := time.Now()
	food.CreatedAt, food.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, food)
	return translateMongoError(err)
}

func (r *mongoFoodRepository) FindByID(ctx context.Context, id string) (*model.Food, error) {
	var food model.Food
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&food); err != nil {
		return nil, translateMongoError(err)
	}
	return &food, nil
}

func (r *mongoFoodRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Food, error) {
	foods := []model.Food{}
	if len(ids) == 0 {
		return foods, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoFoodRepository) List(ctx context.Context) ([]model.Food, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoFoodRepository) find(ctx context.Context, filter bson.M) ([]model.Food, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	foods := []model.Food{}
	if err := cur.All(ctx, &foods); err != nil {
		return nil, err
	}
	return foods, nil
}

func (r *mongoFoodRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoFoodRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
