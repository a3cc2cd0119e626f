package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"foodorder/internal/model"
)

type mongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository builds a UserRepository over the users collection.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{col: db.Collection(usersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Cart == nil {
		user.Cart = map[string]int{}
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, user)
	return translateMongoError(err)
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	if err := r.col.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translateMongoError(err)
	}
	if user.Cart == nil {
		user.Cart = map[string]int{}
	}
	return &user, nil
}

func (r *mongoUserRepository) UpdateCart(ctx context.Context, id string, cart map[string]int, expectedVersion int64) error {
	filter := bson.M{"_id": id, "cart_version": expectedVersion}
	if expectedVersion == 0 {
		// documents written before versioning have no cart_version field
		filter = bson.M{"_id": id, "$or": bson.A{
			bson.M{"cart_version": 0},
			bson.M{"cart_version": bson.M{"$exists": false}},
		}}
	}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"cartData": cart, "updated_at": time.Now()},
		"$inc": bson.M{"cart_version": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if err := exists(ctx, r.col, id); err != nil {
			return err
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *mongoUserRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"token_version": 1},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) SetRole(ctx context.Context, id, role string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"role": role, "updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
