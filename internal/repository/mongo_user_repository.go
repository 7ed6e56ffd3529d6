package repository

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/yukikurage/task-manager-api/internal/database"
	"github.com/yukikurage/task-manager-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &MongoUserRepository{coll: db.Collection(database.UsersCollection), now: mongoNow}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	user.Prepare()
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return translateMongoError("create user", err)
	}
	return nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "find user", bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "find user by email", bson.M{"email": models.NormalizeEmail(email)})
}

func (r *MongoUserRepository) findOne(ctx context.Context, op string, query bson.M) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, query).Decode(&user); err != nil {
		return nil, translateMongoError(op, err)
	}
	return &user, nil
}

func (r *MongoUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	found := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	users, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
	if err != nil {
		return nil, err
	}
	for i := range users {
		found[users[i].ID] = &users[i]
	}
	return found, nil
}

func (r *MongoUserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := bson.M{}
	if filter.Role != nil {
		query["role"] = *filter.Role
	}
	if filter.IsActive != nil {
		query["is_active"] = *filter.IsActive
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
		query["$or"] = bson.A{bson.M{"name": pattern}, bson.M{"email": pattern}}
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, translateMongoError("count users", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Pagination.Limit > 0 {
		opts.SetSkip(int64(filter.Pagination.Offset)).SetLimit(int64(filter.Pagination.Limit))
	}

	users, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *MongoUserRepository) Update(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	user.UpdatedAt = r.now()

	set := bson.M{
		"name":          user.Name,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          user.Role,
		"is_active":     user.IsActive,
		"updated_at":    user.UpdatedAt,
	}
	return r.updateOne(ctx, "update user", user.ID, bson.M{"$set": set})
}

func (r *MongoUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.updateOne(ctx, "update last login", id, bson.M{"$set": bson.M{"last_login": at}})
}

func (r *MongoUserRepository) updateOne(ctx context.Context, op, id string, update bson.M) error {
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translateMongoError(op, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongoError("delete user", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) CountByRole(ctx context.Context) (map[models.UserRole]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translateMongoError("group users by role", err)
	}

	var rows []groupCount
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translateMongoError("decode user groups", err)
	}
	counts := make(map[models.UserRole]int64, len(rows))
	for _, row := range rows {
		counts[models.UserRole(row.Key)] = row.Count
	}
	return counts, nil
}

func (r *MongoUserRepository) CountActive(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"is_active": true})
	if err != nil {
		return 0, translateMongoError("count active users", err)
	}
	return count, nil
}

func (r *MongoUserRepository) ListRecentLogins(ctx context.Context, limit int) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "last_login", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{"last_login": bson.M{"$exists": true, "$ne": nil}}, opts)
}

func (r *MongoUserRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.User, error) {
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, translateMongoError("find users", err)
	}

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, translateMongoError("decode users", err)
	}
	return users, nil
}
