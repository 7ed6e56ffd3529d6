package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/task-manager-api/internal/database"
	"github.com/yukikurage/task-manager-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTaskRepository stores tasks as documents with their comments embedded.
type MongoTaskRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoTaskRepository(db *mongo.Database) TaskRepository {
	return &MongoTaskRepository{coll: db.Collection(database.TasksCollection), now: mongoNow}
}

// mongoNow matches the millisecond precision of BSON dates.
func mongoNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// ceilMillisecond rounds t up to BSON precision, so a stored timestamp is
// never earlier than the moment it records.
func ceilMillisecond(t time.Time) time.Time {
	truncated := t.UTC().Truncate(time.Millisecond)
	if truncated.Before(t) {
		truncated = truncated.Add(time.Millisecond)
	}
	return truncated
}

func (r *MongoTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := r.now()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Tags == nil {
		task.Tags = []string{}
	}
	if task.Subtasks == nil {
		task.Subtasks = []models.Subtask{}
	}
	if task.Comments == nil {
		task.Comments = []models.Comment{}
	}

	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		return translateMongoError("create task", err)
	}
	return nil
}

func (r *MongoTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
		return nil, translateMongoError("find task", err)
	}
	attachComments(&task)
	return &task, nil
}

func (r *MongoTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	query := taskListQuery(filter)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, translateMongoError("count tasks", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Pagination.Limit > 0 {
		opts.SetSkip(int64(filter.Pagination.Offset)).SetLimit(int64(filter.Pagination.Limit))
	}

	tasks, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func taskListQuery(filter TaskFilter) bson.M {
	var and bson.A

	if filter.Status != nil {
		and = append(and, bson.M{"status": *filter.Status})
	}
	if filter.Priority != nil {
		and = append(and, bson.M{"priority": *filter.Priority})
	}
	if filter.AssignedToID != nil {
		and = append(and, bson.M{"assigned_to": *filter.AssignedToID})
	}
	if filter.CreatedByID != nil {
		and = append(and, bson.M{"created_by": *filter.CreatedByID})
	}
	if filter.VisibleTo != nil {
		and = append(and, referencing(*filter.VisibleTo))
	}
	if !filter.IncludeArchived {
		and = append(and, bson.M{"is_archived": false})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}})
	}

	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

func referencing(userID string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"created_by": userID},
		bson.M{"assigned_to": userID},
	}}
}

func openTasks() bson.M {
	return bson.M{"status": bson.M{"$nin": closedStatuses}}
}

func (r *MongoTaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = r.now()

	set := bson.M{
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
		"priority":    task.Priority,
		"due_date":    task.DueDate,
		"assigned_to": task.AssignedToID,
		"tags":        task.Tags,
		"subtasks":    task.Subtasks,
		"updated_at":  task.UpdatedAt,
	}
	return r.updateOne(ctx, "update task", task.ID, bson.M{"$set": set})
}

func (r *MongoTaskRepository) AppendComment(ctx context.Context, taskID string, comment *models.Comment) error {
	comment.TaskID = taskID
	comment.CreatedAt = ceilMillisecond(comment.CreatedAt)
	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updated_at": r.now()},
	}
	return r.updateOne(ctx, "append comment", taskID, update)
}

func (r *MongoTaskRepository) SetArchived(ctx context.Context, taskID string, archived bool) error {
	update := bson.M{"$set": bson.M{"is_archived": archived, "updated_at": r.now()}}
	return r.updateOne(ctx, "archive task", taskID, update)
}

func (r *MongoTaskRepository) updateOne(ctx context.Context, op, id string, update bson.M) error {
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translateMongoError(op, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongoError("delete task", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTaskRepository) CountTasksReferencing(ctx context.Context, userID string) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, referencing(userID))
	if err != nil {
		return 0, translateMongoError("count referencing tasks", err)
	}
	return count, nil
}

type groupCount struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

func (r *MongoTaskRepository) groupBy(ctx context.Context, field string, match bson.M) ([]groupCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translateMongoError("group tasks by "+field, err)
	}
	var rows []groupCount
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translateMongoError("decode task groups", err)
	}
	return rows, nil
}

func (r *MongoTaskRepository) CountByStatus(ctx context.Context, assigneeID *string) (map[models.TaskStatus]int64, error) {
	match := bson.M{}
	if assigneeID != nil {
		match["assigned_to"] = *assigneeID
	}

	rows, err := r.groupBy(ctx, "status", match)
	if err != nil {
		return nil, err
	}
	counts := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[models.TaskStatus(row.Key)] = row.Count
	}
	return counts, nil
}

func (r *MongoTaskRepository) CountByPriority(ctx context.Context) (map[models.TaskPriority]int64, error) {
	rows, err := r.groupBy(ctx, "priority", bson.M{})
	if err != nil {
		return nil, err
	}
	counts := make(map[models.TaskPriority]int64, len(rows))
	for _, row := range rows {
		counts[models.TaskPriority(row.Key)] = row.Count
	}
	return counts, nil
}

func (r *MongoTaskRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := bson.M{"$and": bson.A{openTasks(), bson.M{"due_date": bson.M{"$lt": now}}}}
	count, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return 0, translateMongoError("count overdue tasks", err)
	}
	return count, nil
}

func (r *MongoTaskRepository) ListRecent(ctx context.Context, limit int) ([]models.Task, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts)
}

func (r *MongoTaskRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Task, error) {
	query := bson.M{"$and": bson.A{openTasks(), bson.M{"due_date": bson.M{"$lt": now}}}}
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, query, opts)
}

func (r *MongoTaskRepository) ListOpenForUser(ctx context.Context, userID string, dueBefore time.Time) ([]models.Task, error) {
	query := bson.M{"$and": bson.A{
		referencing(userID),
		openTasks(),
		bson.M{"is_archived": false},
		bson.M{"due_date": bson.M{"$lt": dueBefore}},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}})
	return r.find(ctx, query, opts)
}

func (r *MongoTaskRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Task, error) {
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, translateMongoError("find tasks", err)
	}

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, translateMongoError("decode tasks", err)
	}
	for i := range tasks {
		attachComments(&tasks[i])
	}
	return tasks, nil
}

// attachComments restores the back-reference that is not stored in the document.
func attachComments(task *models.Task) {
	for i := range task.Comments {
		task.Comments[i].TaskID = task.ID
	}
}

func translateMongoError(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
