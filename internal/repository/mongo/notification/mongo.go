package notification

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	notificationdomain "welfare-app-go/internal/domain/notification"
)

const (
	collectionName   = "notification_jobs"
	defaultListLimit = 100
)

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(collectionName)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "nextRetryAt", Value: 1}},
			Options: options.Index().SetName("status_next_retry"),
		},
		{
			Keys:    bson.D{{Key: "memberId", Value: 1}},
			Options: options.Index().SetName("member_id"),
		},
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, job *notificationdomain.Job) error {
	_, err := r.coll.InsertOne(ctx, job)
	return err
}

func (r *MongoRepository) Save(ctx context.Context, job *notificationdomain.Job) error {
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": job.ID}, job)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return notificationdomain.ErrJobNotFound
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*notificationdomain.Job, error) {
	var job notificationdomain.Job
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&job); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notificationdomain.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *MongoRepository) List(ctx context.Context, filter notificationdomain.ListFilter) ([]notificationdomain.Job, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	jobs := []notificationdomain.Job{}
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ClaimDue flips due jobs to processing one at a time with FindOneAndUpdate,
// which is atomic per document, so concurrent workers never share a job.
func (r *MongoRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]notificationdomain.Job, error) {
	filter := bson.M{
		"status": notificationdomain.StatusPending,
		"$or": bson.A{
			bson.M{"nextRetryAt": nil},
			bson.M{"nextRetryAt": bson.M{"$lte": now}},
		},
	}
	update := bson.M{"$set": bson.M{
		"status":    notificationdomain.StatusProcessing,
		"updatedAt": now,
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetReturnDocument(options.After)

	jobs := make([]notificationdomain.Job, 0, limit)
	for len(jobs) < limit {
		var job notificationdomain.Job
		err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&job)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (r *MongoRepository) ResetStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.coll.UpdateMany(ctx,
		bson.M{
			"status":    notificationdomain.StatusProcessing,
			"updatedAt": bson.M{"$lt": cutoff},
		},
		bson.M{"$set": bson.M{"status": notificationdomain.StatusPending}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
