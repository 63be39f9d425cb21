package member

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	memberdomain "welfare-app-go/internal/domain/member"
)

// MongoRepository keeps each category in its own collection ("engineers", "doctors").
type MongoRepository struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *MongoRepository {
	return &MongoRepository{db: db}
}

func (r *MongoRepository) collection(category memberdomain.Category) *mongo.Collection {
	return r.db.Collection(category.Path())
}

// EnsureIndexes creates the unique email and phone indexes plus the listing index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("phone_unique"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("status_created"),
		},
	}

	for _, category := range memberdomain.Categories {
		if _, err := r.collection(category).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", category.Path(), err)
		}
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, member *memberdomain.Member) error {
	if _, err := r.collection(member.Category).InsertOne(ctx, member); err != nil {
		return translate(err)
	}
	return nil
}

func (r *MongoRepository) Save(ctx context.Context, member *memberdomain.Member) error {
	result, err := r.collection(member.Category).ReplaceOne(ctx, bson.M{"_id": member.ID}, member)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return memberdomain.ErrMemberNotFound
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, category memberdomain.Category, id string) (*memberdomain.Member, error) {
	return r.findOne(ctx, category, bson.M{"_id": id})
}

func (r *MongoRepository) GetByEmail(ctx context.Context, category memberdomain.Category, email string) (*memberdomain.Member, error) {
	return r.findOne(ctx, category, bson.M{"email": email})
}

func (r *MongoRepository) ExistsByEmailOrPhone(ctx context.Context, category memberdomain.Category, email, phone string) (bool, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"phone": phone},
	}}
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})

	var found bson.M
	err := r.collection(category).FindOne(ctx, filter, opts).Decode(&found)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *MongoRepository) List(ctx context.Context, category memberdomain.Category, filter memberdomain.ListFilter) ([]memberdomain.Member, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection(category).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	members := []memberdomain.Member{}
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MongoRepository) findOne(ctx context.Context, category memberdomain.Category, filter bson.M) (*memberdomain.Member, error) {
	var member memberdomain.Member
	if err := r.collection(category).FindOne(ctx, filter).Decode(&member); err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return memberdomain.ErrMemberNotFound
	case mongo.IsDuplicateKeyError(err):
		return memberdomain.ErrConflict
	default:
		return err
	}
}
