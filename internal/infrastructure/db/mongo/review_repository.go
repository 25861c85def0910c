package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

type ReviewRepository struct {
	coll *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(collectionReviews)}
}

type mongoReview struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Author    mongoParty         `bson:"author"`
	Subject   mongoParty         `bson:"subject"`
	Text      string             `bson:"text"`
	Rating    int                `bson:"rating"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (mr *mongoReview) toDomain() *domain.Review {
	return &domain.Review{
		ID:        mr.ID.Hex(),
		Author:    mr.Author.toDomain(),
		Subject:   mr.Subject.toDomain(),
		Text:      mr.Text,
		Rating:    mr.Rating,
		CreatedAt: mr.CreatedAt.UTC(),
		UpdatedAt: mr.UpdatedAt.UTC(),
	}
}

// Create inserts the review. The unique (author, subject) index turns a lost
// race between two submissions into domain.ErrAlreadyReviewed.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	author, err := toMongoParty(rv.Author)
	if err != nil {
		return err
	}
	subject, err := toMongoParty(rv.Subject)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, mongoReview{
		Author:    author,
		Subject:   subject,
		Text:      rv.Text,
		Rating:    rv.Rating,
		CreatedAt: rv.CreatedAt,
		UpdatedAt: rv.UpdatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyReviewed
		}
		return fmt.Errorf("insert review: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rv.ID = oid.Hex()
	}
	return nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*domain.Review, error) {
	oid, err := objectID(id, domain.ErrReviewNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mr mongoReview
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return mr.toDomain(), nil
}

func (r *ReviewRepository) Exists(ctx context.Context, authorID, subjectID string) (bool, error) {
	author, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return false, nil
	}
	subject, err := primitive.ObjectIDFromHex(subjectID)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"author.id": author, "subject.id": subject}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count reviews: %w", err)
	}
	return n > 0, nil
}

// Update sets only the provided fields.
func (r *ReviewRepository) Update(ctx context.Context, id string, text *string, rating *int, at time.Time) (*domain.Review, error) {
	oid, err := objectID(id, domain.ErrReviewNotFound)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": at.UTC()}
	if text != nil {
		set["text"] = *text
	}
	if rating != nil {
		set["rating"] = *rating
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mr mongoReview
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("update review: %w", err)
	}
	return mr.toDomain(), nil
}

func (r *ReviewRepository) ListBySubject(ctx context.Context, subjectID string) ([]*domain.Review, error) {
	subject, err := primitive.ObjectIDFromHex(subjectID)
	if err != nil {
		return []*domain.Review{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx,
		bson.M{"subject.id": subject},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoReview
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}

	out := make([]*domain.Review, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// List pages through every review, newest first, optionally keeping only one
// rating.
func (r *ReviewRepository) List(ctx context.Context, f ports.ListReviewsFilter) ([]*domain.Review, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Rating != 0 {
		filter["rating"] = f.Rating
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((f.Page-1)*f.Limit)).
		SetLimit(int64(f.Limit)))
	if err != nil {
		return nil, 0, fmt.Errorf("find reviews: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoReview
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode reviews: %w", err)
	}
	out := make([]*domain.Review, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

// Delete removes a review, reporting ErrReviewNotFound when nothing matched.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrReviewNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

// EnsureIndexes creates the unique (author, subject) index.
func (r *ReviewRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "author.id", Value: 1}, {Key: "subject.id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "subject.id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("reviews indexes: %w", err)
	}
	return nil
}
