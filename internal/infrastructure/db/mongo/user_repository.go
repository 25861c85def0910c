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

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	Credit       int64              `bson:"credit"`
	Active       bool               `bson:"active"`
	Bio          string             `bson:"bio,omitempty"`
	City         string             `bson:"city,omitempty"`
	Field        string             `bson:"field,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`

	PasswordChangedAt    *time.Time `bson:"password_changed_at,omitempty"`
	PasswordResetHash    string     `bson:"password_reset_hash,omitempty"`
	PasswordResetExpires *time.Time `bson:"password_reset_expires,omitempty"`
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:           mu.ID.Hex(),
		Name:         mu.Name,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		Role:         mu.Role,
		Credit:       mu.Credit,
		Active:       mu.Active,
		Bio:          mu.Bio,
		City:         mu.City,
		Field:        mu.Field,
		CreatedAt:    mu.CreatedAt.UTC(),
		UpdatedAt:    mu.UpdatedAt.UTC(),

		PasswordChangedAt:    utcPtr(mu.PasswordChangedAt),
		PasswordResetHash:    mu.PasswordResetHash,
		PasswordResetExpires: utcPtr(mu.PasswordResetExpires),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		Credit:       user.Credit,
		Active:       true,
		Bio:          user.Bio,
		City:         user.City,
		Field:        user.Field,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

// FindByID returns an active user.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid, "active": true})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email, "active": true})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd ports.ProfileUpdate, at time.Time) (*domain.User, error) {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": at.UTC()}
	for field, v := range map[string]*string{"name": upd.Name, "bio": upd.Bio, "city": upd.City, "field": upd.Field, "role": upd.Role} {
		if v != nil {
			set[field] = *v
		}
	}

	return r.updateOne(ctx, oid, bson.M{"$set": set})
}

func (r *UserRepository) updateOne(ctx context.Context, oid primitive.ObjectID, update bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "active": true},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return mu.toDomain(), nil
}

// List returns active members with the user role, newest first.
func (r *UserRepository) List(ctx context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"active": true, "role": domain.RoleUser}
	if f.Field != "" {
		filter["field"] = f.Field
	}
	if f.City != "" {
		filter["city"] = f.City
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((f.Page-1)*f.Limit)).
		SetLimit(int64(f.Limit)))
	if err != nil {
		return nil, 0, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}
	out := make([]*domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

// UpdatePassword stores a new hash, stamps the change and drops any pending
// reset token.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string, at time.Time) (*domain.User, error) {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	at = at.UTC()
	return r.updateOne(ctx, oid, bson.M{
		"$set":   bson.M{"password_hash": hash, "password_changed_at": at, "updated_at": at},
		"$unset": bson.M{"password_reset_hash": "", "password_reset_expires": ""},
	})
}

func (r *UserRepository) SetPasswordReset(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return r.resetUpdate(ctx, id, bson.M{"$set": bson.M{
		"password_reset_hash":    tokenHash,
		"password_reset_expires": expires.UTC(),
	}})
}

func (r *UserRepository) ClearPasswordReset(ctx context.Context, id string) error {
	return r.resetUpdate(ctx, id, bson.M{"$unset": bson.M{"password_reset_hash": "", "password_reset_expires": ""}})
}

func (r *UserRepository) resetUpdate(ctx context.Context, id string, update bson.M) error {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return err
	}
	_, err = r.updateOne(ctx, oid, update)
	return err
}

// FindByResetToken matches the stored token hash until its expiry has passed.
func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	return r.findOne(ctx, bson.M{
		"password_reset_hash":    tokenHash,
		"password_reset_expires": bson.M{"$gte": now.UTC()},
		"active":                 true,
	})
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"active": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique email index and a sparse index for reset
// token lookups.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "password_reset_hash", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	return nil
}
