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

	"github.com/99minutos/accounts-api/internal/core/domain"
)

const collectionUsers = "users"

// UserRepository implements ports.UserStore using MongoDB.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Username        string             `bson:"username"`
	Email           string             `bson:"email"`
	Fullname        string             `bson:"fullname"`
	ProfilePicture  string             `bson:"profile_picture,omitempty"`
	UploadedPicture string             `bson:"uploaded_picture,omitempty"`
	PasswordHash    string             `bson:"password_hash"`
	Roles           []string           `bson:"roles"`
	Active          bool               `bson:"active"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func toDocument(u *domain.User) userDocument {
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	return userDocument{
		Username:        u.Username,
		Email:           u.Email,
		Fullname:        u.Fullname,
		ProfilePicture:  u.ProfilePicture,
		UploadedPicture: u.UploadedPicture,
		PasswordHash:    u.PasswordHash,
		Roles:           roles,
		Active:          u.Active,
		CreatedAt:       u.CreatedAt.UTC(),
		UpdatedAt:       u.UpdatedAt.UTC(),
	}
}

func (d userDocument) toDomain() *domain.User {
	roles := make([]domain.Role, len(d.Roles))
	for i, r := range d.Roles {
		roles[i] = domain.Role(r)
	}
	return &domain.User{
		ID:              d.ID.Hex(),
		Username:        d.Username,
		Email:           d.Email,
		Fullname:        d.Fullname,
		ProfilePicture:  d.ProfilePicture,
		UploadedPicture: d.UploadedPicture,
		PasswordHash:    d.PasswordHash,
		Roles:           roles,
		Active:          d.Active,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

// FindByID looks an account up by its hex id. Ids that are not valid ObjectIDs
// cannot exist and are reported as not found.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// Save inserts user when it has no id and replaces the stored document
// otherwise. Unique index violations surface as domain.ErrUserExists.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDocument(user)

	if user.ID == "" {
		res, err := r.col.InsertOne(ctx, doc)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrUserExists
			}
			return nil, fmt.Errorf("insert user: %w", err)
		}
		oid, ok := res.InsertedID.(primitive.ObjectID)
		if !ok {
			return nil, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
		}
		doc.ID = oid
		return doc.toDomain(), nil
	}

	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	doc.ID = oid

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("replace user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count user: %w", err)
	}
	return n > 0, nil
}

// DeleteByID removes the account and returns domain.ErrUserNotFound when no
// document matched.
func (r *UserRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique indexes backing username and email
// uniqueness.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
