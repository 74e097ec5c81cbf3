package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/eatsy/identity-service/internal/domain"
)

// Projection controls whether normally-hidden fields (password hash,
// recovery code hash and expiry) are loaded. Default reads stay Public.
type Projection int

const (
	Public Projection = iota
	WithSecrets
)

var hiddenFields = bson.M{
	"password_hash":       0,
	"recovery_code_hash":  0,
	"recovery_expires_at": 0,
}

func (s *Store) users() *mongo.Collection { return s.DB.Collection("users") }

func findOpts(p Projection) *options.FindOneOptions {
	if p == WithSecrets {
		return options.FindOne()
	}
	return options.FindOne().SetProjection(hiddenFields)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string, p Projection) (*domain.User, error) {
	var u domain.User
	err := s.users().FindOne(ctx, bson.M{"email": email}, findOpts(p)).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string, p Projection) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var u domain.User
	err = s.users().FindOne(ctx, bson.M{"_id": oid}, findOpts(p)).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByGoogleID(ctx context.Context, gid string) (*domain.User, error) {
	var u domain.User
	err := s.users().FindOne(ctx, bson.M{"google_id": gid}, findOpts(Public)).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	res, err := s.users().InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()
	_, err := s.users().ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// SetRecovery stores the hashed recovery code and its expiry as a pair
// in a single update, so a concurrent consume can never observe one
// without the other.
func (s *Store) SetRecovery(ctx context.Context, id primitive.ObjectID, codeHash string, expiresAt time.Time) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.set_recovery",
		tracer.Tag("user_id", id.Hex()),
	)
	defer sp.Finish()

	_, err := s.users().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"recovery_code_hash":  codeHash,
			"recovery_expires_at": expiresAt.UTC(),
			"updated_at":          time.Now().UTC(),
		}},
	)
	if err != nil {
		sp.SetTag("error", err)
	}
	return err
}

// ConsumeRecovery sets the new password hash and clears both recovery
// fields in one atomic update. After it commits no previously verified
// code remains usable.
func (s *Store) ConsumeRecovery(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.consume_recovery",
		tracer.Tag("user_id", id.Hex()),
	)
	defer sp.Finish()

	_, err := s.users().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"password_hash": passwordHash,
				"updated_at":    time.Now().UTC(),
			},
			"$unset": bson.M{
				"recovery_code_hash":  "",
				"recovery_expires_at": "",
			},
		},
	)
	if err != nil {
		sp.SetTag("error", err)
	}
	return err
}
