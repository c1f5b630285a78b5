package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
	"github.com/condaura/portal/internal/infrastructure/db/codec"
)

const sessionCollection = "session_kv"

// SessionStores hands out MongoDB-backed session stores. Each key is its
// own document so the layout matches the other backends.
type SessionStores struct {
	coll *mongo.Collection
}

func NewSessionStores(db *mongo.Database) *SessionStores {
	return &SessionStores{coll: db.Collection(sessionCollection)}
}

// Scope implements ports.SessionStoreFactory.
func (f *SessionStores) Scope(browserID string) ports.SessionStore {
	return &SessionStore{coll: f.coll, scope: browserID}
}

type kvDoc struct {
	ID    string `bson:"_id"`
	Scope string `bson:"scope"`
	Value string `bson:"value"`
}

// SessionStore is one browser's session in MongoDB.
type SessionStore struct {
	coll  *mongo.Collection
	scope string
}

func (s *SessionStore) Save(ctx context.Context, credential string, profile *domain.UserProfile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	raw, err := codec.EncodeProfile(profile)
	if err != nil {
		return err
	}

	models := []mongo.WriteModel{
		s.upsert(codec.KeyCredential, credential),
		s.upsert(codec.KeyUser, raw),
	}
	if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("mongo save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.M{"scope": s.scope})
	if err != nil {
		return nil, fmt.Errorf("mongo load session: %w", err)
	}
	var docs []kvDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo load session: %w", err)
	}

	var cred, user string
	var hasCred, hasUser bool
	for _, d := range docs {
		switch d.ID {
		case s.id(codec.KeyCredential):
			cred, hasCred = d.Value, true
		case s.id(codec.KeyUser):
			user, hasUser = d.Value, true
		}
	}
	return codec.DecodeSession(cred, hasCred, user, hasUser)
}

func (s *SessionStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.coll.DeleteMany(ctx, bson.M{"scope": s.scope}); err != nil {
		return fmt.Errorf("mongo clear session: %w", err)
	}
	return nil
}

// EnsureIndexes creates the scope index used by Load and Clear.
func (f *SessionStores) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := f.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "scope", Value: 1}}})
	return err
}

func (s *SessionStore) upsert(key, value string) mongo.WriteModel {
	id := s.id(key)
	return mongo.NewReplaceOneModel().
		SetFilter(bson.M{"_id": id}).
		SetReplacement(kvDoc{ID: id, Scope: s.scope, Value: value}).
		SetUpsert(true)
}

func (s *SessionStore) id(key string) string {
	return s.scope + ":" + key
}
