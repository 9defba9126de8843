package store

import (
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/resolve"
)

// CollectionLocks is the collection locks are stored in.
const CollectionLocks = "locks"

// MongoStore stores locks as documents keyed by digest.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri, selects database db and ensures the
// recipe index exists.
func NewMongoStore(ctx context.Context, uri, db string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}

	coll := client.Database(db).Collection(CollectionLocks)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipe", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create recipe index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Put(ctx context.Context, lock *resolve.Lock) error {
	if err := checkLock(lock); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": lock.Digest}, lock, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "store lock %s", lock.Digest)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, digest string) (*resolve.Lock, error) {
	var lock resolve.Lock
	err := s.coll.FindOne(ctx, bson.M{"_id": digest}).Decode(&lock)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(digest)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load lock %s", digest)
	}
	return &lock, nil
}

func (s *MongoStore) List(ctx context.Context, recipe string) ([]*resolve.Lock, error) {
	cur, err := s.coll.Find(ctx, bson.M{"recipe": recipe},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list locks of %s", recipe)
	}
	var locks []*resolve.Lock
	if err := cur.All(ctx, &locks); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode locks of %s", recipe)
	}
	return locks, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
