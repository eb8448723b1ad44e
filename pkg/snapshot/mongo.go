package snapshot

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowgrid/flowgrid/pkg/errors"
)

// MongoStore keeps records in a MongoDB collection, one document per
// record, keyed by the record id.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore wraps a collection. The caller owns the client lifecycle.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "mongo find")
	}
	return &rec, nil
}

func (s *MongoStore) Set(ctx context.Context, rec *Record) error {
	rec.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "mongo upsert")
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "mongo delete")
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]Info, error) {
	opts := options.Find().
		SetProjection(bson.M{"snapshot": 0}).
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "mongo list")
	}
	defer cur.Close(ctx)

	var infos []Info
	if err := cur.All(ctx, &infos); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "mongo decode listing")
	}
	return infos, nil
}

var _ Store = (*MongoStore)(nil)
