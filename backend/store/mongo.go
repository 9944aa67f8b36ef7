package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
)

// MongoStore keeps the collection in a MongoDB database. Ids are the hex form
// of the document ObjectID.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type document struct {
	ObjectID        primitive.ObjectID `bson:"_id,omitempty"`
	profile.Profile `bson:",inline"`
}

// OpenMongo connects to uri and binds the store to database/collection.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// "mongodb+srv://<username>:<password>@<cluster-address>/test?w=majority"
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, unavailable("connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, unavailable("ping", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

func (s *MongoStore) ListAll(ctx context.Context) ([]profile.Profile, error) {
	cursor, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, unavailable("list", err)
	}
	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, unavailable("list", err)
	}

	out := make([]profile.Profile, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Profile.WithID(d.ObjectID.Hex()))
	}
	return out, nil
}

func (s *MongoStore) Insert(ctx context.Context, fields profile.Profile) (profile.Profile, error) {
	res, err := s.coll.InsertOne(ctx, document{Profile: fields.Fields()})
	if err != nil {
		return profile.Profile{}, unavailable("insert", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return profile.Profile{}, unavailable("insert", fmt.Errorf("unexpected inserted id type %T", res.InsertedID))
	}
	return fields.WithID(oid.Hex()), nil
}

func (s *MongoStore) UpdateByID(ctx context.Context, id string, fields profile.Profile) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound(id)
	}
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": oid}, document{Profile: fields.Fields()})
	if err != nil {
		return unavailable("update", err)
	}
	if res.MatchedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound(id)
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return unavailable("delete", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Truncate removes every document. Used by the seeder.
func (s *MongoStore) Truncate(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return unavailable("truncate", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
