package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"orderflow/internal/constants"
	"orderflow/pkg/migrations"
)

type mongoObject struct {
	Name        string    `bson:"_id"`
	Body        []byte    `bson:"body"`
	ContentType string    `bson:"content_type"`
	Size        int       `bson:"size"`
	CreatedAt   time.Time `bson:"created_at"`
}

// MongoSink keeps one document per object; the object name is the _id.
type MongoSink struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoSink(db *mongo.Database, container string) *MongoSink {
	return &MongoSink{
		db:         db,
		collection: db.Collection(container),
	}
}

func (s *MongoSink) Kind() string {
	return constants.SinkTypeMongoDB
}

func (s *MongoSink) EnsureContainer(ctx context.Context) error {
	return migrations.EnsureMongoCollection(ctx, s.db, s.collection.Name())
}

func (s *MongoSink) Check(ctx context.Context) error {
	names, err := s.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: s.collection.Name()}})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(names) == 0 {
		return ErrContainerMissing.WithDetail("container", s.collection.Name())
	}
	return nil
}

func (s *MongoSink) Upload(ctx context.Context, name string, body []byte, overwrite bool) (int, error) {
	if body == nil {
		body = []byte{}
	}
	doc := mongoObject{
		Name:        name,
		Body:        body,
		ContentType: contentTypeJSON,
		Size:        len(body),
		CreatedAt:   time.Now().UTC(),
	}

	if !overwrite {
		_, err := s.collection.InsertOne(ctx, doc)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return StatusConflict, ErrObjectExists.WithDetail("name", name)
			}
			return 0, fmt.Errorf("failed to insert object %s: %w", name, err)
		}
		return StatusCreated, nil
	}

	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert object %s: %w", name, err)
	}
	if res.UpsertedCount > 0 {
		return StatusCreated, nil
	}
	return StatusReplaced, nil
}

// Fetch returns the stored bytes of name.
func (s *MongoSink) Fetch(ctx context.Context, name string) ([]byte, error) {
	var doc mongoObject
	err := s.collection.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("object %s not found: %w", name, err)
		}
		return nil, fmt.Errorf("failed to fetch object %s: %w", name, err)
	}
	return doc.Body, nil
}
