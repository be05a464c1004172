package store

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/qikurl/internal/shortener"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoCollection is the collection holding short URL documents.
const MongoCollection = "qik_urls"

type shortURLDocument struct {
	Code           string    `bson:"_id"`
	LongURL        string    `bson:"long_url"`
	DeletionSecret string    `bson:"deletion_secret"`
	ExpiresAt      time.Time `bson:"expires_at"`
	ClickCount     int64     `bson:"click_count"`
	SingleUse      bool      `bson:"single_use"`
	CreatedAt      time.Time `bson:"created_at"`
}

func newShortURLDocument(s *shortener.ShortURL) shortURLDocument {
	return shortURLDocument{
		Code:           string(s.Code),
		LongURL:        s.LongURL,
		DeletionSecret: s.DeletionSecret,
		ExpiresAt:      s.ExpiresAt,
		ClickCount:     s.ClickCount,
		SingleUse:      s.SingleUse,
		CreatedAt:      s.CreatedAt,
	}
}

func (d shortURLDocument) shortURL() *shortener.ShortURL {
	return &shortener.ShortURL{
		Code:           shortener.Code(d.Code),
		LongURL:        d.LongURL,
		DeletionSecret: d.DeletionSecret,
		ExpiresAt:      d.ExpiresAt.UTC(),
		ClickCount:     d.ClickCount,
		SingleUse:      d.SingleUse,
		CreatedAt:      d.CreatedAt.UTC(),
	}
}

// MongoStore is a MongoDB implementation of shortener.Repository.
// Documents are keyed by code.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore creates a new MongoDB-backed URL store using database db.
func NewMongoStore(client *mongo.Client, db string) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(db).Collection(MongoCollection),
	}
}

func (s *MongoStore) Put(ctx context.Context, shortURL *shortener.ShortURL) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": string(shortURL.Code)},
		newShortURLDocument(shortURL),
		options.Replace().SetUpsert(true),
	)

	return err
}

func (s *MongoStore) Get(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	var doc shortURLDocument

	err := s.collection.FindOne(ctx, bson.M{"_id": string(code)}).Decode(&doc)
	if err != nil {
		return nil, mapMongoError(err)
	}

	return doc.shortURL(), nil
}

func (s *MongoStore) IncrementClicks(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	var doc shortURLDocument

	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": string(code)},
		bson.M{"$inc": bson.M{"click_count": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapMongoError(err)
	}

	return doc.shortURL(), nil
}

func (s *MongoStore) Delete(ctx context.Context, code shortener.Code) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": string(code)})

	return err
}

func (s *MongoStore) DeleteUnconsumed(ctx context.Context, code shortener.Code) (bool, error) {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": string(code), "click_count": 0})
	if err != nil {
		return false, err
	}

	return res.DeletedCount == 1, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func mapMongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return shortener.ErrNotFound
	}

	return err
}

// Compile-time check.
var _ shortener.Repository = (*MongoStore)(nil)
