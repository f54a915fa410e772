// Package mongo stores saved analyses as documents.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bryanwahyu/clausecode/internal/domain/history"
)

const collectionName = "saved_analyses"

// Connect dials uri and pings it within five seconds.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

type HistoryRepository struct {
	collection *mongo.Collection
}

func NewHistoryRepository(db *mongo.Database) *HistoryRepository {
	return &HistoryRepository{collection: db.Collection(collectionName)}
}

// Migrate creates the listing indexes.
func (r *HistoryRepository) Migrate(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	return err
}

func (r *HistoryRepository) Save(ctx context.Context, rec *history.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	return err
}

func (r *HistoryRepository) Get(ctx context.Context, id history.RecordID) (*history.Record, error) {
	var rec history.Record
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *HistoryRepository) List(ctx context.Context, f history.Filter) ([]*history.Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(history.ClampLimit(f.Limit)))

	cursor, err := r.collection.Find(ctx, filterDoc(f), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*history.Record{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HistoryRepository) Delete(ctx context.Context, id history.RecordID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return history.ErrNotFound
	}
	return nil
}

func filterDoc(f history.Filter) bson.M {
	m := bson.M{}
	if f.Agent != "" {
		m["agent"] = f.Agent
	}
	if f.AnalysisType != "" {
		m["analysis_type"] = f.AnalysisType
	}
	if f.UserID != "" {
		m["user_id"] = f.UserID
	}
	return m
}
