package repository

import (
	"context"
	"fmt"

	"lifeloop/model"
	"lifeloop/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventsRepo is the append-only analytics event log
type EventsRepo struct {
	MongoCollection *mongo.Collection
}

func GetEventsRepo(client *mongo.Client, dbName, collectionName string) *EventsRepo {
	return &EventsRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// Append inserts events; an event already in the log (same ID) is skipped
func (r *EventsRepo) Append(ctx context.Context, events ...model.Event) error {
	if len(events) == 0 {
		return nil
	}
	timer := utils.TrackDBOperation("insert", "events")
	defer timer.ObserveDuration()

	docs := make([]interface{}, 0, len(events))
	for _, ev := range events {
		docs = append(docs, ev)
	}

	_, err := r.MongoCollection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		utils.TrackError("database", "event_append_failed")
		return fmt.Errorf("append events: %w", err)
	}
	return nil
}

func (r *EventsRepo) ListByUser(ctx context.Context, userID string) ([]model.Event, error) {
	timer := utils.TrackDBOperation("find", "events")
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{
		{Key: "occurred_at", Value: 1},
		{Key: "seq", Value: 1},
		{Key: "_id", Value: 1},
	})
	cursor, err := r.MongoCollection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		utils.TrackError("database", "event_fetch_failed")
		return nil, fmt.Errorf("list events for %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var events []model.Event
	if err = cursor.All(ctx, &events); err != nil {
		utils.TrackError("database", "event_decode_failed")
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

func (r *EventsRepo) DeleteByUser(ctx context.Context, userID string) error {
	timer := utils.TrackDBOperation("delete", "events")
	defer timer.ObserveDuration()

	if _, err := r.MongoCollection.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		utils.TrackError("database", "event_deletion_failed")
		return fmt.Errorf("delete events for %s: %w", userID, err)
	}
	return nil
}
