package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections names the three collections the engine writes to.
type Collections struct {
	Items     string
	Analytics string
	Events    string
}

func SetupIndexes(db *mongo.Database, names Collections) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	itemsCollection := db.Collection(names.Items)
	eventsCollection := db.Collection(names.Events)

	itemIndexes := []mongo.IndexModel{
		// Reset sweeps: completed items of one cadence
		{
			Keys: bson.D{
				{Key: "frequency", Value: 1},
				{Key: "completed", Value: 1},
			},
			Options: options.Index().
				SetName("frequency_completed"),
		},
		{
			Keys: bson.D{
				{Key: "frequency", Value: 1},
				{Key: "streaks.daily", Value: 1},
			},
			Options: options.Index().
				SetName("frequency_daily_streak").
				SetPartialFilterExpression(bson.M{"streaks.daily": bson.M{"$gt": 0}}),
		},
		{
			Keys: bson.D{
				{Key: "frequency", Value: 1},
				{Key: "streaks.weekly", Value: 1},
			},
			Options: options.Index().
				SetName("frequency_weekly_streak").
				SetPartialFilterExpression(bson.M{"streaks.weekly": bson.M{"$gt": 0}}),
		},
		{
			Keys: bson.D{
				{Key: "frequency", Value: 1},
				{Key: "streaks.monthly", Value: 1},
			},
			Options: options.Index().
				SetName("frequency_monthly_streak").
				SetPartialFilterExpression(bson.M{"streaks.monthly": bson.M{"$gt": 0}}),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("user_id_index"),
		},
	}

	eventIndexes := []mongo.IndexModel{
		// Rebuild replays a user's log in time order
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "occurred_at", Value: 1},
				{Key: "seq", Value: 1},
			},
			Options: options.Index().
				SetName("user_events_time"),
		},
	}

	_, err := itemsCollection.Indexes().CreateMany(ctx, itemIndexes)
	if err != nil {
		return fmt.Errorf("failed to create items indexes: %w", err)
	}

	_, err = eventsCollection.Indexes().CreateMany(ctx, eventIndexes)
	if err != nil {
		return fmt.Errorf("failed to create events indexes: %w", err)
	}

	log.Println("Successfully created all indexes")
	return nil
}
