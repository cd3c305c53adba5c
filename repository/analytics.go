package repository

import (
	"context"
	"errors"
	"fmt"

	"lifeloop/model"
	"lifeloop/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AnalyticsRepo stores one analytics document per user, keyed by user ID
type AnalyticsRepo struct {
	MongoCollection *mongo.Collection
}

func GetAnalyticsRepo(client *mongo.Client, dbName, collectionName string) *AnalyticsRepo {
	return &AnalyticsRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// Load returns nil, nil when the user has no document yet
func (r *AnalyticsRepo) Load(ctx context.Context, userID string) (*model.AnalyticsDocument, error) {
	timer := utils.TrackDBOperation("find_one", "analytics")
	defer timer.ObserveDuration()

	var doc model.AnalyticsDocument
	err := r.MongoCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		utils.TrackError("database", "analytics_fetch_failed")
		return nil, fmt.Errorf("load analytics for %s: %w", userID, err)
	}
	return &doc, nil
}

func (r *AnalyticsRepo) Save(ctx context.Context, doc *model.AnalyticsDocument) error {
	timer := utils.TrackDBOperation("replace", "analytics")
	defer timer.ObserveDuration()

	if doc == nil || doc.UserID == "" {
		utils.TrackError("database", "missing_user_id")
		return model.NewError(model.KindValidation, "", "", "analytics document needs a user ID")
	}

	_, err := r.MongoCollection.ReplaceOne(ctx,
		bson.M{"_id": doc.UserID},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		utils.TrackError("database", "analytics_save_failed")
		return fmt.Errorf("save analytics for %s: %w", doc.UserID, err)
	}
	return nil
}

func (r *AnalyticsRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	timer := utils.TrackDBOperation("distinct", "analytics")
	defer timer.ObserveDuration()

	values, err := r.MongoCollection.Distinct(ctx, "_id", bson.M{})
	if err != nil {
		utils.TrackError("database", "analytics_list_failed")
		return nil, fmt.Errorf("list analytics users: %w", err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *AnalyticsRepo) Delete(ctx context.Context, userID string) error {
	timer := utils.TrackDBOperation("delete", "analytics")
	defer timer.ObserveDuration()

	if _, err := r.MongoCollection.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		utils.TrackError("database", "analytics_deletion_failed")
		return fmt.Errorf("delete analytics for %s: %w", userID, err)
	}
	return nil
}
