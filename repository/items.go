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

type ItemsRepo struct {
	MongoCollection *mongo.Collection
}

// Retrieves MongoDB collection for recurring items
func GetItemsRepo(client *mongo.Client, dbName, collectionName string) *ItemsRepo {
	return &ItemsRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

func streakField(f model.Frequency) string {
	switch f {
	case model.FrequencyDaily:
		return "streaks.daily"
	case model.FrequencyWeekly:
		return "streaks.weekly"
	case model.FrequencyMonthly:
		return "streaks.monthly"
	default:
		return ""
	}
}

// Retrieves every item of a frequency whose state a rollover can change:
// completed items, habits with progress and items carrying an active streak
func (r *ItemsRepo) LoadDue(ctx context.Context, frequency model.Frequency) ([]*model.RecurringItem, error) {
	timer := utils.TrackDBOperation("find", "items")
	defer timer.ObserveDuration()

	conditions := bson.A{
		bson.M{"completed": true},
		bson.M{"habit.amount_done": bson.M{"$gt": 0}},
	}
	if field := streakField(frequency); field != "" {
		conditions = append(conditions, bson.M{field: bson.M{"$gt": 0}})
	}
	filter := bson.M{
		"frequency": frequency,
		"$or":       conditions,
	}

	cursor, err := r.MongoCollection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		utils.TrackError("database", "items_due_fetch_failed")
		return nil, fmt.Errorf("load due items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*model.RecurringItem
	if err = cursor.All(ctx, &items); err != nil {
		utils.TrackError("database", "items_decode_failed")
		return nil, fmt.Errorf("decode due items: %w", err)
	}
	return items, nil
}

func (r *ItemsRepo) FindByID(ctx context.Context, id string) (*model.RecurringItem, error) {
	timer := utils.TrackDBOperation("find_one", "items")
	defer timer.ObserveDuration()

	var item model.RecurringItem
	err := r.MongoCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.NotFound(id)
	}
	if err != nil {
		utils.TrackError("database", "item_fetch_failed")
		return nil, fmt.Errorf("find item %s: %w", id, err)
	}
	return &item, nil
}

// Retrieves items in the order of ids; any missing id is a NotFound error
func (r *ItemsRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.RecurringItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	timer := utils.TrackDBOperation("find", "items")
	defer timer.ObserveDuration()

	cursor, err := r.MongoCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		utils.TrackError("database", "items_fetch_failed")
		return nil, fmt.Errorf("find items: %w", err)
	}
	defer cursor.Close(ctx)

	var found []*model.RecurringItem
	if err = cursor.All(ctx, &found); err != nil {
		utils.TrackError("database", "items_decode_failed")
		return nil, fmt.Errorf("decode items: %w", err)
	}

	byID := make(map[string]*model.RecurringItem, len(found))
	for _, item := range found {
		byID[item.ItemID] = item
	}
	items := make([]*model.RecurringItem, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, model.NotFound(id)
		}
		items = append(items, item)
	}
	return items, nil
}

// Writes the whole item, inserting it when it does not exist yet
func (r *ItemsRepo) Save(ctx context.Context, item *model.RecurringItem) error {
	timer := utils.TrackDBOperation("replace", "items")
	defer timer.ObserveDuration()

	if item == nil || item.ItemID == "" {
		utils.TrackError("database", "missing_item_id")
		return model.NewError(model.KindValidation, model.ReasonInvalidItem, "", "item ID is required")
	}

	_, err := r.MongoCollection.ReplaceOne(ctx,
		bson.M{"_id": item.ItemID},
		item,
		options.Replace().SetUpsert(true))
	if err != nil {
		utils.TrackError("database", "item_save_failed")
		return fmt.Errorf("save item %s: %w", item.ItemID, err)
	}
	return nil
}

func (r *ItemsRepo) Delete(ctx context.Context, id string) error {
	timer := utils.TrackDBOperation("delete", "items")
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		utils.TrackError("database", "item_deletion_failed")
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		utils.TrackError("database", "item_not_found")
		return model.NotFound(id)
	}
	return nil
}

// Runs fn inside a MongoDB transaction. Calls made with an existing session
// context join that transaction. Requires a replica set deployment.
func (r *ItemsRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := r.MongoCollection.Database().Client().StartSession()
	if err != nil {
		utils.TrackError("database", "session_start_failed")
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil {
		utils.TrackError("database", "transaction_failed")
		return err
	}
	return nil
}
