package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"audio-sentry/models"
)

const (
	mongoDatabase    = "audiosentry"
	eventsCollection = "events"
	mongoTimeout     = 10 * time.Second
)

type MongoClient struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoClient(uri string) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %s", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %s", err)
	}

	return &MongoClient{client: client, db: client.Database(mongoDatabase)}, nil
}

func (c *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// StoreEvent appends one classified event to the log.
func (c *MongoClient) StoreEvent(event *models.EventRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	if event.ID == 0 {
		event.ID = event.Timestamp.UnixNano()
	}

	_, err := c.db.Collection(eventsCollection).InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("error storing event: %s", err)
	}
	return nil
}

// RecentEvents returns the newest events first. limit <= 0 returns all.
func (c *MongoClient) RecentEvents(limit int) ([]models.EventRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := c.db.Collection(eventsCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying events: %s", err)
	}
	defer cursor.Close(ctx)

	var events []models.EventRecord
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("error decoding events: %s", err)
	}
	return events, nil
}

func (c *MongoClient) TotalEvents() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	count, err := c.db.Collection(eventsCollection).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("error counting events: %s", err)
	}
	return int(count), nil
}
