package database

import (
	"context"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client and DB hold the item event timeline store.
var (
	Client *mongo.Client
	DB     *mongo.Database
)

// DefaultMongoDatabase is used when the URI carries no database name.
const DefaultMongoDatabase = "ridit"

// Connect dials MongoDB and pings it within ctx. The globals are only
// assigned once the ping succeeds.
func Connect(ctx context.Context, mongoURI string) error {
	opts := options.Client().
		ApplyURI(mongoURI).
		SetServerSelectionTimeout(10 * time.Second).
		SetAppName("ridit-backend")

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return err
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return err
	}

	Client = client
	DB = client.Database(databaseName(mongoURI))
	log.Printf("✅ Connected to MongoDB (database %q)", DB.Name())
	return nil
}

// databaseName extracts the path segment of mongodb://host/<db>?opts.
func databaseName(mongoURI string) string {
	rest := mongoURI
	if i := strings.Index(rest, "://"); i != -1 {
		rest = rest[i+3:]
	}
	slash := strings.Index(rest, "/")
	if slash == -1 {
		return DefaultMongoDatabase
	}
	name := strings.Split(rest[slash+1:], "?")[0]
	if name == "" {
		return DefaultMongoDatabase
	}
	return name
}

func Disconnect() error {
	if Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return Client.Disconnect(ctx)
}
