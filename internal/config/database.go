package config

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/90n9/talepick/internal/logging"
	"github.com/90n9/talepick/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"
)

var (
	// MongoDB client
	MongoDB *mongo.Database
	// Redis client
	Redis *redisclient.Client
)

// InitMongoDB initializes the MongoDB connection
func InitMongoDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(AppConfig.MongoURI).
		SetMonitor(otelmongo.NewMonitor()).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}

	// Ping the database
	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		log.Fatal(err)
	}

	MongoDB = client.Database(AppConfig.MongoDatabase)

	if err := EnsureIndexes(); err != nil {
		logging.Logger.Error("failed to ensure indexes on startup", zap.Error(err))
	}

	logging.Logger.Info("connected to MongoDB",
		zap.String("uri", maskMongoURI(AppConfig.MongoURI)),
		zap.String("database", AppConfig.MongoDatabase),
	)
}

// InitRedis initializes the Redis connection
func InitRedis() {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         AppConfig.RedisURI,
		Password:     AppConfig.RedisPassword,
		DB:           AppConfig.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Wrap with traced client
	Redis = redisclient.NewClient(redisClient)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Redis.Ping(ctx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("uri", AppConfig.RedisURI),
			zap.Error(err))
		return
	}

	logging.Logger.Info("connected to Redis",
		zap.String("uri", AppConfig.RedisURI))
}

// maskMongoURI masks sensitive information in MongoDB URI
func maskMongoURI(uri string) string {
	if !strings.Contains(uri, "@") {
		return uri
	}
	return "mongodb://****:****@" + uri[strings.LastIndex(uri, "@")+1:]
}

// EnsureIndexes creates required indexes if they don't exist
func EnsureIndexes() error {
	logger := zap.L().Named("database")
	logger.Info("ensuring required indexes exist")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		AppConfig.UserCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("email_1").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetName("username_1").SetUnique(true),
			},
		},
		AppConfig.VerificationCodeCollection: {
			// TTL index for automatic cleanup of expired codes
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetName("expires_at_1").SetExpireAfterSeconds(0),
			},
			// Rate-limit counting over a trailing window
			{
				Keys: bson.D{
					{Key: "email", Value: 1},
					{Key: "purpose", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("email_1_purpose_1_created_at_-1"),
			},
			// Validation lookup
			{
				Keys: bson.D{
					{Key: "email", Value: 1},
					{Key: "code", Value: 1},
					{Key: "purpose", Value: 1},
					{Key: "expires_at", Value: 1},
				},
				Options: options.Index().SetName("verification_query_1"),
			},
		},
		AppConfig.SessionCollection: {
			{
				Keys:    bson.D{{Key: "token", Value: 1}},
				Options: options.Index().SetName("token_1").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetName("user_id_1"),
			},
			// TTL index for passive session expiry
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetName("expires_at_1").SetExpireAfterSeconds(0),
			},
		},
		AppConfig.StoryCollection: {
			{
				Keys:    bson.D{{Key: "status", Value: 1}},
				Options: options.Index().SetName("status_1"),
			},
			{
				Keys:    bson.D{{Key: "flag_count", Value: -1}},
				Options: options.Index().SetName("flag_count_-1"),
			},
		},
		AppConfig.ReviewCollection: {
			{
				Keys: bson.D{
					{Key: "story_id", Value: 1},
					{Key: "user_id", Value: 1},
				},
				Options: options.Index().SetName("story_id_1_user_id_1").SetUnique(true),
			},
		},
		AppConfig.PlaySessionCollection: {
			{
				Keys: bson.D{
					{Key: "user_id", Value: 1},
					{Key: "story_id", Value: 1},
				},
				Options: options.Index().SetName("user_id_1_story_id_1").SetUnique(true),
			},
		},
		AppConfig.CreditLedgerCollection: {
			{
				Keys: bson.D{
					{Key: "user_id", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("user_id_1_created_at_-1"),
			},
		},
		AppConfig.SecurityEventCollection: {
			{
				Keys: bson.D{
					{Key: "kind", Value: 1},
					{Key: "timestamp", Value: -1},
				},
				Options: options.Index().SetName("kind_1_timestamp_-1"),
			},
			// Keep security events for 90 days
			{
				Keys:    bson.D{{Key: "timestamp", Value: 1}},
				Options: options.Index().SetName("timestamp_ttl").SetExpireAfterSeconds(90 * 24 * 60 * 60),
			},
		},
	}

	for collection, models := range indexes {
		if err := ensureCollectionIndexes(ctx, logger, collection, models); err != nil {
			return err
		}
	}

	logger.Info("all required indexes verified")
	return nil
}

// ensureCollectionIndexes creates any missing indexes for a collection
func ensureCollectionIndexes(ctx context.Context, logger *zap.Logger, collection string, models []mongo.IndexModel) error {
	coll := MongoDB.Collection(collection)

	cursor, err := coll.Indexes().List(ctx)
	if err != nil {
		logger.Error("failed to list indexes",
			zap.String("collection", collection),
			zap.Error(err))
		return err
	}
	defer cursor.Close(ctx)

	existingIndexes := make(map[string]bool)
	for cursor.Next(ctx) {
		var index bson.M
		if err := cursor.Decode(&index); err != nil {
			continue
		}
		if name, ok := index["name"].(string); ok {
			existingIndexes[name] = true
		}
	}

	created := 0
	for _, model := range models {
		name := ""
		if model.Options != nil && model.Options.Name != nil {
			name = *model.Options.Name
		}
		if existingIndexes[name] {
			continue
		}

		_, err = coll.Indexes().CreateOne(ctx, model)
		if err != nil {
			// Another instance may have created it concurrently
			if mongo.IsDuplicateKeyError(err) {
				logger.Info("index already exists (created by another instance)",
					zap.String("collection", collection),
					zap.String("index", name))
				continue
			}
			logger.Error("failed to create index",
				zap.String("collection", collection),
				zap.String("index", name),
				zap.Error(err))
			return err
		}
		created++
	}

	if created > 0 {
		logger.Info("created collection indexes",
			zap.String("collection", collection),
			zap.Int("count", created))
	} else {
		logger.Debug("collection indexes already exist",
			zap.String("collection", collection))
	}

	return nil
}
