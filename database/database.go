package database

import (
	"context"
	"fmt"
	"log"
	"refmatch/config"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	// MongoDB client and database instances
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
)

// Collection names used across the application
const (
	UsersCollection        = "users"
	SessionsCollection     = "sessions"
	MatchesCollection      = "matches"
	ApplicationsCollection = "applications"
)

// InitDB initializes the MongoDB connection
func InitDB() error {
	if err := InitMongo(); err != nil {
		return fmt.Errorf("failed to initialize MongoDB: %v", err)
	}
	fmt.Println("✅ Database services initialized successfully")
	return nil
}

// InitMongo initializes the MongoDB client and database handle
func InitMongo() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(config.MongoURI).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second).
		SetMaxPoolSize(10)

	log.Printf("🔌 Connecting to MongoDB...")

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test the connection
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	MongoClient = client
	MongoDatabase = client.Database(config.MongoDatabase)
	log.Printf("✅ MongoDB client initialized successfully")
	log.Printf("📊 Connected to database: %s", config.MongoDatabase)

	return nil
}

// CloseAllConnections closes the MongoDB connection
func CloseAllConnections() {
	if MongoClient != nil {
		if err := MongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Warning: Failed to disconnect MongoDB client: %v", err)
			return
		}
		log.Println("✅ MongoDB connection closed")
	}
}

// Collection returns a handle to a named collection
func Collection(name string) *mongo.Collection {
	return MongoDatabase.Collection(name)
}

// HealthCheck performs a health check on the database
func HealthCheck() error {
	if MongoClient == nil {
		return fmt.Errorf("MongoDB client is not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return MongoClient.Ping(ctx, readpref.Primary())
}
