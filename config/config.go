// config/config.go
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Configuration constants for the application
var (
	// MongoDB configuration
	MongoURI      string
	MongoDatabase string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// JWTSecret signs the access tokens issued after sign-in
	JWTSecret string

	// ServerPort is the port on which the server will run
	ServerPort int

	// Application configuration
	AppName    = "REFMATCH"
	AppVersion = "1.0.0"
)

func init() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
	}

	// MongoDB configuration
	MongoURI = getEnv("MONGO_URI", "")
	MongoDatabase = getEnv("MONGO_DATABASE", "refmatch")

	// Server configuration
	portStr := getEnv("SERVER_PORT", "8088")
	if port, err := strconv.Atoi(portStr); err == nil {
		ServerPort = port
	} else {
		ServerPort = 8088
	}

	// Redis configuration
	RedisURL = getEnv("REDIS_URL", "localhost:6379")
	RedisPassword = getEnv("REDIS_PASSWORD", "")
	redisDBStr := getEnv("REDIS_DB", "0")
	if db, err := strconv.Atoi(redisDBStr); err == nil {
		RedisDB = db
	} else {
		RedisDB = 0
	}

	// Auth configuration
	JWTSecret = getEnv("JWT_SECRET", "")
}

// MustValidate aborts startup when a required connection parameter is missing.
func MustValidate() {
	if MongoURI == "" {
		log.Fatalf("❌ MONGO_URI is required but not set")
	}
	if JWTSecret == "" {
		log.Fatalf("❌ JWT_SECRET is required but not set")
	}
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
