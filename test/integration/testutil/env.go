package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"spadesk/pkg/auth"
)

const DefaultHealthCheckTimeout = 30 * time.Second

type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
	JWTSecret    string
}

func NewTestEnv() *TestEnv {
	serverPort := getEnv("TEST_SERVER_PORT", "8080")
	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:    getEnv("TEST_SERVER_URL", fmt.Sprintf("http://localhost:%s", serverPort)),
		JWTSecret:    os.Getenv("TEST_JWT_SECRET"),
	}
}

// Setup connects to the database the server under test uses, empties it and
// returns a client authenticated as a test operator.
func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *Client) {
	t.Helper()

	if e.JWTSecret == "" {
		t.Skip("TEST_JWT_SECRET not set")
	}

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanCollections(t)

	token, err := auth.Issue([]byte(e.JWTSecret), "integration", "Integration Tests", time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	client := NewClient(e.ServerURL, token)
	client.WaitForHealthy(t, DefaultHealthCheckTimeout)

	return mongo, client
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanCollections(t)
		mongo.Close(t)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
