// Package mongotest gives repository tests a throwaway migrated database.
// Tests are skipped unless TEST_MONGO_URI points at a running server.
package mongotest

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	mongoMigration "paradisian/internal/migrations/mongo"
	"paradisian/pkg/client"
	"paradisian/pkg/config"
	"paradisian/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	EnvTestMongoURI   = "TEST_MONGO_URI"
	ConnectionTimeout = 10 * time.Second
)

// Config connects to TEST_MONGO_URI, migrates a database unique to the test
// and drops it when the test ends.
func Config(t *testing.T) *config.Config {
	t.Helper()

	uri := os.Getenv(EnvTestMongoURI)
	if uri == "" {
		t.Skipf("%s not set, skipping MongoDB test", EnvTestMongoURI)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := mc.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	log := logger.Discard()
	dbName := "paradisian_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if err := mongoMigration.RunMigration(ctx, mc, dbName, log); err != nil {
		t.Fatalf("failed to migrate %s: %v", dbName, err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
		defer cancel()
		if err := mc.Database(dbName).Drop(ctx); err != nil {
			t.Logf("warning: failed to drop %s: %v", dbName, err)
		}
		if err := mc.Disconnect(ctx); err != nil {
			t.Logf("warning: failed to disconnect from MongoDB: %v", err)
		}
	})

	return &config.Config{
		MongoDatabaseName: dbName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Log:               log,
		Client:            &client.Client{Mongo: mc},
	}
}
