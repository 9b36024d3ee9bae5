//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"roomchat/internal/domain"
	"roomchat/internal/repository/postgres"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a PostgreSQL container and returns a ready database
func setupPostgres(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err, "failed to connect to PostgreSQL")

	err = runMigrations(db)
	require.NoError(t, err, "failed to run migrations")

	cleanup := func() {
		db.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

// runMigrations creates the database schema for testing
func runMigrations(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS rooms (
			id UUID PRIMARY KEY,
			room_id VARCHAR(100) UNIQUE NOT NULL CHECK (length(room_id) >= 1),
			messages JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

func TestRoomStore_Integration_CreateFindSave(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	store := postgres.NewRoomStore(db)
	ctx := context.Background()

	created, err := store.Create(ctx, "lobby")
	require.NoError(t, err)
	assert.Equal(t, "lobby", created.RoomID)
	assert.NotEmpty(t, created.ID)

	// Second create with the same room id must be rejected.
	dup, err := store.Create(ctx, "lobby")
	assert.ErrorIs(t, err, domain.ErrRoomExists)
	assert.Nil(t, dup)

	found, err := store.FindByRoomID(ctx, "lobby")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Empty(t, found.Messages)

	found.Messages = append(found.Messages,
		domain.Message{Sender: "bob", Content: "hey", Timestamp: time.Now().UTC()},
		domain.Message{Sender: "amy", Content: "yo", Timestamp: time.Now().UTC()},
	)
	require.NoError(t, store.Save(ctx, found))

	reread, err := store.FindByRoomID(ctx, "lobby")
	require.NoError(t, err)
	require.Len(t, reread.Messages, 2)
	assert.Equal(t, "bob", reread.Messages[0].Sender)
	assert.Equal(t, "amy", reread.Messages[1].Sender)
}

func TestRoomStore_Integration_MissReturnsNil(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	store := postgres.NewRoomStore(db)

	room, err := store.FindByRoomID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, room)
}

func TestRoomStore_Integration_ConcurrentCreate(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	store := postgres.NewRoomStore(db)

	const racers = 8
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create(context.Background(), "contended")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var created, rejected int
	for err := range results {
		switch {
		case err == nil:
			created++
		case assert.ErrorIs(t, err, domain.ErrRoomExists):
			rejected++
		}
	}

	// Exactly one creator wins; the unique constraint rejects the rest.
	assert.Equal(t, 1, created)
	assert.Equal(t, racers-1, rejected)
}
