package repository

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharebnb/internal/model"
)

// setupTestDB connects to TEST_DATABASE_URL and recreates the schema.
// Tests are skipped when no database is available.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL test")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("PostgreSQL not available, skipping test: %v", err)
	}

	schema, err := os.ReadFile("../../db/schema.sql")
	require.NoError(t, err)

	db.MustExec(`DROP TABLE IF EXISTS messages, listings, users CASCADE`)
	db.MustExec(string(schema))

	t.Cleanup(func() {
		db.MustExec(`DROP TABLE IF EXISTS messages, listings, users CASCADE`)
		db.Close()
	})
	return db
}

func TestPostgres_SignupUniqueness(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	require.NoError(t, users.Create(ctx, &model.User{
		Username: "ana", FirstName: "Ana", LastName: "L", Email: "a@x.com", Password: "hash",
	}))

	err := users.Create(ctx, &model.User{
		Username: "bob", FirstName: "Bob", LastName: "B", Email: "a@x.com", Password: "hash",
	})
	assert.ErrorIs(t, err, model.ErrEmailTaken)

	err = users.Create(ctx, &model.User{
		Username: "ana", FirstName: "Ana", LastName: "L", Email: "other@x.com", Password: "hash",
	})
	assert.ErrorIs(t, err, model.ErrUsernameTaken)

	_, err = users.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestPostgres_FindAndCascade(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	listings := NewListingRepository(db)
	messages := NewMessageRepository(db)

	for _, name := range []string{"ana", "bob"} {
		require.NoError(t, users.Create(ctx, &model.User{
			Username: name, FirstName: name, LastName: name, Email: name + "@x.com", Password: "hash",
		}))
	}

	key := "listings/ana.jpg"
	l := &model.Listing{
		Title: "Loft", Price: decimal.RequireFromString("1000.00"),
		Latitude: 1.5, Longitude: 2.5, Beds: 2, Rooms: 3, Bathrooms: 1,
		CreatedBy: "ana", PhotoKey: &key,
	}
	require.NoError(t, listings.Create(ctx, l))

	max := int64(1000)
	got, err := listings.Find(ctx, model.ListingCriteria{MaxPrice: &max})
	require.NoError(t, err)
	assert.Empty(t, got)

	max = 1001
	got, err = listings.Find(ctx, model.ListingCriteria{MaxPrice: &max})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Price.Equal(decimal.RequireFromString("1000")))

	m := &model.Message{Body: "hi", FromUser: "ana", ToUser: "bob", ListingID: l.ID}
	require.NoError(t, messages.Create(ctx, m))
	assert.NotZero(t, m.ID)
	assert.False(t, m.SentAt.IsZero())
	assert.Nil(t, m.ReadAt)

	err = messages.Create(ctx, &model.Message{Body: "hi", FromUser: "ana", ToUser: "ghost", ListingID: l.ID})
	assert.ErrorIs(t, err, model.ErrReferenceNotFound)

	keys, err := users.Delete(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	left, err := listings.ListByCreator(ctx, "ana")
	require.NoError(t, err)
	assert.Empty(t, left)

	thread, err := messages.ListBetween(ctx, "ana", "bob", model.MaxThreadMessages)
	require.NoError(t, err)
	assert.Empty(t, thread)
}

func TestPostgres_WithTx(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("failure rolls back every row", func(t *testing.T) {
		err := WithTx(ctx, db, func(repos Repositories) error {
			require.NoError(t, repos.Users.Create(ctx, &model.User{
				Username: "ana", FirstName: "Ana", LastName: "L", Email: "a@x.com", Password: "hash",
			}))
			return repos.Listings.Create(ctx, &model.Listing{
				Title: "Loft", Price: decimal.NewFromInt(100), CreatedBy: "ghost",
			})
		})
		assert.ErrorIs(t, err, model.ErrReferenceNotFound)

		_, err = NewUserRepository(db).GetByUsername(ctx, "ana")
		assert.ErrorIs(t, err, model.ErrUserNotFound)
	})

	t.Run("success commits and delete reuses the transaction", func(t *testing.T) {
		err := WithTx(ctx, db, func(repos Repositories) error {
			for _, name := range []string{"bob", "cat"} {
				if err := repos.Users.Create(ctx, &model.User{
					Username: name, FirstName: name, LastName: name, Email: name + "@x.com", Password: "hash",
				}); err != nil {
					return err
				}
			}
			_, err := repos.Users.Delete(ctx, "cat")
			return err
		})
		require.NoError(t, err)

		users, err := NewUserRepository(db).List(ctx, "")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "bob", users[0].Username)
		assert.False(t, users[0].CreatedAt.IsZero())
	})
}
