package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatornet/creatornet/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, nil)
}

func creatorProfile(name string) *database.Profile {
	return &database.Profile{
		AccountType:     database.AccountCreator,
		DisplayName:     name,
		Niche:           "Fitness",
		LocationCurrent: "Warsaw",
		Bio:             "daily workouts",

		CreatorPersonality:    database.NullStr("Friendly (warm tone, supportive)"),
		CreatorPlatformHandle: database.NullStr("@" + name),
		CreatorPlatformURL:    database.NullStr("https://example.com/" + name),
		CreatorEarningsBand:   database.NullStr("Prefer not to say"),
		CreatorContentTypes:   database.StringList{"Fitness", "Travel"},
		CreatorPhotos:         database.StringList{name + "_1.png"},
	}
}

func agencyProfile(name string) *database.Profile {
	return &database.Profile{
		AccountType:     database.AccountAgency,
		DisplayName:     name,
		Niche:           "Fitness",
		LocationCurrent: "Berlin",
		Bio:             "boutique team",

		AgencyName:               database.NullStr(name),
		AgencyWebsite:            database.NullStr("https://" + name + ".example"),
		AgencySuccessStory:       database.NullStr("grew a client 3x in a year"),
		AgencyServices:           database.StringList{"Account strategy"},
		AgencyContentSpecialties: database.StringList{"Fitness"},
		AgencyPaymentModel:       database.NullStr("Commission-based"),
		AgencyFeeBand:            database.NullStr("Prefer not to say"),
		AgencyCommissionBand:     database.NullStr("15–20%"),
		AgencyPaymentOther:       database.NullStr(""),
	}
}

func TestUpsertProfileInsertAndResolve(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.UpsertProfile(ctx, creatorProfile("Luna"))
	require.NoError(t, err)
	require.NotZero(t, id)

	resolved, err := store.ResolveProfile(ctx, "Luna", database.AccountCreator)
	require.NoError(t, err)
	assert.Equal(t, id, resolved)

	// Unknown identity resolves to zero without error.
	missing, err := store.ResolveProfile(ctx, "Nobody", database.AccountCreator)
	require.NoError(t, err)
	assert.Zero(t, missing)

	// Identity matching is exact and case-sensitive.
	cased, err := store.ResolveProfile(ctx, "luna", database.AccountCreator)
	require.NoError(t, err)
	assert.Zero(t, cased)
}

func TestUpsertProfilePreservesIDAndCreated(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	first := creatorProfile("Luna")
	first.Created = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	id, err := store.UpsertProfile(ctx, first)
	require.NoError(t, err)

	second := creatorProfile("Luna")
	second.Bio = "updated bio"
	second.Created = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	id2, err := store.UpsertProfile(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, id, id2, "upsert must reuse the surrogate id")

	got, err := store.GetProfileByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "updated bio", got.Bio)
	assert.True(t, got.Created.Equal(first.Created), "created must keep the original timestamp")

	// Still a single live row for the identity.
	all, err := store.ListProfilesByType(ctx, database.AccountCreator)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertProfileIdentityIsRolePair(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	creatorID, err := store.UpsertProfile(ctx, creatorProfile("Luna"))
	require.NoError(t, err)

	agency := agencyProfile("Luna")
	agencyID, err := store.UpsertProfile(ctx, agency)
	require.NoError(t, err)

	assert.NotEqual(t, creatorID, agencyID,
		"same display name under a different role is an independent profile")

	got, err := store.GetProfileByID(ctx, creatorID)
	require.NoError(t, err)
	assert.Equal(t, database.AccountCreator, got.AccountType)
	assert.False(t, got.AgencyName.Valid, "creator row must keep agency columns NULL")

	gotAgency, err := store.GetProfileByID(ctx, agencyID)
	require.NoError(t, err)
	assert.False(t, gotAgency.CreatorPersonality.Valid, "agency row must keep creator columns NULL")
	assert.Nil(t, gotAgency.CreatorContentTypes)
}

func TestUpsertProfileValidation(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertProfile(ctx, nil)
	assert.Error(t, err)

	_, err = store.UpsertProfile(ctx, &database.Profile{AccountType: database.AccountCreator})
	assert.Error(t, err, "blank display name must be rejected")

	_, err = store.UpsertProfile(ctx, &database.Profile{DisplayName: "Luna", AccountType: "Martian"})
	assert.Error(t, err, "unknown account type must be rejected")
}

func TestGetProfileByIDNotFound(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	_, err := store.GetProfileByID(context.Background(), 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestListProfilesByTypeNewestFirst(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	older := creatorProfile("Luna")
	older.Created = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.UpsertProfile(ctx, older)
	require.NoError(t, err)

	newer := creatorProfile("Mara")
	newer.Created = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = store.UpsertProfile(ctx, newer)
	require.NoError(t, err)

	_, err = store.UpsertProfile(ctx, agencyProfile("Stellar"))
	require.NoError(t, err)

	creators, err := store.ListProfilesByType(ctx, database.AccountCreator)
	require.NoError(t, err)
	require.Len(t, creators, 2)
	assert.Equal(t, "Mara", creators[0].DisplayName)
	assert.Equal(t, "Luna", creators[1].DisplayName)

	// CSV round-trip.
	assert.Equal(t, database.StringList{"Fitness", "Travel"}, creators[0].CreatorContentTypes)
}

func TestMessagesAppendOnlyInbox(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	lunaID, err := store.UpsertProfile(ctx, creatorProfile("Luna"))
	require.NoError(t, err)
	stellarID, err := store.UpsertProfile(ctx, agencyProfile("Stellar"))
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msgs := []*database.Message{
		{SenderID: lunaID, ReceiverID: stellarID, Body: "hi there", Created: base},
		{SenderID: stellarID, ReceiverID: lunaID, Body: "hello Luna", Created: base.Add(time.Minute)},
		{SenderID: lunaID, ReceiverID: stellarID, Body: "let's talk", Created: base.Add(2 * time.Minute)},
	}
	for _, m := range msgs {
		require.NoError(t, store.SaveMessage(ctx, m))
		assert.NotZero(t, m.ID)
	}

	// Both parties see the full exchange, newest first.
	for _, viewer := range []int64{lunaID, stellarID} {
		inbox, err := store.Inbox(ctx, viewer)
		require.NoError(t, err)
		require.Len(t, inbox, 3)
		assert.Equal(t, "let's talk", inbox[0].Body)
		assert.Equal(t, "hi there", inbox[2].Body)
	}

	// A third party sees none of it.
	maraID, err := store.UpsertProfile(ctx, creatorProfile("Mara"))
	require.NoError(t, err)
	inbox, err := store.Inbox(ctx, maraID)
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestSaveMessageValidation(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SaveMessage(ctx, nil))
	assert.Error(t, store.SaveMessage(ctx, &database.Message{ReceiverID: 2, Body: "x"}))
	assert.Error(t, store.SaveMessage(ctx, &database.Message{SenderID: 1, Body: "x"}))
	assert.Error(t, store.SaveMessage(ctx, &database.Message{SenderID: 1, ReceiverID: 2, Body: "   "}),
		"whitespace-only body must be rejected")
}

func TestConnectionsNormalizedAndDeduplicated(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	lunaID, err := store.UpsertProfile(ctx, creatorProfile("Luna"))
	require.NoError(t, err)
	stellarID, err := store.UpsertProfile(ctx, agencyProfile("Stellar"))
	require.NoError(t, err)

	conn, err := store.SaveConnection(ctx, stellarID, lunaID)
	require.NoError(t, err)
	assert.Less(t, conn.ProfileLow, conn.ProfileHigh)

	// Repeat insertion from either direction returns the existing row.
	again, err := store.SaveConnection(ctx, lunaID, stellarID)
	require.NoError(t, err)
	assert.Equal(t, conn.ID, again.ID)

	conns, err := store.ListConnections(ctx, lunaID)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, stellarID, conns[0].Other(lunaID))
	assert.Equal(t, lunaID, conns[0].Other(stellarID))

	// Self-connections and zero ids are rejected.
	_, err = store.SaveConnection(ctx, lunaID, lunaID)
	assert.Error(t, err)
	_, err = store.SaveConnection(ctx, 0, lunaID)
	assert.Error(t, err)
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	assert.NoError(t, store.RunSQLMaintenance(context.Background()))
}
