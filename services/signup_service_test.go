package services

import (
	"context"
	"fmt"
	"testing"

	"token-airdrop-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genesisID = "genesis-user"

func storeWithGenesis() *memStore {
	store := newMemStore()
	store.addUser(models.User{
		ID:           genesisID,
		Email:        "genesis@example.com",
		ReferralCode: models.GenesisReferralCode,
		ReferredBy:   "",
	})
	return store
}

// addChain creates n users u1..un where u1 is referred by genesis and each
// subsequent user is referred by the previous one. Returns the last user.
func addChain(store *memStore, n int) models.User {
	var last models.User
	referredBy := models.GenesisReferralCode
	for i := 1; i <= n; i++ {
		u := models.User{
			ID:           fmt.Sprintf("u%d", i),
			Email:        fmt.Sprintf("u%d@example.com", i),
			ReferralCode: fmt.Sprintf("code-u%d", i),
			ReferredBy:   referredBy,
		}
		store.addUser(u)
		referredBy = u.ID
		last = u
	}
	return last
}

func TestSignupCreditsAtMostFiveAncestors(t *testing.T) {
	store := storeWithGenesis()
	deepest := addChain(store, 7) // u1..u7, u7 deepest

	identity := &fakeIdentity{}
	svc := NewSignupService(store, identity)

	user, err := svc.Signup(context.Background(), "new@example.com", "secret", deepest.ReferralCode)
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, SignupBalance, user.Balance)
	assert.Equal(t, "u7", user.ReferredBy)

	// u7..u3 are the five paid ancestors, at levels 1..5.
	for i, id := range []string{"u7", "u6", "u5", "u4", "u3"} {
		entries := store.entriesFor(id)
		require.Len(t, entries, 1, "ancestor %s", id)
		assert.Equal(t, user.ID, entries[0].ReferredID)
		assert.Equal(t, i+1, entries[0].Level)
		assert.Equal(t, ReferralReward, store.users[id].Balance)
	}

	// u2 and u1 sit beyond the depth limit and are untouched.
	assert.Empty(t, store.entriesFor("u2"))
	assert.Empty(t, store.entriesFor("u1"))
	assert.Zero(t, store.users["u2"].Balance)
	assert.Zero(t, store.users["u1"].Balance)

	// Genesis got exactly one fallback credit and entry.
	genesisEntries := store.entriesFor(genesisID)
	require.Len(t, genesisEntries, 1)
	assert.Equal(t, 0, genesisEntries[0].Level)
	assert.Equal(t, ReferralReward, store.users[genesisID].Balance)
}

func TestSignupShortChainCreditsEveryAncestorOnce(t *testing.T) {
	store := storeWithGenesis()
	deepest := addChain(store, 2)

	svc := NewSignupService(store, &fakeIdentity{})

	user, err := svc.Signup(context.Background(), "new@example.com", "secret", deepest.ReferralCode)
	require.NoError(t, err)

	require.Len(t, store.entriesFor("u2"), 1)
	require.Len(t, store.entriesFor("u1"), 1)
	assert.Equal(t, 1, store.entriesFor("u2")[0].Level)
	assert.Equal(t, 2, store.entriesFor("u1")[0].Level)
	assert.Equal(t, ReferralReward, store.users["u1"].Balance)
	assert.Equal(t, ReferralReward, store.users["u2"].Balance)
	require.Len(t, store.entriesFor(genesisID), 1)
	assert.Equal(t, "u2", user.ReferredBy)
}

func TestSignupWithoutCodeFallsBackToGenesis(t *testing.T) {
	store := storeWithGenesis()
	svc := NewSignupService(store, &fakeIdentity{})

	user, err := svc.Signup(context.Background(), "new@example.com", "secret", "")
	require.NoError(t, err)

	assert.Equal(t, models.GenesisReferralCode, user.ReferredBy)
	require.Len(t, store.entriesFor(genesisID), 1)
	assert.Equal(t, ReferralReward, store.users[genesisID].Balance)
}

func TestSignupInvalidCodeDeletesIdentityAndLeavesNoState(t *testing.T) {
	store := storeWithGenesis()
	identity := &fakeIdentity{}
	svc := NewSignupService(store, identity)

	user, err := svc.Signup(context.Background(), "new@example.com", "secret", "no-such-code")
	require.ErrorIs(t, err, ErrInvalidReferralCode)
	assert.Nil(t, user)

	// Compensating action ran and nothing was committed.
	require.Len(t, identity.created, 1)
	assert.Equal(t, identity.created, identity.deleted)
	assert.Len(t, store.users, 1) // genesis only
	assert.Empty(t, store.referrals)
	assert.Zero(t, store.users[genesisID].Balance)
}

func TestSignupStoreFailureRollsBackAndDeletesIdentity(t *testing.T) {
	store := storeWithGenesis()
	addChain(store, 1)
	store.failAppend = true

	identity := &fakeIdentity{}
	svc := NewSignupService(store, identity)

	_, err := svc.Signup(context.Background(), "new@example.com", "secret", "code-u1")
	require.Error(t, err)

	require.Len(t, identity.deleted, 1)
	assert.Len(t, store.users, 2) // genesis + u1, no new account
	assert.Empty(t, store.referrals)
	assert.Zero(t, store.users[genesisID].Balance)
	assert.Zero(t, store.users["u1"].Balance)
}

func TestSignupStopsAtMissingAncestorWithoutFailing(t *testing.T) {
	store := storeWithGenesis()
	store.addUser(models.User{
		ID:           "orphan",
		ReferralCode: "code-orphan",
		ReferredBy:   "ghost", // upstream record is gone
	})

	svc := NewSignupService(store, &fakeIdentity{})

	user, err := svc.Signup(context.Background(), "new@example.com", "secret", "code-orphan")
	require.NoError(t, err)

	require.Len(t, store.entriesFor("orphan"), 1)
	assert.Equal(t, ReferralReward, store.users["orphan"].Balance)
	assert.NotNil(t, store.users[user.ID])
}

func TestSignupSurvivesReferralCycle(t *testing.T) {
	store := storeWithGenesis()
	store.addUser(models.User{ID: "a", ReferralCode: "code-a", ReferredBy: "b"})
	store.addUser(models.User{ID: "b", ReferralCode: "code-b", ReferredBy: "a"})

	svc := NewSignupService(store, &fakeIdentity{})

	_, err := svc.Signup(context.Background(), "new@example.com", "secret", "code-a")
	require.NoError(t, err)

	// Each node in the cycle is credited exactly once.
	assert.Len(t, store.entriesFor("a"), 1)
	assert.Len(t, store.entriesFor("b"), 1)
	assert.Equal(t, ReferralReward, store.users["a"].Balance)
	assert.Equal(t, ReferralReward, store.users["b"].Balance)
}
