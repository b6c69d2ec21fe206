package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifiedMembersChunksLookups(t *testing.T) {
	reader := &fakeReader{
		ids:      map[string][]string{},
		verified: map[string]bool{},
	}

	// 65 referral ids; every third one is verified.
	wantVerified := 0
	for i := 0; i < 65; i++ {
		id := fmt.Sprintf("ref-%d", i)
		reader.ids["alice"] = append(reader.ids["alice"], id)
		if i%3 == 0 {
			reader.verified[id] = true
			wantVerified++
		}
	}

	svc := &TeamService{Referrals: reader}

	count, err := svc.VerifiedMembers(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, wantVerified, count)
	assert.Equal(t, []int{30, 30, 5}, reader.chunkSizes)
}

func TestVerifiedMembersNoReferralsCostsNoLookup(t *testing.T) {
	reader := &fakeReader{
		ids:      map[string][]string{},
		verified: map[string]bool{},
	}
	svc := &TeamService{Referrals: reader}

	count, err := svc.VerifiedMembers(context.Background(), "nobody")
	require.NoError(t, err)

	assert.Equal(t, 0, count)
	assert.Empty(t, reader.chunkSizes)
}

func TestVerifiedMembersIsIdempotent(t *testing.T) {
	reader := &fakeReader{
		ids:      map[string][]string{"bob": {"r1", "r2", "r3"}},
		verified: map[string]bool{"r1": true, "r3": true},
	}
	svc := &TeamService{Referrals: reader}

	first, err := svc.VerifiedMembers(context.Background(), "bob")
	require.NoError(t, err)
	second, err := svc.VerifiedMembers(context.Background(), "bob")
	require.NoError(t, err)

	assert.Equal(t, 2, first)
	assert.Equal(t, first, second)
}
