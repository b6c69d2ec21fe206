package services

import (
	"testing"
	"time"

	"token-airdrop-system/models"

	"github.com/stretchr/testify/assert"
)

func TestIsStaleClaim(t *testing.T) {
	now := time.Now().UTC()

	fresh := models.AirdropClaim{CreatedAt: now.Add(-5 * time.Minute)}
	assert.False(t, isStaleClaim(fresh, now), "recent reservation may still be in flight")

	abandoned := models.AirdropClaim{CreatedAt: now.Add(-2 * time.Hour)}
	assert.True(t, isStaleClaim(abandoned, now))

	sent := models.AirdropClaim{TxID: "tx-claim", CreatedAt: now.Add(-2 * time.Hour)}
	assert.False(t, isStaleClaim(sent, now), "completed claims are never released")

	boundary := models.AirdropClaim{CreatedAt: now.Add(-StaleClaimCutoff)}
	assert.False(t, isStaleClaim(boundary, now), "cutoff itself is not yet stale")
}
