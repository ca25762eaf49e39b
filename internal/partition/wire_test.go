package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/necsim/internal/lineage"
)

func TestEncodeDecodeMigrationRoundTrips(t *testing.T) {
	mig := lineage.MigratingLineage{
		GlobalRef:       42,
		DispersalOrigin: lineage.Location{X: 1, Y: 2},
		DispersalTarget: lineage.Location{X: 3, Y: 4},
		PriorTime:       1.5,
		EventTime:       2.75,
		CoalescenceRNG:  0xdeadbeef,
		TieBreaker:      7,
	}

	payload := EncodeMigration(3, mig)
	owner, decoded, ok := DecodeMigration(payload)
	require.True(t, ok)

	assert.Equal(t, uint32(3), owner)
	assert.Equal(t, mig.GlobalRef, decoded.GlobalRef)
	assert.Equal(t, mig.DispersalOrigin, decoded.DispersalOrigin)
	assert.Equal(t, mig.DispersalTarget, decoded.DispersalTarget)
	assert.InDelta(t, float64(mig.PriorTime), float64(decoded.PriorTime), 1e-12)
	assert.InDelta(t, float64(mig.EventTime), float64(decoded.EventTime), 1e-12)
	assert.Equal(t, mig.CoalescenceRNG, decoded.CoalescenceRNG)
	assert.Equal(t, mig.TieBreaker, decoded.TieBreaker)
}

func TestDecideVoteAny(t *testing.T) {
	votes := []Vote{{Rank: 0, HasWork: true}, {Rank: 1, HasWork: false}}
	assert.True(t, Decide(VoteAny, votes))

	votes = []Vote{{Rank: 0, HasWork: true}, {Rank: 1, HasWork: true}}
	assert.False(t, Decide(VoteAny, votes))
}

func TestDecideVoteMinTime(t *testing.T) {
	votes := []Vote{{Rank: 0, HasWork: false}, {Rank: 1, HasWork: false}}
	assert.True(t, Decide(VoteMinTime, votes))

	votes = []Vote{{Rank: 0, HasWork: false}, {Rank: 1, HasWork: true}}
	assert.False(t, Decide(VoteMinTime, votes))
}
