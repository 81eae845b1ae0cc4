package queue

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeduel/platform/internal/rank"
)

func participant(conn string, points int) SearchingParticipant {
	return SearchingParticipant{
		ConnID: conn,
		UserID: uuid.New(),
		Rank:   rank.Compute(points),
		Points: points,
	}
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("ranked")
	assert.True(t, ok)
	assert.Equal(t, Ranked, m)

	_, ok = ParseMode("RANKED")
	assert.False(t, ok)
	_, ok = ParseMode("")
	assert.False(t, ok)
}

func TestCasualIsFIFO(t *testing.T) {
	m := NewManager()
	a, b, c := participant("a", 0), participant("b", 3000), participant("c", 100)

	require.Nil(t, m.TakeOpponent(a, Casual))
	require.True(t, m.Enqueue(a, Casual))
	require.True(t, m.Enqueue(b, Casual))

	opp := m.TakeOpponent(c, Casual)
	require.NotNil(t, opp)
	assert.Equal(t, a.UserID, opp.UserID)
	assert.Equal(t, 1, m.Len(Casual))
	assert.Equal(t, 0, m.Position(b.UserID, Casual))
}

func TestRankedRequiresSameTier(t *testing.T) {
	m := NewManager()
	silver := participant("s", 1000)
	diamond := participant("d", 2300)
	require.Equal(t, rank.TierDiamond, diamond.Rank.Tier)

	require.True(t, m.Enqueue(silver, Ranked))
	assert.Nil(t, m.TakeOpponent(diamond, Ranked))
	assert.Equal(t, 1, m.Len(Ranked))

	// sub-tier differences do not matter
	otherSilver := participant("s2", 1290)
	require.NotEqual(t, silver.Rank, otherSilver.Rank)
	opp := m.TakeOpponent(otherSilver, Ranked)
	require.NotNil(t, opp)
	assert.Equal(t, silver.UserID, opp.UserID)
	assert.Zero(t, m.Len(Ranked))
}

func TestRankedScansInInsertionOrder(t *testing.T) {
	m := NewManager()
	gold := participant("g", 1400)
	first := participant("b1", 100)
	second := participant("b2", 600)
	m.Enqueue(gold, Ranked)
	m.Enqueue(first, Ranked)
	m.Enqueue(second, Ranked)

	opp := m.TakeOpponent(participant("b3", 0), Ranked)
	require.NotNil(t, opp)
	assert.Equal(t, first.UserID, opp.UserID)
	assert.Equal(t, 0, m.Position(gold.UserID, Ranked))
	assert.Equal(t, 1, m.Position(second.UserID, Ranked))
}

func TestEnqueueRejectsDuplicateUserAcrossPools(t *testing.T) {
	m := NewManager()
	p := participant("a", 0)
	require.True(t, m.Enqueue(p, Ranked))

	again := p
	again.ConnID = "a2"
	assert.False(t, m.Enqueue(again, Casual))
	assert.False(t, m.Enqueue(again, Ranked))
	assert.Equal(t, 1, m.Len(Ranked))
	assert.Zero(t, m.Len(Casual))
}

func TestTakeOpponentSkipsSelf(t *testing.T) {
	m := NewManager()
	p := participant("a", 0)
	m.Enqueue(p, Casual)
	assert.Nil(t, m.TakeOpponent(p, Casual))
	assert.Equal(t, 1, m.Len(Casual))
}

func TestRemoveConnectionIsIdempotent(t *testing.T) {
	m := NewManager()
	a, b := participant("a", 0), participant("b", 0)
	m.Enqueue(a, Casual)
	m.Enqueue(b, Ranked)

	assert.Equal(t, 1, m.RemoveConnection("a"))
	assert.Equal(t, 0, m.RemoveConnection("a"))
	assert.False(t, m.Contains(a.UserID))
	assert.True(t, m.Contains(b.UserID))
}
