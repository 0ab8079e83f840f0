package selection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/playerauction/go/internal/models"
)

func player(number int) models.Player {
	return models.Player{ID: uuid.New(), Number: number, Type: models.PlayerTypePlayer}
}

func TestBuild_LookupAndPending(t *testing.T) {
	p3, p1, p2 := player(3), player(1), player(2)
	sold := player(4).SellTo(uuid.New(), 5)
	unsold := player(5)
	unsold.Type = models.PlayerTypeUnsold

	ix := Build([]models.Player{p3, sold, p1, unsold, p2})

	id, ok := ix.Lookup(4)
	require.True(t, ok)
	assert.Equal(t, sold.ID, id)

	_, ok = ix.Lookup(99)
	assert.False(t, ok)

	assert.Equal(t, []uuid.UUID{p1.ID, p2.ID, p3.ID}, ix.Pending())
	assert.Equal(t, 3, ix.Remaining())
	assert.False(t, ix.IsPending(sold.ID))
	assert.False(t, ix.IsPending(unsold.ID))
}

func TestNext_SequentialByNumber(t *testing.T) {
	p1, p2, p3 := player(1), player(2), player(3)
	ix := Build([]models.Player{p3, p2, p1})

	first, ok := ix.Next(nil)
	require.True(t, ok)
	assert.Equal(t, p1.ID, first)

	second, ok := ix.Next(&first)
	require.True(t, ok)
	assert.Equal(t, p2.ID, second)

	wrapped, ok := ix.Next(&p3.ID)
	require.True(t, ok)
	assert.Equal(t, p1.ID, wrapped)
}

func TestNext_SkipsAuctioned(t *testing.T) {
	p1 := player(1).SellTo(uuid.New(), 3)
	p2 := player(2)
	p2.Type = models.PlayerTypeUnsold
	p3 := player(3)

	ix := Build([]models.Player{p1, p2, p3})

	next, ok := ix.Next(&p1.ID)
	require.True(t, ok)
	assert.Equal(t, p3.ID, next)
}

func TestNext_OnlyCurrentLeft(t *testing.T) {
	p1 := player(1)
	ix := Build([]models.Player{p1, player(2).SellTo(uuid.New(), 1)})

	next, ok := ix.Next(&p1.ID)
	require.True(t, ok)
	assert.Equal(t, p1.ID, next)
}

func TestNext_ListComplete(t *testing.T) {
	ix := Build([]models.Player{player(1).SellTo(uuid.New(), 1)})

	_, ok := ix.Next(nil)
	assert.False(t, ok)
	assert.Equal(t, 0, ix.Remaining())
}
