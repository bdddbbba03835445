package addresses

import (
	"context"
	"sort"
	"testing"

	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/dmitrijs2005/lip/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runContract exercises the behaviour every Repository implementation must
// share. repo must start empty.
func runContract(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	home := &models.Address{
		ID:                 "home",
		AccessPasswordHash: "a-hash",
		MasterPasswordHash: "m-hash",
		CreatedOn:          1000,
		LastUpdate:         models.Never,
		Expiry:             models.Never,
	}

	_, err := repo.Get(ctx, "home")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, repo.Insert(ctx, home))
	require.ErrorIs(t, repo.Insert(ctx, home), common.ErrorAlreadyExists)

	got, err := repo.Get(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, *home, *got)

	require.NoError(t, repo.Update(ctx, "home", "203.0.113.7", 2000, 5000))
	got, err = repo.Get(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", got.Endpoint)
	assert.Equal(t, int64(2000), got.LastUpdate)
	assert.Equal(t, int64(5000), got.Expiry)
	assert.Equal(t, int64(1000), got.CreatedOn)

	require.ErrorIs(t, repo.Update(ctx, "ghost", "1.1.1.1", 1, 1), common.ErrorNotFound)

	office := &models.Address{ID: "office", AccessPasswordHash: "a", MasterPasswordHash: "m", CreatedOn: 1000, LastUpdate: models.Never, Expiry: 3000}
	forever := &models.Address{ID: "forever", AccessPasswordHash: "a", MasterPasswordHash: "m", CreatedOn: 1000, LastUpdate: models.Never, Expiry: models.Never}
	require.NoError(t, repo.Insert(ctx, office))
	require.NoError(t, repo.Insert(ctx, forever))

	ids, err := repo.ListExpired(ctx, 4000)
	require.NoError(t, err)
	assert.Equal(t, []string{"office"}, ids)

	ids, err = repo.ListExpired(ctx, 6000)
	require.NoError(t, err)
	sort.Strings(ids)
	assert.Equal(t, []string{"home", "office"}, ids)

	ids, err = repo.ListExpired(ctx, 3000)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, repo.Delete(ctx, "home"))
	require.ErrorIs(t, repo.Delete(ctx, "home"), common.ErrorNotFound)
	_, err = repo.Get(ctx, "home")
	require.ErrorIs(t, err, common.ErrorNotFound)

	// a deleted id can be taken again
	home.CreatedOn = 9000
	require.NoError(t, repo.Insert(ctx, home))
	got, err = repo.Get(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, int64(9000), got.CreatedOn)
}
