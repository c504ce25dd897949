package sqlstore

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/app/repositories"
	"github.com/atelier/storefront/app/repositories/repotest"
	"github.com/atelier/storefront/pkg/database"
)

var dbSeq atomic.Int64

func openSQLite(t *testing.T) *repositories.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:sqlstore_%d?mode=memory&cache=shared&_busy_timeout=5000", dbSeq.Add(1))
	db, err := database.OpenSQL("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	store := New(db)
	t.Cleanup(func() { _ = store.Close(t.Context()) })
	return store
}

func TestContract(t *testing.T) {
	repotest.Run(t, openSQLite)
}

func TestLikePatternEscapes(t *testing.T) {
	assert.Equal(t, "%wool%", likePattern("WOOL"))
	assert.Equal(t, "%100!%!_off%", likePattern("100%_off"))
	assert.Equal(t, "%!!![x]%", likePattern("![x]"))
}
