package service_test

import (
	"context"
	"testing"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/testutil"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemService(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestSystemService(t, db)

	t.Run("healthy database", func(t *testing.T) {
		assert.NoError(t, svc.CheckHealth(ctx))
	})

	t.Run("reports versions", func(t *testing.T) {
		info, err := svc.CheckVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, version.Version, info.AppVersion)
		assert.Equal(t, int64(2), info.DbVersion)
	})

	t.Run("closed database is unhealthy", func(t *testing.T) {
		closed := testutil.SetupTestDB(t)
		require.NoError(t, closed.Close())

		assert.Error(t, testutil.NewTestSystemService(t, closed).CheckHealth(ctx))
	})
}
