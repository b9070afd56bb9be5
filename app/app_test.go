package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jtbgroup/immocare-sub000/config"
	"github.com/jtbgroup/immocare-sub000/generic"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "immocare.db")
	cfg.HTTP.Port = 0
	return cfg
}

func TestBuild_WiresServicesOnOneStore(t *testing.T) {
	// GIVEN: A config pointing at a fresh database file
	cfg := testConfig(t)

	// WHEN: Building the components
	comps, err := Build(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer comps.Close()

	// THEN: The services share the migrated store
	ctx := context.Background()
	require.NoError(t, comps.Store.Ping(ctx))

	alerts, err := comps.Leases.Alerts(ctx, generic.MustParseDate("2025-01-01"))
	require.NoError(t, err)
	assert.Empty(t, alerts)

	_, err = comps.Rents.History(ctx, "unknown-unit")
	assert.True(t, generic.IsNotFound(err))
}

func TestRun_RequiresConfig(t *testing.T) {
	err := Run(context.Background())
	assert.EqualError(t, err, "config is required")
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	// GIVEN: A context that is already cancelled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// WHEN: Running the server
	err := Run(ctx,
		WithConfig(testConfig(t)),
		WithLogger(zaptest.NewLogger(t)),
		WithRegistry(prometheus.NewRegistry()),
	)

	// THEN: It shuts down cleanly
	assert.NoError(t, err)
}
