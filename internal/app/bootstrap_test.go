package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoevents.io/geoevents/internal/api/handlers"
	"geoevents.io/geoevents/internal/app/modules"
	"geoevents.io/geoevents/internal/config"
	"geoevents.io/geoevents/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func TestBootstrap_FailsWhenDatabaseUnreachable(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     1,
			User:     "geoevents",
			Password: "geoevents",
			Database: "geoevents",
			SSLMode:  "disable",
			MaxConns: 2,
			MinConns: 1,
		},
		Worker: config.WorkerConfig{ImportPoolSize: 2, BackgroundPoolSize: 1},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	application, err := Bootstrap(ctx, cfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "init infrastructure")
	assert.Nil(t, application)
}

type stubModule struct {
	name   string
	err    error
	closed int
}

func (m *stubModule) Name() string                               { return m.name }
func (m *stubModule) ContributeServerDeps(*handlers.ServerDeps) {}
func (m *stubModule) Shutdown(context.Context) error {
	m.closed++
	return m.err
}

func TestShutdown_RunsEveryModuleHook(t *testing.T) {
	ingest := &stubModule{name: "ingest", err: errors.New("limiter already stopped")}
	events := &stubModule{name: "events"}
	application := &Application{Modules: []modules.Module{ingest, nil, events}}

	assert.NotPanics(t, application.Shutdown)
	assert.Equal(t, 1, ingest.closed)
	assert.Equal(t, 1, events.closed)
}

func TestShutdown_EmptyApplication(t *testing.T) {
	assert.NotPanics(t, (&Application{}).Shutdown)
}
