package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDependency struct {
	name      string
	dependsOn []string
	failures  int
	log       *[]string
}

func (f *fakeDependency) GetName() string     { return f.name }
func (f *fakeDependency) DependsOn() []string { return f.dependsOn }

func (f *fakeDependency) Start(ctx context.Context) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("not ready")
	}
	*f.log = append(*f.log, "start:"+f.name)
	return nil
}

func (f *fakeDependency) Stop(ctx context.Context) error {
	*f.log = append(*f.log, "stop:"+f.name)
	return nil
}

func newTestStartup(maxAttempts int) *Startup {
	s := NewStartup(zapadapter.NewZapEctoLogger(zap.NewNop(), nil), maxAttempts)
	s.backoffUnit = time.Millisecond
	return s
}

func TestStartup_OrdersByDependencies(t *testing.T) {
	var log []string
	s := newTestStartup(1)
	s.AddDependency(&fakeDependency{name: "http", dependsOn: []string{"database", "redis"}, log: &log})
	s.AddDependency(&fakeDependency{name: "redis", log: &log})
	s.AddDependency(&fakeDependency{name: "migrations", dependsOn: []string{"database"}, log: &log})
	s.AddDependency(&fakeDependency{name: "database", log: &log})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start:database", "start:redis", "start:http", "start:migrations"}, log)
	assert.Equal(t, StartupStatusStarted, s.Status("http"))

	log = nil
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"stop:migrations", "stop:http", "stop:redis", "stop:database"}, log)
	assert.Equal(t, StartupStatusStopped, s.Status("database"))
}

func TestStartup_RetriesThenSucceeds(t *testing.T) {
	var log []string
	s := newTestStartup(3)
	s.AddDependency(&fakeDependency{name: "database", failures: 2, log: &log})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start:database"}, log)
}

func TestStartup_GivesUp(t *testing.T) {
	var log []string
	s := newTestStartup(2)
	s.AddDependency(&fakeDependency{name: "database", failures: 5, log: &log})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, StartupStatusFailed, s.Status("database"))
}

func TestStartup_UnknownDependency(t *testing.T) {
	var log []string
	s := newTestStartup(1)
	s.AddDependency(&fakeDependency{name: "http", dependsOn: []string{"cache"}, log: &log})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache")
}
