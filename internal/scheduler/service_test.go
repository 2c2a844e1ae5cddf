package scheduler

import (
	"context"
	"testing"

	"github.com/azure/mention-tracker/internal/config"
	"github.com/azure/mention-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRunner is a mock implementation of DigestRunner
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context) (*models.Digest, error) {
	args := m.Called()
	digest, _ := args.Get(0).(*models.Digest)
	return digest, args.Error(1)
}

func TestService_Start_DisabledWithoutQueries(t *testing.T) {
	service := NewService(&config.Config{}, &MockRunner{})

	assert.NoError(t, service.Start())
	assert.Empty(t, service.cron.Entries())
	service.Stop()
}

func TestService_Start_RegistersDigest(t *testing.T) {
	cfg := &config.Config{
		WatchQueries:   []string{"Acme"},
		DigestSchedule: "0 0 9 * * MON",
	}
	service := NewService(cfg, &MockRunner{})

	assert.NoError(t, service.Start())
	assert.Len(t, service.cron.Entries(), 1)
	service.Stop()
}

func TestService_Start_InvalidSchedule(t *testing.T) {
	cfg := &config.Config{
		WatchQueries:   []string{"Acme"},
		DigestSchedule: "not a schedule",
	}

	assert.Error(t, NewService(cfg, &MockRunner{}).Start())
}

func TestService_runDigest(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run").Return(&models.Digest{}, nil).Once()

	service := NewService(&config.Config{WatchQueries: []string{"Acme"}}, runner)
	service.runDigest()

	runner.AssertExpectations(t)
}
