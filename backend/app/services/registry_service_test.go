package services

import (
	"context"
	"fmt"
	"pollhub/backend/app/models"
	"pollhub/backend/app/repo"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestService(t *testing.T) (*RegistryService, *repo.MemoryClientRepository, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	r := repo.NewMemoryClientRepository()
	return NewRegistryService(r, WithClock(clock.Now)), r, clock
}

func TestRegistryScenario(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)

	require.NoError(t, s.Register(ctx, "acme", "c1", map[string]any{"os": "linux"}))
	require.NoError(t, s.EnqueueCommand(ctx, "acme", "c1", "whoami"))

	cmds, found, err := s.PollCommands(ctx, "acme", "c1")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, cmds, 1)
	assert.Equal(t, "whoami", cmds[0].Command)
	assert.False(t, cmds[0].Executed)

	require.NoError(t, s.SubmitResult(ctx, "acme", "c1", "whoami", "root"))

	results, err := s.FetchResults(ctx, "acme", "c1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "whoami", results[0].Command)
	assert.Equal(t, "root", results[0].Result)
}

func TestRegisterReplacesRecord(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)

	require.NoError(t, s.Register(ctx, "acme", "c1", map[string]any{"os": "linux"}))
	require.NoError(t, s.EnqueueCommand(ctx, "acme", "c1", "uptime"))
	require.NoError(t, s.SubmitResult(ctx, "acme", "c1", "uptime", "up 3 days"))

	require.NoError(t, s.Register(ctx, "acme", "c1", map[string]any{"os": "darwin"}))

	cmds, found, err := s.PollCommands(ctx, "acme", "c1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, cmds)

	results, err := s.FetchResults(ctx, "acme", "c1")
	require.NoError(t, err)
	assert.Empty(t, results)

	clients, err := s.ListClients(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "darwin", clients[0].Info["os"])
}

func TestRegisterNilInfo(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	require.NoError(t, s.Register(ctx, "acme", "c1", nil))

	clients, err := s.ListClients(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.NotNil(t, clients[0].Info)
	assert.Empty(t, clients[0].Info)
}

func TestPollCommandsUnregistered(t *testing.T) {
	ctx := context.Background()
	s, r, _ := newTestService(t)

	cmds, found, err := s.PollCommands(ctx, "acme", "ghost")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NotNil(t, cmds)
	assert.Empty(t, cmds)

	_, err = r.Get(ctx, "acme", "ghost")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestPollCommandsUpdatesLastSeenOnly(t *testing.T) {
	ctx := context.Background()
	s, r, clock := newTestService(t)

	require.NoError(t, s.Register(ctx, "acme", "c1", nil))
	require.NoError(t, s.EnqueueCommand(ctx, "acme", "c1", "whoami"))
	clock.Advance(30 * time.Second)

	_, _, err := s.PollCommands(ctx, "acme", "c1")
	require.NoError(t, err)
	cmds, _, err := s.PollCommands(ctx, "acme", "c1")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.False(t, cmds[0].Executed)

	c, err := r.Get(ctx, "acme", "c1")
	require.NoError(t, err)
	assert.True(t, clock.Now().Equal(c.LastSeen))
}

func TestSubmitResultUnregistered(t *testing.T) {
	ctx := context.Background()
	s, r, _ := newTestService(t)

	err := s.SubmitResult(ctx, "acme", "ghost", "whoami", "root")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	list, err := r.ListByDomain(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitResultAllowsUnsentAndDuplicates(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	require.NoError(t, s.Register(ctx, "acme", "c1", nil))

	require.NoError(t, s.SubmitResult(ctx, "acme", "c1", "never-sent", "a"))
	require.NoError(t, s.SubmitResult(ctx, "acme", "c1", "never-sent", "b"))

	results, err := s.FetchResults(ctx, "acme", "c1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Result)
	assert.Equal(t, "b", results[1].Result)
}

func TestEnqueueCommandUnregistered(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	err := s.EnqueueCommand(ctx, "acme", "ghost", "whoami")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestFetchResultsUnregisteredIsEmpty(t *testing.T) {
	s, _, _ := newTestService(t)
	results, err := s.FetchResults(context.Background(), "acme", "ghost")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestListClientsOnline(t *testing.T) {
	ctx := context.Background()
	s, r, clock := newTestService(t)

	require.NoError(t, s.Register(ctx, "acme", "fresh", nil))
	require.NoError(t, r.Replace(ctx, &models.Client{
		Domain:   "acme",
		ClientID: "stale",
		LastSeen: clock.Now().Add(-61 * time.Second),
	}))

	clients, err := s.ListClients(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "fresh", clients[0].ClientID)
	assert.True(t, clients[0].Online)
	assert.Equal(t, "stale", clients[1].ClientID)
	assert.False(t, clients[1].Online)

	empty, err := s.ListClients(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestOnlineWindowBoundary(t *testing.T) {
	s := NewRegistryService(repo.NewMemoryClientRepository(), WithOnlineWindow(10*time.Second))
	now := time.Now()
	assert.True(t, s.IsOnline(now, now))
	assert.True(t, s.IsOnline(now.Add(-9*time.Second), now))
	assert.False(t, s.IsOnline(now.Add(-10*time.Second), now))
	assert.False(t, s.IsOnline(now.Add(-2*time.Hour), now))
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	s, r, _ := newTestService(t)

	assert.ErrorIs(t, s.Register(ctx, "", "c1", nil), ErrInvalidRequest)
	assert.ErrorIs(t, s.Register(ctx, "acme", "", nil), ErrInvalidRequest)

	require.NoError(t, s.Register(ctx, "acme", "c1", nil))
	assert.ErrorIs(t, s.EnqueueCommand(ctx, "acme", "c1", ""), ErrInvalidRequest)
	assert.ErrorIs(t, s.SubmitResult(ctx, "acme", "c1", "", "x"), ErrInvalidRequest)

	c, err := r.Get(ctx, "acme", "c1")
	require.NoError(t, err)
	assert.Empty(t, c.Commands)
	assert.Empty(t, c.Results)
}

func TestConcurrentSubmitResult(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	require.NoError(t, s.Register(ctx, "acme", "c1", nil))

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.SubmitResult(ctx, "acme", "c1", fmt.Sprintf("cmd-%d", i), "ok"))
		}(i)
	}
	// admin enqueues and agent polls hit the same record concurrently
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.EnqueueCommand(ctx, "acme", "c1", fmt.Sprintf("cmd-%d", i)))
		}(i)
		go func() {
			defer wg.Done()
			_, _, err := s.PollCommands(ctx, "acme", "c1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	results, err := s.FetchResults(ctx, "acme", "c1")
	require.NoError(t, err)
	assert.Len(t, results, n)

	cmds, _, err := s.PollCommands(ctx, "acme", "c1")
	require.NoError(t, err)
	assert.Len(t, cmds, n)
}
