package services

import (
	"context"
	"errors"
	"fmt"
	"pollhub/backend/app/models"
	"pollhub/backend/app/repo"
	"pollhub/backend/global"
	"time"
)

// DefaultOnlineWindow is how recently a client must have polled to count as online.
const DefaultOnlineWindow = 60 * time.Second

// ErrInvalidRequest reports a missing required field.
var ErrInvalidRequest = errors.New("invalid request")

type RegistryService struct {
	clients      repo.ClientRepository
	onlineWindow time.Duration
	now          func() time.Time
}

type Option func(*RegistryService)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *RegistryService) { s.now = now }
}

func WithOnlineWindow(d time.Duration) Option {
	return func(s *RegistryService) {
		if d > 0 {
			s.onlineWindow = d
		}
	}
}

func NewRegistryService(clients repo.ClientRepository, opts ...Option) *RegistryService {
	s := &RegistryService{clients: clients, onlineWindow: DefaultOnlineWindow, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RegistryService) timestamp() time.Time { return s.now().UTC() }

// Register creates or fully replaces the record; commands and results are reset.
func (s *RegistryService) Register(ctx context.Context, domain, clientID string, info map[string]any) error {
	if err := requireFields("domain", domain, "client_id", clientID); err != nil {
		return err
	}
	if info == nil {
		info = map[string]any{}
	}
	c := &models.Client{
		Domain:   domain,
		ClientID: clientID,
		Info:     info,
		LastSeen: s.timestamp(),
		Commands: []models.CommandEntry{},
		Results:  []models.ResultEntry{},
	}
	if err := s.clients.Replace(ctx, c); err != nil {
		return fmt.Errorf("register %s/%s: %w", domain, clientID, err)
	}
	global.Logger.Info().Str("domain", domain).Str("client_id", clientID).Msg("client registered")
	return nil
}

// PollCommands returns the command log and bumps last_seen. found is false for an
// unregistered client; polling never creates a record.
func (s *RegistryService) PollCommands(ctx context.Context, domain, clientID string) ([]models.CommandEntry, bool, error) {
	if err := requireFields("domain", domain, "client_id", clientID); err != nil {
		return []models.CommandEntry{}, false, err
	}
	var cmds []models.CommandEntry
	err := s.clients.Update(ctx, domain, clientID, func(c *models.Client) error {
		c.LastSeen = s.timestamp()
		cmds = append([]models.CommandEntry{}, c.Commands...)
		return nil
	})
	if errors.Is(err, repo.ErrNotFound) {
		return []models.CommandEntry{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("poll %s/%s: %w", domain, clientID, err)
	}
	return cmds, true, nil
}

// SubmitResult appends a result without checking it against sent commands.
func (s *RegistryService) SubmitResult(ctx context.Context, domain, clientID, command, result string) error {
	if err := requireFields("domain", domain, "client_id", clientID, "command", command); err != nil {
		return err
	}
	err := s.clients.Update(ctx, domain, clientID, func(c *models.Client) error {
		c.Results = append(c.Results, models.ResultEntry{Command: command, Result: result, Time: s.timestamp()})
		return nil
	})
	if err != nil {
		return fmt.Errorf("submit result %s/%s: %w", domain, clientID, err)
	}
	global.Logger.Info().Str("domain", domain).Str("client_id", clientID).Str("command", command).Msg("result received")
	return nil
}

// ListClients returns every client in domain with online computed at read time.
func (s *RegistryService) ListClients(ctx context.Context, domain string) ([]models.ClientSummary, error) {
	list, err := s.clients.ListByDomain(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("list clients %s: %w", domain, err)
	}
	now := s.timestamp()
	out := make([]models.ClientSummary, 0, len(list))
	for _, c := range list {
		info := c.Info
		if info == nil {
			info = map[string]any{}
		}
		out = append(out, models.ClientSummary{
			ClientID: c.ClientID,
			Info:     info,
			LastSeen: c.LastSeen,
			Online:   s.IsOnline(c.LastSeen, now),
		})
	}
	return out, nil
}

// IsOnline: now - lastSeen < onlineWindow.
func (s *RegistryService) IsOnline(lastSeen, now time.Time) bool {
	return now.Sub(lastSeen) < s.onlineWindow
}

// EnqueueCommand appends command with executed=false.
func (s *RegistryService) EnqueueCommand(ctx context.Context, domain, clientID, command string) error {
	if err := requireFields("domain", domain, "client_id", clientID, "command", command); err != nil {
		return err
	}
	err := s.clients.Update(ctx, domain, clientID, func(c *models.Client) error {
		c.Commands = append(c.Commands, models.CommandEntry{Command: command, SentAt: s.timestamp(), Executed: false})
		return nil
	})
	if err != nil {
		return fmt.Errorf("enqueue command %s/%s: %w", domain, clientID, err)
	}
	global.Logger.Debug().Str("domain", domain).Str("client_id", clientID).Str("command", command).Msg("command queued")
	return nil
}

// FetchResults returns the result log. Unlike Enqueue/Submit, a missing record
// yields an empty list rather than an error.
func (s *RegistryService) FetchResults(ctx context.Context, domain, clientID string) ([]models.ResultEntry, error) {
	c, err := s.clients.Get(ctx, domain, clientID)
	if errors.Is(err, repo.ErrNotFound) {
		return []models.ResultEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch results %s/%s: %w", domain, clientID, err)
	}
	if c.Results == nil {
		return []models.ResultEntry{}, nil
	}
	return c.Results, nil
}

// requireFields takes (name, value) pairs.
func requireFields(kv ...string) error {
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidRequest, kv[i])
		}
	}
	return nil
}
