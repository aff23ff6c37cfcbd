package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"pollhub/backend/app/repo"
	"pollhub/backend/app/services"
	"pollhub/backend/config"
	"pollhub/backend/initialize"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAdminCommands(t *testing.T) {
	clients := repo.NewMemoryClientRepository()
	registry := services.NewRegistryService(clients)
	app := initialize.NewApp(config.Config{}, clients, registry, nil)
	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	require.NoError(t, registry.Register(context.Background(), "acme", "c1", map[string]any{"os": "linux"}))

	out, err := runCLI(t, "admin", "--server", srv.URL, "send", "acme", "c1", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"success"`)

	out, err = runCLI(t, "admin", "--server", srv.URL, "clients", "acme")
	require.NoError(t, err)
	var listed struct {
		Clients []struct {
			ClientID string `json:"client_id"`
			Online   bool   `json:"online"`
		} `json:"clients"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Clients, 1)
	assert.Equal(t, "c1", listed.Clients[0].ClientID)
	assert.True(t, listed.Clients[0].Online)

	require.NoError(t, registry.SubmitResult(context.Background(), "acme", "c1", "whoami", "root"))
	out, err = runCLI(t, "admin", "--server", srv.URL, "results", "acme", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, `"root"`)

	_, err = runCLI(t, "admin", "--server", srv.URL, "send", "acme", "ghost", "whoami")
	assert.Error(t, err)

	_, err = runCLI(t, "admin", "clients")
	assert.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "pollhub.db")
	yaml := "store:\n  driver: sqlite\n  sqlite:\n    path: " + dbPath + "\nlog:\n  path: " + filepath.Join(dir, "pollhub.log") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	_, err := runCLI(t, "migrate", "--config", cfgPath)
	require.NoError(t, err)
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}
