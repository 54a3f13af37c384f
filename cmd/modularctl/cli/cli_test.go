package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modular-admin/modular-admin/internal/client"
)

var cliNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]any
	auth   string
}

func newTestEnv(t *testing.T, handler http.HandlerFunc) (*Env, *bytes.Buffer, *[]recorded, string) {
	t.Helper()
	var calls []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, auth: r.Header.Get("Authorization")}
		if r.Body != nil && r.Method != http.MethodGet {
			_ = json.NewDecoder(r.Body).Decode(&call.body)
		}
		calls = append(calls, call)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	stdout := new(bytes.Buffer)
	env := &Env{
		Stdout:          stdout,
		Stderr:          new(bytes.Buffer),
		CredentialsPath: filepath.Join(t.TempDir(), "credentials.yaml"),
		Getenv:          func(string) string { return "" },
		Now:             func() time.Time { return cliNow },
	}
	return env, stdout, &calls, server.URL
}

func signedIn(t *testing.T, env *Env, server string) {
	t.Helper()
	require.NoError(t, client.SaveCredentials(env.CredentialsPath, client.Credentials{
		Server:    server,
		Customer:  "acme",
		Username:  "alice",
		Token:     "tok",
		ExpiresAt: cliNow.Add(time.Hour),
	}))
}

func TestSignInStoresCredentials(t *testing.T) {
	env, stdout, calls, server := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(client.Token{AccessToken: "issued", TokenType: "Bearer", ExpiresAt: cliNow.Add(time.Hour)})
	})
	env.Getenv = func(key string) string {
		if key == passwordEnv {
			return "from-env-pass"
		}
		return ""
	}

	err := New(env).Execute(context.Background(), []string{"signin", "--server", server, "--customer", "acme", "--username", "alice"})
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	assert.Equal(t, "from-env-pass", (*calls)[0].body["password"])
	assert.Contains(t, stdout.String(), "signed in as alice")

	creds, err := client.LoadCredentials(env.CredentialsPath)
	require.NoError(t, err)
	assert.Equal(t, "issued", creds.Token)
	assert.Equal(t, server, creds.Server)
}

func TestGetRendersTable(t *testing.T) {
	env, stdout, calls, server := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"name":"viewer","policies":["readonly","audit"],"expiration":null}],"next_token":"viewer"}`))
	})
	signedIn(t, env, server)

	err := New(env).Execute(context.Background(), []string{"get", "roles", "--limit", "1"})
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	assert.Equal(t, "/roles", (*calls)[0].path)
	assert.Equal(t, "limit=1", (*calls)[0].query)
	assert.Equal(t, "Bearer tok", (*calls)[0].auth)

	out := stdout.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "readonly,audit")
	assert.Contains(t, out, "next token: viewer")
}

func TestGetDescribesUserByUsername(t *testing.T) {
	env, stdout, calls, server := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"username":"bob","role":"viewer"}`))
	})
	signedIn(t, env, server)

	require.NoError(t, New(env).Execute(context.Background(), []string{"get", "users", "--name", "bob", "--output", "json"}))
	assert.Equal(t, "username=bob", (*calls)[0].query)
	assert.Contains(t, stdout.String(), `"role": "viewer"`)
}

func TestCreateFromYAMLFile(t *testing.T) {
	env, _, calls, server := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"name":"readonly"}`))
	})
	signedIn(t, env, server)

	doc := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(doc, []byte("name: readonly\npermissions:\n  - role:describe\n  - policy:*\n"), 0o600))

	require.NoError(t, New(env).Execute(context.Background(), []string{"create", "policies", "-f", doc}))
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodPost, (*calls)[0].method)
	assert.Equal(t, "readonly", (*calls)[0].body["name"])
	assert.Equal(t, []any{"role:describe", "policy:*"}, (*calls)[0].body["permissions"])
}

func TestDeleteSendsBody(t *testing.T) {
	env, stdout, calls, server := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	signedIn(t, env, server)

	require.NoError(t, New(env).Execute(context.Background(), []string{"delete", "roles", "--name", "viewer"}))
	assert.Equal(t, http.MethodDelete, (*calls)[0].method)
	assert.Equal(t, "viewer", (*calls)[0].body["name"])
	assert.Contains(t, stdout.String(), "deleted role viewer")
}

func TestJobsTrigger(t *testing.T) {
	env, stdout, calls, server := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"id":"t-1","task":"rbac:expired_roles_audit","queue":"default"}`))
	})
	signedIn(t, env, server)

	require.NoError(t, New(env).Execute(context.Background(), []string{"jobs", "trigger", "--customer", "acme"}))
	assert.Equal(t, "acme", (*calls)[0].body["customer_id"])
	assert.Contains(t, stdout.String(), "enqueued rbac:expired_roles_audit as t-1")
}

func TestForbiddenSurfacesProblem(t *testing.T) {
	env, _, _, server := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"title":"Forbidden","status":403,"detail":"forbidden: permission job:trigger required"}`))
	})
	signedIn(t, env, server)

	err := New(env).Execute(context.Background(), []string{"jobs", "trigger"})
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusForbidden))
}

func TestSessionRequired(t *testing.T) {
	env, _, calls, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

	err := New(env).Execute(context.Background(), []string{"get", "roles"})
	assert.ErrorContains(t, err, "not signed in")
	assert.Empty(t, *calls)
}

func TestExpiredSession(t *testing.T) {
	env, _, calls, server := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, client.SaveCredentials(env.CredentialsPath, client.Credentials{
		Server: server, Username: "alice", Token: "tok", ExpiresAt: cliNow,
	}))

	err := New(env).Execute(context.Background(), []string{"get", "roles"})
	assert.ErrorContains(t, err, "expired")
	assert.Empty(t, *calls)
}

func TestUsageErrors(t *testing.T) {
	env, _, _, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	cli := New(env)

	assert.ErrorIs(t, cli.Execute(context.Background(), []string{"frobnicate"}), ErrUsage)
	assert.ErrorIs(t, cli.Execute(context.Background(), []string{"get", "widgets"}), ErrUsage)
	assert.ErrorIs(t, cli.Execute(context.Background(), []string{"delete", "roles"}), ErrUsage)
	assert.ErrorIs(t, cli.Execute(context.Background(), []string{"create", "roles"}), ErrUsage)
	assert.NoError(t, cli.Execute(context.Background(), nil))
}
