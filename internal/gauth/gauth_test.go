package gauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/areamail-cli/internal/gauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func tokenServer(t *testing.T, access string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"token_type":    "Bearer",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadConfig_InstalledApp(t *testing.T) {
	p := filepath.Join(t.TempDir(), "client_secret.json")
	secrets := `{"installed":{"client_id":"cid","client_secret":"sec",` +
		`"auth_uri":"https://accounts.google.com/o/oauth2/auth",` +
		`"token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	require.NoError(t, os.WriteFile(p, []byte(secrets), 0o600))

	cfg, err := gauth.LoadConfig(p, "scope-a")
	require.NoError(t, err)
	assert.Equal(t, "cid", cfg.ClientID)
	assert.Equal(t, []string{"scope-a"}, cfg.Scopes)

	_, err = gauth.LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSaveAndLoadToken(t *testing.T) {
	p := filepath.Join(t.TempDir(), "auth", "token.json")
	_, err := gauth.LoadToken(p)
	assert.ErrorIs(t, err, gauth.ErrNoToken)

	exp := time.Now().Add(time.Hour).Round(time.Second)
	require.NoError(t, gauth.SaveToken(p, &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: exp}))
	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := gauth.LoadToken(p)
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.True(t, exp.Equal(tok.Expiry))
}

func TestTokenSource_PersistsRefreshedToken(t *testing.T) {
	srv := tokenServer(t, "fresh")
	p := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, gauth.SaveToken(p, &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	}))
	cfg := &oauth2.Config{ClientID: "cid", ClientSecret: "sec", Endpoint: oauth2.Endpoint{TokenURL: srv.URL}}

	ts, err := gauth.TokenSource(context.Background(), cfg, p)
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)

	stored, err := gauth.LoadToken(p)
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored.AccessToken)
}

func TestAuthorize_LoopbackFlow(t *testing.T) {
	srv := tokenServer(t, "granted")
	cfg := &oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "sec",
		Scopes:       []string{"scope-a"},
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: srv.URL},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	prompt := func(authURL string) {
		u, err := url.Parse(authURL)
		if err != nil {
			t.Errorf("parse auth url: %v", err)
			return
		}
		q := u.Query()
		assert.Equal(t, "offline", q.Get("access_type"))
		cb := q.Get("redirect_uri") + "?state=" + url.QueryEscape(q.Get("state")) + "&code=abc"
		go func() {
			resp, err := http.Get(cb)
			if err == nil {
				resp.Body.Close()
			}
		}()
	}

	tok, err := gauth.Authorize(ctx, cfg, prompt)
	require.NoError(t, err)
	assert.Equal(t, "granted", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken)
}
