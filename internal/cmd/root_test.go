package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/config"
	"github.com/dedene/socialthread-cli/internal/session"
)

func TestExecute_Version(t *testing.T) {
	isolate(t)

	out := captureStdout(t, func() {
		require.NoError(t, Execute([]string{"version"}))
	})

	assert.Contains(t, out, "socialthread ")
	assert.Contains(t, out, "api:    "+api.DefaultBaseURL)
}

func TestExecute_VersionJSON(t *testing.T) {
	isolate(t)

	out := captureStdout(t, func() {
		require.NoError(t, Execute([]string{"--json", "--api-url", "https://social.example.com/", "version"}))
	})

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "https://social.example.com", parsed["api_url"])
}

func TestExecute_URLDefaultsToCompose(t *testing.T) {
	isolate(t)

	out := captureStdout(t, func() {
		require.NoError(t, Execute([]string{"url", assetURL, "--directive", "w-10"}))
	})

	assert.Equal(t, "https://ik.imagekit.io/demoacct/tr:w-10/uploads/cat.png\n", out)
}

func TestExecute_UnknownFlag(t *testing.T) {
	isolate(t)

	var err error
	stderr := captureStderr(t, func() {
		err = Execute([]string{"feed", "--bogus"})
	})

	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
	assert.Contains(t, stderr, "bogus")
}

func TestExecute_DirectiveAndOverlayExclusive(t *testing.T) {
	isolate(t)

	var err error
	captureStderr(t, func() {
		err = Execute([]string{"url", assetURL, "--directive", "w-10", "--overlay", "Hi"})
	})

	assert.Equal(t, 2, ExitCode(err))
}

func TestExecute_WhoamiLoggedOut(t *testing.T) {
	isolate(t)

	err := Execute([]string{"whoami"})

	require.ErrorIs(t, err, session.ErrNotLoggedIn)
	assert.Equal(t, 3, ExitCode(err))
}

func TestExecute_Help(t *testing.T) {
	isolate(t)

	out := captureStdout(t, func() {
		require.NoError(t, Execute([]string{"--help"}))
	})

	assert.Contains(t, out, "socialthread")
	assert.Contains(t, out, "SOCIALTHREAD_API_URL")
}

func TestResolveAPIURL(t *testing.T) {
	tests := []struct {
		name string
		flag string
		cfg  *config.Config
		want string
	}{
		{"default", "", nil, api.DefaultBaseURL},
		{"config", "", &config.Config{APIURL: "https://cfg.example.com"}, "https://cfg.example.com"},
		{"flag wins", "https://flag.example.com/", &config.Config{APIURL: "https://cfg.example.com"}, "https://flag.example.com"},
		{"blank flag", "  ", &config.Config{}, api.DefaultBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveAPIURL(tt.flag, tt.cfg))
		})
	}
}

func TestLoadSession(t *testing.T) {
	isolate(t)

	assert.Nil(t, loadSession("https://a.example.com"), "no stored session")

	path, err := config.SessionPath()
	require.NoError(t, err)
	require.NoError(t, session.Save(path, testSession("https://a.example.com")))

	sess := loadSession("https://a.example.com")
	require.NotNil(t, sess)
	assert.Equal(t, testEmail, sess.Email())

	assert.Nil(t, loadSession("https://b.example.com"), "session for another backend")
}
