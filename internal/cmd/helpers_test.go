package cmd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/config"
	"github.com/dedene/socialthread-cli/internal/outfmt"
	"github.com/dedene/socialthread-cli/internal/session"
)

const (
	testToken    = "jwt-good"
	testEmail    = "ada@example.com"
	testPassword = "hunter2"
)

// captureStdout runs fn while capturing os.Stdout and returns the output.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	return capture(t, &os.Stdout, fn)
}

// captureStderr runs fn while capturing os.Stderr and returns the output.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	return capture(t, &os.Stderr, fn)
}

func capture(t *testing.T, target **os.File, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := *target
	*target = w

	done := make(chan []byte)
	go func() {
		buf, _ := io.ReadAll(r)
		done <- buf
	}()

	fn()

	_ = w.Close()
	*target = orig

	out := <-done
	_ = r.Close()

	return string(out)
}

// isolate points every XDG directory at a temp dir and makes the process
// look non-interactive. Package-level test hooks are restored on cleanup.
func isolate(t *testing.T) {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("SOCIALTHREAD_API_URL", "")

	origStdin, origInteractive, origReadPassword := stdin, interactive, readPassword
	origStdoutTTY, origStderrTTY, origRunProgram := stdoutIsTerminal, stderrIsTerminal, runProgram

	t.Cleanup(func() {
		stdin, interactive, readPassword = origStdin, origInteractive, origReadPassword
		stdoutIsTerminal, stderrIsTerminal, runProgram = origStdoutTTY, origStderrTTY, origRunProgram
		lineReader = nil
	})

	lineReader = nil
	interactive = func() bool { return false }
	stdoutIsTerminal = func() bool { return false }
	stderrIsTerminal = func() bool { return false }
}

// withInput feeds lines to prompts and makes the process look interactive.
func withInput(t *testing.T, input string) {
	t.Helper()

	stdin = strings.NewReader(input)
	lineReader = nil
	interactive = func() bool { return true }
}

func testClient(baseURL string) *api.Client {
	noRetries := 0

	return api.NewClient(api.ClientOptions{
		BaseURL:    baseURL,
		UserAgent:  "socialthread-cli/test",
		MaxRetries: &noRetries,
	})
}

func testSession(baseURL string) *session.Session {
	return &session.Session{
		Token:     testToken,
		User:      &api.User{ID: "u-1", Email: testEmail},
		APIURL:    baseURL,
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

// testCtx builds a logged-in command context against baseURL.
func testCtx(t *testing.T, baseURL string, mode outfmt.Mode) context.Context {
	t.Helper()

	ctx := context.Background()
	ctx = outfmt.WithMode(ctx, mode)
	ctx = config.WithConfig(ctx, &config.Config{})
	ctx = api.WithClient(ctx, testClient(baseURL))
	ctx = session.WithSession(ctx, testSession(baseURL))

	return ctx
}

// loggedOut drops the session from ctx.
func loggedOut(ctx context.Context) context.Context {
	return session.WithSession(ctx, nil)
}

// backend is a fake Social Thread API.
type backend struct {
	srv *httptest.Server

	mu      sync.Mutex
	posts   []api.Post
	calls   map[string]int
	uploads []uploadCall
	deleted []string
	// failNext makes the next N calls to a route answer 500.
	failNext map[string]int
}

type uploadCall struct {
	FileName    string
	ContentType string
	Content     string
	Caption     string
}

func newBackend(t *testing.T) *backend {
	t.Helper()

	b := &backend{
		calls:    map[string]int{},
		failNext: map[string]int{},
	}

	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)

	b.posts = []api.Post{
		{
			ID:       "p-1",
			UserID:   "u-1",
			Email:    testEmail,
			Caption:  "Hi",
			URL:      b.srv.URL + "/acct/uploads/cat.png",
			FileType: "image",
			IsOwner:  true,
		},
		{
			ID:       "p-2",
			UserID:   "u-2",
			Email:    "bob@example.com",
			URL:      b.srv.URL + "/acct/uploads/clip.mp4",
			FileType: "video",
		},
	}

	return b
}

func (b *backend) URL() string { return b.srv.URL }

func (b *backend) count(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.calls[route]
}

// cdnFetches counts GETs of transformed media under /acct/.
func (b *backend) cdnFetches() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for route, c := range b.calls {
		if strings.HasPrefix(route, "GET /acct/") {
			n += c
		}
	}

	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *backend) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+testToken
}

func (b *backend) serve(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path
	if strings.HasPrefix(r.URL.Path, "/posts/") {
		route = r.Method + " /posts/{id}"
	}

	b.mu.Lock()
	b.calls[route]++
	fail := b.failNext[route] > 0
	if fail {
		b.failNext[route]--
	}
	b.mu.Unlock()

	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
		return
	}

	switch route {
	case "POST /auth/jwt/login":
		_ = r.ParseForm()
		if r.PostForm.Get("username") != testEmail || r.PostForm.Get("password") != testPassword {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "LOGIN_BAD_CREDENTIALS"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": testToken, "token_type": "bearer"})

	case "POST /auth/register":
		var req api.RegisterRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email == testEmail {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "REGISTER_USER_ALREADY_EXISTS"})
			return
		}
		writeJSON(w, http.StatusCreated, api.User{ID: "u-9", Email: req.Email, IsActive: true})

	case "GET /users/me":
		if !b.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, api.User{ID: "u-1", Email: testEmail, IsActive: true, IsVerified: true})

	case "GET /feed":
		if !b.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Unauthorized"})
			return
		}
		b.mu.Lock()
		posts := b.posts
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, api.FeedResponse{Posts: posts})

	case "POST /upload":
		if !b.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Unauthorized"})
			return
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "file missing"})
			return
		}
		data, _ := io.ReadAll(file)
		b.mu.Lock()
		b.uploads = append(b.uploads, uploadCall{
			FileName:    hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Content:     string(data),
			Caption:     r.FormValue("caption"),
		})
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, api.Post{
			ID:       "p-new",
			Email:    testEmail,
			Caption:  r.FormValue("caption"),
			URL:      b.srv.URL + "/acct/uploads/" + hdr.Filename,
			FileType: "image",
			IsOwner:  true,
		})

	case "DELETE /posts/{id}":
		if !b.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Unauthorized"})
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/posts/")
		if id != "p-1" {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You can only delete your own posts"})
			return
		}
		b.mu.Lock()
		b.deleted = append(b.deleted, id)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/acct/") {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("cdn:" + r.URL.EscapedPath()))
			return
		}
		http.NotFound(w, r)
	}
}

func stringsReader(s string) io.Reader {
	lineReader = nil
	return strings.NewReader(s)
}
