package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/outfmt"
	"github.com/dedene/socialthread-cli/internal/session"
)

func TestDeleteCmd_Force(t *testing.T) {
	isolate(t)
	b := newBackend(t)

	var runErr error
	out := captureStdout(t, func() {
		runErr = (&DeleteCmd{ID: "p-1"}).Run(testCtx(t, b.URL(), outfmt.Mode{}), &RootFlags{Force: true})
	})

	require.NoError(t, runErr)
	assert.Equal(t, "Post deleted.\n", out)
	assert.Equal(t, []string{"p-1"}, b.deleted)
}

func TestDeleteCmd_JSON(t *testing.T) {
	isolate(t)
	b := newBackend(t)

	var runErr error
	out := captureStdout(t, func() {
		runErr = (&DeleteCmd{ID: "p-1"}).Run(testCtx(t, b.URL(), outfmt.Mode{JSON: true}), &RootFlags{Force: true})
	})

	require.NoError(t, runErr)
	assert.JSONEq(t, `{"deleted":"p-1"}`, out)
}

func TestDeleteCmd_NoInputRefuses(t *testing.T) {
	isolate(t)
	b := newBackend(t)
	withInput(t, "y\n")

	err := (&DeleteCmd{ID: "p-1"}).Run(testCtx(t, b.URL(), outfmt.Mode{}), &RootFlags{NoInput: true})

	require.ErrorIs(t, err, errNeedsForce)
	assert.Equal(t, 2, ExitCode(err))
	assert.Zero(t, b.count("DELETE /posts/{id}"))
}

func TestDeleteCmd_NoTTYRefuses(t *testing.T) {
	isolate(t)
	b := newBackend(t)

	err := (&DeleteCmd{ID: "p-1"}).Run(testCtx(t, b.URL(), outfmt.Mode{}), &RootFlags{})

	require.ErrorIs(t, err, errNeedsForce)
	assert.Zero(t, b.count("DELETE /posts/{id}"))
}

func TestDeleteCmd_Confirmed(t *testing.T) {
	isolate(t)
	b := newBackend(t)
	withInput(t, "yes\n")

	var runErr error
	stderr := captureStderr(t, func() {
		captureStdout(t, func() {
			runErr = (&DeleteCmd{ID: "p-1"}).Run(testCtx(t, b.URL(), outfmt.Mode{}), &RootFlags{})
		})
	})

	require.NoError(t, runErr)
	assert.Contains(t, stderr, "Delete post p-1? [y/N]")
	assert.Equal(t, []string{"p-1"}, b.deleted)
}

func TestDeleteCmd_Declined(t *testing.T) {
	isolate(t)
	b := newBackend(t)
	withInput(t, "\n")

	var runErr error
	stderr := captureStderr(t, func() {
		runErr = (&DeleteCmd{ID: "p-1"}).Run(testCtx(t, b.URL(), outfmt.Mode{}), &RootFlags{})
	})

	require.NoError(t, runErr)
	assert.Contains(t, stderr, "Cancelled.")
	assert.Zero(t, b.count("DELETE /posts/{id}"))
}

func TestDeleteCmd_NotOwner(t *testing.T) {
	isolate(t)
	b := newBackend(t)

	err := (&DeleteCmd{ID: "p-2"}).Run(testCtx(t, b.URL(), outfmt.Mode{}), &RootFlags{Force: true})

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "deleting post p-2")
	assert.Contains(t, err.Error(), "You can only delete your own posts")
	assert.Equal(t, 1, b.count("DELETE /posts/{id}"), "403 is not offered for retry")
}

func TestDeleteCmd_NotLoggedIn(t *testing.T) {
	isolate(t)
	b := newBackend(t)

	err := (&DeleteCmd{ID: "p-1"}).Run(loggedOut(testCtx(t, b.URL(), outfmt.Mode{})), &RootFlags{Force: true})

	require.ErrorIs(t, err, session.ErrNotLoggedIn)
}
