package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// ErrEmptyToken is returned by Login when the server answers 200 without a token.
var ErrEmptyToken = errors.New("server returned an empty access token")

// Login exchanges credentials for a bearer token via the form-encoded
// POST /auth/jwt/login endpoint.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/jwt/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	})
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var out Token
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}

	if out.AccessToken == "" {
		return nil, ErrEmptyToken
	}

	return &out, nil
}

// Register creates an account via POST /auth/register. The backend answers
// 201 Created on success.
func (c *Client) Register(ctx context.Context, email, password string) (*User, error) {
	body, err := json.Marshal(RegisterRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("marshaling register request: %w", err)
	}

	resp, err := c.Post(ctx, "/auth/register", "", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, http.StatusCreated); err != nil {
		return nil, err
	}

	var out User
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding register response: %w", err)
	}

	return &out, nil
}

// Me fetches the account that owns token from GET /users/me.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	resp, err := c.Get(ctx, "/users/me", token)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var out User
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}

	return &out, nil
}

// Upload sends a media file and caption as multipart/form-data to POST /upload.
// The returned Post is nil when the server answers without a body.
func (c *Client) Upload(ctx context.Context, token string, req UploadRequest) (*Post, error) {
	body, contentType, err := multipartBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/upload",
		token:       token,
		body:        bytes.NewReader(body),
		contentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", req.FileName, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upload response: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var out Post
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}

	return &out, nil
}

// multipartBody buffers the form so the retry transport can replay it.
func multipartBody(req UploadRequest) ([]byte, string, error) {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	ct := req.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.FileName))
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating file part: %w", err)
	}

	if _, err := io.Copy(part, req.Content); err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", req.FileName, err)
	}

	if err := mw.WriteField("caption", req.Caption); err != nil {
		return nil, "", fmt.Errorf("writing caption field: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}

// Feed fetches posts from GET /feed.
func (c *Client) Feed(ctx context.Context, token string) ([]Post, error) {
	resp, err := c.Get(ctx, "/feed", token)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var out FeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}

	if out.Posts == nil {
		out.Posts = []Post{}
	}

	return out.Posts, nil
}

// DeletePost removes a post via DELETE /posts/{id}.
func (c *Client) DeletePost(ctx context.Context, token, id string) error {
	resp, err := c.Delete(ctx, "/posts/"+url.PathEscape(id), token)
	if err != nil {
		return fmt.Errorf("deleting post %q: %w", id, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, http.StatusOK, http.StatusNoContent); err != nil {
		return err
	}

	return nil
}
