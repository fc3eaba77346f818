package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httpclient"
)

// ServiceName identifies the image store in errors and logs.
const ServiceName = "images-service"

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPStore talks to the images service over its REST API. Every call goes
// through a circuit breaker shared by the whole process.
type HTTPStore struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
	logger  *slog.Logger
}

// NewHTTPStore creates a store for the images service at baseURL.
func NewHTTPStore(client *httpclient.CircuitBreakerClient, baseURL string, logger *slog.Logger) *HTTPStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPStore{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

type uploadResponse struct {
	Data struct {
		URI string `json:"uri"`
	} `json:"data"`
}

type deleteResponse struct {
	Data struct {
		Success bool `json:"success"`
	} `json:"data"`
}

type deletePathsRequest struct {
	Paths []string `json:"paths"`
}

// Upload sends content as multipart/form-data to POST /api/v1/images.
func (s *HTTPStore) Upload(ctx context.Context, path string, content io.Reader, contentType string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("path", path); err != nil {
		return "", fmt.Errorf("write path field: %w", err)
	}
	part, err := mw.CreatePart(fileHeader(path, contentType))
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("copy image content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	resp, err := s.client.Post(ctx, s.baseURL+"/api/v1/images", mw.FormDataContentType(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", apperrors.RemoteServiceConnection(ServiceName, fmt.Errorf("upload %s: %w", path, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", s.failure(resp, "upload "+path)
	}

	var out uploadResponse
	if err := codec.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.RemoteServiceConnection(ServiceName, fmt.Errorf("decode upload response: %w", err))
	}
	if out.Data.URI == "" {
		return "", apperrors.RemoteServiceConnection(ServiceName, fmt.Errorf("upload %s: empty uri in response", path))
	}

	s.logger.DebugContext(ctx, "image uploaded", slog.String("path", path), slog.String("uri", out.Data.URI))
	return out.Data.URI, nil
}

// DeleteFromPath calls POST /api/v1/images/delete-paths with a single prefix.
func (s *HTTPStore) DeleteFromPath(ctx context.Context, prefix string) error {
	body, err := codec.Marshal(deletePathsRequest{Paths: []string{prefix}})
	if err != nil {
		return fmt.Errorf("marshal delete-paths request: %w", err)
	}

	resp, err := s.client.Post(ctx, s.baseURL+"/api/v1/images/delete-paths", "application/json", bytes.NewReader(body))
	if err != nil {
		return apperrors.RemoteServiceConnection(ServiceName, fmt.Errorf("delete path %s: %w", prefix, err))
	}
	return s.deleted(ctx, resp, "delete path "+prefix)
}

// DeleteByURI calls DELETE /api/v1/images?uri=.
func (s *HTTPStore) DeleteByURI(ctx context.Context, uri string) error {
	target := s.baseURL + "/api/v1/images?uri=" + url.QueryEscape(uri)

	resp, err := s.client.Delete(ctx, target)
	if err != nil {
		return apperrors.RemoteServiceConnection(ServiceName, fmt.Errorf("delete %s: %w", uri, err))
	}
	return s.deleted(ctx, resp, "delete "+uri)
}

// deleted interprets a delete response. Not found means the blob is already
// gone, which is what the caller asked for.
func (s *HTTPStore) deleted(ctx context.Context, resp *http.Response, op string) error {
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		s.logger.DebugContext(ctx, "blob already absent", slog.String("op", op))
		return nil
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode != http.StatusOK:
		return s.failure(resp, op)
	}

	var out deleteResponse
	if err := codec.NewDecoder(resp.Body).Decode(&out); err != nil {
		return apperrors.RemoteServiceConnection(ServiceName, fmt.Errorf("%s: decode response: %w", op, err))
	}
	if !out.Data.Success {
		return apperrors.RemoteServiceConnection(ServiceName, fmt.Errorf("%s: reported failure", op))
	}
	return nil
}

// failure maps an unexpected status. A 4xx the images service explained in
// its error envelope (a rejected content type, an empty file) reaches the
// caller with its own code; anything else is a RemoteServiceConnection error
// with the downstream error as the cause.
func (s *HTTPStore) failure(resp *http.Response, op string) error {
	cause := httpclient.ParseResponseError(resp, ServiceName)

	var appErr *apperrors.AppError
	if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusNotFound && errors.As(cause, &appErr) {
		return fmt.Errorf("%s: %w", op, cause)
	}
	return apperrors.RemoteServiceConnection(ServiceName, fmt.Errorf("%s: %w", op, cause))
}

func fileHeader(path, contentType string) textproto.MIMEHeader {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		name = path[i+1:]
	}
	return textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename=%q`, name)},
		"Content-Type":        {contentType},
	}
}
