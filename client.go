package ingest

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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/server"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// APIError is an error answered by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type Client interface {
	io.Closer
	healthpb.HealthClient

	Sample(ctx context.Context, kind model.Kind) (string, error)
	Validate(ctx context.Context, kind model.Kind, content string) (*server.ValidateResponse, error)
	ListRecords(ctx context.Context, kind model.Kind) ([]server.RecordView, error)
	GetRecord(ctx context.Context, id string) (*server.RecordView, error)
	ListVersions(ctx context.Context, id string) ([]server.RecordView, error)
	Upload(ctx context.Context, req server.UploadRequest) (*server.RecordView, error)
	UploadFiles(ctx context.Context, kind model.Kind, uploader string, paths []string) ([]server.FileResult, error)
	SaveVersion(ctx context.Context, id string, req server.SaveVersionRequest) (*server.RecordView, error)
	Edit(ctx context.Context, id string, req server.EditRequest) (*server.RecordView, error)
	OpenPreview(ctx context.Context, req server.PreviewRequest) (string, error)
	TakePreview(ctx context.Context, token string) (*server.PreviewResponse, error)
}

type client struct {
	conn  *grpc.ClientConn
	http  *http.Client
	base  string
	token string
	healthpb.HealthClient
}

// NewClient connects to the http api at httpAddr and the grpc health service at grpcAddr.
func NewClient(httpAddr, grpcAddr, token string) (Client, error) {
	conn, err := grpc.NewClient(grpcAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(server.UnaryRequestTimeInterceptor()),
	)
	if err != nil {
		return nil, err
	}

	if !strings.Contains(httpAddr, "://") {
		httpAddr = "http://" + httpAddr
	}

	return &client{
		conn:         conn,
		http:         &http.Client{Timeout: 30 * time.Second},
		base:         strings.TrimSuffix(httpAddr, "/"),
		token:        token,
		HealthClient: healthpb.NewHealthClient(conn),
	}, nil
}

func (c *client) Close() error {
	return c.conn.Close()
}

func (c *client) Sample(ctx context.Context, kind model.Kind) (string, error) {
	var res server.SampleResponse
	if err := c.do(ctx, http.MethodGet, "/v1/samples/"+url.PathEscape(kind.String()), nil, &res); err != nil {
		return "", err
	}

	return res.Content, nil
}

func (c *client) Validate(ctx context.Context, kind model.Kind, content string) (*server.ValidateResponse, error) {
	var res server.ValidateResponse
	if err := c.do(ctx, http.MethodPost, "/v1/validate", server.ValidateRequest{Kind: kind, Content: content}, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

func (c *client) ListRecords(ctx context.Context, kind model.Kind) ([]server.RecordView, error) {
	path := "/v1/records"
	if kind != "" {
		path += "?kind=" + url.QueryEscape(kind.String())
	}

	var res server.RecordsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}

	return res.Records, nil
}

func (c *client) GetRecord(ctx context.Context, id string) (*server.RecordView, error) {
	var res server.RecordView
	if err := c.do(ctx, http.MethodGet, "/v1/records/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

func (c *client) ListVersions(ctx context.Context, id string) ([]server.RecordView, error) {
	var res server.RecordsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/records/"+url.PathEscape(id)+"/versions", nil, &res); err != nil {
		return nil, err
	}

	return res.Records, nil
}

func (c *client) Upload(ctx context.Context, req server.UploadRequest) (*server.RecordView, error) {
	var res server.RecordView
	if err := c.do(ctx, http.MethodPost, "/v1/records", req, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

// UploadFiles sends local files as one bulk upload. Files named *.json are sent as JSON,
// anything else as octet stream so the server can reject it.
func (c *client) UploadFiles(ctx context.Context, kind model.Kind, uploader string, paths []string) ([]server.FileResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("kind", kind.String()); err != nil {
		return nil, err
	}
	if err := w.WriteField("uploader", uploader); err != nil {
		return nil, err
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		mediaType := "application/octet-stream"
		if strings.EqualFold(filepath.Ext(path), ".json") {
			mediaType = "application/json"
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, filepath.Base(path)))
		header.Set("Content-Type", mediaType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := c.request(ctx, http.MethodPost, "/v1/records/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var res server.UploadFilesResponse
	if err := c.send(req, &res); err != nil {
		return nil, err
	}

	return res.Results, nil
}

func (c *client) SaveVersion(ctx context.Context, id string, req server.SaveVersionRequest) (*server.RecordView, error) {
	var res server.RecordView
	if err := c.do(ctx, http.MethodPost, "/v1/records/"+url.PathEscape(id)+"/versions", req, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

func (c *client) Edit(ctx context.Context, id string, req server.EditRequest) (*server.RecordView, error) {
	var res server.RecordView
	if err := c.do(ctx, http.MethodPost, "/v1/records/"+url.PathEscape(id)+"/edit", req, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

func (c *client) OpenPreview(ctx context.Context, req server.PreviewRequest) (string, error) {
	var res server.PreviewToken
	if err := c.do(ctx, http.MethodPost, "/v1/previews", req, &res); err != nil {
		return "", err
	}

	return res.Token, nil
}

func (c *client) TakePreview(ctx context.Context, token string) (*server.PreviewResponse, error) {
	var res server.PreviewResponse
	if err := c.do(ctx, http.MethodGet, "/v1/previews/"+url.PathEscape(token), nil, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.request(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *client) request(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}

func (c *client) send(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(res.Body).Decode(&failure); err != nil || failure.Error == "" {
			failure.Error = http.StatusText(res.StatusCode)
		}
		return &APIError{Status: res.StatusCode, Message: failure.Error}
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(out)
}

// IsNotFound reports whether err is a 404 answered by the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
