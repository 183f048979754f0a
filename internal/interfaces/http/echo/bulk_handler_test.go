package echo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	app "github.com/crmkit/contact-ingest/internal/application/bulk"
	httpecho "github.com/crmkit/contact-ingest/internal/interfaces/http/echo"
)

type fakeSubmitUseCase struct {
	output app.SubmitBulkActionOutput
	err    error
	input  *app.SubmitBulkActionInput
}

func (f *fakeSubmitUseCase) Execute(ctx context.Context, in app.SubmitBulkActionInput) (app.SubmitBulkActionOutput, error) {
	f.input = &in
	if f.err != nil {
		return app.SubmitBulkActionOutput{}, f.err
	}
	return f.output, nil
}

type fakeQueries struct {
	list    []app.BulkActionSummary
	detail  app.BulkActionDetailOutput
	stats   app.BulkActionStatsOutput
	listErr error
	err     error
}

func (f *fakeQueries) List(ctx context.Context, accountID string, page, limit int) ([]app.BulkActionSummary, error) {
	return f.list, f.listErr
}

func (f *fakeQueries) Detail(ctx context.Context, accountID, jobID string, page int) (app.BulkActionDetailOutput, error) {
	return f.detail, f.err
}

func (f *fakeQueries) Stats(ctx context.Context, accountID, jobID string) (app.BulkActionStatsOutput, error) {
	return f.stats, f.err
}

type fakeRemediate struct {
	err   error
	input *app.RemediateErrorLogInput
}

func (f *fakeRemediate) Execute(ctx context.Context, in app.RemediateErrorLogInput) error {
	f.input = &in
	return f.err
}

func newServer(submit app.SubmitBulkAction, queries app.BulkActionQueries) *echo.Echo {
	return newServerWithRemediate(submit, queries, &fakeRemediate{})
}

func newServerWithRemediate(submit app.SubmitBulkAction, queries app.BulkActionQueries, remediate app.RemediateErrorLog) *echo.Echo {
	e := echo.New()
	handler := httpecho.NewBulkActionHandler(submit, queries, remediate)
	httpecho.RegisterRoutes(e, handler)
	return e
}

func multipartUpload(t *testing.T, fields map[string]string, fileContents string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "contacts.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(fileContents)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadAccepted(t *testing.T) {
	t.Parallel()

	submit := &fakeSubmitUseCase{output: app.SubmitBulkActionOutput{JobID: "job-1", Status: "pending"}}
	server := newServer(submit, &fakeQueries{})

	body, contentType := multipartUpload(t, map[string]string{"action": "insert"},
		"name,email,phone\nAlice,alice@example.com,5551234567\n")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk-actions/contact", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	data, ok := got["data"].(map[string]any)
	if !ok || data["job_id"] != "job-1" {
		t.Fatalf("unexpected payload: %#v", got)
	}

	if submit.input == nil {
		t.Fatal("expected use case invoked")
	}
	if submit.input.AccountID != "acct-1" || string(submit.input.FileType) != "contact" {
		t.Fatalf("unexpected input: %+v", submit.input)
	}
}

func TestUploadMissingAccountHeader(t *testing.T) {
	t.Parallel()

	server := newServer(&fakeSubmitUseCase{}, &fakeQueries{})

	body, contentType := multipartUpload(t, map[string]string{"action": "insert"}, "name,email\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk-actions/contact", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadMissingFile(t *testing.T) {
	t.Parallel()

	server := newServer(&fakeSubmitUseCase{}, &fakeQueries{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk-actions/contact", bytes.NewReader(nil))
	req.Header.Set(echo.HeaderContentType, echo.MIMEMultipartForm)
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadConversionFailure(t *testing.T) {
	t.Parallel()

	submit := &fakeSubmitUseCase{err: app.ErrConversionFailed}
	server := newServer(submit, &fakeQueries{})

	body, contentType := multipartUpload(t, map[string]string{"action": "insert"}, "broken")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk-actions/contact", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestListBulkActions(t *testing.T) {
	t.Parallel()

	queries := &fakeQueries{list: []app.BulkActionSummary{
		{ID: "job-1", FileName: "contacts.csv", Status: "completed"},
	}}
	server := newServer(&fakeSubmitUseCase{}, queries)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bulk-actions?page=1", nil)
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	data, ok := got["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("unexpected payload: %#v", got)
	}
}

func TestStatsInvalidJobID(t *testing.T) {
	t.Parallel()

	queries := &fakeQueries{err: app.ErrInvalidJobID}
	server := newServer(&fakeSubmitUseCase{}, queries)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bulk-actions/not-a-uuid/stats", nil)
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRemediateErrorLogEntry(t *testing.T) {
	t.Parallel()

	remediate := &fakeRemediate{}
	server := newServerWithRemediate(&fakeSubmitUseCase{}, &fakeQueries{}, remediate)

	body := bytes.NewBufferString(`{"email":"alice@example.com","phone":"5551234567"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/bulk-actions/error-logs/7", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if remediate.input == nil {
		t.Fatal("expected use case invoked")
	}
	if remediate.input.ErrorLogID != 7 || remediate.input.Email != "alice@example.com" {
		t.Fatalf("unexpected input: %+v", remediate.input)
	}
}

func TestRemediateInvalidID(t *testing.T) {
	t.Parallel()

	server := newServerWithRemediate(&fakeSubmitUseCase{}, &fakeQueries{}, &fakeRemediate{})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/bulk-actions/error-logs/not-a-number",
		bytes.NewBufferString(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRemediateDuplicateConflict(t *testing.T) {
	t.Parallel()

	remediate := &fakeRemediate{err: app.ErrDuplicateContact}
	server := newServerWithRemediate(&fakeSubmitUseCase{}, &fakeQueries{}, remediate)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/bulk-actions/error-logs/7",
		bytes.NewBufferString(`{"email":"alice@example.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRemediateEntryNotFound(t *testing.T) {
	t.Parallel()

	remediate := &fakeRemediate{err: app.ErrErrorLogNotFound}
	server := newServerWithRemediate(&fakeSubmitUseCase{}, &fakeQueries{}, remediate)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/bulk-actions/error-logs/7",
		bytes.NewBufferString(`{"email":"alice@example.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDetailNotFound(t *testing.T) {
	t.Parallel()

	queries := &fakeQueries{err: app.ErrJobNotFound}
	server := newServer(&fakeSubmitUseCase{}, queries)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bulk-actions/5d1c1c1c-1111-4111-8111-111111111111/detail", nil)
	req.Header.Set("X-Account-ID", "acct-1")
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
