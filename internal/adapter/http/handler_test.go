package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvgenius/internal/config"
	"cvgenius/internal/domain"
	"cvgenius/internal/taskstore"
	"cvgenius/internal/usecase"
)

const testCVReply = `{
	"personal_details": {"full_name": "Aoife Byrne", "email": "aoife@example.ie", "phone": "+353871234567", "location": "Dublin"},
	"professional_summary": "Backend engineer with eight years building payment services.",
	"work_experience": [{"job_title": "Engineer", "company": "AIB", "start_date": "2019", "is_current": true, "achievements": ["Cut settlement latency by 40%"]}],
	"education": [{"degree": "BSc Computer Science", "institution": "TCD", "start_date": "2012", "end_date": "2016"}],
	"skills": {"technical": ["Go", "Postgres"], "soft": ["Communication"], "languages": ["English"]},
	"company_name": "Stripe",
	"job_title": "Senior Engineer"
}`

const testLetterReply = `{"cover_letter_body": "<p>Having shipped payment systems at AIB, the Stripe role is a strong match.</p>", "generation_date": "September 1, 2026"}`

type stubGenerator struct {
	replies []string
	calls   int
}

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	i := g.calls
	g.calls++
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	return g.replies[len(g.replies)-1], nil
}

type stubRenderer struct{}

func (stubRenderer) RenderHTMLToPDF(context.Context, string) ([]byte, error) {
	return []byte("%PDF-1.4 stub"), nil
}

func newTestApp(t *testing.T) (*fiber.App, *taskstore.Store) {
	t.Helper()
	cfg := config.Load()
	cfg.TemplateDir = "../../../templates"

	store := taskstore.NewStore()
	gen := &stubGenerator{replies: []string{testCVReply, testLetterReply}}
	p := usecase.NewProcessor(store, gen, stubRenderer{}, nil, cfg.TemplateDir)

	app := fiber.New()
	NewHandler(store, p, nil, cfg).RegisterRoutes(app)
	return app, store
}

func validFormBody() string {
	return `{
		"personal_details": {"full_name": "Aoife Byrne", "email": "aoife@example.ie", "phone": "+353871234567"},
		"work_experience": [{"job_title": "Engineer", "company": "AIB", "start_date": "2019"}],
		"education": [{"degree": "BSc", "institution": "TCD", "start_date": "2012"}],
		"skills": "Go, Postgres, Kubernetes",
		"job_description": "Senior Go developer at Stripe Dublin",
		"theme": "classic"
	}`
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp, out
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestSubmitAndPollToCompletion(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/async/generate-from-form-async", validFormBody())
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	taskID, _ := body["task_id"].(string)
	require.NotEmpty(t, taskID)
	assert.Equal(t, "processing", body["status"])
	assert.Equal(t, "/api/v1/async/task-status/"+taskID, body["poll_url"])

	deadline := time.After(5 * time.Second)
	for {
		resp, body = doJSON(t, app, http.MethodGet, "/api/v1/async/task-status/"+taskID, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		status, _ := body["status"].(string)
		if status == "completed" || status == "failed" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("task %s never reached a terminal state (last status %q)", taskID, status)
		case <-time.After(20 * time.Millisecond):
		}
	}

	require.Equal(t, "completed", body["status"])
	assert.EqualValues(t, 100, body["progress"])
	result, ok := body["result"].(map[string]interface{})
	require.True(t, ok, "completed task carries a result")
	assert.NotEmpty(t, result["cv_pdf_base64"])
	assert.NotEmpty(t, result["cover_letter_pdf_base64"])
	assert.NotContains(t, body, "error")
}

func TestSubmitRejectsInvalidForm(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/async/generate-from-form-async",
		`{"personal_details": {"full_name": "Aoife Byrne"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "validation")
}

func TestTaskStatusUnknownID(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/async/task-status/no-such-task", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "task not found", body["error"])
}

func TestCancelTask(t *testing.T) {
	app, store := newTestApp(t)
	id := store.Create(domain.KindCVGeneration, domain.TaskInput{})

	resp, body := doJSON(t, app, http.MethodDelete, "/api/v1/async/task/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Task cancelled successfully", body["message"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/async/task-status/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "failed", body["status"])
	assert.Equal(t, "Cancelled by user", body["error"])

	// cancelling a terminal task is an invalid state, not a silent success
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/async/task/"+id, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelUnknownID(t *testing.T) {
	app, _ := newTestApp(t)
	resp, _ := doJSON(t, app, http.MethodDelete, "/api/v1/async/task/no-such-task", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListTasks(t *testing.T) {
	app, store := newTestApp(t)
	for i := 0; i < 15; i++ {
		store.Create(domain.KindCVGeneration, domain.TaskInput{CVText: "secret"})
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/async/tasks?limit=10", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tasks, ok := body["tasks"].([]interface{})
	require.True(t, ok)
	assert.Len(t, tasks, 10)
	assert.EqualValues(t, 10, body["count"])

	// summaries never leak payloads
	first, ok := tasks[0].(map[string]interface{})
	require.True(t, ok)
	assert.NotContains(t, first, "input")
	assert.NotContains(t, first, "result")
	assert.NotContains(t, first, "error")
}

func TestRecentRecordsWithoutDatabase(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/records", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records, ok := body["records"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, records)
}

func TestGenerateFromFormSync(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/generate-from-form", validFormBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["cv_pdf_base64"])
	assert.NotEmpty(t, body["cover_letter_pdf_base64"])
	assert.Equal(t, "classic", body["theme"])
}

func uploadRequest(t *testing.T, filename, content, jobDescription string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	if jobDescription != "" {
		require.NoError(t, mw.WriteField("job_description", jobDescription))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-from-upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestGenerateFromUpload(t *testing.T) {
	app, _ := newTestApp(t)
	req := uploadRequest(t, "cv.txt", "Aoife Byrne, Engineer at AIB since 2019.", "Senior Go developer in Dublin")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["cv_pdf_base64"])
}

func TestGenerateFromUploadRejectsFormat(t *testing.T) {
	app, _ := newTestApp(t)
	req := uploadRequest(t, "cv.odt", "irrelevant", "Senior Go developer")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateFromUploadRequiresJobDescription(t *testing.T) {
	app, _ := newTestApp(t)
	req := uploadRequest(t, "cv.txt", "Aoife Byrne, Engineer.", "")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateCoverLetterOnly(t *testing.T) {
	cfg := config.Load()
	cfg.TemplateDir = "../../../templates"
	store := taskstore.NewStore()
	gen := &stubGenerator{replies: []string{testLetterReply}}
	p := usecase.NewProcessor(store, gen, stubRenderer{}, nil, cfg.TemplateDir)
	app := fiber.New()
	NewHandler(store, p, nil, cfg).RegisterRoutes(app)

	body := `{"cv_data": ` + testCVReply + `, "job_description": "Senior Go developer", "company_name": "Stripe"}`
	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/generate-cover-letter", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out["cover_letter_body"], "AIB")
	assert.Equal(t, 1, gen.calls)
}

func TestGenerateCoverLetterOnlyRequiresCVData(t *testing.T) {
	app, _ := newTestApp(t)
	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/generate-cover-letter", `{"job_description": "x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "cv_data")
}

func TestGenerateCVPDF(t *testing.T) {
	app, _ := newTestApp(t)
	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/generate-cv-pdf", testCVReply)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := base64.StdEncoding.DecodeString(out["cv_pdf_base64"].(string))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))
	assert.Contains(t, out["filename_cv"], "cv_")
}

func TestGenerateCVPDFRejectsEmptyBody(t *testing.T) {
	app, _ := newTestApp(t)
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/generate-cv-pdf", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateCoverLetterPDF(t *testing.T) {
	app, _ := newTestApp(t)
	body := `{"cv_data": ` + testCVReply + `, "cover_letter": ` + testLetterReply + `, "theme": "modern"}`
	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/generate-cover-letter-pdf", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := base64.StdEncoding.DecodeString(out["cover_letter_pdf_base64"].(string))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))
	assert.Contains(t, out["filename_cover_letter"], "cover_letter_")
}

func TestGenerateCoverLetterPDFRequiresLetter(t *testing.T) {
	app, _ := newTestApp(t)
	body := `{"cv_data": ` + testCVReply + `}`
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/generate-cover-letter-pdf", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSupportedFormats(t *testing.T) {
	app, _ := newTestApp(t)
	resp, out := doJSON(t, app, http.MethodGet, "/api/v1/files/supported-formats", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	formats := out["supported_formats"].([]interface{})
	var exts []string
	for _, f := range formats {
		exts = append(exts, f.(map[string]interface{})["extension"].(string))
	}
	assert.ElementsMatch(t, []string{"pdf", "docx", "txt"}, exts)
	assert.Equal(t, float64(5*1024*1024), out["max_file_size"])
	assert.Equal(t, float64(5), out["max_file_size_mb"])
}

func TestValidateFormData(t *testing.T) {
	app, _ := newTestApp(t)

	t.Run("valid form", func(t *testing.T) {
		resp, out := doJSON(t, app, http.MethodPost, "/api/v1/files/validate-form", validFormBody())
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, out["valid"])
		assert.Empty(t, out["errors"])
		assert.Equal(t, "Validation completed", out["message"])
	})

	t.Run("missing required fields", func(t *testing.T) {
		resp, out := doJSON(t, app, http.MethodPost, "/api/v1/files/validate-form", `{"skills": "Go"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, false, out["valid"])
		assert.NotEmpty(t, out["errors"])
		assert.Equal(t, "Please fix validation errors", out["message"])
	})

	t.Run("dublin market warnings", func(t *testing.T) {
		body := `{
			"personal_details": {"full_name": "Aoife Byrne", "email": "aoife@example.ie", "phone": "0871234567"},
			"work_experience": [{"job_title": "Engineer", "company": "AIB", "start_date": "2019"}],
			"education": [],
			"skills": "Go"
		}`
		_, out := doJSON(t, app, http.MethodPost, "/api/v1/files/validate-form", body)
		warnings := out["warnings"].([]interface{})
		require.Len(t, warnings, 3)
		assert.Contains(t, warnings[0], "+353")
		assert.Contains(t, warnings[1], "education")
		assert.Contains(t, warnings[2], "skills")
	})
}
