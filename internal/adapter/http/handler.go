package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"cvgenius/internal/config"
	"cvgenius/internal/domain"
	"cvgenius/internal/log"
	"cvgenius/internal/model"
	"cvgenius/internal/taskstore"
	"cvgenius/internal/usecase"
	"cvgenius/pkg/infrastructure"
)

var logger = log.GetLogger()

// RecordsLister reads back persisted generation records.
type RecordsLister interface {
	Recent(ctx context.Context, limit int) ([]domain.GenerationRecord, error)
}

// Handler exposes the task status API and the generation endpoints.
type Handler struct {
	store     *taskstore.Store
	processor *usecase.Processor
	records   RecordsLister
	cfg       *config.Config
}

func NewHandler(store *taskstore.Store, p *usecase.Processor, records RecordsLister, cfg *config.Config) *Handler {
	return &Handler{store: store, processor: p, records: records, cfg: cfg}
}

// RegisterRoutes mounts every endpoint under /api/v1.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)

	v1 := app.Group("/api/v1")
	v1.Post("/generate-from-form", h.GenerateFromForm)
	v1.Post("/generate-from-upload", h.GenerateFromUpload)
	v1.Post("/generate-cover-letter", h.GenerateCoverLetterOnly)
	v1.Post("/generate-cv-pdf", h.GenerateCVPDF)
	v1.Post("/generate-cover-letter-pdf", h.GenerateCoverLetterPDF)
	v1.Get("/records", h.RecentRecords)

	files := v1.Group("/files")
	files.Get("/supported-formats", h.SupportedFormats)
	files.Post("/validate-form", h.ValidateFormData)

	async := v1.Group("/async")
	async.Post("/generate-from-form-async", h.SubmitFormTask)
	async.Get("/task-status/:task_id", h.TaskStatus)
	async.Delete("/task/:task_id", h.CancelTask)
	async.Get("/tasks", h.ListTasks)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "healthy",
		"service":      "cvgenius",
		"active_tasks": h.store.Len(),
	})
}

// SubmitFormTask accepts form data, registers a task and kicks off the
// pipeline without waiting for it. The caller polls for the outcome.
func (h *Handler) SubmitFormTask(c *fiber.Ctx) error {
	form, err := h.parseForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	taskID := h.store.Create(domain.KindCVGeneration, domain.TaskInput{
		FormData:       form,
		JobDescription: form.JobDescription,
		Theme:          form.Theme,
	})

	go h.processor.Process(context.Background(), taskID)

	logger.WithField("task_id", taskID).Info("generation task submitted")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"task_id":  taskID,
		"status":   "processing",
		"message":  "CV generation started. Poll the task status endpoint for the result.",
		"poll_url": "/api/v1/async/task-status/" + taskID,
	})
}

func (h *Handler) TaskStatus(c *fiber.Ctx) error {
	task, err := h.store.Get(c.Params("task_id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "task not found"})
	}

	resp := fiber.Map{
		"task_id":    task.ID,
		"status":     task.Status,
		"progress":   task.Progress,
		"created_at": task.CreatedAt,
	}
	if task.Status == domain.StatusCompleted {
		resp["result"] = task.Result
	}
	if task.Status == domain.StatusFailed {
		resp["error"] = task.Error
	}
	return c.JSON(resp)
}

// CancelTask marks a running task failed. The in-flight pipeline is not
// interrupted; its eventual completion is ignored by the store.
func (h *Handler) CancelTask(c *fiber.Ctx) error {
	taskID := c.Params("task_id")

	switch err := h.store.Cancel(taskID, "Cancelled by user"); {
	case errors.Is(err, domain.ErrTaskNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "task not found"})
	case errors.Is(err, domain.ErrInvalidState):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	logger.WithField("task_id", taskID).Info("task cancelled")
	return c.JSON(fiber.Map{"message": "Task cancelled successfully"})
}

// RecentRecords returns the generation history from the database, when one
// is configured.
func (h *Handler) RecentRecords(c *fiber.Ctx) error {
	if h.records == nil {
		return c.JSON(fiber.Map{"records": []domain.GenerationRecord{}})
	}
	recs, err := h.records.Recent(c.Context(), c.QueryInt("limit", 10))
	if err != nil {
		logger.WithError(err).Error("listing generation records")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not list records"})
	}
	if recs == nil {
		recs = []domain.GenerationRecord{}
	}
	return c.JSON(fiber.Map{"records": recs})
}

func (h *Handler) ListTasks(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	summaries := h.store.List(limit)
	return c.JSON(fiber.Map{
		"tasks": summaries,
		"count": len(summaries),
	})
}

// GenerateFromForm runs the pipeline synchronously and returns the rendered
// documents in one response.
func (h *Handler) GenerateFromForm(c *fiber.Ctx) error {
	form, err := h.parseForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res, err := h.processor.GenerateSync(c.Context(), domain.TaskInput{
		FormData:       form,
		JobDescription: form.JobDescription,
		Theme:          form.Theme,
	})
	if err != nil {
		logger.WithError(err).Error("synchronous generation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

// GenerateFromUpload takes an existing CV file plus a job description and
// runs the update flow synchronously.
func (h *Handler) GenerateFromUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file upload"})
	}
	if fileHeader.Size > int64(h.cfg.MaxFileSize) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("file exceeds the %d byte limit", h.cfg.MaxFileSize),
		})
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not read upload"})
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not read upload"})
	}

	cvText, err := infrastructure.ExtractText(data, format)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if len(cvText) > h.cfg.MaxTextLength {
		cvText = cvText[:h.cfg.MaxTextLength]
	}

	jobDescription := c.FormValue("job_description")
	if strings.TrimSpace(jobDescription) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "job_description is required"})
	}

	res, err := h.processor.GenerateSync(c.Context(), domain.TaskInput{
		CVText:         cvText,
		JobDescription: jobDescription,
		Theme:          c.FormValue("theme", "classic"),
	})
	if err != nil {
		logger.WithError(err).Error("upload generation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

type coverLetterRequest struct {
	CVData         *model.GeneratedCV `json:"cv_data"`
	JobDescription string             `json:"job_description"`
	CompanyName    string             `json:"company_name"`
}

// GenerateCoverLetterOnly regenerates the letter from existing CV content
// without re-running the whole pipeline.
func (h *Handler) GenerateCoverLetterOnly(c *fiber.Ctx) error {
	var req coverLetterRequest
	if err := c.BodyParser(&req); err != nil || req.CVData == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cv_data is required"})
	}

	letter, err := h.processor.GenerateCoverLetter(c.Context(), req.CVData, req.JobDescription, req.CompanyName)
	if err != nil {
		logger.WithError(err).Error("cover letter generation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(letter)
}

// GenerateCVPDF re-renders just the CV document from structured data.
func (h *Handler) GenerateCVPDF(c *fiber.Ctx) error {
	var cv model.GeneratedCV
	if err := c.BodyParser(&cv); err != nil || cv.PersonalDetails.FullName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cv_data with personal details is required"})
	}

	b64, filename, err := h.processor.RenderCVPDF(c.Context(), &cv)
	if err != nil {
		logger.WithError(err).Error("CV PDF rendering failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"cv_pdf_base64": b64,
		"filename_cv":   filename,
	})
}

type coverLetterPDFRequest struct {
	CVData      *model.GeneratedCV `json:"cv_data"`
	CoverLetter *model.CoverLetter `json:"cover_letter"`
	Theme       string             `json:"theme"`
}

// GenerateCoverLetterPDF re-renders just the cover letter document.
func (h *Handler) GenerateCoverLetterPDF(c *fiber.Ctx) error {
	var req coverLetterPDFRequest
	if err := c.BodyParser(&req); err != nil || req.CVData == nil || req.CoverLetter == nil || req.CoverLetter.Body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cv_data and cover_letter are required"})
	}

	b64, filename, err := h.processor.RenderCoverLetterPDF(c.Context(), req.CVData, req.CoverLetter, req.Theme)
	if err != nil {
		logger.WithError(err).Error("cover letter PDF rendering failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"cover_letter_pdf_base64": b64,
		"filename_cover_letter":   filename,
	})
}

// SupportedFormats documents what the upload flow accepts.
func (h *Handler) SupportedFormats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"supported_formats": []fiber.Map{
			{"extension": "pdf", "mime_type": "application/pdf", "description": "PDF documents"},
			{"extension": "docx", "mime_type": "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "description": "Microsoft Word documents (2007+)"},
			{"extension": "txt", "mime_type": "text/plain", "description": "Plain text"},
		},
		"max_file_size":    h.cfg.MaxFileSize,
		"max_file_size_mb": h.cfg.MaxFileSize / (1024 * 1024),
		"max_text_length":  h.cfg.MaxTextLength,
	})
}

// ValidateFormData checks a form submission without generating anything, so
// clients can surface problems before spending a generation request.
func (h *Handler) ValidateFormData(c *fiber.Ctx) error {
	body := c.Body()

	validationErrors := []string{}
	if err := model.ValidateForm(h.cfg.TemplateDir, body); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}

	warnings := []string{}
	var form model.CVFormData
	if err := json.Unmarshal(body, &form); err == nil {
		if form.PersonalDetails.Phone != "" && !strings.HasPrefix(form.PersonalDetails.Phone, "+353") {
			warnings = append(warnings, "Consider using Irish phone format (+353) for the Dublin market")
		}
		if len(form.Education) == 0 {
			warnings = append(warnings, "At least one education entry is recommended")
		}
		if len(strings.Split(form.Skills, ",")) < 3 {
			warnings = append(warnings, "At least 3 skills are recommended for better ATS optimization")
		}
	}

	valid := len(validationErrors) == 0
	message := "Validation completed"
	if !valid {
		message = "Please fix validation errors"
	}
	return c.JSON(fiber.Map{
		"valid":    valid,
		"errors":   validationErrors,
		"warnings": warnings,
		"message":  message,
	})
}

// parseForm validates the JSON body against the form schema before decoding
// it, so schema errors come back as 400s instead of zero-valued structs.
func (h *Handler) parseForm(c *fiber.Ctx) (*model.CVFormData, error) {
	body := c.Body()
	if err := model.ValidateForm(h.cfg.TemplateDir, body); err != nil {
		return nil, err
	}
	var form model.CVFormData
	if err := json.Unmarshal(body, &form); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return &form, nil
}
