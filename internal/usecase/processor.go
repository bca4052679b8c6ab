package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"cvgenius/internal/domain"
	"cvgenius/internal/log"
	"cvgenius/internal/model"
	"cvgenius/internal/taskstore"
)

// Generator produces raw text from a prompt, typically via a remote model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Renderer turns HTML into PDF bytes.
type Renderer interface {
	RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

// RecordsRepo persists completed generations (best effort, may be nil).
type RecordsRepo interface {
	Save(ctx context.Context, rec *domain.GenerationRecord) error
}

// Pipeline progress checkpoints. Progress freezes at the last reached value
// when a stage fails.
const (
	progressStarted     = 10
	progressCVGenerated = 30
	progressLetterDone  = 70
	progressRendered    = 90
)

var letterTemplates = map[string]string{
	"classic":  "letter_classic.html",
	"modern":   "letter_modern.html",
	"academic": "letter_academic.html",
}

// Processor drives the generation pipeline for one task at a time. Each
// submission gets its own goroutine running Process; the task store arbitrates
// between that goroutine and external cancellation.
type Processor struct {
	store    *taskstore.Store
	gen      Generator
	renderer Renderer
	repo     RecordsRepo
	tplDir   string
}

func NewProcessor(store *taskstore.Store, gen Generator, r Renderer, repo RecordsRepo, tplDir string) *Processor {
	return &Processor{store: store, gen: gen, renderer: r, repo: repo, tplDir: tplDir}
}

// Process runs the full pipeline for the given task. It never returns an
// error: any stage failure is recorded on the task and the pipeline stops.
// Nobody is waiting on the caller side; all outcomes surface via polling.
func (p *Processor) Process(ctx context.Context, taskID string) {
	logger := log.GetLogger()

	task, err := p.store.Get(taskID)
	if err != nil {
		logger.Errorf("task %s vanished before processing: %v", taskID, err)
		return
	}

	if err := p.run(ctx, taskID, task.Input); err != nil {
		if ferr := p.store.Fail(taskID, err.Error()); ferr != nil {
			logger.Errorf("task %s: recording failure: %v", taskID, ferr)
		}
		logger.Warnf("task %s failed: %v", taskID, err)
		return
	}
	logger.Infof("task %s completed", taskID)
}

func (p *Processor) run(ctx context.Context, taskID string, input domain.TaskInput) error {
	if err := p.store.UpdateProgress(taskID, progressStarted, domain.StatusProcessing); err != nil {
		return err
	}

	// stage 1: primary CV content
	cv, err := p.generateCV(ctx, input)
	if err != nil {
		return err
	}
	if p.cancelled(taskID) {
		return nil
	}
	if err := p.store.UpdateProgress(taskID, progressCVGenerated, ""); err != nil {
		return err
	}

	// stage 2: cover letter, using stage 1 output as context. The company
	// name extracted during CV generation feeds the letter; the stages are
	// strictly ordered.
	letter, err := p.GenerateCoverLetter(ctx, cv, jobDescription(input), cv.CompanyName)
	if err != nil {
		return err
	}
	if p.cancelled(taskID) {
		return nil
	}
	if err := p.store.UpdateProgress(taskID, progressLetterDone, ""); err != nil {
		return err
	}

	// stage 3: render both documents
	result, err := p.renderDocuments(ctx, cv, letter, theme(input))
	if err != nil {
		return err
	}
	if err := p.store.UpdateProgress(taskID, progressRendered, ""); err != nil {
		return err
	}

	if err := p.store.Complete(taskID, result); err != nil {
		return err
	}

	p.saveRecord(ctx, taskID, cv, result)
	return nil
}

// GenerateSync runs the same pipeline without a task record, for the
// synchronous endpoints.
func (p *Processor) GenerateSync(ctx context.Context, input domain.TaskInput) (*model.PDFResponse, error) {
	cv, err := p.generateCV(ctx, input)
	if err != nil {
		return nil, err
	}
	letter, err := p.GenerateCoverLetter(ctx, cv, jobDescription(input), cv.CompanyName)
	if err != nil {
		return nil, err
	}
	return p.renderDocuments(ctx, cv, letter, theme(input))
}

func (p *Processor) generateCV(ctx context.Context, input domain.TaskInput) (*model.GeneratedCV, error) {
	var prompt string
	switch {
	case input.FormData != nil:
		prompt = buildCVPrompt(input.FormData)
	case input.CVText != "":
		prompt = buildUpdatePrompt(input.CVText, input.JobDescription)
	default:
		return nil, errors.New("task input carries neither form data nor CV text")
	}

	raw, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, errors.Wrap(err, "CV generation")
	}
	cv, err := parseCVResponse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "CV generation")
	}
	return cv, nil
}

// GenerateCoverLetter produces just the letter, reusing existing CV content
// as context. An empty companyName falls back to the one extracted during CV
// generation.
func (p *Processor) GenerateCoverLetter(ctx context.Context, cv *model.GeneratedCV, jobDesc, companyName string) (*model.CoverLetter, error) {
	raw, err := p.gen.Generate(ctx, buildCoverLetterPrompt(cv, jobDesc, companyName))
	if err != nil {
		return nil, errors.Wrap(err, "cover letter generation")
	}
	letter, err := parseCoverLetterResponse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "cover letter generation")
	}
	return letter, nil
}

func (p *Processor) renderDocuments(ctx context.Context, cv *model.GeneratedCV, letter *model.CoverLetter, themeName string) (*model.PDFResponse, error) {
	cvHTML, err := p.renderTemplate("cv.html", cv, letter)
	if err != nil {
		return nil, errors.Wrap(err, "rendering CV template")
	}
	letterTpl, ok := letterTemplates[themeName]
	if !ok {
		letterTpl = letterTemplates["classic"]
	}
	letterHTML, err := p.renderTemplate(letterTpl, cv, letter)
	if err != nil {
		return nil, errors.Wrap(err, "rendering cover letter template")
	}

	cvPDF, err := p.renderPDF(ctx, cvHTML)
	if err != nil {
		return nil, errors.Wrap(err, "rendering CV PDF")
	}
	letterPDF, err := p.renderPDF(ctx, letterHTML)
	if err != nil {
		return nil, errors.Wrap(err, "rendering cover letter PDF")
	}

	now := time.Now()
	ts := now.Format("20060102_150405")
	return &model.PDFResponse{
		CVPDFBase64:          base64.StdEncoding.EncodeToString(cvPDF),
		CoverLetterPDFBase64: base64.StdEncoding.EncodeToString(letterPDF),
		FilenameCV:           fmt.Sprintf("cv_%s.pdf", ts),
		FilenameCoverLetter:  fmt.Sprintf("cover_letter_%s.pdf", ts),
		GenerationTimestamp:  now,
		CVData:               cv,
		CoverLetter:          letter,
		Theme:                themeName,
	}, nil
}

// RenderCVPDF renders only the CV document from structured content and
// returns the base64 PDF with its filename.
func (p *Processor) RenderCVPDF(ctx context.Context, cv *model.GeneratedCV) (string, string, error) {
	return p.renderSingle(ctx, "cv.html", cv, nil, "cv")
}

// RenderCoverLetterPDF renders only the themed cover letter.
func (p *Processor) RenderCoverLetterPDF(ctx context.Context, cv *model.GeneratedCV, letter *model.CoverLetter, themeName string) (string, string, error) {
	tplName, ok := letterTemplates[themeName]
	if !ok {
		tplName = letterTemplates["classic"]
	}
	return p.renderSingle(ctx, tplName, cv, letter, "cover_letter")
}

func (p *Processor) renderSingle(ctx context.Context, tplName string, cv *model.GeneratedCV, letter *model.CoverLetter, prefix string) (string, string, error) {
	if letter == nil {
		letter = &model.CoverLetter{}
	}
	html, err := p.renderTemplate(tplName, cv, letter)
	if err != nil {
		return "", "", errors.Wrapf(err, "rendering %s template", prefix)
	}
	pdf, err := p.renderPDF(ctx, html)
	if err != nil {
		return "", "", errors.Wrapf(err, "rendering %s PDF", prefix)
	}
	filename := fmt.Sprintf("%s_%s.pdf", prefix, time.Now().Format("20060102_150405"))
	return base64.StdEncoding.EncodeToString(pdf), filename, nil
}

func (p *Processor) renderTemplate(name string, cv *model.GeneratedCV, letter *model.CoverLetter) (string, error) {
	tpl, err := template.ParseFiles(filepath.Join(p.tplDir, name))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	data := map[string]interface{}{
		"CV":     cv,
		"Letter": letter,
		// letter body is model-generated HTML that already went through
		// the cleanup passes
		"LetterBody": template.HTML(letter.Body),
	}
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderPDF retries the renderer a few times and checks the PDF signature;
// headless Chrome occasionally produces empty output on a cold start.
func (p *Processor) renderPDF(ctx context.Context, html string) ([]byte, error) {
	attempts := 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		pdf, err := p.renderer.RenderHTMLToPDF(ctx, html)
		if err == nil {
			if len(pdf) >= 4 && strings.HasPrefix(string(pdf), "%PDF") {
				return pdf, nil
			}
			err = errors.Errorf("invalid PDF output (len=%d)", len(pdf))
		}
		lastErr = err
		log.GetLogger().Warnf("render attempt %d failed: %v", i+1, err)
		if i < attempts-1 {
			backoff := time.Duration(1<<i) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// cancelled reports whether the task reached a terminal state underneath the
// pipeline, which happens when a cancel request raced the in-flight work.
// Remaining stages are skipped; the store ignores late writes regardless.
func (p *Processor) cancelled(taskID string) bool {
	task, err := p.store.Get(taskID)
	if err != nil {
		return true
	}
	return task.Status.Terminal()
}

func (p *Processor) saveRecord(ctx context.Context, taskID string, cv *model.GeneratedCV, result *model.PDFResponse) {
	if p.repo == nil {
		return
	}
	rec := &domain.GenerationRecord{
		TaskID:              taskID,
		Kind:                domain.KindCVGeneration,
		Status:              domain.StatusCompleted,
		CompanyName:         cv.CompanyName,
		JobTitle:            cv.JobTitle,
		FilenameCV:          result.FilenameCV,
		FilenameCoverLetter: result.FilenameCoverLetter,
		CompletedAt:         result.GenerationTimestamp,
	}
	if err := p.repo.Save(ctx, rec); err != nil {
		log.GetLogger().Warnf("task %s: saving generation record: %v", taskID, err)
	}
}

func jobDescription(input domain.TaskInput) string {
	if input.FormData != nil && input.FormData.JobDescription != "" {
		return input.FormData.JobDescription
	}
	return input.JobDescription
}

func theme(input domain.TaskInput) string {
	if input.FormData != nil && input.FormData.Theme != "" {
		return input.FormData.Theme
	}
	if input.Theme != "" {
		return input.Theme
	}
	return "classic"
}
