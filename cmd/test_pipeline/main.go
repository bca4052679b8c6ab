package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"cvgenius/internal/domain"
	"cvgenius/internal/model"
	"cvgenius/internal/taskstore"
	"cvgenius/internal/usecase"
	"cvgenius/pkg/ai"
	"cvgenius/pkg/infrastructure"
)

// Runs the whole generation pipeline locally against a mock model server.
// Needs Chrome on the machine (or CHROME_PATH set); writes the resulting
// PDFs next to the working directory.

const mockCV = `{
	"personal_details": {"full_name": "Test User", "email": "test@example.ie", "phone": "+353871234567", "location": "Dublin"},
	"professional_summary": "Engineer with a track record delivering resilient backend services for Irish fintech employers.",
	"work_experience": [{"job_title": "Software Engineer", "company": "Acme", "start_date": "2019", "is_current": true, "achievements": ["Cut deploy time by 60%", "Led migration to Kubernetes"]}],
	"education": [{"degree": "BSc Computer Science", "institution": "UCD", "start_date": "2012", "end_date": "2016"}],
	"skills": {"technical": ["Go", "Postgres", "Kubernetes"], "soft": ["Communication"], "languages": ["English", "Irish"]},
	"company_name": "Acme Ireland",
	"job_title": "Senior Software Engineer"
}`

const mockLetter = `{"cover_letter_body": "<p>Having led backend delivery at Acme for five years, this senior role is a natural next step.</p><p>Thank you for your consideration; I would welcome the opportunity to interview.</p>", "generation_date": "September 1, 2026"}`

func startMockModel(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reply := mockCV
		if strings.Contains(string(body), "cover letter writer") {
			reply = mockLetter
		}
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": reply}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "mock model server failed: %v\n", err)
			os.Exit(1)
		}
	}()
	return srv
}

func main() {
	srv := startMockModel("127.0.0.1:8091")
	defer srv.Close()
	os.Setenv("GEMINI_BASE_URL", "http://127.0.0.1:8091")
	time.Sleep(200 * time.Millisecond)

	store := taskstore.NewStore()
	renderer := infrastructure.NewChromedpRenderer("templates")
	client := ai.NewClient("local-test-key", "gemini-2.0-flash", 30*time.Second)
	processor := usecase.NewProcessor(store, client, renderer, nil, "templates")

	input := domain.TaskInput{
		FormData: &model.CVFormData{
			PersonalDetails: model.PersonalDetails{FullName: "Test User", Email: "test@example.ie", Phone: "+353871234567"},
			WorkExperience:  []model.WorkExperience{{JobTitle: "Software Engineer", Company: "Acme", StartDate: "2019", IsCurrent: true}},
			Education:       []model.Education{{Degree: "BSc Computer Science", Institution: "UCD", StartDate: "2012"}},
			Skills:          "Go, Postgres, Kubernetes",
			JobDescription:  "Senior software engineer building Go microservices on Kubernetes in Dublin.",
			Theme:           "modern",
		},
	}

	id := store.Create(domain.KindCVGeneration, input)
	fmt.Printf("created task %s\n", id)

	processor.Process(context.Background(), id)

	task, err := store.Get(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "task lookup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("task finished: status=%s progress=%d\n", task.Status, task.Progress)
	if task.Status != domain.StatusCompleted {
		fmt.Fprintf(os.Stderr, "pipeline failed: %s\n", task.Error)
		os.Exit(1)
	}

	for name, b64 := range map[string]string{
		task.Result.FilenameCV:          task.Result.CVPDFBase64,
		task.Result.FilenameCoverLetter: task.Result.CoverLetterPDFBase64,
	} {
		pdf, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode %s: %v\n", name, err)
			os.Exit(1)
		}
		if err := os.WriteFile(name, pdf, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s (%d bytes)\n", name, len(pdf))
	}
}
