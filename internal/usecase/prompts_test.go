package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectJobSector(t *testing.T) {
	cases := []struct {
		name string
		desc string
		want string
	}{
		{"technology", "Backend developer building microservices on kubernetes with aws", "technology"},
		{"finance", "Compliance analyst covering aml and kyc for an ifsc fund", "finance"},
		{"healthcare", "Clinical nurse manager in an hse hospital", "healthcare"},
		{"sales", "B2b sales role driving lead generation through salesforce crm", "sales_marketing"},
		{"single hit stays general", "We need someone with python experience", "general"},
		{"empty", "", "general"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, detectJobSector(tc.desc))
		})
	}
}

func TestExtractKeywordsRankedByFrequency(t *testing.T) {
	desc := "Python and Docker required. Python scripting daily, Docker occasionally, plus strong communication."
	kw := extractKeywords(desc)

	assert.Equal(t, []string{"docker", "python"}, kw.Technical[:2])
	assert.Contains(t, kw.Soft, "communication")
}

func TestExtractKeywordsTieBreaksAlphabetically(t *testing.T) {
	kw := extractKeywords("go rust kotlin")
	assert.Equal(t, []string{"go", "kotlin", "rust"}, kw.Technical)
}

func TestBuildCVPromptEmbedsFormData(t *testing.T) {
	form := formInput().FormData
	prompt := buildCVPrompt(form)

	assert.Contains(t, prompt, "Aoife Byrne")
	assert.Contains(t, prompt, "Go, Postgres, Kubernetes")
	assert.Contains(t, prompt, "Output ONLY valid JSON")
	assert.Contains(t, prompt, "Sector: TECHNOLOGY")
}

func TestBuildCVPromptWithoutJobDescription(t *testing.T) {
	form := formInput().FormData
	form.JobDescription = ""
	prompt := buildCVPrompt(form)

	assert.Contains(t, prompt, "Job Description: Not provided")
	assert.Contains(t, prompt, "Sector: GENERAL")
}
