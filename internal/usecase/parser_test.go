package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCVJSON = `{
	"personal_details": {"full_name": "Aoife Byrne", "email": "aoife@example.ie", "phone": "+353871234567", "location": "Dublin, Ireland"},
	"professional_summary": "Backend engineer with eight years building distributed systems.",
	"work_experience": [{"job_title": "Senior Engineer", "company": "Stripe", "start_date": "2021", "is_current": true, "achievements": ["Cut p99 latency by 40%"]}],
	"education": [{"degree": "BSc Computer Science", "institution": "Trinity College Dublin", "start_date": "2012", "end_date": "2016"}],
	"skills": {"technical": ["Go", "Postgres"], "soft": ["mentoring"], "languages": ["English", "Irish"]},
	"company_name": "Stripe",
	"job_title": "Staff Engineer"
}`

func TestParseCVResponse(t *testing.T) {
	cv, err := parseCVResponse(validCVJSON)
	require.NoError(t, err)
	assert.Equal(t, "Aoife Byrne", cv.PersonalDetails.FullName)
	assert.Equal(t, "Stripe", cv.CompanyName)
	assert.Len(t, cv.WorkExperience, 1)
	assert.Equal(t, []string{"Go", "Postgres"}, cv.Skills.Technical)
}

func TestParseCVResponseFencedOutput(t *testing.T) {
	raw := "Here is the CV you asked for:\n```json\n" + validCVJSON + "\n```\nLet me know if you need changes."
	cv, err := parseCVResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Aoife Byrne", cv.PersonalDetails.FullName)
}

func TestParseCVResponseNoJSON(t *testing.T) {
	_, err := parseCVResponse("I cannot help with that request.")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "no JSON object")
}

func TestParseCVResponseMissingField(t *testing.T) {
	_, err := parseCVResponse(`{"personal_details": {"full_name": "X"}, "professional_summary": "s", "work_experience": [{}], "education": []}`)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "skills", verr.Field)
}

func TestParseCVResponseEmptyExperience(t *testing.T) {
	_, err := parseCVResponse(`{
		"personal_details": {"full_name": "X"},
		"professional_summary": "s",
		"work_experience": [],
		"education": [],
		"skills": {"technical": [], "soft": [], "languages": []}
	}`)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "work_experience", verr.Field)
}

func TestParseCoverLetterResponse(t *testing.T) {
	raw := `{"cover_letter_body": "<p>Having worked in fintech for eight years, the Staff Engineer opening at Stripe aligns with my background.</p>", "generation_date": "September 1, 2026"}`
	cl, err := parseCoverLetterResponse(raw)
	require.NoError(t, err)
	assert.Contains(t, cl.Body, "Having worked in fintech")
	assert.Equal(t, "September 1, 2026", cl.GenerationDate)
}

func TestParseCoverLetterResponseCleansBody(t *testing.T) {
	raw := `{"cover_letter_body": "Dear Hiring Manager,\n<p>Having led platform teams, this role at [Company Name] suits my background.</p>\nSincerely,"}`
	cl, err := parseCoverLetterResponse(raw)
	require.NoError(t, err)
	assert.NotContains(t, cl.Body, "Dear")
	assert.NotContains(t, cl.Body, "Sincerely")
	assert.NotContains(t, cl.Body, "[Company Name]")
	assert.NotEmpty(t, cl.GenerationDate)
}

func TestParseCoverLetterResponseMissingBody(t *testing.T) {
	_, err := parseCoverLetterResponse(`{"generation_date": "September 1, 2026"}`)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cover_letter_body", verr.Field)
}
