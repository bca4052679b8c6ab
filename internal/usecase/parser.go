package usecase

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"cvgenius/internal/model"
)

// ValidationError marks structurally invalid model output: either no JSON at
// all, or JSON missing a required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid generated content: missing required field %q", e.Field)
	}
	return "invalid generated content: " + e.Reason
}

// extractJSON cuts the first balanced-looking JSON object out of raw model
// text. Models occasionally wrap output in code fences or commentary.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", &ValidationError{Reason: "no JSON object found in response"}
	}
	return s[start : end+1], nil
}

var requiredCVFields = []string{
	"personal_details", "professional_summary", "work_experience", "education", "skills",
}

// parseCVResponse turns raw model text into a validated GeneratedCV.
func parseCVResponse(raw string) (*model.GeneratedCV, error) {
	jsonStr, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	// check required keys on a generic map first; a typed unmarshal would
	// silently zero out anything missing
	var generic map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &generic); err != nil {
		return nil, &ValidationError{Reason: "malformed JSON in response: " + err.Error()}
	}
	for _, field := range requiredCVFields {
		if _, ok := generic[field]; !ok {
			return nil, &ValidationError{Field: field}
		}
	}

	var cv model.GeneratedCV
	if err := json.Unmarshal([]byte(jsonStr), &cv); err != nil {
		return nil, &ValidationError{Reason: "CV content has wrong shape: " + err.Error()}
	}
	if cv.PersonalDetails.FullName == "" {
		return nil, &ValidationError{Field: "personal_details.full_name"}
	}
	if len(cv.WorkExperience) == 0 {
		return nil, &ValidationError{Field: "work_experience"}
	}
	return &cv, nil
}

// parseCoverLetterResponse turns raw model text into a cleaned CoverLetter.
func parseCoverLetterResponse(raw string) (*model.CoverLetter, error) {
	jsonStr, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var cl model.CoverLetter
	if err := json.Unmarshal([]byte(jsonStr), &cl); err != nil {
		return nil, &ValidationError{Reason: "malformed JSON in response: " + err.Error()}
	}
	if cl.Body == "" {
		return nil, &ValidationError{Field: "cover_letter_body"}
	}

	cl.Body = CleanCoverLetter(cl.Body)
	if cl.Body == "" {
		return nil, errors.New("cover letter body empty after cleanup")
	}
	if cl.GenerationDate == "" {
		cl.GenerationDate = time.Now().Format("January 2, 2006")
	}
	return &cl, nil
}
