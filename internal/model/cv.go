package model

import "time"

// Form input and generated-content types matching cvform.schema.json. The
// generation pipeline only ever passes these around; raw model output is
// parsed into them at the boundary and rejected there when malformed.

type PersonalDetails struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	Location    string `json:"location,omitempty"`
}

type WorkExperience struct {
	JobTitle     string   `json:"job_title"`
	Company      string   `json:"company"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date,omitempty"`
	IsCurrent    bool     `json:"is_current"`
	Description  string   `json:"description,omitempty"`
	Location     string   `json:"location,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	Grade       string `json:"grade,omitempty"`
	Location    string `json:"location,omitempty"`
}

// CVFormData is the Creator-flow submission payload.
type CVFormData struct {
	PersonalDetails PersonalDetails  `json:"personal_details"`
	WorkExperience  []WorkExperience `json:"work_experience"`
	Education       []Education      `json:"education"`
	Skills          string           `json:"skills"`
	JobDescription  string           `json:"job_description,omitempty"`
	Theme           string           `json:"theme,omitempty"`
}

type SkillSet struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
	Languages []string `json:"languages"`
}

// GeneratedCV is the structured output of the primary generation stage.
type GeneratedCV struct {
	PersonalDetails     PersonalDetails  `json:"personal_details"`
	ProfessionalSummary string           `json:"professional_summary"`
	WorkExperience      []WorkExperience `json:"work_experience"`
	Education           []Education      `json:"education"`
	Skills              SkillSet         `json:"skills"`
	CompanyName         string           `json:"company_name"`
	JobTitle            string           `json:"job_title"`
}

// CoverLetter is the structured output of the secondary generation stage.
type CoverLetter struct {
	Body           string `json:"cover_letter_body"`
	GenerationDate string `json:"generation_date"`
}

// PDFResponse bundles both rendered documents with the structured content
// they were rendered from.
type PDFResponse struct {
	CVPDFBase64          string       `json:"cv_pdf_base64"`
	CoverLetterPDFBase64 string       `json:"cover_letter_pdf_base64"`
	FilenameCV           string       `json:"filename_cv"`
	FilenameCoverLetter  string       `json:"filename_cover_letter"`
	GenerationTimestamp  time.Time    `json:"generation_timestamp"`
	CVData               *GeneratedCV `json:"cv_data,omitempty"`
	CoverLetter          *CoverLetter `json:"cover_letter,omitempty"`
	Theme                string       `json:"theme,omitempty"`
}
