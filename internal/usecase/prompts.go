package usecase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"cvgenius/internal/model"
)

// Prompt builders for the Dublin/Irish job market. The prompts instruct the
// model to answer with a single JSON object; the parser rejects anything
// else.

func buildCVPrompt(form *model.CVFormData) string {
	sector := detectJobSector(form.JobDescription)
	keywords := extractKeywords(form.JobDescription)

	personal, _ := json.Marshal(form.PersonalDetails)
	experience, _ := json.Marshal(form.WorkExperience)
	education, _ := json.Marshal(form.Education)

	jobDesc := form.JobDescription
	if jobDesc == "" {
		jobDesc = "Not provided"
	}

	return fmt.Sprintf(`Expert CV writer for Dublin/Irish job market. Generate professional CV content only (no cover letter).

DUBLIN CV REQUIREMENTS:
- 1-2 pages, reverse chronological order
- Quantifiable achievements with specific metrics
- Irish phone format (+353)
- ATS-friendly formatting, no photos/graphics
- Professional summary, work experience, education, skills

FORM DATA:
Personal: %s
Experience: %s
Education: %s
Skills: %s
Job Description: %s

OPTIMIZATION:
Sector: %s
Keywords: Technical: %s, Soft: %s

TASKS:
1. Professional summary (3-4 sentences)
2. Work experience with quantifiable metrics
3. Organized skills by category
4. Extract company name and job title from job description

Output ONLY valid JSON:
{
    "personal_details": {"full_name": "string", "email": "string", "phone": "string", "linkedin_url": "string", "location": "string"},
    "professional_summary": "string",
    "work_experience": [{"job_title": "string", "company": "string", "start_date": "string", "end_date": "string", "is_current": false, "location": "string", "achievements": ["bullet 1", "bullet 2", "bullet 3"]}],
    "education": [{"degree": "string", "institution": "string", "start_date": "string", "end_date": "string", "grade": "string", "location": "string"}],
    "skills": {"technical": ["skill1"], "soft": ["skill1"], "languages": ["language1"]},
    "company_name": "string",
    "job_title": "string"
}`,
		personal, experience, education, form.Skills, jobDesc,
		strings.ToUpper(sector),
		strings.Join(top(keywords.Technical, 5), ", "),
		strings.Join(top(keywords.Soft, 5), ", "))
}

func buildCoverLetterPrompt(cv *model.GeneratedCV, jobDescription, companyName string) string {
	sector := detectJobSector(jobDescription)
	if companyName == "" {
		companyName = cv.CompanyName
	}

	experience, _ := json.Marshal(cv.WorkExperience)
	skills, _ := json.Marshal(cv.Skills)

	return fmt.Sprintf(`Expert Dublin cover letter writer. Generate professional cover letter using CV context.

CV CONTEXT:
Name: %s
Summary: %s
Experience: %s
Skills: %s

JOB CONTEXT:
Description: %s
Company: %s
Position: %s

COVER LETTER STRUCTURE (3-4 paragraphs):
1. OPENING: Outline what you offer that's directly relevant to the role. State the position and why you applied.
2. MIDDLE: Detail how your skills, experience and education make you ideal for the specific requirements.
3. FINAL: Thank reader for consideration and state you welcome interview opportunity.

WRITING STYLE REQUIREMENTS:
- Vary sentence openings; never start a sentence with "For", and avoid repetitive "I am", "My", "I have" openings
- Use active voice, strong action verbs and specific metrics
- Balance professionalism with directness (Irish business culture)
- Do NOT include any salutation (Dear...) or closing phrase (Sincerely...) - the template handles these
- Return paragraphs in clean HTML format: <p>paragraph content</p>
- Every sentence must be complete; no fragments or placeholder text in square brackets

SECTOR: %s

Output ONLY valid JSON:
{
    "cover_letter_body": "string with <p> paragraphs",
    "generation_date": "%s"
}`,
		cv.PersonalDetails.FullName, cv.ProfessionalSummary, experience, skills,
		jobDescription, companyName, cv.JobTitle,
		strings.ToUpper(sector),
		time.Now().Format("January 2, 2006"))
}

func buildUpdatePrompt(cvText, jobDescription string) string {
	sector := detectJobSector(jobDescription)
	keywords := extractKeywords(jobDescription)

	return fmt.Sprintf(`Expert CV optimizer for Dublin job market. Update CV to match job requirements.

CURRENT CV:
%s

JOB DESCRIPTION:
%s

REQUIREMENTS:
- Use EXACT personal details from CV (especially email)
- Add quantifiable metrics to achievements
- Include job keywords naturally
- Dublin format compliance
- Professional summary optimization

SECTOR: %s
KEYWORDS: %s, %s

TASKS:
1. Extract exact personal details
2. Create targeted summary
3. Optimize experience with metrics
4. Organize skills
5. Extract company name and job title from job description

Output ONLY valid JSON:
{
    "personal_details": {"full_name": "string", "email": "string", "phone": "string", "linkedin_url": "string", "location": "string"},
    "professional_summary": "string",
    "work_experience": [{"job_title": "string", "company": "string", "start_date": "string", "end_date": "string", "is_current": false, "location": "string", "achievements": ["bullet 1", "bullet 2", "bullet 3"]}],
    "education": [{"degree": "string", "institution": "string", "start_date": "string", "end_date": "string", "grade": "string", "location": "string"}],
    "skills": {"technical": ["skill1"], "soft": ["skill1"], "languages": ["language1"]},
    "company_name": "string",
    "job_title": "string"
}`,
		cvText, jobDescription,
		strings.ToUpper(sector),
		strings.Join(top(keywords.Technical, 3), ", "),
		strings.Join(top(keywords.Soft, 3), ", "))
}

var sectorKeywords = map[string][]string{
	"technology": {
		"software", "developer", "programming", "javascript", "python", "java", "react",
		"kubernetes", "docker", "aws", "azure", "devops", "frontend", "backend",
		"machine learning", "data science", "cloud", "api", "microservices",
		"agile", "scrum", "fintech", "silicon docks",
	},
	"finance": {
		"finance", "banking", "investment", "trading", "risk management", "compliance",
		"ifsc", "financial services", "funds", "asset management", "regulatory",
		"mifid", "aml", "kyc", "accounting", "audit", "treasury", "capital markets",
	},
	"healthcare": {
		"healthcare", "medical", "nurse", "doctor", "clinical", "patient", "hospital",
		"hse", "pharmaceutical", "medical device", "clinical research", "nursing",
		"pharmacy", "physiotherapy", "mental health", "public health",
	},
	"sales_marketing": {
		"sales", "marketing", "business development", "account management", "crm",
		"salesforce", "hubspot", "lead generation", "digital marketing", "seo",
		"brand management", "customer success", "revenue", "b2b", "b2c",
	},
}

// detectJobSector picks the sector with the most keyword hits, requiring at
// least two before leaving "general".
func detectJobSector(jobDescription string) string {
	if jobDescription == "" {
		return "general"
	}
	lower := strings.ToLower(jobDescription)

	best, bestCount := "general", 0
	sectors := make([]string, 0, len(sectorKeywords))
	for s := range sectorKeywords {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)
	for _, sector := range sectors {
		count := 0
		for _, kw := range sectorKeywords[sector] {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = sector, count
		}
	}
	if bestCount < 2 {
		return "general"
	}
	return best
}

var (
	technicalSkillRe = regexp.MustCompile(`\b(python|java|javascript|typescript|react|angular|vue|nodejs|php|ruby|go|rust|swift|kotlin|sql|html|css|docker|kubernetes|aws|azure|gcp|jenkins|git|jira|tableau|salesforce|mysql|postgresql|mongodb|redis|elasticsearch|agile|scrum|kanban|devops|ci/cd|tdd)\b`)
	softSkillRe      = regexp.MustCompile(`\b(leadership|communication|problem[- ]solving|analytical|creative|adaptable|collaborative|time management|project management|stakeholder management|presentation|negotiation|mentoring|coaching)\b`)
)

type jobKeywords struct {
	Technical []string
	Soft      []string
}

// extractKeywords pulls ATS-relevant terms from the job description, ordered
// by frequency.
func extractKeywords(jobDescription string) jobKeywords {
	lower := strings.ToLower(jobDescription)
	return jobKeywords{
		Technical: rankMatches(technicalSkillRe.FindAllString(lower, -1)),
		Soft:      rankMatches(softSkillRe.FindAllString(lower, -1)),
	}
}

func rankMatches(matches []string) []string {
	counts := map[string]int{}
	for _, m := range matches {
		counts[m]++
	}
	unique := make([]string, 0, len(counts))
	for m := range counts {
		unique = append(unique, m)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] == counts[unique[j]] {
			return unique[i] < unique[j]
		}
		return counts[unique[i]] > counts[unique[j]]
	})
	return unique
}

func top(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
