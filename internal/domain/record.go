package domain

import "time"

// GenerationRecord is the audit row persisted after a pipeline completes.
// Persistence is best effort; the task store remains the source of truth for
// live task state.
type GenerationRecord struct {
	TaskID              string     `json:"task_id"`
	Kind                string     `json:"kind"`
	Status              TaskStatus `json:"status"`
	CompanyName         string     `json:"company_name"`
	JobTitle            string     `json:"job_title"`
	FilenameCV          string     `json:"filename_cv"`
	FilenameCoverLetter string     `json:"filename_cover_letter"`
	CompletedAt         time.Time  `json:"completed_at"`
}
