package main

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"cvgenius/internal/model"
)

// Renders each template with sample data into preview_*.html so the layout
// can be checked in a browser without running the full pipeline.

func sampleCV() *model.GeneratedCV {
	return &model.GeneratedCV{
		PersonalDetails: model.PersonalDetails{
			FullName: "Aoife Byrne",
			Email:    "aoife.byrne@example.ie",
			Phone:    "+353 87 123 4567",
			Location: "Dublin 8, Ireland",
		},
		ProfessionalSummary: "Backend engineer with eight years of experience building payment platforms for Irish and UK fintech companies.",
		WorkExperience: []model.WorkExperience{
			{
				JobTitle: "Senior Software Engineer", Company: "AIB", StartDate: "2019", IsCurrent: true, Location: "Dublin",
				Achievements: []string{"Cut settlement latency by 40%", "Led the migration of 12 services to Kubernetes"},
			},
		},
		Education: []model.Education{
			{Degree: "BSc Computer Science", Institution: "Trinity College Dublin", StartDate: "2012", EndDate: "2016", Grade: "First Class Honours"},
		},
		Skills: model.SkillSet{
			Technical: []string{"Go", "PostgreSQL", "Kubernetes"},
			Soft:      []string{"Communication", "Mentoring"},
			Languages: []string{"English", "Irish"},
		},
		CompanyName: "Stripe",
		JobTitle:    "Staff Engineer",
	}
}

func main() {
	letter := &model.CoverLetter{
		Body:           "<p>Having led backend delivery at AIB for five years, the Staff Engineer opening at Stripe is a natural next step.</p><p>Thank you for your consideration; I would welcome the opportunity to interview.</p>",
		GenerationDate: "1 September 2026",
	}
	data := map[string]interface{}{
		"CV":         sampleCV(),
		"Letter":     letter,
		"LetterBody": template.HTML(letter.Body),
	}

	for _, name := range []string{"cv.html", "letter_classic.html", "letter_modern.html", "letter_academic.html"} {
		tpl, err := template.ParseFiles(filepath.Join("templates", name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse %s: %v\n", name, err)
			os.Exit(2)
		}
		out, err := os.Create("preview_" + name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create preview: %v\n", err)
			os.Exit(2)
		}
		if err := tpl.Execute(out, data); err != nil {
			fmt.Fprintf(os.Stderr, "render %s: %v\n", name, err)
			os.Exit(2)
		}
		out.Close()
		fmt.Printf("wrote preview_%s\n", name)
	}
}
