package usecase

import (
	"regexp"
	"strings"

	"cvgenius/internal/log"
)

// Regex cleanup of generated cover-letter text. The model is told not to
// produce placeholders, salutations or clichés, but it still does; these
// heuristics are the backstop.

var (
	placeholderRe = regexp.MustCompile(`\[[^\]]*\]`)

	salutationRes = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^Dear\s+[^,\n]*,?\s*`),
		regexp.MustCompile(`(?im)^To\s+Whom\s+It\s+May\s+Concern,?\s*`),
		regexp.MustCompile(`(?im)^Hello\s+[^,\n]*,?\s*`),
	}

	closingRes = []*regexp.Regexp{
		regexp.MustCompile(`(?im)\s*Sincerely,?\s*$`),
		regexp.MustCompile(`(?im)\s*Best\s+regards,?\s*$`),
		regexp.MustCompile(`(?im)\s*Kind\s+regards,?\s*$`),
		regexp.MustCompile(`(?im)\s*Yours\s+faithfully,?\s*$`),
		regexp.MustCompile(`(?im)\s*Yours\s+sincerely,?\s*$`),
	}

	clicheRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bi\s+am\s+a\s+team\s+player\b`),
		regexp.MustCompile(`(?i)\bplays\s+well\s+with\s+others\b`),
		regexp.MustCompile(`(?i)\bi\s+am\s+hardworking\b`),
		regexp.MustCompile(`(?i)\bgood\s+communication\s+skills\b`),
		regexp.MustCompile(`(?i)\bpay\s+attention\s+to\s+detail\b`),
		regexp.MustCompile(`(?i)\bvast\s+experience\b`),
		regexp.MustCompile(`(?i)\bpassionate\s+about\s+the\s+role\b`),
		regexp.MustCompile(`(?i)\bpassionate\s+about\s+the\s+position\b`),
		regexp.MustCompile(`(?i)\bi\s+would\s+love\s+to\b`),
		regexp.MustCompile(`(?i)\bi\s+would\s+be\s+thrilled\b`),
		regexp.MustCompile(`(?i)\bi\s+would\s+be\s+a\s+great\s+fit\b`),
		regexp.MustCompile(`(?i)\bperfect\s+fit\s+for\s+this\s+role\b`),
		regexp.MustCompile(`(?i)\bideal\s+candidate\b`),
		regexp.MustCompile(`(?i)\bi\s+am\s+writing\s+to\s+apply\b`),
		regexp.MustCompile(`(?i)\bi\s+am\s+writing\s+to\s+express\s+my\s+interest\b`),
		regexp.MustCompile(`(?i)\bi\s+saw\s+your\s+job\s+posting\b`),
		regexp.MustCompile(`(?i)\bi\s+hope\s+to\s+hear\s+from\s+you\s+soon\b`),
		regexp.MustCompile(`(?i)\bplease\s+feel\s+free\s+to\s+contact\s+me\b`),
		regexp.MustCompile(`(?i)\bthank\s+you\s+for\s+your\s+time\s+and\s+consideration\b`),
	}

	// "For the X position..." openers read as unprofessional and repetitive
	forOpenerPositionRe = regexp.MustCompile(`(?i)(<p>|^|\. )for the ([^.<]*?position)`)
	forOpenerRoleRe     = regexp.MustCompile(`(?i)(<p>|^|\. )for this ([^.<]*?role)`)

	punctAfterParaRe = regexp.MustCompile(`<p>\s*[.,;]\s*`)
	multiSpaceRe     = regexp.MustCompile(`[^\S\n]+`)
	multiNewlineRe   = regexp.MustCompile(`\n\s*\n\s*\n+`)
	multiPeriodRe    = regexp.MustCompile(`[.]{2,}`)
	multiCommaRe     = regexp.MustCompile(`[,]{2,}`)
)

// CleanPlaceholders removes bracketed placeholder text the model failed to
// fill in, e.g. "[Company Name]".
func CleanPlaceholders(text string) string {
	cleaned := placeholderRe.ReplaceAllString(text, "")
	cleaned = multiSpaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// RemoveCliches strips clichéd cover-letter phrases.
func RemoveCliches(text string) string {
	cleaned := text
	found := 0
	for _, re := range clicheRes {
		if re.MatchString(cleaned) {
			found++
			cleaned = re.ReplaceAllString(cleaned, "")
		}
	}
	if found > 0 {
		log.GetLogger().Debugf("removed %d clichéd phrases from cover letter", found)
	}
	cleaned = multiSpaceRe.ReplaceAllString(cleaned, " ")
	cleaned = multiPeriodRe.ReplaceAllString(cleaned, ".")
	cleaned = multiCommaRe.ReplaceAllString(cleaned, ",")
	return strings.TrimSpace(cleaned)
}

// FixGrammar repairs artifacts the other passes leave behind: paragraphs
// starting with punctuation and weak "For the ... position" openers.
func FixGrammar(text string) string {
	cleaned := punctAfterParaRe.ReplaceAllString(text, "<p>")
	cleaned = forOpenerPositionRe.ReplaceAllString(cleaned, "${1}Regarding the ${2}")
	cleaned = forOpenerRoleRe.ReplaceAllString(cleaned, "${1}Concerning this ${2}")
	return cleaned
}

// CleanCoverLetter runs the full cleanup chain on a generated letter body.
func CleanCoverLetter(body string) string {
	cleaned := body
	for _, re := range salutationRes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	for _, re := range closingRes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = CleanPlaceholders(cleaned)
	cleaned = RemoveCliches(cleaned)
	cleaned = FixGrammar(cleaned)
	cleaned = multiNewlineRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
