package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPlaceholders(t *testing.T) {
	got := CleanPlaceholders("I saw the role at [Company Name] on [Platform where you saw the advert] yesterday.")
	assert.Equal(t, "I saw the role at on yesterday.", got)
}

func TestRemoveCliches(t *testing.T) {
	got := RemoveCliches("I am a team player. With eight years in payments infrastructure, I led the Dublin platform team.")
	assert.NotContains(t, got, "team player")
	assert.Contains(t, got, "payments infrastructure")
}

func TestFixGrammarForOpeners(t *testing.T) {
	got := FixGrammar("<p>For the Machine Vision Engineer position, my background fits well.</p>")
	assert.Contains(t, got, "Regarding the Machine Vision Engineer position")
	assert.NotContains(t, got, "<p>For the")
}

func TestFixGrammarLeadingPunctuation(t *testing.T) {
	got := FixGrammar("<p>. This role suits my experience.</p>")
	assert.Equal(t, "<p>This role suits my experience.</p>", got)
}

func TestCleanCoverLetter(t *testing.T) {
	body := "Dear Sir or Madam,\n<p>For this exciting role, I am writing to apply. Having built Go services at scale, the opening at [Company Name] matches my background.</p>\nKind regards,"
	got := CleanCoverLetter(body)

	assert.NotContains(t, got, "Dear")
	assert.NotContains(t, got, "Kind regards")
	assert.NotContains(t, got, "[")
	assert.NotContains(t, got, "I am writing to apply")
	assert.Contains(t, got, "Having built Go services at scale")
}

func TestCleanCoverLetterPreservesGoodText(t *testing.T) {
	body := "<p>Having delivered three production ML systems, the Platform Engineer opening aligns with my background.</p>\n\n<p>Through my role at AIB, I cut deployment times by 60%.</p>"
	assert.Equal(t, body, CleanCoverLetter(body))
}
