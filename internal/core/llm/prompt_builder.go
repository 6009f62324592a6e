package llm

import (
	"fmt"
	"strings"

	"github.com/adwelink/ams-api/internal/shared/utils"
)

// InstituteProfile is what the sales agent knows about an institute
type InstituteProfile struct {
	Name         string
	City         string
	Persona      string
	ContactPhone string
	Courses      []CourseInfo
}

type CourseInfo struct {
	Name          string
	Description   string
	DurationWeeks int
	Fee           float64
}

// BuildSystemPrompt renders the admissions-counsellor prompt for an institute
func BuildSystemPrompt(p *InstituteProfile) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are the admissions assistant for %s", p.Name))
	if p.City != "" {
		sb.WriteString(fmt.Sprintf(", %s", p.City))
	}
	sb.WriteString(". You chat with prospective students and parents on WhatsApp.\n")

	if p.Persona != "" {
		sb.WriteString(fmt.Sprintf("Persona and tone: %s\n", p.Persona))
	}
	sb.WriteString("\n")

	if len(p.Courses) > 0 {
		sb.WriteString("=== COURSES ===\n")
		for _, c := range p.Courses {
			sb.WriteString("- " + c.Name)
			if c.DurationWeeks > 0 {
				sb.WriteString(fmt.Sprintf(" (%d weeks)", c.DurationWeeks))
			}
			if c.Fee > 0 {
				sb.WriteString(": " + utils.FormatINR(c.Fee))
			}
			if c.Description != "" {
				sb.WriteString(" | " + c.Description)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Instructions:\n")
	sb.WriteString("- Reply in the language the student writes in. Keep replies short, this is WhatsApp.\n")
	sb.WriteString("- Only quote courses and fees listed above. If you do not know, say a counsellor will follow up.\n")
	sb.WriteString("- Ask for the student's name and the course they are interested in if you do not have them yet.\n")
	sb.WriteString("- Never promise discounts, scholarships or admission results.\n")
	if p.ContactPhone != "" {
		sb.WriteString(fmt.Sprintf("- For anything you cannot answer, share the office number %s.\n", p.ContactPhone))
	}

	return sb.String()
}
