package llm

import (
	"strings"
	"testing"
)

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(&InstituteProfile{
		Name:         "Bright Minds Academy",
		City:         "Pune",
		Persona:      "warm and encouraging",
		ContactPhone: "+91 20 5555 0101",
		Courses: []CourseInfo{
			{Name: "JEE Foundation", DurationWeeks: 40, Fee: 45000},
			{Name: "Spoken English", Description: "weekend batch"},
		},
	})

	for _, want := range []string{
		"Bright Minds Academy, Pune",
		"warm and encouraging",
		"JEE Foundation (40 weeks)",
		"45,000",
		"Spoken English | weekend batch",
		"+91 20 5555 0101",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n%s", want, prompt)
		}
	}
}

func TestBuildSystemPromptNoCourses(t *testing.T) {
	prompt := BuildSystemPrompt(&InstituteProfile{Name: "Tiny Tutors"})
	if strings.Contains(prompt, "=== COURSES ===") {
		t.Error("empty course list rendered a COURSES section")
	}
}
