package tutor

import (
	"fmt"
	"strings"
)

// reviewWords in a question ask for the lesson reference regardless of how
// far the conversation has gone.
var reviewWords = []string{"lesson", "notes", "review", "topic"}

// SuggestLesson decides whether the lesson reference is surfaced this turn.
// priorTurns is the number of turns recorded before the current question.
func SuggestLesson(priorTurns int, question string) bool {
	if priorTurns <= 1 {
		return true
	}
	q := strings.ToLower(question)
	for _, w := range reviewWords {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

// LessonLine is the sentence the tutor must reproduce verbatim.
func LessonLine(title string) string {
	if title == "" {
		return ""
	}
	return "Check your notes for: " + title
}

// SystemPrompt builds the tutor persona. lessonTitle is empty when no lesson
// is to be mentioned this turn.
func SystemPrompt(lessonTitle string) string {
	var b strings.Builder

	b.WriteString(`You are a helpful and kind geometry tutor named Mr. Gilbot. You specialize in geometry, even though you know lots about math and science at all levels.

Your job is to guide students with clear, step-by-step thinking, not to give full answers.

Follow this order:
1. Start with a guiding question that prompts the student to tell you more about their question, so you understand what they need.
`)
	if line := LessonLine(lessonTitle); line != "" {
		fmt.Fprintf(&b, "2. Say: '%s'. Use this exact wording and title. Do not reword or invent a title.\n", line)
	} else {
		b.WriteString("2. No lesson title is provided. Do not mention any lesson title.\n")
	}
	b.WriteString(`3. Explain the math with nudges and reasoning. Avoid giving full answers.
4. If a visual would help, say "Let me show you an interactive activity." Do not describe it; the system will handle that.

Format rules:
- Use LaTeX in Markdown ($a^2 + b^2 = c^2$ or $$...$$)
- Do not make up lesson titles
- Refer to activities and videos only by name. Never write a URL or link; the system attaches resources itself.
`)
	return b.String()
}
