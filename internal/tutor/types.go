package tutor

import (
	"errors"
	"strings"
)

// Fixed texts returned to the student.
const (
	MissingInputMessage = "Please enter a question or upload an image."
	ApologyMessage      = "Sorry, I couldn't come up with a response right now. Please try again."
	VideoCourtesyLine   = "Let me show you a video."
)

// ErrMissingInput is reported by AskInput.Validate for a request with
// neither a question nor an image.
var ErrMissingInput = errors.New("question or image required")

// AskInput is one student request.
type AskInput struct {
	Question  string
	SessionID string
	// Image is an optional screenshot of the problem.
	Image []byte
}

// Validate reports ErrMissingInput when there is nothing to answer.
func (in AskInput) Validate() error {
	if strings.TrimSpace(in.Question) == "" && len(in.Image) == 0 {
		return ErrMissingInput
	}
	return nil
}

// Reply is the payload returned for an answered question. Optional
// resources are omitted from JSON when not attached.
type Reply struct {
	Text string `json:"gpt"`

	LessonPrimary    string   `json:"lesson_primary,omitempty"`
	LessonAlternates []string `json:"lesson_alternates,omitempty"`

	DiagramID         string       `json:"geogebra_id,omitempty"`
	DiagramURL        string       `json:"geogebra_url,omitempty"`
	DiagramFallback   string       `json:"geogebra_fallback,omitempty"`
	DiagramAlternates []DiagramRef `json:"geogebra_alternates,omitempty"`

	Video *VideoSuggestion `json:"khan_video,omitempty"`

	// Keyword is the topic the resources were resolved for.
	Keyword string `json:"-"`
}

// DiagramRef identifies an interactive diagram.
type DiagramRef struct {
	MaterialID string `json:"material_id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
}

// VideoRef identifies an instructional video.
type VideoRef struct {
	Title   string `json:"title"`
	VideoID string `json:"video_id"`
	URL     string `json:"url"`
}

// VideoSuggestion is the primary video plus its alternates.
type VideoSuggestion struct {
	Primary    VideoRef   `json:"primary"`
	Alternates []VideoRef `json:"alternates"`
}

// Alternates are the extra resources for a session's current topic.
type Alternates struct {
	Videos   []VideoRef   `json:"video_alternates"`
	Diagrams []DiagramRef `json:"geogebra_alternates"`
}
