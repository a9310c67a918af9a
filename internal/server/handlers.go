package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/gilbot/internal/session"
	"github.com/abhisek/gilbot/internal/tutor"
)

// Tutor is the question answering service behind the API.
type Tutor interface {
	Ask(ctx context.Context, in tutor.AskInput) (*tutor.Reply, error)
	Alternates(ctx context.Context, sessionID string) tutor.Alternates
}

// AskResponse wraps a reply the way chat clients expect it.
type AskResponse struct {
	Response *tutor.Reply `json:"response"`
}

// askForm is the JSON form of an ask request. Browser clients post
// multipart forms with the same field names.
type askForm struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

var errImageTooLarge = errors.New("image too large")

type handler struct {
	tutor         Tutor
	maxImageBytes int64
}

// HealthCheck answers liveness probes.
func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Ask answers a question posted as a multipart form (optional "image"
// file), an urlencoded form or JSON.
func (h *handler) Ask(c *gin.Context) {
	// Form overhead on top of the image itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes+1<<20)

	form, image, err := h.readAsk(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.Is(err, errImageTooLarge) || errors.As(err, &tooLarge) {
			RespondError(c, http.StatusRequestEntityTooLarge, "image_too_large", err)
			return
		}
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	reply, err := h.tutor.Ask(c.Request.Context(), tutor.AskInput{
		Question:  form.Question,
		SessionID: form.SessionID,
		Image:     image,
	})
	if err != nil {
		RespondError(c, http.StatusServiceUnavailable, "request_canceled", err)
		return
	}
	RespondOK(c, AskResponse{Response: reply})
}

// Alternates returns extra resources for the session's current topic.
func (h *handler) Alternates(c *gin.Context) {
	var form askForm
	if isJSON(c) {
		if err := c.ShouldBindJSON(&form); err != nil && !errors.Is(err, io.EOF) {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	} else {
		form.SessionID = c.PostForm("session_id")
	}
	if form.SessionID == "" {
		form.SessionID = c.Query("session_id")
	}
	RespondOK(c, h.tutor.Alternates(c.Request.Context(), session.NormalizeID(form.SessionID)))
}

func (h *handler) readAsk(c *gin.Context) (askForm, []byte, error) {
	var form askForm
	if isJSON(c) {
		if err := c.ShouldBindJSON(&form); err != nil && !errors.Is(err, io.EOF) {
			return form, nil, err
		}
		return form, nil, nil
	}

	if err := parseForm(c.Request); err != nil {
		return form, nil, err
	}
	form.Question = c.Request.PostFormValue("question")
	form.SessionID = c.Request.PostFormValue("session_id")

	image, err := h.readImage(c)
	return form, image, err
}

func (h *handler) readImage(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if fh.Size > h.maxImageBytes {
		return nil, fmt.Errorf("%w: %d bytes", errImageTooLarge, fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, h.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(raw)) > h.maxImageBytes {
		return nil, errImageTooLarge
	}
	return raw, nil
}

// parseForm accepts multipart and urlencoded bodies, and bodies without a
// form at all.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	return err
}

func isJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}
