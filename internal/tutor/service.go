// Package tutor answers student questions: it resolves catalog resources for
// the question's topic, asks the model for a guided reply and composes both
// into one payload.
package tutor

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/gilbot/internal/catalog"
	"github.com/abhisek/gilbot/internal/keyword"
	"github.com/abhisek/gilbot/internal/llm"
	"github.com/abhisek/gilbot/internal/logger"
	"github.com/abhisek/gilbot/internal/ocr"
	"github.com/abhisek/gilbot/internal/resolver"
	"github.com/abhisek/gilbot/internal/session"
	"github.com/abhisek/gilbot/internal/store"
	"github.com/abhisek/gilbot/internal/topic"
)

const tracerName = "github.com/abhisek/gilbot/internal/tutor"

// LookupRecorder persists keyword lookup outcomes. store.EventRepo
// satisfies it.
type LookupRecorder interface {
	AppendKeywordLookup(ctx context.Context, data store.KeywordLookupEventData) error
}

// Service runs the question answering pipeline. It is safe for concurrent
// use.
type Service struct {
	provider  llm.Provider
	resolver  *resolver.Resolver
	extractor *keyword.Extractor
	topics    *topic.Memory
	sessions  *session.Store
	ocr       ocr.Client
	lookups   LookupRecorder
	log       *logger.Logger
	tracer    trace.Tracer
	cfg       Config
}

// Deps are the collaborators of a Service. Provider and Catalog are
// required; the rest default to in-memory or no-op implementations.
type Deps struct {
	Provider llm.Provider
	Catalog  *catalog.Store
	Sessions *session.Store
	Topics   *topic.Memory
	OCR      ocr.Client
	Lookups  LookupRecorder
	Log      *logger.Logger
}

// NewService creates a tutor service.
func NewService(deps Deps, cfg Config) *Service {
	if deps.Sessions == nil {
		deps.Sessions = session.NewStore()
	}
	if deps.Topics == nil {
		deps.Topics = topic.NewMemory()
	}
	if deps.OCR == nil {
		deps.OCR = ocr.Noop{}
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.NewStore()
	}
	if cfg.ContextTurns <= 0 {
		cfg.ContextTurns = session.ContextWindow
	}
	return &Service{
		provider:  deps.Provider,
		resolver:  resolver.New(deps.Catalog),
		extractor: keyword.New(deps.Provider, deps.Topics, deps.Log),
		topics:    deps.Topics,
		sessions:  deps.Sessions,
		ocr:       deps.OCR,
		lookups:   deps.Lookups,
		log:       deps.Log,
		tracer:    otel.Tracer(tracerName),
		cfg:       cfg,
	}
}

// Ask answers one question. Input without a question or image yields the
// prompt-for-input message and records nothing. Completion failures are
// answered with an apology; the only error returned is the context's.
func (s *Service) Ask(ctx context.Context, in AskInput) (*Reply, error) {
	if in.Validate() != nil {
		return &Reply{Text: MissingInputMessage}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sessionID := session.NormalizeID(in.SessionID)
	question := strings.TrimSpace(in.Question)

	ctx, span := s.tracer.Start(ctx, "tutor.Ask", trace.WithAttributes(
		attribute.Bool("gilbot.has_image", len(in.Image) > 0),
	))
	defer span.End()

	s.sessions.Touch(sessionID)
	prior := s.sessions.Len(sessionID)
	history := s.sessions.Window(sessionID, s.cfg.ContextTurns)

	var ocrText string
	if len(in.Image) > 0 {
		ocrText = strings.TrimSpace(s.ocr.ExtractText(ctx, in.Image))
	}
	full := question
	if ocrText != "" {
		full = question + "\n\nExtracted from screenshot:\n" + ocrText
	}

	extracted := s.extractor.ExtractDetailed(ctx, full, keyword.DefaultPurpose, sessionID, ocrText)
	kw := extracted.Keyword

	lessons := s.resolver.Lessons(kw, 0)
	diagrams := s.resolver.Diagrams(kw, 0)
	videos := s.resolver.Videos(kw, 0)
	s.recordLookups(ctx, sessionID, lessons, diagrams, videos)

	suggest := SuggestLesson(prior, question)
	var lessonTitle string
	if suggest && lessons.Found() {
		lessonTitle = lessons.Primary.Title
	}

	span.SetAttributes(
		attribute.String("gilbot.keyword", kw),
		attribute.String("gilbot.extraction", string(extracted.Outcome)),
		attribute.Bool("gilbot.suggest_lesson", suggest),
		attribute.Int("gilbot.prior_turns", prior),
	)
	s.log.Debug("resources resolved",
		"session_id", sessionID,
		"keyword", kw,
		"lesson", lessons.Outcome(),
		"diagram", diagrams.Outcome(),
		"video", videos.Outcome(),
		"computation_link", resolver.ComputationLink(kw),
	)

	text, err := s.generate(ctx, sessionID, lessonTitle, history, full)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reply generation failed")
		s.log.Error("reply generation failed", "session_id", sessionID, "error", err)
		text = ApologyMessage
	}

	reply := Compose(text, question, suggest, lessons, diagrams, videos)
	reply.Keyword = kw

	s.sessions.Append(sessionID, session.Turn{
		Question: question,
		Answer:   reply.Text,
		Payload:  reply,
	})
	return reply, nil
}

func (s *Service) generate(ctx context.Context, sessionID, lessonTitle string, history []session.Turn, question string) (string, error) {
	msgs := make([]llm.Message, 0, 2*len(history)+1)
	for _, t := range history {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: t.Question},
			llm.Message{Role: llm.RoleAssistant, Content: t.Answer},
		)
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: question})

	ctx = llm.WithSession(llm.WithPurpose(ctx, llm.PurposeReply), sessionID)
	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      SystemPrompt(lessonTitle),
		Messages:    msgs,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	return Sanitize(resp.Text()), nil
}

func (s *Service) recordLookups(ctx context.Context, sessionID string, results ...resolver.Resolved) {
	if s.lookups == nil {
		return
	}
	for _, r := range results {
		data := store.KeywordLookupEventData{
			SessionID:  sessionID,
			Keyword:    r.Keyword,
			Kind:       string(r.Kind),
			Outcome:    r.Outcome(),
			Match:      string(r.Match),
			Alternates: len(r.Alternates),
		}
		if r.Primary != nil {
			data.PrimaryID = r.Primary.ID
		}
		if err := s.lookups.AppendKeywordLookup(ctx, data); err != nil {
			s.log.Warn("failed to record keyword lookup", "kind", r.Kind, "error", err)
		}
	}
}

// Alternates returns the alternate videos and diagrams for the session's
// remembered topic. Both lists are empty when the session has none.
func (s *Service) Alternates(ctx context.Context, sessionID string) Alternates {
	_, span := s.tracer.Start(ctx, "tutor.Alternates")
	defer span.End()

	kw, _ := s.topics.Get(session.NormalizeID(sessionID))
	span.SetAttributes(attribute.String("gilbot.keyword", kw))

	return Alternates{
		Videos:   videoRefs(s.resolver.Videos(kw, 0).Alternates),
		Diagrams: diagramRefs(s.resolver.Diagrams(kw, 0).Alternates),
	}
}

// Compose merges a sanitized reply with resolved resources.
//
// The lesson is attached only when suggestLesson holds. A diagram is
// attached when the reply mentions an interactive activity or a diagram,
// falling back to the generic landing page when none matched. A video is
// attached when one matched and either the question asks for a video or the
// reply mentions one; the reply then gets a courtesy line if it does not
// already mention a video.
func Compose(text, question string, suggestLesson bool, lesson, diagram, video resolver.Resolved) *Reply {
	reply := &Reply{}
	lowerText := strings.ToLower(text)
	lowerQuestion := strings.ToLower(question)

	if suggestLesson && lesson.Found() {
		reply.LessonPrimary = lesson.Primary.Title
		for _, e := range lesson.Alternates {
			reply.LessonAlternates = append(reply.LessonAlternates, e.Title)
		}
	}

	if strings.Contains(lowerText, "interactive activity") || strings.Contains(lowerText, "diagram") {
		if diagram.Found() {
			reply.DiagramID = diagram.Primary.ID
			reply.DiagramURL = diagram.Primary.URL
			reply.DiagramAlternates = diagramRefs(diagram.Alternates)
		} else {
			reply.DiagramFallback = diagram.FallbackURL
			if reply.DiagramFallback == "" {
				reply.DiagramFallback = resolver.DiagramFallbackURL
			}
		}
	}

	wantsVideo := strings.Contains(lowerQuestion, "video") ||
		strings.Contains(lowerQuestion, "khan") ||
		strings.Contains(lowerText, "video")
	if video.Found() && wantsVideo {
		reply.Video = &VideoSuggestion{
			Primary:    videoRef(*video.Primary),
			Alternates: videoRefs(video.Alternates),
		}
		if !strings.Contains(lowerText, "video") {
			text += "\n\n" + VideoCourtesyLine
		}
	}

	reply.Text = strings.TrimSpace(text)
	return reply
}

func videoRef(e catalog.Entry) VideoRef {
	return VideoRef{Title: e.Title, VideoID: e.ID, URL: e.URL}
}

func videoRefs(entries []catalog.Entry) []VideoRef {
	out := make([]VideoRef, 0, len(entries))
	for _, e := range entries {
		out = append(out, videoRef(e))
	}
	return out
}

func diagramRefs(entries []catalog.Entry) []DiagramRef {
	out := make([]DiagramRef, 0, len(entries))
	for _, e := range entries {
		out = append(out, DiagramRef{MaterialID: e.ID, URL: e.URL, Title: e.Title})
	}
	return out
}
