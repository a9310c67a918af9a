package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func keywordTestSchema() *Schema {
	return &Schema{
		Name:        "test-keyword",
		Description: "A single extracted keyword",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"keyword":    map[string]any{"type": "string", "minLength": 1},
				"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"kind":       map[string]any{"type": "string", "enum": []any{"lesson", "diagram", "video"}},
			},
			"required":             []any{"keyword"},
			"additionalProperties": false,
		},
	}
}

func assertInvalid(t *testing.T, raw string) {
	t.Helper()
	_, err := validateResponse(keywordTestSchema(), json.RawMessage(raw))
	if err == nil {
		t.Fatalf("expected error for %s", raw)
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
	if string(invErr.Content) != raw {
		t.Fatalf("expected offending content to be kept, got %q", invErr.Content)
	}
}

func TestValidateResponse_Valid(t *testing.T) {
	for _, raw := range []string{
		`{"keyword":"pythagorean theorem"}`,
		`{"keyword":"triangle","confidence":0.9,"kind":"lesson"}`,
	} {
		if _, err := validateResponse(keywordTestSchema(), json.RawMessage(raw)); err != nil {
			t.Fatalf("%s: expected no error, got: %v", raw, err)
		}
	}
}

func TestValidateResponse_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing required": `{"confidence":0.5}`,
		"wrong type":       `{"keyword":42}`,
		"empty keyword":    `{"keyword":""}`,
		"enum":             `{"keyword":"angle","kind":"podcast"}`,
		"out of range":     `{"keyword":"angle","confidence":2}`,
		"extra property":   `{"keyword":"angle","note":"x"}`,
		"malformed":        `{not json}`,
		"plain text":       `triangle`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			assertInvalid(t, raw)
		})
	}
}

func TestValidateResponse_EmptyResponse(t *testing.T) {
	if _, err := validateResponse(keywordTestSchema(), json.RawMessage(``)); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if _, err := validateResponse(nil, json.RawMessage(`Let's think about the angles first.`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedResources(t *testing.T) {
	schema := &Schema{
		Name:        "test-resources",
		Description: "Nested test",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"primary": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{"type": "string"},
					},
					"required": []any{"title"},
				},
				"alternates": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []any{"primary", "alternates"},
		},
	}

	valid := json.RawMessage(`{"primary":{"title":"Triangle Basics"},"alternates":["Angles","Polygons"]}`)
	if _, err := validateResponse(schema, valid); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	invalid := json.RawMessage(`{"primary":{"title":"Triangle Basics"},"alternates":[1,2]}`)
	if _, err := validateResponse(schema, invalid); err == nil {
		t.Fatal("expected error for wrong array item type")
	}
}

func TestValidateResponse_StripsCodeFence(t *testing.T) {
	raw := json.RawMessage("```json\n{\"keyword\":\"circle\"}\n```")
	got, err := validateResponse(keywordTestSchema(), raw)
	if err != nil {
		t.Fatalf("expected fenced JSON to validate, got: %v", err)
	}
	if string(got) != `{"keyword":"circle"}` {
		t.Fatalf("payload = %q", got)
	}
}

func TestValidateResponse_NilSchemaKeepsContent(t *testing.T) {
	raw := json.RawMessage("```\nnot touched\n```")
	got, err := validateResponse(nil, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(raw) {
		t.Fatalf("content changed: %q", got)
	}
}
