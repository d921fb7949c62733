package gemini

import (
	"encoding/json"
	"strings"

	"potato-check/api/internal/apperr"
	"potato-check/api/internal/util"
)

// ----- Request -----
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type GenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

// Schema is the OpenAPI subset understood by responseSchema.
type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// ----- Response (минимально необходимая часть) -----
type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// FirstText returns the text of the first candidate's first text part.
func (r *GenerateContentResponse) FirstText() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if strings.TrimSpace(p.Text) != "" {
			return p.Text
		}
	}
	return ""
}

// Assessment parses the model's JSON answer out of the first candidate.
// Only used for logs, metrics and audit; the caller always gets the raw body.
func (r *GenerateContentResponse) Assessment() (Assessment, bool) {
	txt := util.StripCodeFences(r.FirstText())
	if txt == "" {
		return Assessment{}, false
	}
	var a Assessment
	if err := json.Unmarshal([]byte(txt), &a); err != nil {
		return Assessment{}, false
	}
	return a, a.Verdict != ""
}

// DecodeResponse checks the provider body is a JSON object with an array of
// candidates (when present) and returns its typed form.
func DecodeResponse(raw []byte) (*GenerateContentResponse, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, &apperr.ValidationError{Source: "provider", Reason: "body is not a JSON object", Err: err}
	}
	if top == nil {
		return nil, &apperr.ValidationError{Source: "provider", Reason: "body is null"}
	}

	out := &GenerateContentResponse{}
	if c, ok := top["candidates"]; ok {
		if err := json.Unmarshal(c, &out.Candidates); err != nil {
			return nil, &apperr.ValidationError{Source: "provider", Field: "candidates", Reason: "unexpected shape", Err: err}
		}
	}
	return out, nil
}
