package gemini

// ImageMIMEType is declared for every upload; the image itself is not inspected.
const ImageMIMEType = "image/png"

// AnalyzePrompt is the fixed instruction sent ahead of every image.
const AnalyzePrompt = `
      Analyze the provided image of a potato and determine if it is safe to eat.
      Look for these specific signs: greening, sprouting, rot/blight, and major blemishes.
      Based on your findings, provide a clear verdict: "Safe to Eat", "Use with Caution", or "Do Not Eat".
      Provide a concise explanation for your verdict.
      List the specific warning signs you detected. If no signs are found, the list should be empty.
  `

type Verdict string

const (
	VerdictSafe    Verdict = "Safe to Eat"
	VerdictCaution Verdict = "Use with Caution"
	VerdictDoNot   Verdict = "Do Not Eat"
)

func (v Verdict) Valid() bool {
	switch v {
	case VerdictSafe, VerdictCaution, VerdictDoNot:
		return true
	}
	return false
}

// Assessment is the object the response schema asks the model for.
type Assessment struct {
	Verdict     Verdict  `json:"verdict"`
	Explanation string   `json:"explanation"`
	Signs       []string `json:"signs"`
}

func AssessmentSchema() *Schema {
	return &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"verdict":     {Type: "STRING"},
			"explanation": {Type: "STRING"},
			"signs": {
				Type:  "ARRAY",
				Items: &Schema{Type: "STRING"},
			},
		},
		Required: []string{"verdict", "explanation", "signs"},
	}
}

// NewAnalyzeRequest builds the fixed payload around the caller's base64 image.
func NewAnalyzeRequest(imageB64 string) GenerateContentRequest {
	return GenerateContentRequest{
		Contents: []Content{
			{
				Role: "user",
				Parts: []Part{
					{Text: AnalyzePrompt},
					{InlineData: &Blob{MimeType: ImageMIMEType, Data: imageB64}},
				},
			},
		},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   AssessmentSchema(),
		},
	}
}
