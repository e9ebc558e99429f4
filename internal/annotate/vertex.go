package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

const annotatorSystemPrompt = "You are a legal document analysis tool. Your task is to detect clauses, dates, and parties in contract text. You must output your response as a single valid JSON object."

const annotatorUserPrompt = `Analyze the provided contract text and detect its entities.

Follow these rules precisely:
1. Identify the clause types present in the document (e.g., "Confidentiality", "Termination", "Indemnification").
2. Identify all dates mentioned in the document.
3. Identify the named parties to the agreement.
4. The output MUST be a single valid JSON object with exactly three keys:
   - "clauses": an array of clause type strings
   - "dates": an array of date strings
   - "parties": an array of party name strings
Do not include any text before or after the JSON object.

Document text:
`

// Vertex annotates text with a Gemini model configured for JSON output.
type Vertex struct {
	model      *genai.GenerativeModel
	baseClient *genai.Client
}

// NewVertex creates a Vertex annotator for the given project and region.
func NewVertex(ctx context.Context, projectID, region string) (*Vertex, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertex: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel("gemini-1.5-pro")
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(annotatorSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &Vertex{model: model, baseClient: baseClient}, nil
}

func (v *Vertex) Annotate(ctx context.Context, text string) (map[string]any, error) {
	resp, err := v.model.GenerateContent(ctx, genai.Text(annotatorUserPrompt+text))
	if err != nil {
		return nil, fmt.Errorf("failed to generate annotations from gemini: %w", err)
	}

	jsonString := extractJSONContent(resp)
	if jsonString == "" {
		return nil, fmt.Errorf("gemini returned an empty response instead of JSON")
	}

	var entities map[string]any
	if err := json.Unmarshal([]byte(jsonString), &entities); err != nil {
		slog.Error("Failed to unmarshal JSON response from Gemini", "error", err, "responseBody", jsonString)
		return nil, fmt.Errorf("failed to parse JSON from model: %w", err)
	}

	// Callers rely on these keys being present.
	for _, key := range []string{"clauses", "dates", "parties"} {
		if _, ok := entities[key]; !ok {
			entities[key] = []any{}
		}
	}
	return entities, nil
}

func (v *Vertex) Close() error {
	if v.baseClient != nil {
		return v.baseClient.Close()
	}
	return nil
}

// extractJSONContent concatenates the text parts of the model response and
// strips any code fences the model may have added despite the JSON MIME type.
func extractJSONContent(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			builder.WriteString(string(txt))
		}
	}
	content := strings.TrimSpace(builder.String())
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
