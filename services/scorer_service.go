package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anurag-05-cmd/StakeInNature/models"
)

// Scorer evaluates one evidence image and produces a confidence score.
type Scorer interface {
	Score(ctx context.Context, image []byte, mimeType string) (*models.Score, error)
}

// scoringRubric is the fixed evaluation prompt. It is strict by design: the
// evaluator is biased toward rejection and the moderate band sits below the
// decision cut. Loosening it requires re-tuning RewardThreshold.
const scoringRubric = `You are an EXTREMELY STRICT expert validator for social and environmental work. Your job is to verify that an image shows ACTUAL PEOPLE performing GENUINE SOCIAL OR ENVIRONMENTAL WORK.

REJECTION CRITERIA (Set confidence to 0-20 if ANY of these apply):
- Image contains NO PEOPLE or only shows animals/pets/nature without human action
- Image shows people but they are NOT actively working (just posing, smiling at camera, sitting)
- Image is of a historical figure, celebrity, or person without context of work
- Image is clearly AI-generated, meme, artistic, or historical
- Image shows people in casual settings without evidence of actual work
- No visible tools, materials, or evidence of productive labor
- Image is too blurry, low quality, or unclear to assess
- Image shows staged, minimal, or symbolic work without genuine effort
- Image depicts leisure, social gatherings, or non-work activities
- Image showing watermarks, logos, or text overlays that obscure content
- Image appears to be a screenshot, collage, or heavily edited
- Image showing watermark of any ai generation software
- Image containing celebrities needs to go through thorough checking
- Immediate rejection on deepfake images

ACCEPTABLE CRITERIA (Set confidence to 70-100 if ALL of these apply):
- CLEARLY shows 1+ people actively engaged in visible work
- Visible evidence of labor: holding tools, materials, equipment, trash bags, plants, etc.
- Context clearly indicates genuine work: environmental cleanup, recycling, planting, construction, community service, waste management, repair work
- People appear genuinely engaged in the task, not just posing
- Work appears substantial and productive, not minimal or staged

MODERATE CRITERIA (Set confidence to 40-70):
- Shows people and some work evidence but context is ambiguous
- Quality or effort appears moderate
- Could be genuine but needs more evidence

Respond ONLY with valid JSON:
{
  "isGoodImage": true or false,
  "confidence": number between 0 and 100,
  "reason": "Specific reason with details about what you see (or don't see)"
}

Be RUTHLESSLY STRICT. Most images should fail (confidence < 50). Only accept images where you can clearly see people actively working with visible evidence of effort.`

const defaultScorerBaseURL = "https://generativelanguage.googleapis.com"

// GeminiScorer implements Scorer against the Gemini generateContent API.
type GeminiScorer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiScorer creates a scorer bound to one model.
func NewGeminiScorer(apiKey, model string, timeout time.Duration) *GeminiScorer {
	return &GeminiScorer{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultScorerBaseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Score sends the image plus the rubric to the evaluator and extracts the
// structured verdict out of its free-form reply.
func (gs *GeminiScorer) Score(ctx context.Context, image []byte, mimeType string) (*models.Score, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	request := &geminiRequest{
		Contents: []geminiContent{
			{
				Role: "user",
				Parts: []geminiPart{
					{
						InlineData: &geminiInlineData{
							MimeType: mimeType,
							Data:     base64.StdEncoding.EncodeToString(image),
						},
					},
					{Text: scoringRubric},
				},
			},
		},
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scorer request: %v", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", gs.baseURL, gs.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", gs.apiKey)

	resp, err := gs.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d - %s", ErrScorerUnavailable, resp.StatusCode, string(body))
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScorerMalformed, err)
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates returned", ErrScorerMalformed)
	}

	var text string
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text += part.Text
	}

	return parseScore(text)
}

// parseScore extracts the first balanced-braces JSON object from free text
// and decodes it as a Score.
func parseScore(text string) (*models.Score, error) {
	payload, ok := extractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response text", ErrScorerMalformed)
	}

	var score models.Score
	if err := json.Unmarshal([]byte(payload), &score); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScorerMalformed, err)
	}

	if score.Confidence < 0 || score.Confidence > 100 {
		return nil, fmt.Errorf("%w: confidence %.1f out of range", ErrScorerMalformed, score.Confidence)
	}

	return &score, nil
}

// extractJSONObject scans for the first balanced {...} span, skipping brace
// characters inside JSON string literals.
func extractJSONObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}

	return "", false
}
