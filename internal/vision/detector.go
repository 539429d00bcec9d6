// Package vision queries a vision-capable inference service for labeled
// target geometry in a screenshot and selects click points from the result.
//
// Every failure inside this package degrades to "nothing found": the caller
// is a polling automation loop that must keep running, escalate to another
// detection strategy, or give up on its own terms.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// detectionPrompt is the fixed response contract sent with every query. The
// model is told to omit anything it is not sure about; sparse or empty results
// are the common case, not an error.
const detectionPrompt = `You are locating UI targets in a game screenshot.

The coordinate origin (0,0) is the TOP-LEFT corner of the image. X increases
going RIGHT, Y increases going DOWN. All coordinates are pixels in this exact
image.

Find the following targets: %s

Return ONLY a JSON object with this exact schema:
{
  "boxes":    [{"label": "...", "xywh": [x, y, w, h], "score": 0.0-1.0}],
  "centers":  [{"label": "...", "cx": x, "cy": y, "score": 0.0-1.0}],
  "polygons": [{"label": "...", "points": [[x, y], ...], "score": 0.0-1.0}]
}

Rules:
- Use the label strings given above, exactly as written.
- Prefer "centers" when you can pinpoint a target's center directly.
- OMIT any target you are uncertain about. Do NOT fabricate coordinates.
- Empty lists are a valid answer.`

// maxDetectionTokens caps the response length. A truncated document fails the
// parse and collapses to empty, so the cap must leave room for a busy screen's
// worth of entries.
const maxDetectionTokens = 4096

// Detector queries a vision model for target detections.
type Detector struct {
	client *openai.Client
	model  string
}

// NewDetector creates a detector using the OPENAI_API_KEY environment
// variable. The model defaults to GPT-4o mini when model is empty.
func NewDetector(model string) (*Detector, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Detector{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// DetectTargets sends img to the inference service and returns the normalized
// detection result. The image is re-encoded as PNG so the service sees the
// exact lossless pixels the caller holds; returned geometry is in that image's
// pixel space and must go through the coordinate aligner before any click.
//
// Transport, service and parse errors all degrade to an empty Detection with
// a log note; this method never fails.
func (d *Detector) DetectTargets(ctx context.Context, img image.Image, hints []string) Detection {
	encoded, err := encodePNGBase64(img)
	if err != nil {
		log.Printf("[Vision] failed to encode image: %v", err)
		return EmptyDetection()
	}

	resp, err := d.client.CreateChatCompletion(ctx, d.detectionRequest(hints, encoded))
	if err != nil {
		log.Printf("[Vision] inference call failed: %v", err)
		return EmptyDetection()
	}
	if len(resp.Choices) == 0 {
		log.Printf("[Vision] empty response from inference service")
		return EmptyDetection()
	}

	content := stripCodeFences(resp.Choices[0].Message.Content)
	det := ParseDetection([]byte(content))
	log.Printf("[Vision] detection: %d boxes, %d centers, %d polygons",
		len(det.Boxes), len(det.Centers), len(det.Polygons))
	return det
}

// DetectLabelCenter is a convenience entry point combining detection and
// resolution: it queries the service with the alias set as hints and selects
// a single center per the resolver policy.
func (d *Detector) DetectLabelCenter(ctx context.Context, img image.Image, aliases []string) (image.Point, error) {
	det := d.DetectTargets(ctx, img, aliases)
	return FindLabelCenter(det, aliases)
}

// detectionRequest assembles the chat completion request: the prompt with the
// hint labels spliced in, plus the screenshot as a PNG data URL.
func (d *Detector) detectionRequest(hints []string, encodedPNG string) openai.ChatCompletionRequest {
	prompt := fmt.Sprintf(detectionPrompt, strings.Join(hints, ", "))
	return openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    fmt.Sprintf("data:image/png;base64,%s", encodedPNG),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		MaxTokens: maxDetectionTokens,
	}
}

// encodePNGBase64 encodes img as lossless PNG and returns it base64-encoded
// for the data URL transport.
func encodePNGBase64(img image.Image) (string, error) {
	var buf strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if err := png.Encode(enc, img); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// stripCodeFences removes markdown code fences some models wrap JSON in.
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
