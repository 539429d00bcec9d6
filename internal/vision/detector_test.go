package vision

import (
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestDetectionRequestShape(t *testing.T) {
	d := &Detector{model: openai.GPT4oMini}
	req := d.detectionRequest([]string{"game start", "start"}, "QUJD")

	if req.Model != openai.GPT4oMini {
		t.Errorf("model = %q", req.Model)
	}
	// A cap this small would cut a many-detection document mid-JSON, which
	// parses as an empty detection.
	if req.MaxTokens < 2048 {
		t.Errorf("MaxTokens = %d, too small for a dense response", req.MaxTokens)
	}

	if len(req.Messages) != 1 || len(req.Messages[0].MultiContent) != 2 {
		t.Fatalf("unexpected message shape: %+v", req.Messages)
	}
	text := req.Messages[0].MultiContent[0]
	if text.Type != openai.ChatMessagePartTypeText || !strings.Contains(text.Text, "game start, start") {
		t.Errorf("text part missing hint labels: %q", text.Text)
	}
	img := req.Messages[0].MultiContent[1]
	if img.Type != openai.ChatMessagePartTypeImageURL || img.ImageURL.URL != "data:image/png;base64,QUJD" {
		t.Errorf("image part = %+v, want a PNG data URL", img)
	}
}
