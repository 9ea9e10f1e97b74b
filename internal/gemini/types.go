package gemini

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"oferta-studio/internal/campaign"
	"oferta-studio/internal/dataurl"
)

// userContent is the prompt, then the optional reference image and the note
// that refers to it.
func userContent(prompt string, ref *campaign.InlineImage, note string) *genai.Content {
	parts := []*genai.Part{{Text: prompt}}
	if ref != nil && len(ref.Data) > 0 {
		parts = append(parts, inlinePart(ref))
		if note = strings.TrimSpace(note); note != "" {
			parts = append(parts, &genai.Part{Text: note})
		}
	}
	return &genai.Content{Role: "user", Parts: parts}
}

// imagePromptContent puts the reference image before the variation prompt.
func imagePromptContent(prompt string, ref *campaign.InlineImage) *genai.Content {
	var parts []*genai.Part
	if ref != nil && len(ref.Data) > 0 {
		parts = append(parts, inlinePart(ref))
	}
	parts = append(parts, &genai.Part{Text: prompt})
	return &genai.Content{Role: "user", Parts: parts}
}

func inlinePart(img *campaign.InlineImage) *genai.Part {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: img.Data}}
}

// extractParts returns the concatenated text and the inline images (as data
// URIs) of the first candidate.
func extractParts(resp *genai.GenerateContentResponse) (string, []string) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var text strings.Builder
	var images []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		if p.Text != "" {
			text.WriteString(p.Text)
		}
		if p.InlineData != nil && len(p.InlineData.Data) > 0 {
			images = append(images, dataurl.Encode(p.InlineData.MIMEType, p.InlineData.Data))
		}
	}
	return text.String(), images
}

func blocked(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("%w: empty response", ErrBlocked)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return fmt.Errorf("%w: prompt %s", ErrBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("%w: no candidates", ErrBlocked)
	}
	reason := resp.Candidates[0].FinishReason
	if reason != "" && reason != genai.FinishReasonUnspecified && reason != genai.FinishReasonStop {
		return fmt.Errorf("%w: finish reason %s", ErrBlocked, reason)
	}
	return nil
}
