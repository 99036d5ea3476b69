package gemini

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yourorg/domus-api/internal/listing"
)

var (
	// ErrNoCandidates means the API answered without any generated text,
	// usually because the prompt was blocked.
	ErrNoCandidates = errors.New("gemini: no candidates in response")
	// ErrInvalidPayload means the generated text was not a usable listing document.
	ErrInvalidPayload = errors.New("gemini: invalid listing payload")
)

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Rejected is a listing dropped during mapping, with the reason.
type Rejected struct {
	Index  int
	ID     string
	Reason string
}

// candidateText extracts the generated text of the first candidate.
func candidateText(raw []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: decode envelope: %v", ErrInvalidPayload, err)
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: blocked (%s)", ErrNoCandidates, resp.PromptFeedback.BlockReason)
		}
		return "", ErrNoCandidates
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty text (finish reason %s)", ErrNoCandidates, resp.Candidates[0].FinishReason)
	}
	return text, nil
}

// stripFences removes a surrounding markdown code fence, which the model
// sometimes adds despite the JSON response type.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// MapResponse turns a generateContent response body into listings. Items that
// fail the listing schema or repeat an earlier id are dropped and reported.
// An empty array is a valid answer; a non-empty array with no usable item is not.
func MapResponse(raw []byte) ([]listing.Property, []Rejected, error) {
	text, err := candidateText(raw)
	if err != nil {
		return nil, nil, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFences(text)), &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	rawItems, ok := doc["properties"]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing properties array", ErrInvalidPayload)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawItems, &items); err != nil || bytes.Equal(bytes.TrimSpace(rawItems), []byte("null")) {
		return nil, nil, fmt.Errorf("%w: properties is not an array", ErrInvalidPayload)
	}

	out := make([]listing.Property, 0, len(items))
	var rejected []Rejected
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if problems := validateItem(item); len(problems) > 0 {
			rejected = append(rejected, Rejected{Index: i, Reason: strings.Join(problems, "; ")})
			continue
		}
		var p listing.Property
		if err := json.Unmarshal(item, &p); err != nil {
			rejected = append(rejected, Rejected{Index: i, Reason: err.Error()})
			continue
		}
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			rejected = append(rejected, Rejected{Index: i, Reason: "blank id"})
			continue
		}
		if _, dup := seen[p.ID]; dup {
			rejected = append(rejected, Rejected{Index: i, ID: p.ID, Reason: "duplicate id"})
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, normalize(p))
	}

	if len(items) > 0 && len(out) == 0 {
		return nil, rejected, fmt.Errorf("%w: all %d listings rejected (first: %s)", ErrInvalidPayload, len(items), rejected[0].Reason)
	}
	return out, rejected, nil
}

func normalize(p listing.Property) listing.Property {
	p.CurrencyCode = strings.ToUpper(strings.TrimSpace(p.CurrencyCode))
	p.Neighborhood = strings.TrimSpace(p.Neighborhood)
	p.City = strings.TrimSpace(p.City)
	p.State = strings.TrimSpace(p.State)
	p.ImageURLs = cleanImageURLs(p.ID, p.ImageURLs)
	return p
}
