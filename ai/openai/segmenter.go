package openai

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/transcriptdb/ai"
	"github.com/tmc/langchaingo/llms"
)

// Segmenter implements ai.Segmenter using an OpenAI-compatible chat API in JSON mode.
type Segmenter struct {
	chat *chat
}

// flexInt decodes a JSON number or numeric string, truncating fractions.
// Models are not consistent about how they encode offsets.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("offset %s is not a number", b)
	}
	*f = flexInt(v)
	return nil
}

type segmentRange struct {
	Start *flexInt `json:"start_char"`
	End   *flexInt `json:"end_char"`
}

type segmentation struct {
	Multiple   bool           `json:"has_multiple_interviews"`
	Interviews []segmentRange `json:"interviews"`
}

// Segment asks the model whether sample holds several interviews.
// Ranges missing either offset make the whole response malformed.
func (s *Segmenter) Segment(ctx context.Context, sample string, totalChars int) (*ai.Segmentation, error) {
	text, err := s.chat.complete(ctx, segmentSystemPrompt, buildSegmentPrompt(sample, totalChars), llms.WithJSONMode())
	if err != nil {
		return nil, err
	}

	var wire segmentation
	if err := decodeJSON(text, &wire); err != nil {
		s.chat.logger.Warn("error parsing segmentation response", "response", text, "err", err)
		return nil, err
	}

	result := &ai.Segmentation{
		Multiple:   wire.Multiple,
		Interviews: make([]ai.CharRange, 0, len(wire.Interviews)),
	}
	for i, r := range wire.Interviews {
		if r.Start == nil || r.End == nil {
			return nil, fmt.Errorf("%w: interview %d is missing an offset", ai.ErrMalformedResponse, i)
		}
		result.Interviews = append(result.Interviews, ai.CharRange{Start: int(*r.Start), End: int(*r.End)})
	}
	return result, nil
}
