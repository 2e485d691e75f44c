package genai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestResponseText(t *testing.T) {
	t.Parallel()

	t.Run("joins text parts", func(t *testing.T) {
		t.Parallel()
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: `{"polarity":`},
					nil,
					{Text: `"easy"}`},
				}},
			}},
		}
		text, err := responseText(resp)
		require.NoError(t, err)
		assert.Equal(t, `{"polarity":"easy"}`, text)
	})

	empties := map[string]*genai.GenerateContentResponse{
		"nil response":  nil,
		"no candidates": {},
		"nil content":   {Candidates: []*genai.Candidate{{}}},
		"no text":       {Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{}}}}}},
	}
	for name, resp := range empties {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := responseText(resp)
			assert.ErrorIs(t, err, errEmptyResponse)
		})
	}
}
