package candidate

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// GPT-4-Turbo list prices per 1K tokens.
const (
	inputCostPer1K  = 0.01
	outputCostPer1K = 0.03
)

// Usage accumulates token counts and estimated cost across LLM calls.
type Usage struct {
	Calls        int
	InputTokens  int
	OutputTokens int
}

// Cost estimates the dollar cost of the accumulated usage.
func (u Usage) Cost() float64 {
	return float64(u.InputTokens)/1000*inputCostPer1K +
		float64(u.OutputTokens)/1000*outputCostPer1K
}

func (u Usage) String() string {
	return fmt.Sprintf("calls=%d input_tokens=%d output_tokens=%d cost=$%.4f",
		u.Calls, u.InputTokens, u.OutputTokens, u.Cost())
}

// tokenCounter counts tokens with the cl100k_base encoding. A nil counter
// (encoding unavailable offline) degrades to zero counts.
type tokenCounter struct {
	enc *tiktoken.Tiktoken
}

func newTokenCounter() *tokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &tokenCounter{}
	}
	return &tokenCounter{enc: enc}
}

func (t *tokenCounter) count(text string) int {
	if t.enc == nil {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}
