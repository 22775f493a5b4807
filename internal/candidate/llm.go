package candidate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"propquery/internal/builder"
	"propquery/internal/schema"
)

// LLMSource asks a language model for candidate SQL. Responses are cleaned
// before they reach the feedback loop; the loop itself handles semantic
// mistakes.
type LLMSource struct {
	llm     llms.Model
	schema  *schema.Map
	counter *tokenCounter

	usage Usage
}

// NewLLMSource creates an LLM-backed candidate source.
func NewLLMSource(model llms.Model, m *schema.Map) *LLMSource {
	return &LLMSource{
		llm:     model,
		schema:  m,
		counter: newTokenCounter(),
	}
}

// Usage reports accumulated token usage across calls.
func (s *LLMSource) Usage() Usage {
	return s.usage
}

// Candidate prompts the model and extracts a single SQL statement. Transient
// failures are retried twice with backoff.
func (s *LLMSource) Candidate(ctx context.Context, utterance string) (string, error) {
	prompt := s.buildPrompt(utterance)

	var response string
	var err error
	maxRetries := 2
	backoffDelays := []time.Duration{1 * time.Second, 3 * time.Second}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		response, err = llms.GenerateFromSinglePrompt(ctx, s.llm, prompt)
		if err == nil {
			break
		}
		if attempt < maxRetries {
			time.Sleep(backoffDelays[attempt])
		}
	}
	if err != nil {
		return "", fmt.Errorf("LLM call failed after %d attempts: %w", maxRetries+1, err)
	}

	s.usage.Calls++
	s.usage.InputTokens += s.counter.count(prompt)
	s.usage.OutputTokens += s.counter.count(response)

	sql := extractSQL(response)
	if sql == "" {
		return "", fmt.Errorf("no SQL in model response")
	}
	return sql, nil
}

func (s *LLMSource) buildPrompt(utterance string) string {
	var sb strings.Builder
	sb.WriteString("You translate questions about Georgia commercial real estate into a single SQL query.\n\n")
	sb.WriteString("Table: \"" + builder.DefaultTable + "\"\n")
	sb.WriteString("Columns: id, name, property_type, property_subtype, asking_price, size_acres, size_sqft, building_sqft, listing_url, address (JSON), zoning, status, traffic_count\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- County filters go through the JSON address field: address->>'county' ILIKE '%<county>%'. Never match counties against property_type.\n")
	sb.WriteString("- Finite price ranges use BETWEEN.\n")
	sb.WriteString("- How-many questions use COUNT(*).\n")
	sb.WriteString("- Listing queries include listing_url, address and zoning in the projection.\n")
	sb.WriteString("- Known property types: " + strings.Join(s.schema.PropertyTypes(), ", ") + "\n\n")
	sb.WriteString("Question: " + utterance + "\n\n")
	sb.WriteString("Reply with only the SQL statement.")
	return sb.String()
}

// extractSQL cleans a model response down to the SQL statement.
func extractSQL(response string) string {
	if idx := strings.Index(response, "Final Answer:"); idx >= 0 {
		response = response[idx+len("Final Answer:"):]
	}

	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```sql")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	if strings.Contains(response, "`SELECT") || strings.Contains(response, "`select") {
		start := strings.Index(response, "`")
		if start >= 0 {
			end := strings.Index(response[start+1:], "`")
			if end >= 0 {
				response = response[start+1 : start+1+end]
			}
		}
	}

	lines := strings.Split(response, "\n")
	if len(lines) > 1 {
		firstLine := strings.ToUpper(strings.TrimSpace(lines[0]))
		if strings.HasPrefix(firstLine, "SELECT") || strings.HasPrefix(firstLine, "WITH") {
			var sqlLines []string
			for _, line := range lines {
				trimmed := strings.TrimSpace(line)
				if strings.HasPrefix(trimmed, "This ") ||
					strings.HasPrefix(trimmed, "The ") ||
					strings.HasPrefix(trimmed, "Note:") {
					break
				}
				sqlLines = append(sqlLines, line)
			}
			response = strings.Join(sqlLines, "\n")
		}
	}

	return strings.TrimSpace(response)
}
