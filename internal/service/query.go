package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/airobotics/docqa/internal/domain"
)

// promptTemplate is the fixed instruction template for answer
// generation. The support-contact policy is a product-level formatting
// contract: when context is insufficient the model must still answer,
// point at support, and never say the context was insufficient.
const promptTemplate = `If the context is not enough for an answer, add contact information to the response and advise to contact
support 'support@airobotics.com'.
Do not include wording like: "The context does not provide enough information" into the answer.
Answer the question based only on the following context:


%s

---

Answer the question based on the above context: %s
`

// Retriever returns the top-k most similar chunks for a query.
type Retriever interface {
	Search(ctx context.Context, queryText string, k int) ([]domain.ScoredChunk, error)
}

// GenerationClient defines the interface for the external text-generation model
type GenerationClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// QueryResponse holds the generated answer and its citations.
type QueryResponse struct {
	QueryText  string
	AnswerText string
	Sources    []string
}

// QueryService runs the retrieval, context-assembly and
// answer-generation sequence for one question.
type QueryService struct {
	retriever Retriever
	generator GenerationClient
	topK      int
}

// NewQueryService creates a new QueryService instance
func NewQueryService(retriever Retriever, generator GenerationClient, topK int) *QueryService {
	if topK <= 0 {
		topK = 5
	}
	return &QueryService{
		retriever: retriever,
		generator: generator,
		topK:      topK,
	}
}

// Answer retrieves context for the question and generates a grounded
// answer. Retrieval failure is fatal; generation failure is absorbed
// into a deterministic error-describing answer so the job still
// completes.
func (s *QueryService) Answer(ctx context.Context, queryText string) (*QueryResponse, error) {
	results, err := s.retriever.Search(ctx, queryText, s.topK)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(promptTemplate, AssembleContext(results), queryText)

	answerText, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		answerText = fmt.Sprintf("Error generating response: %v", err)
	}

	sources := make([]string, 0, len(results))
	for _, r := range results {
		sources = append(sources, r.Chunk.ID)
	}

	return &QueryResponse{
		QueryText:  queryText,
		AnswerText: answerText,
		Sources:    sources,
	}, nil
}

// AssembleContext groups retrieved payloads by content kind,
// preserving retrieval rank within each group, and renders the single
// structured context block handed to the generation model. The three
// sections always appear, in a fixed order, even when empty:
// heterogeneous content needs distinct presentation, so interleaving
// by score is deliberately avoided.
func AssembleContext(results []domain.ScoredChunk) string {
	var textParts, tableParts, imageParts []string

	for _, r := range results {
		switch r.Chunk.Metadata.Kind {
		case domain.ContentKindText:
			textParts = append(textParts, r.Chunk.Content)
		case domain.ContentKindTable:
			tableParts = append(tableParts, r.Chunk.Content)
		case domain.ContentKindImage:
			imageParts = append(imageParts, fmt.Sprintf("Image (Base64): %s", r.Chunk.Content))
		}
	}

	return "### Text:\n" + strings.Join(textParts, "\n\n") +
		"\n\n### Tables:\n" + strings.Join(tableParts, "\n\n") +
		"\n\n### Images:\n" + strings.Join(imageParts, "\n\n")
}
