package rag

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/contextutil"
)

// NoContextMessage replaces the context block when nothing was retrieved.
const NoContextMessage = "No relevant context found."

// SystemPrompt constrains the generator to the supplied context.
const SystemPrompt = `You are a friendly, helpful, multilingual assistant that answers questions based on provided context documents.

INSTRUCTIONS:
1. Answer the user's question using ONLY the information provided in the context
2. If the context doesn't contain enough information to answer the question, say so clearly
3. Be concise but comprehensive in your response
4. If you reference specific information, you can mention which document it came from
5. Do not make up information that isn't in the provided context
6. If the question is unclear, ask for clarification

RESPONSE FORMAT:
- Provide a direct answer to the question
- Keep responses focused and relevant
- Use clear, professional but friendly language`

// Generator produces an answer from a system and a user prompt.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Synthesizer turns ranked chunks and a question into an answer.
// It keeps no state between calls.
type Synthesizer struct {
	generator Generator
}

// NewSynthesizer creates a new Synthesizer.
func NewSynthesizer(generator Generator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// Synthesize builds the prompt from chunks, in order, and returns the
// generator's trimmed answer.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, chunks []RetrievedChunk) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	contextBlock := BuildContext(chunks)
	userPrompt := BuildUserPrompt(question, contextBlock)

	logger.DebugContext(ctx, "sending prompt to generator",
		"chunks", len(chunks),
		"context_length", len(contextBlock),
		"user_prompt_length", len(userPrompt),
	)

	answer, err := s.generator.Complete(ctx, SystemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// BuildContext labels each chunk with its 1-based rank and source filename.
func BuildContext(chunks []RetrievedChunk) string {
	if len(chunks) == 0 {
		return NoContextMessage
	}

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		filename := chunk.Metadata.Filename
		if filename == "" {
			filename = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("[Context %d from %s]:\n%s", i+1, filename, chunk.Text))
	}
	return strings.Join(parts, "\n\n")
}

// BuildUserPrompt places the context block ahead of the question.
func BuildUserPrompt(question, contextBlock string) string {
	return fmt.Sprintf(`CONTEXT DOCUMENTS:
%s

QUESTION:
%s

Please answer the question based on the provided context documents. If the context doesn't contain sufficient information to answer the question, please state that clearly.`, contextBlock, question)
}
