package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"avatar-backend/models"

	"google.golang.org/genai"
)

const defaultChatModel = "gemini-2.5-flash"

// RAGService answers user queries: it retrieves grounding context, builds the
// persona system prompt, and calls the generation model.
type RAGService interface {
	Respond(ctx context.Context, message string, history []models.ChatMessage) (string, error)
}

// ragServiceImpl holds the dependencies it needs to do its job.
type ragServiceImpl struct {
	geminiClient *genai.Client
	retrieval    *RetrievalService
	persona      *models.Persona
	model        string
}

// NewRAGService creates the augmented generation caller. model defaults to
// gemini-2.5-flash when empty.
func NewRAGService(geminiClient *genai.Client, retrieval *RetrievalService, persona *models.Persona, model string) RAGService {
	if model == "" {
		model = defaultChatModel
	}
	return &ragServiceImpl{
		geminiClient: geminiClient,
		retrieval:    retrieval,
		persona:      persona,
		model:        model,
	}
}

// Respond implements RAGService. Retrieval failures are already degraded to an
// empty context inside the retrieval service, so generation always runs.
func (r *ragServiceImpl) Respond(ctx context.Context, message string, history []models.ChatMessage) (string, error) {
	log.Printf("SERVICE: Answering query: '%s' (%d prior turns)", message, len(history))

	ragContext := r.retrieval.Retrieve(ctx, message)
	systemPrompt := BuildSystemPrompt(r.persona, ragContext)

	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(systemPrompt),
	}

	// One retry with a short backoff covers transient provider errors without
	// hammering the API on persistent ones.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			time.Sleep(500 * time.Millisecond)
		}

		session, err := r.geminiClient.Chats.Create(ctx, r.model, config, historyToContents(history))
		if err != nil {
			lastErr = fmt.Errorf("could not start chat session: %w", err)
			continue
		}

		result, err := session.SendMessage(ctx, genai.Part{Text: message})
		if err != nil {
			lastErr = fmt.Errorf("gemini api call failed: %w", err)
			continue
		}

		if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
			return "I'm sorry, I couldn't generate a response.", nil
		}

		var responseText strings.Builder
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				responseText.WriteString(part.Text)
			}
		}
		return responseText.String(), nil
	}
	return "", lastErr
}

// historyToContents maps prior conversation turns onto Gemini content records.
// Unknown roles are treated as user turns.
func historyToContents(history []models.ChatMessage) []*genai.Content {
	if len(history) == 0 {
		return nil
	}
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	return contents
}

func systemInstruction(prompt string) *genai.Content {
	contents := genai.Text(prompt)
	if len(contents) == 0 {
		return nil
	}
	return contents[0]
}
