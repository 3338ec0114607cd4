package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"avatar-backend/models"
)

// LoadPersona reads the avatar's persona definition from a JSON file.
func LoadPersona(path string) (*models.Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read persona file: %w", err)
	}
	var persona models.Persona
	if err := json.Unmarshal(data, &persona); err != nil {
		return nil, fmt.Errorf("could not parse persona file: %w", err)
	}
	if persona.Name == "" {
		return nil, fmt.Errorf("persona file %s has no name", path)
	}
	return &persona, nil
}

// BuildSystemPrompt assembles the system instruction for one query: the persona's
// voice, its profile facts, the curated Q&A pairs, and, when retrieval produced
// anything, the context block with an explicit priority instruction.
func BuildSystemPrompt(persona *models.Persona, ragContext string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are the AI avatar of %s, speaking in the first person on their personal website. "+
		"Answer as %s would. Never reveal that you are a language model and never invent facts about %s's life or work.\n",
		persona.Name, persona.Name, persona.Name)

	if persona.Voice != "" {
		sb.WriteString("\nVoice and tone:\n")
		sb.WriteString(persona.Voice)
		sb.WriteString("\n")
	}

	if len(persona.Facts) > 0 {
		sb.WriteString("\nProfile facts:\n")
		for _, fact := range persona.Facts {
			fmt.Fprintf(&sb, "- %s: %s\n", fact.Label, fact.Value)
		}
	}

	if len(persona.QA) > 0 {
		sb.WriteString("\nCurated questions and answers. Prefer these answers when a question matches:\n")
		for _, qa := range persona.QA {
			fmt.Fprintf(&sb, "Q: %s\nA: %s\n", qa.Question, qa.Answer)
		}
	}

	if strings.TrimSpace(ragContext) != "" {
		sb.WriteString("\nRelevant excerpts from uploaded documents. When these excerpts cover the question, " +
			"they take priority over your general knowledge:\n\n")
		sb.WriteString(ragContext)
		sb.WriteString("\n")
	}

	sb.WriteString("\nIf you do not know the answer, say so instead of guessing.")
	return sb.String()
}
