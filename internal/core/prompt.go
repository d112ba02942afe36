// ABOUTME: Prompt assembler that combines question, retrieved context, and chat history
// ABOUTME: History messages are truncated to keep the prompt bounded
package core

import (
	"fmt"
	"strings"

	"github.com/harper/docchat-standalone/internal/models"
)

// HistoryMessageLimit caps how many characters of each prior message are
// carried into the prompt.
const HistoryMessageLimit = 500

const promptPreamble = `You are a helpful documentation assistant. Your job is to answer questions based on the provided documentation context.

IMPORTANT INSTRUCTIONS:
1. Use the previous conversation to understand context and what the user is referring to
2. When the user asks about previous messages (e.g., "What did I say?"), you CAN refer to the conversation history
3. For questions about the documentation content, answer using information from the provided documentation context
4. You MUST cite which documentation sources you used in your answer (reference by document title)
5. If the documentation doesn't contain enough information to answer a question about documentation, say so clearly
6. Be concise but thorough
7. Use a professional and helpful tone
8. Format your answer clearly with bullet points or paragraphs as appropriate`

// BuildPrompt renders the full generation prompt. Chunks must already be
// ordered by descending relevance; their order is the only ranking signal
// the generator sees.
func BuildPrompt(question string, chunks []models.RetrievedChunk, history []models.ChatMessage) string {
	var b strings.Builder

	b.WriteString(promptPreamble)
	b.WriteString("\n")
	b.WriteString(buildHistory(history))
	b.WriteString("\nCONTEXT FROM DOCUMENTATION:\n")
	b.WriteString(buildContext(chunks))
	b.WriteString("\n\nAVAILABLE SOURCES:\n")
	b.WriteString(buildSourceList(chunks))
	b.WriteString("\n\nCURRENT QUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nANSWER (cite documentation sources when using them):")

	return b.String()
}

// buildContext renders each chunk as a labeled block in relevance order.
func buildContext(chunks []models.RetrievedChunk) string {
	var parts []string
	for i, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("[Source %d: %s]", i+1, chunk.Title))
		parts = append(parts, chunk.Text)
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}

func buildSourceList(chunks []models.RetrievedChunk) string {
	var parts []string
	for _, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("- %s (from %s)", chunk.Title, chunk.DocPath))
	}
	return strings.Join(parts, "\n")
}

// buildHistory formats prior turns as Q:/A: lines. Messages with roles
// other than user or assistant are skipped. Returns "" when there is no
// usable history so the template stays compact.
func buildHistory(history []models.ChatMessage) string {
	var parts []string
	for _, msg := range history {
		content := msg.Content
		if runes := []rune(content); len(runes) > HistoryMessageLimit {
			content = string(runes[:HistoryMessageLimit])
		}
		switch msg.Role {
		case models.RoleUser:
			parts = append(parts, "Q: "+content)
		case models.RoleAssistant:
			parts = append(parts, "A: "+content)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n\nPREVIOUS CONVERSATION:\n" + strings.Join(parts, "\n") + "\n"
}
