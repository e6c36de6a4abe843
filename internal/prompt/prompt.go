// Package prompt builds the ordered message lists sent to the completion API.
// Every builder is a pure function and every list starts with the same system message.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"routine-advisor/internal/llm"
	"routine-advisor/internal/search"
)

const systemPrompt = "You are a knowledgeable L'Oréal skincare and beauty advisor. " +
	"Help the user build personalized skincare, haircare, makeup, or fragrance routines using the products they select. " +
	"Provide clear, step-by-step instructions. " +
	"When numbered sources are provided, base your answer on them and cite them inline as [1], [2], and so on."

// Product is the prompt-side view of a selected product.
type Product struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Turn is one role-tagged message of a conversation transcript.
type Turn struct {
	Role    string
	Content string
}

// System returns the persona message that opens every prompt.
func System() llm.Message {
	return llm.Message{Role: llm.RoleSystem, Content: systemPrompt}
}

// ForProducts asks for a routine built from products, serialized in the given order.
func ForProducts(products []Product) []llm.Message {
	if products == nil {
		products = []Product{}
	}
	// Marshalling a slice of plain string structs cannot fail
	serialized, _ := json.MarshalIndent(products, "", "  ")

	return []llm.Message{
		System(),
		{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("Please generate a personalized beauty routine using these products:\n%s", serialized),
		},
	}
}

// ForHistory replays a conversation transcript verbatim after the system message.
func ForHistory(history []Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, System())
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}

// ForQuery sends a single follow-up question with no transcript and no sources.
func ForQuery(query string) []llm.Message {
	return []llm.Message{
		System(),
		{Role: llm.RoleUser, Content: query},
	}
}

// ForSearch grounds a follow-up question on numbered web search results.
func ForSearch(query string, results []search.Result) []llm.Message {
	if len(results) == 0 {
		return ForQuery(query)
	}

	var sources strings.Builder
	sources.WriteString("Here are current web search results:\n")
	for i, r := range results {
		fmt.Fprintf(&sources, "[%d] %s - %s\n", i+1, r.Title, r.URL)
	}

	return []llm.Message{
		System(),
		{Role: llm.RoleUser, Content: strings.TrimRight(sources.String(), "\n")},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf("%s\n\nAnswer the question above using the numbered search results, "+
				"and cite each source you rely on by its number.", query),
		},
	}
}
