// SPDX-License-Identifier: MPL-2.0

package llm

const (
	// RoleSystem carries the instructions.
	RoleSystem Role = "system"
	// RoleUser carries the file to document.
	RoleUser Role = "user"
	// RoleAssistant is the model's reply.
	RoleAssistant Role = "assistant"
)

type (
	// Role is a chat message author.
	Role string

	// Message is one chat turn.
	Message struct {
		Role    Role   `json:"role"`
		Content string `json:"content"`
	}

	// Request is a chat-completion request.
	Request struct {
		Messages    []Message `json:"messages"`
		MaxTokens   int       `json:"max_tokens,omitempty"`
		Temperature *float64  `json:"temperature,omitempty"`
	}

	// Usage reports token accounting when the API returns it.
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	}

	// Response is the decoded chat-completion body.
	Response struct {
		ID      string   `json:"id"`
		Choices []Choice `json:"choices"`
		Usage   Usage    `json:"usage"`
	}

	// Choice is one completion alternative.
	Choice struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	}

	errorEnvelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
)
