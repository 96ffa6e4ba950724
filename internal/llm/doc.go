// SPDX-License-Identifier: MPL-2.0

// Package llm is a minimal client for an Azure OpenAI style chat-completion
// deployment. It sends one request per call and never retries.
package llm
