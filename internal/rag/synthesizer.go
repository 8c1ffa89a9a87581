package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/bankinworks/crmrag/internal/llm"
	"github.com/bankinworks/crmrag/internal/vectorstore"
)

const systemPrompt = `あなたは板金塗装工場のCRMアシスタントです。
提供された顧客情報・見積情報・作業履歴のみに基づいて質問に答えてください。
情報が不足している場合は、その旨を正直に伝えてください。
金額は「450,000円」のように円単位で答えてください。`

// ConversationTurn is one role-tagged message in a multi-turn query's
// history. Order is chronological and preserved into the prompt.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Synthesizer turns a query, its history, and the retrieved sources into a
// grounded answer.
type Synthesizer struct {
	gateway llm.Gateway
	model   string
}

func NewSynthesizer(gw llm.Gateway, model string) *Synthesizer {
	return &Synthesizer{gateway: gw, model: model}
}

// Synthesize generates the answer. History turns go into the prompt in
// order, between the system framing and the final user message carrying the
// retrieved sources and the current query.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, history []ConversationTurn, sources []vectorstore.SearchResult) (string, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: buildUserPrompt(query, sources),
	})

	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return resp.Content, nil
}

func buildUserPrompt(query string, sources []vectorstore.SearchResult) string {
	var sb strings.Builder
	if len(sources) == 0 {
		sb.WriteString("参考情報: 該当するデータが見つかりませんでした。\n\n")
	} else {
		sb.WriteString("参考情報:\n")
		for i, src := range sources {
			fmt.Fprintf(&sb, "[情報%d] (関連度: %.3f)\n%s\n", i+1, src.Score, src.Content)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "質問: %s", query)
	return sb.String()
}

// Confidence summarizes retrieval strength for an answer: the top match's
// score clamped to [0,1], and exactly 0 when there are no sources.
func Confidence(sources []vectorstore.SearchResult) float64 {
	if len(sources) == 0 {
		return 0
	}
	top := sources[0].Score
	if top < 0 {
		return 0
	}
	if top > 1 {
		return 1
	}
	return top
}
