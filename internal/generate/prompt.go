package generate

import (
	"strings"

	"github.com/mandalnilabja/octagram/internal/tone"
)

func translatePrompt(s sliders) string {
	return `You are a translator. Translate the user's text into English.

Rules:
- Output ONLY the English translation. No explanations, notes, or metadata.
- Tone: ` + s.formality.Prompt() + `
- Translation style: ` + s.creativity.Prompt() + `
- Preserve paragraph structure and formatting.
- If the text is already in English, still apply the tone and style adjustments.`
}

func rewritePrompt(s sliders, goal string) string {
	return `You are a writing assistant. Rewrite the user's English text.

Rules:
- Output ONLY the rewritten text. No explanations, notes, or metadata.
- Tone: ` + s.formality.Prompt() + `
- Rewrite style: ` + s.creativity.Prompt() + `
- Preserve paragraph structure and formatting where possible.
- Do not change factual meaning.
- Goal: ` + goalPrompts[goal]
}

func replyPrompt(intent, length string, f tone.Formality) string {
	return `You are an assistant that drafts replies in English.

Rules:
- Output MUST be valid JSON with the exact shape: {"replies":["...","...","..."]}.
- The replies must be in English.
- Provide exactly 3 replies.
- No extra keys, no commentary, no markdown.
- Intent: ` + intent + `
- Length: ` + length + `
- Tone: ` + f.Prompt() + `
- Keep replies aligned with the conversation and intent.`
}

// replyUserContent is both the user message and the stored run input.
func replyUserContent(context, wantToSay string) string {
	content := "Conversation context:\n" + context
	if say := strings.TrimSpace(wantToSay); say != "" {
		content += "\n\nWhat I want to say:\n" + say
	}
	return content
}
