package openai

import (
	"fmt"
	"strings"
)

// NoAnswerSentinel is the phrase the generator is instructed to use when the
// supplied passages do not contain the answer. Callers can match on it.
const NoAnswerSentinel = "not specified in the source material"

// modeInstructions maps an answer mode to its register instruction.
var modeInstructions = map[string]string{
	"technical": "Answer for engineers and operators. Include concrete figures, " +
		"units, thresholds and procedural steps exactly as they appear in the sources.",
	"sales": "Answer for customer-facing staff. Lead with the practical benefit, " +
		"keep jargon to a minimum, and stay strictly within what the sources state.",
	"investor": "Answer for an investor audience. Emphasize business impact and " +
		"key figures from the sources, briefly and without speculation.",
}

// buildSystemPrompt assembles the grounding instructions for answer generation.
func buildSystemPrompt(mode string) string {
	instruction, ok := modeInstructions[mode]
	if !ok {
		instruction = modeInstructions["technical"]
	}

	var b strings.Builder
	b.WriteString("You answer questions using ONLY the numbered source passages provided.\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Never use knowledge outside the passages.\n")
	b.WriteString("- Cite passages by number, like [1] or [2][3], after each claim.\n")
	b.WriteString(fmt.Sprintf("- If the passages do not contain the answer, reply that the information is %s.\n", NoAnswerSentinel))
	b.WriteString("- Do not pad the answer with caveats the passages do not support.\n\n")
	b.WriteString(instruction)
	return b.String()
}

// buildUserPrompt formats the passages and the question for the model.
func buildUserPrompt(question string, passages []string) string {
	var b strings.Builder
	b.WriteString("Source passages:\n\n")
	for i, passage := range passages {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, strings.TrimSpace(passage))
	}
	b.WriteString("Question: ")
	b.WriteString(strings.TrimSpace(question))
	return b.String()
}
