package services

import (
	"fmt"
	"strings"

	"converza-backend/internal/models"
)

// buildSystemPrompt returns the synthesized instruction turn for the given
// audience. Unknown user types fall back to the client-facing template.
func buildSystemPrompt(company, userType string) string {
	var b strings.Builder

	switch userType {
	case models.UserTypeCompany:
		b.WriteString(fmt.Sprintf("You are the internal assistant for %s staff.\n\n", company))
		b.WriteString("Audience: employees who already know the company, its products and its internal vocabulary.\n")
		b.WriteString("Tone: direct and efficient. Skip introductions and marketing language.\n")
		b.WriteString("When asked about processes, pricing or policies, answer factually and flag anything you are unsure about so it can be checked with the responsible team.\n")
	default:
		b.WriteString(fmt.Sprintf("You are the website assistant for %s, chatting with a visitor or customer.\n\n", company))
		b.WriteString("Audience: people outside the company who may be evaluating its services for the first time.\n")
		b.WriteString("Tone: warm, professional and easy to follow. Avoid internal jargon.\n")
		b.WriteString("If you do not know something, say so and suggest contacting the team directly rather than guessing.\n")
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Answer in the language the user writes in.\n")
	b.WriteString("- Keep answers short; this is a chat widget, not a document.\n")
	b.WriteString("- Never invent prices, dates or commitments on behalf of the company.\n")

	return b.String()
}
