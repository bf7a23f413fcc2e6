package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/robo-univ/agent-portal/internal/store"
	"github.com/robo-univ/agent-portal/internal/utils"
)

const (
	defaultSpeakingStyle     = "friendly and helpful tone"
	defaultPersonalityTraits = "kind, professional, accurate"

	// maxDocumentChars caps each document's share of the system prompt.
	maxDocumentChars = 12000
)

// grumpyMarkers switch on the grumpy persona override when found in the
// speaking style or personality traits.
var grumpyMarkers = []string{"grumpy", "cranky", "annoyed", "tsundere", "츤데레", "짜증", "투덜", "퉁명"}

// documentQuestionKeywords mark a message as asking about document content.
var documentQuestionKeywords = []string{"document", "content", "file", "문서", "내용", "파일"}

// Persona is the agent configuration snapshot a prompt is built from.
type Persona struct {
	Name                   string
	Description            string
	ChatbotType            string
	SpeakingStyle          string
	PersonalityTraits      string
	ProhibitedWordResponse string
}

// ResolveChatbotType maps unknown or empty values to general-llm.
func ResolveChatbotType(t string) string {
	switch t {
	case store.ChatbotTypeStrictDoc, store.ChatbotTypeDocFallbackLLM, store.ChatbotTypeGeneralLLM, store.ChatbotTypeLLMWebSearch:
		return t
	}
	return store.ChatbotTypeGeneralLLM
}

func personaFromAgent(a *store.Agent, lang string) Persona {
	p := Persona{
		Name:                   a.Name,
		Description:            a.Description,
		ChatbotType:            ResolveChatbotType(a.ChatbotType),
		SpeakingStyle:          strings.TrimSpace(a.SpeakingStyle),
		PersonalityTraits:      strings.TrimSpace(a.PersonalityTraits),
		ProhibitedWordResponse: strings.TrimSpace(a.ProhibitedWordResponse),
	}
	if p.SpeakingStyle == "" {
		p.SpeakingStyle = defaultSpeakingStyle
	}
	if p.PersonalityTraits == "" {
		p.PersonalityTraits = defaultPersonalityTraits
	}
	if p.ProhibitedWordResponse == "" {
		p.ProhibitedWordResponse = cannedText(msgProhibitedDefault, lang)
	}
	return p
}

func isGrumpyPersona(p Persona) bool {
	text := strings.ToLower(p.SpeakingStyle + " " + p.PersonalityTraits)
	for _, marker := range grumpyMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// minFilenameStemRunes keeps short stems like "a" in "a.pdf" from matching
// ordinary messages.
const minFilenameStemRunes = 3

// isDocumentQuestion is the heuristic that earns a larger token budget.
func isDocumentQuestion(message string, docs []store.DocumentContext) bool {
	lowered := strings.ToLower(message)
	for _, kw := range documentQuestionKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	for _, d := range docs {
		name := strings.ToLower(d.Filename)
		if name == "" {
			continue
		}
		if strings.Contains(lowered, name) {
			return true
		}
		if dot := strings.LastIndex(name, "."); dot > 0 {
			stem := name[:dot]
			if utf8.RuneCountInString(stem) >= minFilenameStemRunes && strings.Contains(lowered, stem) {
				return true
			}
		}
	}
	return false
}

func languageDirective(lang string) string {
	name := languageName(lang)
	return fmt.Sprintf("IMPORTANT: You must respond only in %s. Even if the documents, persona or earlier messages are written in another language, write your entire answer in %s.", name, name)
}

func languageReminder(lang string) string {
	return fmt.Sprintf("(Please answer in %s.)", languageName(lang))
}

func policyInstruction(chatbotType string, hasDocuments bool) string {
	switch chatbotType {
	case store.ChatbotTypeStrictDoc:
		return "Answer ONLY with information found in the reference documents below. " +
			"Do not use outside or general knowledge under any circumstances. " +
			"If the documents do not contain the answer, say clearly that the uploaded documents do not cover it. " +
			"Cite the document name you used."
	case store.ChatbotTypeDocFallbackLLM:
		if !hasDocuments {
			return "No reference documents are available yet, so answer from your general knowledge and mention that the answer is not based on uploaded documents."
		}
		return "Answer from the reference documents below first and cite the document name you used. " +
			"If the documents do not contain the answer, say so briefly and then answer from your general knowledge."
	default: // general-llm and llm-web-search
		if !hasDocuments {
			return "Answer from your general knowledge. Be concrete and practical."
		}
		return "Answer from your general knowledge. When the reference documents below are relevant, use them and cite the document name."
	}
}

const grumpyOverride = `PERSONA OVERRIDE (grumpy character):
- Start every answer with a short annoyed interjection (for example "Ugh..." or "Hmph,").
- Then give the complete, accurate and helpful answer. Never skip or shorten the real answer because of the attitude.
- Finish with one more short grumbling remark (for example "...there, happy now?").`

// buildSystemPrompt assembles the system instruction for one turn. The
// language directive appears at both the start and the end.
func buildSystemPrompt(p Persona, docs []store.DocumentContext, lang string) string {
	var b strings.Builder
	directive := languageDirective(lang)

	b.WriteString(directive)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "You are \"%s\", a university chatbot agent.", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, " Your area of knowledge: %s", p.Description)
	}
	b.WriteString("\n\n")

	b.WriteString("ANSWERING POLICY:\n")
	b.WriteString(policyInstruction(p.ChatbotType, len(docs) > 0))
	b.WriteString("\n\n")

	b.WriteString("STYLE:\n")
	fmt.Fprintf(&b, "- You must use this exact tone: %s\n", p.SpeakingStyle)
	fmt.Fprintf(&b, "- Personality: %s\n", p.PersonalityTraits)
	fmt.Fprintf(&b, "- When asked about prohibited, harmful or inappropriate topics, reply exactly with: %s\n", p.ProhibitedWordResponse)
	b.WriteString("- Express formulas in LaTeX.\n")

	if isGrumpyPersona(p) {
		b.WriteString("\n")
		b.WriteString(grumpyOverride)
		b.WriteString("\n")
	}

	if len(docs) > 0 {
		b.WriteString("\nREFERENCE DOCUMENTS:\n")
		for _, d := range docs {
			fmt.Fprintf(&b, "[%s]\n%s\n\n", d.Filename, utils.Truncate(d.Content, maxDocumentChars))
		}
	}

	b.WriteString("\n")
	b.WriteString(directive)
	return b.String()
}
