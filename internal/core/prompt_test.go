package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robo-univ/agent-portal/internal/store"
)

func TestPersonaFromAgent_Defaults(t *testing.T) {
	p := personaFromAgent(&store.Agent{Name: "Helper"}, "en")

	assert.Equal(t, store.ChatbotTypeGeneralLLM, p.ChatbotType)
	assert.Equal(t, defaultSpeakingStyle, p.SpeakingStyle)
	assert.Equal(t, defaultPersonalityTraits, p.PersonalityTraits)
	assert.Equal(t, cannedText(msgProhibitedDefault, "en"), p.ProhibitedWordResponse)
}

func TestResolveChatbotType(t *testing.T) {
	for _, ct := range store.ChatbotTypes {
		assert.Equal(t, ct, ResolveChatbotType(ct))
	}
	assert.Equal(t, store.ChatbotTypeGeneralLLM, ResolveChatbotType(""))
	assert.Equal(t, store.ChatbotTypeGeneralLLM, ResolveChatbotType("STRICT-DOC"))
}

func TestBuildSystemPrompt_LanguageDirectiveAtBothEnds(t *testing.T) {
	p := personaFromAgent(&store.Agent{Name: "Helper"}, "vi")
	prompt := buildSystemPrompt(p, nil, "vi")

	directive := languageDirective("vi")
	assert.True(t, strings.HasPrefix(prompt, directive))
	assert.True(t, strings.HasSuffix(prompt, directive))
	assert.Contains(t, directive, "Vietnamese")
}

func TestBuildSystemPrompt_PersonaFields(t *testing.T) {
	p := Persona{
		Name:                   "Dorm Bot",
		Description:            "dormitory life",
		ChatbotType:            store.ChatbotTypeGeneralLLM,
		SpeakingStyle:          "cheerful",
		PersonalityTraits:      "energetic",
		ProhibitedWordResponse: "Let's keep it friendly!",
	}
	prompt := buildSystemPrompt(p, nil, "en")

	assert.Contains(t, prompt, `You are "Dorm Bot"`)
	assert.Contains(t, prompt, "dormitory life")
	assert.Contains(t, prompt, "You must use this exact tone: cheerful")
	assert.Contains(t, prompt, "Personality: energetic")
	assert.Contains(t, prompt, "Let's keep it friendly!")
	assert.NotContains(t, prompt, "REFERENCE DOCUMENTS")
	assert.NotContains(t, prompt, "PERSONA OVERRIDE")
}

func TestBuildSystemPrompt_Policies(t *testing.T) {
	docs := []store.DocumentContext{{Filename: "rules.txt", Content: "No food in the library."}}

	strict := buildSystemPrompt(Persona{ChatbotType: store.ChatbotTypeStrictDoc}, docs, "en")
	assert.Contains(t, strict, "Do not use outside or general knowledge")
	assert.Contains(t, strict, "[rules.txt]\nNo food in the library.")

	fallback := buildSystemPrompt(Persona{ChatbotType: store.ChatbotTypeDocFallbackLLM}, docs, "en")
	assert.Contains(t, fallback, "answer from your general knowledge")
	assert.NotContains(t, fallback, "Do not use outside")

	fallbackNoDocs := buildSystemPrompt(Persona{ChatbotType: store.ChatbotTypeDocFallbackLLM}, nil, "en")
	assert.Contains(t, fallbackNoDocs, "No reference documents are available yet")

	general := buildSystemPrompt(Persona{ChatbotType: store.ChatbotTypeGeneralLLM}, docs, "en")
	web := buildSystemPrompt(Persona{ChatbotType: store.ChatbotTypeLLMWebSearch}, docs, "en")
	assert.Equal(t, general, web)
}

func TestBuildSystemPrompt_TruncatesDocuments(t *testing.T) {
	long := strings.Repeat("가", maxDocumentChars+500)
	prompt := buildSystemPrompt(Persona{ChatbotType: store.ChatbotTypeGeneralLLM}, []store.DocumentContext{{Filename: "long.txt", Content: long}}, "ko")

	assert.NotContains(t, prompt, long)
	assert.Contains(t, prompt, strings.Repeat("가", maxDocumentChars))
}

func TestIsGrumpyPersona(t *testing.T) {
	assert.True(t, isGrumpyPersona(Persona{SpeakingStyle: "Grumpy old librarian"}))
	assert.True(t, isGrumpyPersona(Persona{PersonalityTraits: "츤데레"}))
	assert.True(t, isGrumpyPersona(Persona{SpeakingStyle: "투덜거리는 말투"}))
	assert.False(t, isGrumpyPersona(Persona{SpeakingStyle: "friendly", PersonalityTraits: "kind"}))
}

func TestIsDocumentQuestion(t *testing.T) {
	docs := []store.DocumentContext{{Filename: "Syllabus_2024.pdf"}}

	assert.True(t, isDocumentQuestion("What is in the file?", nil))
	assert.True(t, isDocumentQuestion("문서 내용 요약해줘", nil))
	assert.True(t, isDocumentQuestion("check syllabus_2024 for me", docs))
	assert.True(t, isDocumentQuestion("open syllabus_2024.pdf", docs))
	assert.False(t, isDocumentQuestion("What's for lunch?", docs))

	short := []store.DocumentContext{{Filename: "a.pdf"}, {Filename: "QA.txt"}}
	assert.False(t, isDocumentQuestion("What time is the cafeteria open?", short))
	assert.False(t, isDocumentQuestion("any qa sessions today?", short))
	assert.True(t, isDocumentQuestion("summarize a.pdf", short))
}
