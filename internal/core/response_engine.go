package core

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robo-univ/agent-portal/internal/store"
	"github.com/robo-univ/agent-portal/internal/utils"
)

const (
	responseTemperature       = 0.3
	documentQuestionMaxTokens = 2048
	defaultMaxTokens          = 1024

	DefaultHistoryLimit    = 10
	DefaultLLMTimeout      = 60 * time.Second
	DefaultResponseTimeout = 80 * time.Second
)

// ChatResponse is what every path through the engine resolves to.
type ChatResponse struct {
	Message       string   `json:"message"`
	UsedDocuments []string `json:"usedDocuments"`
	TriggerAction string   `json:"triggerAction,omitempty"`
}

// AgentSource gives the engine a fresh agent snapshot on every call.
type AgentSource interface {
	GetAgent(ctx context.Context, id int64) (*store.Agent, error)
}

// DocumentProvider returns every document attached to an agent.
type DocumentProvider interface {
	GetDocuments(ctx context.Context, agentID int64) ([]store.DocumentContext, error)
}

type EngineConfig struct {
	Timeout      time.Duration // model call
	Deadline     time.Duration // whole request, translations included
	HistoryLimit int
	DefaultModel string
}

type GenerateRequest struct {
	ConversationType string
	AgentID          int64
	UserMessage      string
	History          []store.Message // prior messages, oldest first, current message excluded
	Documents        []store.DocumentContext
	Language         string
}

type ResponseEngine struct {
	agents     AgentSource
	llm        Completer
	translator *Translator
	commands   *CommandRouter
	cfg        EngineConfig
}

func NewResponseEngine(agents AgentSource, llm Completer, translator *Translator, cfg EngineConfig) *ResponseEngine {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = DefaultResponseTimeout
	}
	return &ResponseEngine{
		agents:     agents,
		llm:        llm,
		translator: translator,
		commands:   NewCommandRouter(),
		cfg:        cfg,
	}
}

// GenerateResponse never returns an error. Model, storage and translation
// failures all resolve to a localized message.
func (e *ResponseEngine) GenerateResponse(ctx context.Context, req GenerateRequest) (resp ChatResponse) {
	lang := utils.NormalizeLanguage(req.Language)

	ctx, cancelAll := context.WithTimeout(ctx, e.cfg.Deadline)
	defer cancelAll()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int64("agent_id", req.AgentID).Msg("Response generation panicked")
			resp = apologyResponse(lang)
		}
	}()

	if req.ConversationType == store.ConversationTypeManagement {
		if cmd := e.commands.Route(req.UserMessage, lang); cmd != nil {
			log.Debug().Int64("agent_id", req.AgentID).Str("trigger", cmd.TriggerAction).Msg("Management command matched")
			return *cmd
		}
	}

	agent, err := e.agents.GetAgent(ctx, req.AgentID)
	if err != nil || agent == nil {
		log.Error().Err(err).Int64("agent_id", req.AgentID).Msg("Failed to re-read agent before response")
		return apologyResponse(lang)
	}
	persona := personaFromAgent(agent, lang)

	docs := usableDocuments(req.Documents)
	if persona.ChatbotType == store.ChatbotTypeStrictDoc && len(docs) == 0 {
		log.Debug().Int64("agent_id", agent.ID).Msg("Strict document agent has no usable documents")
		return ChatResponse{
			Message:       cannedText(msgNoDocuments, lang),
			UsedDocuments: []string{},
		}
	}

	userMessage := e.translator.Translate(ctx, req.UserMessage, lang)
	persona = e.translatePersona(ctx, persona, lang)
	promptDocs := e.translateDocuments(ctx, docs, lang)
	history := e.historyTurns(ctx, req.History, lang)

	maxTokens := int32(defaultMaxTokens)
	if isDocumentQuestion(userMessage, docs) {
		maxTokens = documentQuestionMaxTokens
	}

	log.Debug().
		Int64("agent_id", agent.ID).
		Str("policy", persona.ChatbotType).
		Int("documents", len(docs)).
		Int("history", len(history)).
		Str("language", lang).
		Msg("Generating response")

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	model := agent.LLMModel
	if model == "" {
		model = e.cfg.DefaultModel
	}
	text, err := e.llm.Complete(callCtx, CompletionRequest{
		Model:             model,
		SystemInstruction: buildSystemPrompt(persona, promptDocs, lang),
		History:           history,
		Prompt:            userMessage + "\n\n" + languageReminder(lang),
		Temperature:       responseTemperature,
		MaxOutputTokens:   maxTokens,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyCompletion
	}
	if err != nil {
		log.Error().Err(err).Int64("agent_id", agent.ID).Str("model", model).Msg("Model call failed")
		return apologyResponse(lang)
	}

	used := make([]string, 0, len(docs))
	for _, d := range docs {
		used = append(used, d.Filename)
	}
	return ChatResponse{Message: text, UsedDocuments: used}
}

func (e *ResponseEngine) translatePersona(ctx context.Context, p Persona, lang string) Persona {
	fields := e.translator.TranslateAll(ctx, []string{p.Name, p.Description, p.SpeakingStyle, p.PersonalityTraits}, lang)
	p.Name, p.Description, p.SpeakingStyle, p.PersonalityTraits = fields[0], fields[1], fields[2], fields[3]
	return p
}

// translateDocuments translates the excerpt that goes into the prompt, not
// the whole document.
func (e *ResponseEngine) translateDocuments(ctx context.Context, docs []store.DocumentContext, lang string) []store.DocumentContext {
	if len(docs) == 0 {
		return docs
	}
	excerpts := make([]string, len(docs))
	for i, d := range docs {
		excerpts[i] = utils.Truncate(d.Content, maxDocumentChars)
	}
	translated := e.translator.TranslateAll(ctx, excerpts, lang)
	out := make([]store.DocumentContext, len(docs))
	for i, d := range docs {
		out[i] = store.DocumentContext{Filename: d.Filename, Content: translated[i]}
	}
	return out
}

// historyTurns keeps the most recent HistoryLimit messages, oldest first.
func (e *ResponseEngine) historyTurns(ctx context.Context, history []store.Message, lang string) []Turn {
	if len(history) > e.cfg.HistoryLimit {
		history = history[len(history)-e.cfg.HistoryLimit:]
	}
	contents := make([]string, len(history))
	for i, m := range history {
		contents[i] = m.Content
	}
	contents = e.translator.TranslateAll(ctx, contents, lang)

	turns := make([]Turn, len(history))
	for i, m := range history {
		role := roleModel
		if m.IsFromUser {
			role = roleUser
		}
		turns[i] = Turn{Role: role, Content: contents[i]}
	}
	return turns
}

func apologyResponse(lang string) ChatResponse {
	return ChatResponse{
		Message:       cannedText(msgApology, lang),
		UsedDocuments: []string{},
	}
}
