package core

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robo-univ/agent-portal/internal/apperrors"
	"github.com/robo-univ/agent-portal/internal/store"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsSuperAdmin() bool {
	return a.Role == store.RoleSuperAdmin
}

// canManage reports whether the actor may administer agent.
func (a Actor) canManage(agent *store.Agent) bool {
	return a.IsSuperAdmin() || (a.UserID != "" && agent.ManagerID == a.UserID)
}

// canView applies the agent's visibility rule. Group membership is owned
// by the organization directory, so group agents are visible to every
// authenticated user.
func (a Actor) canView(agent *store.Agent) bool {
	if a.canManage(agent) {
		return true
	}
	if !agent.IsActive {
		return false
	}
	switch agent.Visibility {
	case store.VisibilityPublic, store.VisibilityGroup:
		return true
	case store.VisibilityUser:
		return slices.Contains(agent.AllowedUserIDs, a.UserID)
	default:
		return false
	}
}

type PersonaUpdate struct {
	Nickname               string `json:"nickname"`
	KnowledgeArea          string `json:"knowledgeArea"`
	SpeakingStyle          string `json:"speakingStyle"`
	PersonalityTraits      string `json:"personalityTraits"`
	ProhibitedWordResponse string `json:"prohibitedWordResponse"`
}

type SettingsUpdate struct {
	LLMModel         string   `json:"llmModel"`
	ChatbotType      string   `json:"chatbotType"`
	Visibility       string   `json:"visibility"`
	UpperCategory    string   `json:"upperCategory"`
	LowerCategory    string   `json:"lowerCategory"`
	DetailCategory   string   `json:"detailCategory"`
	AllowedUserIDs   []string `json:"allowedUserIds"`
	WebSearchEnabled bool     `json:"webSearchEnabled"`
	WebSearchEngine  string   `json:"webSearchEngine"`
	CustomAPIKey     *string  `json:"customApiKey"` // nil keeps the stored key
}

type AgentService struct {
	dbStore       *store.SQLiteStore
	allowedModels []string
}

func NewAgentService(db *store.SQLiteStore, allowedModels []string) *AgentService {
	return &AgentService{dbStore: db, allowedModels: allowedModels}
}

func (s *AgentService) GetAgent(ctx context.Context, actor Actor, agentID int64) (*store.Agent, error) {
	agent, err := loadAgent(ctx, s.dbStore, agentID)
	if err != nil {
		return nil, err
	}
	if !actor.canView(agent) {
		return nil, apperrors.NewNotFoundError("agent", strconv.FormatInt(agentID, 10))
	}
	return agent, nil
}

// ListAgents returns the active agents visible to actor.
func (s *AgentService) ListAgents(ctx context.Context, actor Actor) ([]store.Agent, error) {
	agents, err := s.dbStore.ListAgents(ctx, true)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list agents", err)
	}
	visible := make([]store.Agent, 0, len(agents))
	for i := range agents {
		if actor.canView(&agents[i]) {
			visible = append(visible, agents[i])
		}
	}
	return visible, nil
}

// ListManagedAgents returns the agents actor administers; every agent for a
// super admin.
func (s *AgentService) ListManagedAgents(ctx context.Context, actor Actor) ([]store.Agent, error) {
	var (
		agents []store.Agent
		err    error
	)
	if actor.IsSuperAdmin() {
		agents, err = s.dbStore.ListAgents(ctx, false)
	} else {
		agents, err = s.dbStore.ListAgentsByManager(ctx, actor.UserID)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list managed agents", err)
	}
	if agents == nil {
		agents = []store.Agent{}
	}
	return agents, nil
}

func (s *AgentService) UpdatePersona(ctx context.Context, actor Actor, agentID int64, upd PersonaUpdate) (*store.Agent, error) {
	agent, err := managedAgent(ctx, s.dbStore, actor, agentID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(upd.Nickname)
	if name == "" {
		return nil, apperrors.NewValidationError("nickname is required", "")
	}
	err = s.dbStore.UpdateAgentPersona(ctx, agent.ID, name,
		strings.TrimSpace(upd.KnowledgeArea),
		strings.TrimSpace(upd.SpeakingStyle),
		strings.TrimSpace(upd.PersonalityTraits),
		strings.TrimSpace(upd.ProhibitedWordResponse))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update persona", err)
	}

	log.Info().Int64("agent_id", agent.ID).Str("user_id", actor.UserID).Msg("Agent persona updated")
	return loadAgent(ctx, s.dbStore, agent.ID)
}

func (s *AgentService) UpdateSettings(ctx context.Context, actor Actor, agentID int64, upd SettingsUpdate) (*store.Agent, error) {
	agent, err := managedAgent(ctx, s.dbStore, actor, agentID)
	if err != nil {
		return nil, err
	}
	if err := s.validateSettings(upd); err != nil {
		return nil, err
	}

	agent.LLMModel = upd.LLMModel
	agent.ChatbotType = upd.ChatbotType
	agent.Visibility = upd.Visibility
	agent.UpperCategory = upd.UpperCategory
	agent.LowerCategory = upd.LowerCategory
	agent.DetailCategory = upd.DetailCategory
	agent.AllowedUserIDs = upd.AllowedUserIDs
	agent.WebSearchEnabled = upd.WebSearchEnabled
	if upd.WebSearchEngine != "" {
		agent.WebSearchEngine = upd.WebSearchEngine
	}
	if upd.CustomAPIKey != nil {
		agent.CustomAPIKey = strings.TrimSpace(*upd.CustomAPIKey)
	}

	if err := s.dbStore.UpdateAgentSettings(ctx, agent); err != nil {
		return nil, apperrors.NewInternalError("failed to update settings", err)
	}

	log.Info().
		Int64("agent_id", agent.ID).
		Str("user_id", actor.UserID).
		Str("chatbot_type", agent.ChatbotType).
		Str("model", agent.LLMModel).
		Msg("Agent settings updated")
	return loadAgent(ctx, s.dbStore, agent.ID)
}

func (s *AgentService) UpdateIcon(ctx context.Context, actor Actor, agentID int64, icon store.Icon, backgroundColor string) (*store.Agent, error) {
	agent, err := managedAgent(ctx, s.dbStore, actor, agentID)
	if err != nil {
		return nil, err
	}
	if err := icon.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid icon", err.Error())
	}
	if backgroundColor == "" {
		backgroundColor = agent.BackgroundColor
	}
	if err := s.dbStore.UpdateAgentIcon(ctx, agent.ID, icon, backgroundColor); err != nil {
		return nil, apperrors.NewInternalError("failed to update icon", err)
	}
	return loadAgent(ctx, s.dbStore, agent.ID)
}

func (s *AgentService) validateSettings(upd SettingsUpdate) error {
	if !slices.Contains(store.ChatbotTypes, upd.ChatbotType) {
		return apperrors.NewValidationError("invalid chatbot type",
			fmt.Sprintf("chatbotType must be one of %s", strings.Join(store.ChatbotTypes, ", ")))
	}
	if !slices.Contains(store.Visibilities, upd.Visibility) {
		return apperrors.NewValidationError("invalid visibility",
			fmt.Sprintf("visibility must be one of %s", strings.Join(store.Visibilities, ", ")))
	}
	if len(s.allowedModels) > 0 && !slices.Contains(s.allowedModels, upd.LLMModel) {
		return apperrors.NewValidationError("unsupported model",
			fmt.Sprintf("llmModel must be one of %s", strings.Join(s.allowedModels, ", ")))
	}
	switch upd.WebSearchEngine {
	case "", store.WebSearchEngineBing, store.WebSearchEngineCustom:
	default:
		return apperrors.NewValidationError("invalid web search engine", "webSearchEngine must be bing or custom")
	}
	return nil
}

// managedAgent loads the agent and checks that actor may administer it.
func managedAgent(ctx context.Context, db *store.SQLiteStore, actor Actor, agentID int64) (*store.Agent, error) {
	agent, err := loadAgent(ctx, db, agentID)
	if err != nil {
		return nil, err
	}
	if !actor.canManage(agent) {
		return nil, apperrors.NewForbiddenError("only the agent manager or a super admin can change this agent")
	}
	return agent, nil
}

func loadAgent(ctx context.Context, db *store.SQLiteStore, agentID int64) (*store.Agent, error) {
	agent, err := db.GetAgent(ctx, agentID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load agent", err)
	}
	if agent == nil {
		return nil, apperrors.NewNotFoundError("agent", strconv.FormatInt(agentID, 10))
	}
	return agent, nil
}
