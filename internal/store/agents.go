package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const agentColumns = `id, name, description, category, manager_id, llm_model, chatbot_type,
    speaking_style, personality_traits, prohibited_word_response, visibility,
    upper_category, lower_category, detail_category, allowed_user_ids,
    web_search_enabled, web_search_engine, custom_api_key, icon_kind, icon_value,
    background_color, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*Agent, error) {
	var a Agent
	var allowed string
	var iconKind string
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Category, &a.ManagerID, &a.LLMModel, &a.ChatbotType,
		&a.SpeakingStyle, &a.PersonalityTraits, &a.ProhibitedWordResponse, &a.Visibility,
		&a.UpperCategory, &a.LowerCategory, &a.DetailCategory, &allowed,
		&a.WebSearchEnabled, &a.WebSearchEngine, &a.CustomAPIKey, &iconKind, &a.Icon.Value,
		&a.BackgroundColor, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.AllowedUserIDs = decodeStringList(allowed)
	a.Icon.Kind = IconKind(iconKind)
	return &a, nil
}

func (s *SQLiteStore) CreateAgent(ctx context.Context, a *Agent) error {
	now := time.Now()
	if a.ChatbotType == "" {
		a.ChatbotType = ChatbotTypeGeneralLLM
	}
	if a.Visibility == "" {
		a.Visibility = VisibilityPrivate
	}
	if a.WebSearchEngine == "" {
		a.WebSearchEngine = WebSearchEngineBing
	}
	if a.Icon.Kind == "" {
		a.Icon = SymbolicIcon("robot")
	}
	if a.BackgroundColor == "" {
		a.BackgroundColor = "blue"
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO agents (name, description, category, manager_id, llm_model, chatbot_type,
        speaking_style, personality_traits, prohibited_word_response, visibility,
        upper_category, lower_category, detail_category, allowed_user_ids,
        web_search_enabled, web_search_engine, custom_api_key, icon_kind, icon_value,
        background_color, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Name, a.Description, a.Category, a.ManagerID, a.LLMModel, a.ChatbotType,
		a.SpeakingStyle, a.PersonalityTraits, a.ProhibitedWordResponse, a.Visibility,
		a.UpperCategory, a.LowerCategory, a.DetailCategory, encodeStringList(a.AllowedUserIDs),
		a.WebSearchEnabled, a.WebSearchEngine, a.CustomAPIKey, string(a.Icon.Kind), a.Icon.Value,
		a.BackgroundColor, a.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert agent: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read agent id: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetAgent always reads the row from the database; callers rely on this for
// persona freshness.
func (s *SQLiteStore) GetAgent(ctx context.Context, id int64) (*Agent, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = ?", id)
	agent, err := scanAgent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return agent, nil
}

func (s *SQLiteStore) GetAgentByName(ctx context.Context, name string) (*Agent, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+agentColumns+" FROM agents WHERE name = ? ORDER BY id LIMIT 1", name)
	agent, err := scanAgent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent by name: %w", err)
	}
	return agent, nil
}

func (s *SQLiteStore) ListAgents(ctx context.Context, activeOnly bool) ([]Agent, error) {
	query := "SELECT " + agentColumns + " FROM agents"
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY id"
	return s.queryAgents(ctx, query)
}

func (s *SQLiteStore) ListAgentsByManager(ctx context.Context, managerID string) ([]Agent, error) {
	return s.queryAgents(ctx, "SELECT "+agentColumns+" FROM agents WHERE manager_id = ? ORDER BY id", managerID)
}

func (s *SQLiteStore) queryAgents(ctx context.Context, query string, args ...any) ([]Agent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent row: %w", err)
		}
		agents = append(agents, *agent)
	}
	return agents, rows.Err()
}

func (s *SQLiteStore) updateAgent(ctx context.Context, id int64, set string, args ...any) error {
	args = append(args, time.Now(), id)
	res, err := s.db.ExecContext(ctx, "UPDATE agents SET "+set+", updated_at = ? WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to execute agent update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("agent %d not found, not updated", id)
	}
	return nil
}

func (s *SQLiteStore) UpdateAgentPersona(ctx context.Context, id int64, name, description, speakingStyle, personalityTraits, prohibitedWordResponse string) error {
	return s.updateAgent(ctx, id,
		"name = ?, description = ?, speaking_style = ?, personality_traits = ?, prohibited_word_response = ?",
		name, description, speakingStyle, personalityTraits, prohibitedWordResponse)
}

func (s *SQLiteStore) UpdateAgentSettings(ctx context.Context, a *Agent) error {
	return s.updateAgent(ctx, a.ID,
		`llm_model = ?, chatbot_type = ?, visibility = ?, upper_category = ?, lower_category = ?,
        detail_category = ?, allowed_user_ids = ?, web_search_enabled = ?, web_search_engine = ?, custom_api_key = ?`,
		a.LLMModel, a.ChatbotType, a.Visibility, a.UpperCategory, a.LowerCategory,
		a.DetailCategory, encodeStringList(a.AllowedUserIDs), a.WebSearchEnabled, a.WebSearchEngine, a.CustomAPIKey)
}

func (s *SQLiteStore) UpdateAgentIcon(ctx context.Context, id int64, icon Icon, backgroundColor string) error {
	return s.updateAgent(ctx, id, "icon_kind = ?, icon_value = ?, background_color = ?",
		string(icon.Kind), icon.Value, backgroundColor)
}

func (s *SQLiteStore) SetAgentActive(ctx context.Context, id int64, active bool) error {
	return s.updateAgent(ctx, id, "is_active = ?", active)
}
