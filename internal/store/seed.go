package store

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// AgentSeed is one entry of an agents seed file.
type AgentSeed struct {
	Name                   string   `yaml:"name"`
	Description            string   `yaml:"description"`
	Category               string   `yaml:"category"`
	Manager                string   `yaml:"manager"`
	LLMModel               string   `yaml:"llm_model"`
	ChatbotType            string   `yaml:"chatbot_type"`
	SpeakingStyle          string   `yaml:"speaking_style"`
	PersonalityTraits      string   `yaml:"personality_traits"`
	ProhibitedWordResponse string   `yaml:"prohibited_word_response"`
	Visibility             string   `yaml:"visibility"`
	UpperCategory          string   `yaml:"upper_category"`
	LowerCategory          string   `yaml:"lower_category"`
	DetailCategory         string   `yaml:"detail_category"`
	AllowedUsers           []string `yaml:"allowed_users"`
	Icon                   string   `yaml:"icon"`
	BackgroundColor        string   `yaml:"background_color"`
}

type agentSeedFile struct {
	Agents []AgentSeed `yaml:"agents"`
}

// SeedAgentsFromFile reads a YAML agents file and creates or updates each
// agent by name. Returns the number of agents written.
func (s *SQLiteStore) SeedAgentsFromFile(ctx context.Context, filePath string) (int, error) {
	contentBytes, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file %s: %w", filePath, err)
	}

	var file agentSeedFile
	if err := yaml.Unmarshal(contentBytes, &file); err != nil {
		return 0, fmt.Errorf("failed to parse seed file %s: %w", filePath, err)
	}

	count := 0
	for i, seed := range file.Agents {
		if seed.Name == "" {
			log.Warn().Int("index", i).Msg("Skipping seed entry without a name")
			continue
		}
		agent := seed.toAgent()

		existing, err := s.GetAgentByName(ctx, seed.Name)
		if err != nil {
			return count, err
		}
		if existing == nil {
			if err := s.CreateAgent(ctx, agent); err != nil {
				return count, err
			}
			log.Info().Int64("agent_id", agent.ID).Str("name", agent.Name).Msg("Seeded new agent")
		} else {
			agent.ID = existing.ID
			agent.CustomAPIKey = existing.CustomAPIKey
			if err := s.UpdateAgentPersona(ctx, agent.ID, agent.Name, agent.Description, agent.SpeakingStyle, agent.PersonalityTraits, agent.ProhibitedWordResponse); err != nil {
				return count, err
			}
			if err := s.UpdateAgentSettings(ctx, agent); err != nil {
				return count, err
			}
			if err := s.UpdateAgentIcon(ctx, agent.ID, agent.Icon, agent.BackgroundColor); err != nil {
				return count, err
			}
			log.Info().Int64("agent_id", agent.ID).Str("name", agent.Name).Msg("Updated seeded agent")
		}
		count++
	}
	return count, nil
}

func (seed AgentSeed) toAgent() *Agent {
	a := &Agent{
		Name:                   seed.Name,
		Description:            seed.Description,
		Category:               seed.Category,
		ManagerID:              seed.Manager,
		LLMModel:               seed.LLMModel,
		ChatbotType:            seed.ChatbotType,
		SpeakingStyle:          seed.SpeakingStyle,
		PersonalityTraits:      seed.PersonalityTraits,
		ProhibitedWordResponse: seed.ProhibitedWordResponse,
		Visibility:             seed.Visibility,
		UpperCategory:          seed.UpperCategory,
		LowerCategory:          seed.LowerCategory,
		DetailCategory:         seed.DetailCategory,
		AllowedUserIDs:         seed.AllowedUsers,
		BackgroundColor:        seed.BackgroundColor,
		WebSearchEngine:        WebSearchEngineBing,
		IsActive:               true,
	}
	if a.ChatbotType == "" {
		a.ChatbotType = ChatbotTypeGeneralLLM
	}
	if a.Visibility == "" {
		a.Visibility = VisibilityPublic
	}
	if a.BackgroundColor == "" {
		a.BackgroundColor = "blue"
	}
	a.Icon = SymbolicIcon("robot")
	if seed.Icon != "" {
		a.Icon = SymbolicIcon(seed.Icon)
	}
	return a
}
