package store

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	RoleUser       = "user"
	RoleAgentAdmin = "agent_admin"
	RoleSuperAdmin = "super_admin"
)

type User struct {
	ID        string    `json:"id"` // JWT subject
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	ChatbotTypeStrictDoc      = "strict-doc"
	ChatbotTypeDocFallbackLLM = "doc-fallback-llm"
	ChatbotTypeGeneralLLM     = "general-llm"
	ChatbotTypeLLMWebSearch   = "llm-web-search"
)

var ChatbotTypes = []string{ChatbotTypeStrictDoc, ChatbotTypeDocFallbackLLM, ChatbotTypeGeneralLLM, ChatbotTypeLLMWebSearch}

const (
	VisibilityPublic  = "public"
	VisibilityGroup   = "group"
	VisibilityUser    = "user"
	VisibilityPrivate = "private"
)

var Visibilities = []string{VisibilityPublic, VisibilityGroup, VisibilityUser, VisibilityPrivate}

const (
	WebSearchEngineBing   = "bing"
	WebSearchEngineCustom = "custom"
)

type IconKind string

const (
	IconSymbolic IconKind = "symbolic"
	IconUploaded IconKind = "uploaded"
)

// Icon is either a symbolic icon name or the path of an uploaded image.
type Icon struct {
	Kind  IconKind `json:"kind"`
	Value string   `json:"value"`
}

func SymbolicIcon(name string) Icon { return Icon{Kind: IconSymbolic, Value: name} }
func UploadedIcon(path string) Icon { return Icon{Kind: IconUploaded, Value: path} }

func (i Icon) Validate() error {
	if i.Kind != IconSymbolic && i.Kind != IconUploaded {
		return fmt.Errorf("unknown icon kind %q", i.Kind)
	}
	if i.Value == "" {
		return fmt.Errorf("icon value is empty")
	}
	return nil
}

type Agent struct {
	ID                     int64     `json:"id"`
	Name                   string    `json:"name"`
	Description            string    `json:"description"`
	Category               string    `json:"category"`
	ManagerID              string    `json:"manager_id"`
	LLMModel               string    `json:"llm_model"`
	ChatbotType            string    `json:"chatbot_type"`
	SpeakingStyle          string    `json:"speaking_style"`
	PersonalityTraits      string    `json:"personality_traits"`
	ProhibitedWordResponse string    `json:"prohibited_word_response"`
	Visibility             string    `json:"visibility"`
	UpperCategory          string    `json:"upper_category"`
	LowerCategory          string    `json:"lower_category"`
	DetailCategory         string    `json:"detail_category"`
	AllowedUserIDs         []string  `json:"allowed_user_ids"`
	WebSearchEnabled       bool      `json:"web_search_enabled"`
	WebSearchEngine        string    `json:"web_search_engine"`
	CustomAPIKey           string    `json:"-"`
	Icon                   Icon      `json:"icon"`
	BackgroundColor        string    `json:"background_color"`
	IsActive               bool      `json:"is_active"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

const (
	ConversationTypeGeneral    = "general"
	ConversationTypeManagement = "management"
)

type Conversation struct {
	ID            string     `json:"id"` // Using UUID for external ID
	UserID        string     `json:"user_id"`
	AgentID       int64      `json:"agent_id"`
	Type          string     `json:"type"`
	UnreadCount   int        `json:"unread_count"`
	LastMessageAt *time.Time `json:"last_message_at"`
	IsHidden      bool       `json:"is_hidden"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Message struct {
	ID             string    `json:"id"` // Using UUID for external ID
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	IsFromUser     bool      `json:"is_from_user"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

type Reaction struct {
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

type Document struct {
	ID           int64     `json:"id"`
	AgentID      int64     `json:"agent_id"`
	Filename     string    `json:"filename"` // storage name
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	Content      *string   `json:"-"` // Nullable, best-effort extracted text
	UploadedBy   string    `json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// DocumentContext is the {filename, text} pair handed to the response engine.
type DocumentContext struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

func encodeStringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(values)
	return string(b)
}

func decodeStringList(raw string) []string {
	var values []string
	if raw == "" {
		return values
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}
