package core

import (
	"strings"

	"github.com/robo-univ/agent-portal/internal/utils"
)

// Trigger actions tell the chat UI which control surface to open.
const (
	TriggerOpenPersonaModal  = "openPersonaModal"
	TriggerOpenSettingsModal = "openSettingsModal"
	TriggerOpenFileModal     = "openFileModal"
	TriggerStartNotification = "startNotification"
)

type CommandCategory string

const (
	CommandPersona      CommandCategory = "persona"
	CommandSettings     CommandCategory = "settings"
	CommandDocuments    CommandCategory = "documents"
	CommandNotification CommandCategory = "notification"
	CommandHelp         CommandCategory = "help"
)

// CommandRule maps a keyword group to its reply and trigger action.
type CommandRule struct {
	Category CommandCategory
	Keywords []string // lowercase, matched as substrings
	Trigger  string
	reply    cannedKey
}

// DefaultCommandRules is the management command table in priority order:
// the first rule with a matching keyword wins.
var DefaultCommandRules = []CommandRule{
	{
		Category: CommandPersona,
		Keywords: []string{"persona", "tone", "character", "nickname", "edit", "change", "페르소나", "말투", "성격", "닉네임", "캐릭터", "편집", "변경", "수정"},
		Trigger:  TriggerOpenPersonaModal,
		reply:    msgPersonaCommand,
	},
	{
		Category: CommandSettings,
		Keywords: []string{"chatbot", "settings", "model", "llm", "챗봇", "설정", "모델"},
		Trigger:  TriggerOpenSettingsModal,
		reply:    msgSettingsCommand,
	},
	{
		Category: CommandDocuments,
		Keywords: []string{"document", "upload", "file", "knowledge", "문서", "업로드", "파일", "지식"},
		Trigger:  TriggerOpenFileModal,
		reply:    msgDocumentCommand,
	},
	{
		Category: CommandNotification,
		Keywords: []string{"notify", "notification", "broadcast", "announcement", "알림", "공지", "브로드캐스트"},
		Trigger:  TriggerStartNotification,
		reply:    msgNotificationCommand,
	},
	{
		Category: CommandHelp,
		Keywords: []string{"help", "commands", "usage", "도움", "도움말", "명령어", "사용법"},
		reply:    msgHelp,
	},
}

// CommandRouter intercepts management commands typed into a management
// conversation.
type CommandRouter struct {
	rules []CommandRule
}

func NewCommandRouter() *CommandRouter {
	return &CommandRouter{rules: DefaultCommandRules}
}

// Classify returns the first rule whose keywords occur in message.
func (r *CommandRouter) Classify(message string) (CommandRule, bool) {
	lowered := strings.ToLower(message)
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				return rule, true
			}
		}
	}
	return CommandRule{}, false
}

// Route returns the command reply, or nil when message is ordinary
// conversation and should go to the model.
func (r *CommandRouter) Route(message, language string) *ChatResponse {
	rule, ok := r.Classify(message)
	if !ok {
		return nil
	}
	return &ChatResponse{
		Message:       cannedText(rule.reply, utils.NormalizeLanguage(language)),
		UsedDocuments: []string{},
		TriggerAction: rule.Trigger,
	}
}
