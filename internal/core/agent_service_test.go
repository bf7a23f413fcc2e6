package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robo-univ/agent-portal/internal/apperrors"
	"github.com/robo-univ/agent-portal/internal/store"
)

func TestActor_CanView(t *testing.T) {
	base := store.Agent{ManagerID: manager.UserID, IsActive: true}

	tests := []struct {
		name   string
		mutate func(a *store.Agent)
		actor  Actor
		want   bool
	}{
		{"public", func(a *store.Agent) { a.Visibility = store.VisibilityPublic }, student, true},
		{"group", func(a *store.Agent) { a.Visibility = store.VisibilityGroup }, student, true},
		{"private", func(a *store.Agent) { a.Visibility = store.VisibilityPrivate }, student, false},
		{"private manager", func(a *store.Agent) { a.Visibility = store.VisibilityPrivate }, manager, true},
		{"private super admin", func(a *store.Agent) { a.Visibility = store.VisibilityPrivate }, admin, true},
		{"user allowed", func(a *store.Agent) {
			a.Visibility = store.VisibilityUser
			a.AllowedUserIDs = []string{student.UserID}
		}, student, true},
		{"user not allowed", func(a *store.Agent) {
			a.Visibility = store.VisibilityUser
			a.AllowedUserIDs = []string{"student-9"}
		}, student, false},
		{"inactive public", func(a *store.Agent) {
			a.Visibility = store.VisibilityPublic
			a.IsActive = false
		}, student, false},
		{"inactive manager", func(a *store.Agent) {
			a.Visibility = store.VisibilityPublic
			a.IsActive = false
		}, manager, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := base
			tt.mutate(&agent)
			assert.Equal(t, tt.want, tt.actor.canView(&agent))
		})
	}
}

func TestAgentService_GetAndList(t *testing.T) {
	db := newServiceStore(t)
	svc := NewAgentService(db, nil)
	ctx := context.Background()

	public := createAgent(t, db, store.ChatbotTypeGeneralLLM, store.VisibilityPublic)
	private := createAgent(t, db, store.ChatbotTypeGeneralLLM, store.VisibilityPrivate)

	got, err := svc.GetAgent(ctx, student, public.ID)
	require.NoError(t, err)
	assert.Equal(t, public.ID, got.ID)

	_, err = svc.GetAgent(ctx, student, private.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.GetAgent(ctx, student, 9999)
	assert.True(t, apperrors.IsNotFound(err))

	agents, err := svc.ListAgents(ctx, student)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, public.ID, agents[0].ID)

	agents, err = svc.ListAgents(ctx, manager)
	require.NoError(t, err)
	assert.Len(t, agents, 2)
}

func TestAgentService_ListManagedAgents(t *testing.T) {
	db := newServiceStore(t)
	svc := NewAgentService(db, nil)
	ctx := context.Background()

	createAgent(t, db, store.ChatbotTypeGeneralLLM, store.VisibilityPublic)
	other := &store.Agent{Name: "Library", ManagerID: "prof-lee", IsActive: true}
	require.NoError(t, db.CreateAgent(ctx, other))

	agents, err := svc.ListManagedAgents(ctx, manager)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, manager.UserID, agents[0].ManagerID)

	agents, err = svc.ListManagedAgents(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, agents, 2)

	agents, err = svc.ListManagedAgents(ctx, student)
	require.NoError(t, err)
	assert.NotNil(t, agents)
	assert.Empty(t, agents)
}

func TestAgentService_UpdatePersona(t *testing.T) {
	db := newServiceStore(t)
	svc := NewAgentService(db, nil)
	ctx := context.Background()
	agent := createAgent(t, db, store.ChatbotTypeGeneralLLM, store.VisibilityPublic)

	upd := PersonaUpdate{
		Nickname:               "  Grumpy Librarian ",
		KnowledgeArea:          "Library hours",
		SpeakingStyle:          "grumpy",
		PersonalityTraits:      "blunt",
		ProhibitedWordResponse: "Mind your words.",
	}

	_, err := svc.UpdatePersona(ctx, student, agent.ID, upd)
	assert.True(t, apperrors.IsForbidden(err))

	updated, err := svc.UpdatePersona(ctx, manager, agent.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "Grumpy Librarian", updated.Name)
	assert.Equal(t, "Library hours", updated.Description)
	assert.Equal(t, "grumpy", updated.SpeakingStyle)
	assert.Equal(t, "blunt", updated.PersonalityTraits)
	assert.Equal(t, "Mind your words.", updated.ProhibitedWordResponse)

	_, err = svc.UpdatePersona(ctx, manager, agent.ID, PersonaUpdate{Nickname: " "})
	assert.True(t, apperrors.IsValidationError(err))

	_, err = svc.UpdatePersona(ctx, admin, 9999, upd)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAgentService_UpdateSettings(t *testing.T) {
	db := newServiceStore(t)
	svc := NewAgentService(db, []string{"gemini-2.0-flash", "gemini-1.5-pro"})
	ctx := context.Background()
	agent := createAgent(t, db, store.ChatbotTypeGeneralLLM, store.VisibilityPublic)

	key := "secret"
	upd := SettingsUpdate{
		LLMModel:         "gemini-1.5-pro",
		ChatbotType:      store.ChatbotTypeStrictDoc,
		Visibility:       store.VisibilityUser,
		UpperCategory:    "Academics",
		AllowedUserIDs:   []string{student.UserID},
		WebSearchEnabled: true,
		WebSearchEngine:  store.WebSearchEngineCustom,
		CustomAPIKey:     &key,
	}

	_, err := svc.UpdateSettings(ctx, student, agent.ID, upd)
	assert.True(t, apperrors.IsForbidden(err))

	updated, err := svc.UpdateSettings(ctx, manager, agent.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", updated.LLMModel)
	assert.Equal(t, store.ChatbotTypeStrictDoc, updated.ChatbotType)
	assert.Equal(t, store.VisibilityUser, updated.Visibility)
	assert.Equal(t, []string{student.UserID}, updated.AllowedUserIDs)
	assert.True(t, updated.WebSearchEnabled)
	assert.Equal(t, "secret", updated.CustomAPIKey)

	// A nil key keeps the stored one.
	upd.CustomAPIKey = nil
	updated, err = svc.UpdateSettings(ctx, manager, agent.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "secret", updated.CustomAPIKey)

	invalid := []SettingsUpdate{
		{LLMModel: "gemini-1.5-pro", ChatbotType: "rag", Visibility: store.VisibilityPublic},
		{LLMModel: "gemini-1.5-pro", ChatbotType: store.ChatbotTypeGeneralLLM, Visibility: "everyone"},
		{LLMModel: "gpt-4", ChatbotType: store.ChatbotTypeGeneralLLM, Visibility: store.VisibilityPublic},
		{LLMModel: "gemini-1.5-pro", ChatbotType: store.ChatbotTypeGeneralLLM, Visibility: store.VisibilityPublic, WebSearchEngine: "altavista"},
	}
	for _, u := range invalid {
		_, err := svc.UpdateSettings(ctx, manager, agent.ID, u)
		assert.True(t, apperrors.IsValidationError(err), "%+v", u)
	}
}

func TestAgentService_UpdateIcon(t *testing.T) {
	db := newServiceStore(t)
	svc := NewAgentService(db, nil)
	ctx := context.Background()
	agent := createAgent(t, db, store.ChatbotTypeGeneralLLM, store.VisibilityPublic)

	updated, err := svc.UpdateIcon(ctx, manager, agent.ID, store.SymbolicIcon("book"), "")
	require.NoError(t, err)
	assert.Equal(t, store.SymbolicIcon("book"), updated.Icon)
	assert.Equal(t, "blue", updated.BackgroundColor)

	updated, err = svc.UpdateIcon(ctx, manager, agent.ID, store.UploadedIcon("/uploads/icon.png"), "green")
	require.NoError(t, err)
	assert.Equal(t, store.IconUploaded, updated.Icon.Kind)
	assert.Equal(t, "green", updated.BackgroundColor)

	_, err = svc.UpdateIcon(ctx, manager, agent.ID, store.Icon{Kind: "emoji", Value: "x"}, "")
	assert.True(t, apperrors.IsValidationError(err))

	_, err = svc.UpdateIcon(ctx, student, agent.ID, store.SymbolicIcon("book"), "")
	assert.True(t, apperrors.IsForbidden(err))
}

// Settings changes are visible to the very next reply.
func TestAgentService_SettingsTakeEffectImmediately(t *testing.T) {
	db := newServiceStore(t)
	agents := NewAgentService(db, nil)
	llm := new(MockCompleter)
	engine := NewResponseEngine(db, llm, nil, EngineConfig{})
	ctx := context.Background()
	agent := createAgent(t, db, store.ChatbotTypeGeneralLLM, store.VisibilityPublic)

	llm.On("Complete", mock.Anything, mock.Anything).Return("general answer", nil)
	resp := engine.GenerateResponse(ctx, GenerateRequest{AgentID: agent.ID, UserMessage: "hi", Language: "en"})
	assert.Equal(t, "general answer", resp.Message)

	_, err := agents.UpdateSettings(ctx, manager, agent.ID, SettingsUpdate{
		ChatbotType: store.ChatbotTypeStrictDoc,
		Visibility:  store.VisibilityPublic,
	})
	require.NoError(t, err)

	resp = engine.GenerateResponse(ctx, GenerateRequest{AgentID: agent.ID, UserMessage: "hi", Language: "en"})
	assert.Equal(t, cannedText(msgNoDocuments, "en"), resp.Message)
	llm.AssertNumberOfCalls(t, "Complete", 1)
}
