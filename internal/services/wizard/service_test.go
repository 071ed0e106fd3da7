package wizard_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	mockdiscord "github.com/KirkDiggler/narrative-service/internal/clients/discord/mock"
	mockspacetime "github.com/KirkDiggler/narrative-service/internal/clients/spacetime/mock"
	"github.com/KirkDiggler/narrative-service/internal/domain/character"
	domain "github.com/KirkDiggler/narrative-service/internal/domain/wizard"
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
	"github.com/KirkDiggler/narrative-service/internal/repositories/wizard_sessions"
	"github.com/KirkDiggler/narrative-service/internal/services/wizard"
	mockwizard "github.com/KirkDiggler/narrative-service/internal/services/wizard/mock"
	"github.com/KirkDiggler/narrative-service/internal/testutils"
	"github.com/KirkDiggler/narrative-service/internal/uuid"
)

type ServiceTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	ctx       context.Context
	repo      wizard_sessions.Repository
	generator *mockwizard.MockGenerator
	backend   *mockspacetime.MockClient
	announcer *mockdiscord.MockAnnouncer
	service   wizard.Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ctx = context.Background()
	s.repo = wizard_sessions.NewInMemoryRepository(&wizard_sessions.InMemoryConfig{TTL: time.Hour})
	s.generator = mockwizard.NewMockGenerator(s.ctrl)
	s.backend = mockspacetime.NewMockClient(s.ctrl)
	s.announcer = mockdiscord.NewMockAnnouncer(s.ctrl)
	s.service = wizard.NewService(&wizard.ServiceConfig{
		Repository:    s.repo,
		Generator:     s.generator,
		Backend:       s.backend,
		Announcer:     s.announcer,
		UUIDGenerator: &uuid.StaticGenerator{IDs: []string{"wiz-1", "wiz-2"}},
		Logger:        zaptest.NewLogger(s.T()),
	})
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func raceContent() *wizard.StepContent {
	return &wizard.StepContent{
		Prompt: "Which people do you hail from?",
		Options: []domain.Option{
			{Name: "Elf", Description: "Tall and wise", Value: "Elf"},
			{Name: "Dwarf", Description: "Stout and stubborn", Value: "Dwarf"},
		},
	}
}

func (s *ServiceTestSuite) expectContent(step domain.StepID, content *wizard.StepContent) {
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *wizard.GenerateInput) (*wizard.StepContent, error) {
			s.Equal(step, input.StepID)
			return content, nil
		})
}

func (s *ServiceTestSuite) TestStep_NewSession() {
	s.expectContent(domain.StepRace, raceContent())

	result, err := s.service.Step(s.ctx, &wizard.StepInput{})
	s.Require().NoError(err)
	s.True(result.OK)
	s.Equal("wiz-1", result.Result.SessionID)
	s.Equal(domain.StepRace, result.Result.StepID)
	s.Equal(1, result.Result.StepNumber)
	s.Len(result.Result.Options, 2)
	s.Require().NotNil(result.Result.NextStepID)
	s.Equal(domain.StepArchetype, *result.Result.NextStepID)

	stored, err := s.repo.Get(s.ctx, "wiz-1")
	s.Require().NoError(err)
	s.Equal(domain.StepRace, stored.CurrentStepID)
}

func (s *ServiceTestSuite) TestStep_UnknownSessionIDStartsFresh() {
	s.expectContent(domain.StepRace, raceContent())

	result, err := s.service.Step(s.ctx, &wizard.StepInput{SessionID: "forgotten"})
	s.Require().NoError(err)
	s.Equal("forgotten", result.Result.SessionID)
	s.Equal(domain.StepRace, result.Result.StepID)
}

func (s *ServiceTestSuite) TestStep_SelectThenLock() {
	s.expectContent(domain.StepRace, raceContent())
	result, err := s.service.Step(s.ctx, &wizard.StepInput{Action: "select", Selection: "Elf"})
	s.Require().NoError(err)
	s.Equal(domain.StepRace, result.Result.StepID)
	s.False(result.Result.Locked)
	s.True(result.Result.CanAdvance)
	s.Empty(result.Result.Context)

	s.expectContent(domain.StepArchetype, &wizard.StepContent{
		Prompt:  "Choose your path.",
		Options: []domain.Option{{Name: "Warden", Value: "Warden"}, {Name: "Seer", Value: "Seer"}},
	})
	result, err = s.service.Step(s.ctx, &wizard.StepInput{
		SessionID: "wiz-1",
		StepID:    "race",
		Action:    "lock",
		Selection: "Elf",
	})
	s.Require().NoError(err)
	s.Equal(domain.StepArchetype, result.Result.StepID)
	s.Equal("Elf", result.Result.Context["race"])
	s.False(result.Result.Locked)
	s.False(result.Result.CanAdvance)
}

func (s *ServiceTestSuite) TestStep_LockWithMessageFallback() {
	s.expectContent(domain.StepArchetype, raceContent())

	result, err := s.service.Step(s.ctx, &wizard.StepInput{Action: "lock", Message: " Dwarf "})
	s.Require().NoError(err)
	s.Equal("Dwarf", result.Result.Context["race"])
}

func (s *ServiceTestSuite) TestStep_LockWithoutValue() {
	_, err := s.service.Step(s.ctx, &wizard.StepInput{Action: "lock"})
	s.True(apperr.IsInvalidArgument(err))
}

func (s *ServiceTestSuite) TestStep_InvalidInput() {
	_, err := s.service.Step(s.ctx, &wizard.StepInput{Action: "teleport"})
	s.True(apperr.IsInvalidArgument(err))

	_, err = s.service.Step(s.ctx, &wizard.StepInput{StepID: "backstory"})
	s.True(apperr.IsInvalidArgument(err))

	_, err = s.service.Step(s.ctx, nil)
	s.True(apperr.IsInvalidArgument(err))
}

func (s *ServiceTestSuite) TestStep_ModelCallFailedKeepsState() {
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: timeout", wizard.ErrModelCall))

	result, err := s.service.Step(s.ctx, &wizard.StepInput{Action: "select", Selection: "Elf"})
	s.Require().NoError(err)
	s.False(result.OK)
	s.Equal("model_call_failed", result.Error)
	s.Require().NotNil(result.Result)
	s.Equal("wiz-1", result.Result.SessionID)
	s.Equal(domain.StepRace, result.Result.StepID)

	stored, err := s.repo.Get(s.ctx, "wiz-1")
	s.Require().NoError(err)
	staged, ok := stored.StagedValue()
	s.True(ok)
	s.Equal("Elf", staged)
}

func (s *ServiceTestSuite) TestStep_MissingOptions() {
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: no usable options", wizard.ErrMissingOptions))

	result, err := s.service.Step(s.ctx, &wizard.StepInput{})
	s.Require().NoError(err)
	s.False(result.OK)
	s.Equal("model_missing_options", result.Error)
}

func (s *ServiceTestSuite) TestStep_UnexpectedGeneratorErrorIsModelCallFailed() {
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	result, err := s.service.Step(s.ctx, &wizard.StepInput{})
	s.Require().NoError(err)
	s.Equal("model_call_failed", result.Error)
}

func (s *ServiceTestSuite) TestStep_ProfessionPreviewCommitted() {
	session := testutils.CreateTestSession("wiz-p", domain.StepProfessionPreview)
	s.Require().NoError(s.repo.Create(s.ctx, session))

	preview := testutils.CreateTestPreview()
	s.expectContent(domain.StepProfessionPreview, &wizard.StepContent{
		Prompt:  "Behold your calling.",
		Options: []domain.Option{{Name: preview.Name, Value: preview.Name}},
		Preview: preview,
	})

	result, err := s.service.Step(s.ctx, &wizard.StepInput{SessionID: "wiz-p"})
	s.Require().NoError(err)
	s.Require().NotNil(result.Result.Preview)
	s.Equal(preview.Name, result.Result.Preview.Name)
	s.True(result.Result.CanAdvance)

	// A later assist that generates another profession replaces the preview, and the
	// single option always matches it.
	other := testutils.CreateTestPreview()
	other.Name = "Stormcaller"
	other.Lore = "Calls the storm down on the wicked."
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *wizard.GenerateInput) (*wizard.StepContent, error) {
			s.Require().NotNil(input.Preview)
			s.Equal(preview.Name, input.Preview.Name)
			return &wizard.StepContent{Prompt: "Ask away.", Options: []domain.Option{{Name: "x", Value: "x"}}, Preview: other}, nil
		})
	result, err = s.service.Step(s.ctx, &wizard.StepInput{SessionID: "wiz-p", Message: "something stormier?"})
	s.Require().NoError(err)
	s.Require().NotNil(result.Result.Preview)
	s.Equal("Stormcaller", result.Result.Preview.Name)
	s.Equal([]domain.Option{{Name: "Stormcaller", Description: other.Lore, Value: "Stormcaller"}}, result.Result.Options)

	s.expectContent(domain.StepName, &wizard.StepContent{
		Prompt:  "Name yourself.",
		Options: []domain.Option{{Name: "Lyra", Value: "Lyra"}},
	})
	result, err = s.service.Step(s.ctx, &wizard.StepInput{SessionID: "wiz-p", Action: "lock", Selection: "Stormcaller"})
	s.Require().NoError(err)
	s.Equal(domain.StepName, result.Result.StepID)
	s.Nil(result.Result.Preview)

	committed, ok := result.Result.Context["profession"].(*domain.ProfessionPreview)
	s.Require().True(ok)
	s.Equal(other, committed)
}

func (s *ServiceTestSuite) TestStep_RegenerateReplacesPreview() {
	session := testutils.CreateTestSession("wiz-p", domain.StepProfessionPreview)
	session.SetPreview(testutils.CreateTestPreview())
	s.Require().NoError(s.repo.Create(s.ctx, session))

	fresh := testutils.CreateTestPreview()
	fresh.Name = "Stormcaller"
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *wizard.GenerateInput) (*wizard.StepContent, error) {
			s.Nil(input.Preview)
			return &wizard.StepContent{Prompt: "Again.", Options: []domain.Option{{Name: fresh.Name, Value: fresh.Name}}, Preview: fresh}, nil
		})

	result, err := s.service.Step(s.ctx, &wizard.StepInput{SessionID: "wiz-p", Action: "regenerate"})
	s.Require().NoError(err)
	s.Equal("Stormcaller", result.Result.Preview.Name)
	s.Equal("Elf", result.Result.Context["race"])
}

func (s *ServiceTestSuite) TestStep_StaleStepDoesNotCommit() {
	session := testutils.CreateTestSession("wiz-s", domain.StepArchetype)
	s.Require().NoError(s.repo.Create(s.ctx, session))

	s.expectContent(domain.StepArchetype, raceContent())

	result, err := s.service.Step(s.ctx, &wizard.StepInput{
		SessionID: "wiz-s",
		StepID:    "race",
		Action:    "lock",
		Selection: "Dwarf",
	})
	s.Require().NoError(err)
	s.Equal(domain.StepArchetype, result.Result.StepID)
	s.Equal("Elf", result.Result.Context["race"])
	s.Nil(result.Result.Context["archetype"])
}

func (s *ServiceTestSuite) TestStep_ClientContextCannotOverwriteLockedValues() {
	session := testutils.CreateTestSession("wiz-c", domain.StepArchetype)
	s.Require().NoError(s.repo.Create(s.ctx, session))

	s.expectContent(domain.StepArchetype, raceContent())

	result, err := s.service.Step(s.ctx, &wizard.StepInput{
		SessionID: "wiz-c",
		Context:   map[string]any{"race": "Orc", "visual_description": "silver hair"},
	})
	s.Require().NoError(err)
	s.Equal("Elf", result.Result.Context["race"])
	s.Equal("silver hair", result.Result.Context["visual_description"])
}

func (s *ServiceTestSuite) TestStep_StartOverIssuesNewSession() {
	session := testutils.CreateTestSession("old", domain.StepName)
	s.Require().NoError(s.repo.Create(s.ctx, session))

	s.expectContent(domain.StepRace, raceContent())

	result, err := s.service.Step(s.ctx, &wizard.StepInput{SessionID: "old", Action: "start_over"})
	s.Require().NoError(err)
	s.Equal("wiz-1", result.Result.SessionID)
	s.Equal(domain.StepRace, result.Result.StepID)
	s.Empty(result.Result.Context)

	_, err = s.repo.Get(s.ctx, "old")
	s.True(apperr.IsNotFound(err))
}

func (s *ServiceTestSuite) TestStep_SummarySkipsGenerator() {
	session := testutils.CreateTestSession("wiz-sum", domain.StepSummary)
	s.Require().NoError(s.repo.Create(s.ctx, session))

	result, err := s.service.Step(s.ctx, &wizard.StepInput{SessionID: "wiz-sum", Action: "lock"})
	s.Require().NoError(err)
	s.True(result.OK)
	s.Equal(domain.StepSummary, result.Result.StepID)
	s.Nil(result.Result.NextStepID)
	s.False(result.Result.CanAdvance)
	s.Len(result.Result.Options, 2)
	s.Contains(result.Result.Prompt, "Race: Elf")

	profile, ok := result.Result.Data.(*character.Profile)
	s.Require().True(ok)
	s.Equal("Lyra", profile.Name)
}

func (s *ServiceTestSuite) TestGet() {
	session := testutils.CreateTestSession("wiz-g", domain.StepName)
	s.Require().NoError(s.repo.Create(s.ctx, session))

	payload, err := s.service.Get(s.ctx, "wiz-g")
	s.Require().NoError(err)
	s.Equal(domain.StepName, payload.StepID)
	s.Empty(payload.Options)

	_, err = s.service.Get(s.ctx, "missing")
	s.True(apperr.IsNotFound(err))
}

func (s *ServiceTestSuite) TestFinalize() {
	session := testutils.CreateTestSession("wiz-f", domain.StepSummary)
	s.Require().NoError(s.repo.Create(s.ctx, session))

	s.backend.EXPECT().
		CallReducer(gomock.Any(), "add_character", gomock.Any(), "Bearer tok").
		DoAndReturn(func(_ context.Context, _ string, args any, _ string) (json.RawMessage, error) {
			list, ok := args.([]any)
			s.Require().True(ok)
			s.Require().Len(list, 1)
			input, ok := list[0].(*character.AddCharacterInput)
			s.Require().True(ok)
			s.Equal("Lyra", input.Name)
			s.Equal("Ashwood Bow", input.EquippedWeapon)
			s.Equal(14, input.Dexterity)
			return json.RawMessage(`{"ok":true}`), nil
		})
	s.announcer.EXPECT().Announce(gomock.Any(), gomock.Any()).Return(errors.New("webhook down"))

	result, err := s.service.Finalize(s.ctx, "wiz-f", "Bearer tok")
	s.Require().NoError(err)
	s.Equal("Lyra", result.Profile.Name)
	s.JSONEq(`{"ok":true}`, string(result.Backend))

	_, err = s.repo.Get(s.ctx, "wiz-f")
	s.True(apperr.IsNotFound(err))
}

func (s *ServiceTestSuite) TestFinalize_Errors() {
	session := testutils.CreateTestSession("wiz-early", domain.StepName)
	s.Require().NoError(s.repo.Create(s.ctx, session))

	_, err := s.service.Finalize(s.ctx, "wiz-early", "tok")
	s.Equal(apperr.CodeFailedPrecondition, apperr.GetCode(err))

	_, err = s.service.Finalize(s.ctx, "wiz-early", "")
	s.True(apperr.IsUnauthenticated(err))

	_, err = s.service.Finalize(s.ctx, "missing", "tok")
	s.True(apperr.IsNotFound(err))

	summary := testutils.CreateTestSession("wiz-sum", domain.StepSummary)
	s.Require().NoError(s.repo.Create(s.ctx, summary))
	s.backend.EXPECT().CallReducer(gomock.Any(), "add_character", gomock.Any(), "tok").
		Return(nil, apperr.Unavailable("backend down"))

	_, err = s.service.Finalize(s.ctx, "wiz-sum", "tok")
	s.Equal(apperr.CodeUnavailable, apperr.GetCode(err))

	// The session survives a failed save so the player can retry.
	_, err = s.repo.Get(s.ctx, "wiz-sum")
	s.NoError(err)
}
