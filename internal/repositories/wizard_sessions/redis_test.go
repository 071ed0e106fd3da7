package wizard_sessions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/narrative-service/internal/domain/wizard"
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
	"github.com/KirkDiggler/narrative-service/internal/repositories/wizard_sessions/mocks"
)

const testTTL = 24 * time.Hour

type RedisRepoTestSuite struct {
	suite.Suite
	mockClient   *redis.Client
	mock         redismock.ClientMock
	repo         Repository
	mockCtrl     *gomock.Controller
	timeProvider *mocks.MockTimeProvider
	now          time.Time
}

func (s *RedisRepoTestSuite) SetupTest() {
	s.mockClient, s.mock = redismock.NewClientMock()
	s.mockCtrl = gomock.NewController(s.T())
	s.timeProvider = mocks.NewMockTimeProvider(s.mockCtrl)
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.repo = NewRedisRepository(&RedisRepoConfig{
		Client:       s.mockClient,
		TimeProvider: s.timeProvider,
		TTL:          testTTL,
	})
}

func (s *RedisRepoTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestRedisRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepoTestSuite))
}

func (s *RedisRepoTestSuite) marshal(session *wizard.Session) string {
	jsonData, err := json.Marshal(toData(session))
	s.Require().NoError(err)
	return string(jsonData)
}

func (s *RedisRepoTestSuite) TestCreate() {
	ctx := context.Background()
	s.timeProvider.EXPECT().Now().Return(s.now)

	expected := wizard.NewSession("wiz-1", s.now)
	s.mock.ExpectSetNX("wizard_session:wiz-1", s.marshal(expected), testTTL).SetVal(true)
	s.mock.ExpectSAdd("wizard_sessions", "wiz-1").SetVal(1)

	session := wizard.NewSession("wiz-1", time.Time{})
	s.NoError(s.repo.Create(ctx, session))
	s.Equal(s.now, session.CreatedAt)
}

func (s *RedisRepoTestSuite) TestCreate_AlreadyExists() {
	ctx := context.Background()
	s.timeProvider.EXPECT().Now().Return(s.now)

	expected := wizard.NewSession("wiz-1", s.now)
	s.mock.ExpectSetNX("wizard_session:wiz-1", s.marshal(expected), testTTL).SetVal(false)

	err := s.repo.Create(ctx, wizard.NewSession("wiz-1", time.Time{}))
	s.True(apperr.IsAlreadyExists(err))
}

func (s *RedisRepoTestSuite) TestCreate_InputValidation() {
	s.True(apperr.IsInvalidArgument(s.repo.Create(context.Background(), nil)))
}

func (s *RedisRepoTestSuite) TestGet() {
	ctx := context.Background()

	stored := wizard.NewSession("wiz-1", s.now)
	stored.Context["race"] = "Elf"
	stored.Context["profession"] = &wizard.ProfessionPreview{
		Name:          "Ranger",
		Lore:          "Keeps the roads.",
		Abilities:     []string{"Track"},
		StarterWeapon: "Longbow",
	}
	stored.Locked[wizard.StepRace] = true
	stored.CurrentStepID = wizard.StepName

	// Happy path
	s.mock.ExpectGet("wizard_session:wiz-1").SetVal(s.marshal(stored))

	session, err := s.repo.Get(ctx, "wiz-1")
	s.Require().NoError(err)
	s.Equal(wizard.StepName, session.CurrentStepID)
	s.Equal("Elf", session.Context["race"])
	s.True(session.IsLocked(wizard.StepRace))
	preview, ok := session.Context["profession"].(*wizard.ProfessionPreview)
	s.Require().True(ok)
	s.Equal("Longbow", preview.StarterWeapon)

	// Missing key
	s.mock.ExpectGet("wizard_session:wiz-1").RedisNil()
	_, err = s.repo.Get(ctx, "wiz-1")
	s.True(apperr.IsNotFound(err))

	// Dependency error
	s.mock.ExpectGet("wizard_session:wiz-1").SetErr(errors.New("redis error"))
	_, err = s.repo.Get(ctx, "wiz-1")
	s.Equal(apperr.CodeUnavailable, apperr.GetCode(err))

	// Input validation
	_, err = s.repo.Get(ctx, "")
	s.True(apperr.IsInvalidArgument(err))
}

func (s *RedisRepoTestSuite) TestUpdate() {
	ctx := context.Background()
	later := s.now.Add(time.Minute)
	s.timeProvider.EXPECT().Now().Return(later).Times(2)

	session := wizard.NewSession("wiz-1", s.now)
	s.Require().NoError(session.Select("Elf"))

	expected := session.Snapshot()
	expected.UpdatedAt = later
	s.mock.ExpectSetXX("wizard_session:wiz-1", s.marshal(expected), testTTL).SetVal(true)
	s.NoError(s.repo.Update(ctx, session))
	s.Equal(later, session.UpdatedAt)

	// Expired or never created
	s.mock.ExpectSetXX("wizard_session:wiz-1", s.marshal(expected), testTTL).SetVal(false)
	s.True(apperr.IsNotFound(s.repo.Update(ctx, session)))
}

func (s *RedisRepoTestSuite) TestDelete() {
	ctx := context.Background()

	s.mock.ExpectDel("wizard_session:wiz-1").SetVal(1)
	s.mock.ExpectSRem("wizard_sessions", "wiz-1").SetVal(1)
	s.NoError(s.repo.Delete(ctx, "wiz-1"))

	s.mock.ExpectDel("wizard_session:wiz-1").SetVal(0)
	s.mock.ExpectSRem("wizard_sessions", "wiz-1").SetVal(0)
	s.True(apperr.IsNotFound(s.repo.Delete(ctx, "wiz-1")))
}

func (s *RedisRepoTestSuite) TestList_PrunesExpired() {
	ctx := context.Background()
	s.mock.MatchExpectationsInOrder(false)

	live := wizard.NewSession("live", s.now)
	s.mock.ExpectSMembers("wizard_sessions").SetVal([]string{"live", "gone"})
	s.mock.ExpectGet("wizard_session:live").SetVal(s.marshal(live))
	s.mock.ExpectGet("wizard_session:gone").RedisNil()
	s.mock.ExpectSRem("wizard_sessions", "gone").SetVal(1)

	sessions, err := s.repo.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal("live", sessions[0].ID)
}

func (s *RedisRepoTestSuite) TestList_DependencyError() {
	s.mock.ExpectSMembers("wizard_sessions").SetErr(errors.New("redis error"))

	_, err := s.repo.List(context.Background())
	s.Error(err)
}
