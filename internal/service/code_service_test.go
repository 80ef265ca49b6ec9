package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"schoolhub/onboard/internal/model"
	"schoolhub/onboard/internal/repository"
)

func newTestCodeService(repo *fakeCodeRepo) *codeService {
	return &codeService{
		repo:        repo,
		cache:       repository.NewMemoryCacheStore(),
		gen:         NewGenerator(8, 10),
		defaultLead: 7 * 24 * time.Hour,
		previewTTL:  30 * time.Second,
		now:         func() time.Time { return testNow },
	}
}

func TestIssueCourseEnrollmentDefaults(t *testing.T) {
	repo := newFakeCodeRepo()
	svc := newTestCodeService(repo)

	code, err := svc.Issue(context.Background(), IssueRequest{
		IssuerID: uuid.New(),
		Kind:     model.ScopeCourseEnrollment,
		TargetID: uuid.New(),
	})
	require.NoError(t, err)

	assert.Len(t, code.Code, 8)
	assert.Nil(t, code.MaxUses, "enrollment codes default to unlimited uses")
	assert.Equal(t, model.CodeStatusPending, code.Status)
	require.NotNil(t, code.ExpiresAt)
	assert.Equal(t, testNow.Add(7*24*time.Hour), *code.ExpiresAt)
}

func TestIssueTeacherJoinForcesSingleUse(t *testing.T) {
	repo := newFakeCodeRepo()
	svc := newTestCodeService(repo)

	code, err := svc.Issue(context.Background(), IssueRequest{
		IssuerID: uuid.New(),
		Kind:     model.ScopeTeacherJoin,
		TargetID: uuid.New(),
		MaxUses:  intPtr(50), // ignored: join links are one-time
	})
	require.NoError(t, err)
	require.NotNil(t, code.MaxUses)
	assert.Equal(t, 1, *code.MaxUses)
}

func TestIssueSchoolInvitationDefaultsToSingleUse(t *testing.T) {
	repo := newFakeCodeRepo()
	svc := newTestCodeService(repo)

	code, err := svc.Issue(context.Background(), IssueRequest{
		IssuerID: uuid.New(),
		Kind:     model.ScopeSchoolInvitation,
		TargetID: uuid.New(),
	})
	require.NoError(t, err)
	require.NotNil(t, code.MaxUses)
	assert.Equal(t, 1, *code.MaxUses)
}

func TestIssueZeroLeadMeansNoExpiry(t *testing.T) {
	repo := newFakeCodeRepo()
	svc := newTestCodeService(repo)

	lead := time.Duration(0)
	code, err := svc.Issue(context.Background(), IssueRequest{
		IssuerID:     uuid.New(),
		Kind:         model.ScopeCourseEnrollment,
		TargetID:     uuid.New(),
		LeadDuration: &lead,
	})
	require.NoError(t, err)
	assert.Nil(t, code.ExpiresAt)
}

func TestIssueRejectsInvalidRequests(t *testing.T) {
	repo := newFakeCodeRepo()
	svc := newTestCodeService(repo)

	_, err := svc.Issue(context.Background(), IssueRequest{
		IssuerID: uuid.New(),
		Kind:     "group_chat",
		TargetID: uuid.New(),
	})
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = svc.Issue(context.Background(), IssueRequest{
		IssuerID: uuid.New(),
		Kind:     model.ScopeCourseEnrollment,
	})
	assert.ErrorIs(t, err, ErrInvalidScope, "missing target")

	_, err = svc.Issue(context.Background(), IssueRequest{
		IssuerID: uuid.New(),
		Kind:     model.ScopeCourseEnrollment,
		TargetID: uuid.New(),
		MaxUses:  intPtr(0),
	})
	assert.ErrorIs(t, err, ErrInvalidScope, "non-positive max_uses")

	lead := -time.Hour
	_, err = svc.Issue(context.Background(), IssueRequest{
		IssuerID:     uuid.New(),
		Kind:         model.ScopeCourseEnrollment,
		TargetID:     uuid.New(),
		LeadDuration: &lead,
	})
	assert.ErrorIs(t, err, ErrInvalidScope, "negative lead_duration")
}

// racingCodeRepo simulates losing the race for a code string between the
// existence check and the insert: the check sees the string as free, but a
// concurrent writer claims it before our insert lands.
type racingCodeRepo struct {
	*fakeCodeRepo
}

func (r *racingCodeRepo) CodeExists(context.Context, string) (bool, error) {
	return false, nil
}

func (r *racingCodeRepo) Create(context.Context, *model.AccessCode) error {
	return gorm.ErrDuplicatedKey
}

func TestIssueInsertRaceSurfacesAsExhaustion(t *testing.T) {
	svc := newTestCodeService(newFakeCodeRepo())
	svc.repo = &racingCodeRepo{fakeCodeRepo: newFakeCodeRepo()}

	_, err := svc.Issue(context.Background(), IssueRequest{
		IssuerID: uuid.New(),
		Kind:     model.ScopeCourseEnrollment,
		TargetID: uuid.New(),
	})
	assert.ErrorIs(t, err, ErrGenerationExhausted)
}

func TestIssuedCodesAreUniqueStrings(t *testing.T) {
	repo := newFakeCodeRepo()
	svc := newTestCodeService(repo)
	issuerID := uuid.New()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := svc.Issue(context.Background(), IssueRequest{
			IssuerID: issuerID,
			Kind:     model.ScopeCourseEnrollment,
			TargetID: uuid.New(),
		})
		require.NoError(t, err)
		_, dup := seen[code.Code]
		require.False(t, dup, "duplicate code string %q", code.Code)
		seen[code.Code] = struct{}{}
	}
}

func TestCancel(t *testing.T) {
	repo := newFakeCodeRepo()
	svc := newTestCodeService(repo)
	issuerID := uuid.New()

	code := seedCode(t, repo, &model.AccessCode{
		Code:     "TOCANCEL",
		Kind:     model.ScopeCourseEnrollment,
		TargetID: uuid.New(),
		IssuerID: issuerID,
	})

	require.NoError(t, svc.Cancel(context.Background(), code.ID, issuerID))

	stored, err := repo.GetByID(context.Background(), code.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CodeStatusCancelled, stored.Status)

	// Cancelled is absorbing.
	assert.ErrorIs(t, svc.Cancel(context.Background(), code.ID, issuerID), ErrCodeTerminal)
}

func TestCancelRequiresOwnership(t *testing.T) {
	repo := newFakeCodeRepo()
	svc := newTestCodeService(repo)

	code := seedCode(t, repo, &model.AccessCode{
		Code:     "NOTYOURS",
		Kind:     model.ScopeCourseEnrollment,
		TargetID: uuid.New(),
		IssuerID: uuid.New(),
	})

	assert.ErrorIs(t, svc.Cancel(context.Background(), code.ID, uuid.New()), ErrNotIssuer)
}

func TestSetDisabledOnTerminalCode(t *testing.T) {
	repo := newFakeCodeRepo()
	svc := newTestCodeService(repo)
	issuerID := uuid.New()

	code := seedCode(t, repo, &model.AccessCode{
		Code:     "DONEDONE",
		Kind:     model.ScopeSchoolInvitation,
		TargetID: uuid.New(),
		IssuerID: issuerID,
		Status:   model.CodeStatusAccepted,
	})

	assert.ErrorIs(t, svc.SetDisabled(context.Background(), code.ID, issuerID, true), ErrCodeTerminal)
}

func TestPreview(t *testing.T) {
	repo := newFakeCodeRepo()
	svc := newTestCodeService(repo)
	targetID := uuid.New()
	expires := testNow.Add(time.Hour)

	seedCode(t, repo, &model.AccessCode{
		Code:      "PREVIEW2",
		Kind:      model.ScopeCourseEnrollment,
		TargetID:  targetID,
		IssuerID:  uuid.New(),
		MaxUses:   intPtr(3),
		UsedCount: 1,
		ExpiresAt: &expires,
	})

	p, err := svc.Preview(context.Background(), "PREVIEW2")
	require.NoError(t, err)
	assert.Equal(t, "PREVIEW2", p.Code)
	assert.Equal(t, targetID, p.TargetID)
	require.NotNil(t, p.RemainingUses)
	assert.Equal(t, 2, *p.RemainingUses)

	// Second lookup is served from cache.
	cached, err := svc.Preview(context.Background(), "PREVIEW2")
	require.NoError(t, err)
	assert.Equal(t, p, cached)

	_, err = svc.Preview(context.Background(), "MISSING2")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}
