package application

import (
	"bytes"
	"context"
	"testing"

	"github.com/bnema/allergyscan-cli/internal/adapters/backend"
	"github.com/bnema/allergyscan-cli/internal/adapters/backend/backendtest"
	"github.com/bnema/allergyscan-cli/internal/adapters/identity"
	"github.com/bnema/allergyscan-cli/internal/adapters/secrets/chain"
	filestore "github.com/bnema/allergyscan-cli/internal/adapters/secrets/file"
	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type liveFixture struct {
	server   *backendtest.Server
	session  *SessionManager
	profile  *ProfileService
	scans    *ScanService
	medicine *MedicineService
}

func newLiveFixture(t *testing.T) liveFixture {
	t.Helper()

	server := backendtest.New(t)
	server.AddUser("alice", "pw", "alice@example.com")

	idClient := identity.NewClient(server.URL, server.Client(), 0, nil)
	apiClient := backend.NewClient(server.URL, server.Client(), 0, nil)
	store := chain.NewStore(nil, filestore.NewStore(t.TempDir()), nil)
	session := NewSessionManager(store, idClient, nil, nil)

	return liveFixture{
		server:   server,
		session:  session,
		profile:  NewProfileService(session, idClient),
		scans:    NewScanService(apiClient, apiClient, apiClient, nil),
		medicine: NewMedicineService(session, apiClient),
	}
}

func (f liveFixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.session.Login(context.Background(), "alice", "pw"))
}

func TestProfileServiceAddAndRemoveAllergy(t *testing.T) {
	t.Parallel()
	f := newLiveFixture(t)
	f.login(t)
	ctx := context.Background()

	added, err := f.profile.AddAllergy(ctx, "peanuts", domain.SeverityHigh, "  carries epipen ")
	require.NoError(t, err)
	assert.Equal(t, "Peanuts", added.Name)
	require.NotNil(t, added.Notes)
	assert.Equal(t, "carries epipen", *added.Notes)

	allergies, err := f.profile.Allergies()
	require.NoError(t, err)
	require.Len(t, allergies, 1)
	require.NotNil(t, allergies[0].Severity)
	assert.Equal(t, domain.SeverityHigh, *allergies[0].Severity)

	stored, ok := f.server.User("alice")
	require.True(t, ok)
	assert.Len(t, stored.Allergies, 1)

	removed, err := f.profile.RemoveAllergy(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Peanuts", removed.Name)

	allergies, err = f.profile.Allergies()
	require.NoError(t, err)
	assert.Empty(t, allergies)
}

func TestProfileServiceRejectsUnknownAllergy(t *testing.T) {
	t.Parallel()
	f := newLiveFixture(t)
	f.login(t)

	_, err := f.profile.AddAllergy(context.Background(), "kryptonite", "", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.profile.RemoveAllergy(context.Background(), "Milk")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProfileServiceRequiresSession(t *testing.T) {
	t.Parallel()
	f := newLiveFixture(t)

	_, err := f.profile.Allergies()
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestProfileServiceRefreshesExpiredToken(t *testing.T) {
	t.Parallel()
	f := newLiveFixture(t)
	f.login(t)
	f.server.ExpireAccessTokens()

	_, err := f.profile.AddAllergy(context.Background(), "Milk", domain.SeverityLow, "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.server.RefreshCalls())
}

func TestScanServiceCheckFlagsProfileAllergensAndSaves(t *testing.T) {
	t.Parallel()
	f := newLiveFixture(t)

	user := &domain.User{Username: "alice", Allergies: []domain.Allergy{{ID: "3", Name: "Wheat"}}}
	result, err := f.scans.Check(context.Background(), "  Peanuts, wheat flour ", user, true)
	require.NoError(t, err)

	assert.Equal(t, "Peanuts, wheat flour", result.Text)
	assert.True(t, result.Saved)
	require.Len(t, result.Allergens, 2)
	assert.Equal(t, "Wheat", result.Allergens[0].Allergen)
	assert.True(t, result.Allergens[0].IsUserAllergen)
	assert.False(t, result.Allergens[1].IsUserAllergen)

	history, err := f.scans.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].ProductName)
	assert.Equal(t, domain.DefaultProductName, *history[0].ProductName)

	require.NoError(t, f.scans.DeleteScan(context.Background(), history[0].ID))
	history, err = f.scans.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestScanServiceCheckRejectsEmptyText(t *testing.T) {
	t.Parallel()
	f := newLiveFixture(t)

	_, err := f.scans.Check(context.Background(), "   ", nil, false)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScanServiceExtractText(t *testing.T) {
	t.Parallel()
	f := newLiveFixture(t)

	f.server.SetOCRText("  Milk, sugar\n")
	text, err := f.scans.ExtractText(context.Background(), "", bytes.NewReader([]byte("jpeg")))
	require.NoError(t, err)
	assert.Equal(t, "Milk, sugar", text)

	f.server.SetOCRText(" ")
	_, err = f.scans.ExtractText(context.Background(), "", bytes.NewReader([]byte("jpeg")))
	require.ErrorIs(t, err, ErrNoTextRecognized)
}

func TestMedicineServiceLifecycle(t *testing.T) {
	t.Parallel()
	f := newLiveFixture(t)
	f.login(t)
	ctx := context.Background()

	_, err := f.medicine.Add(ctx, domain.Medicine{Name: "Cetirizine"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	created, err := f.medicine.Add(ctx, domain.Medicine{Name: "Cetirizine", Dosage: "10mg", ExpirationDate: "2027-01-31"})
	require.NoError(t, err)

	created.Dosage = "5mg"
	_, err = f.medicine.Update(ctx, created)
	require.NoError(t, err)

	f.server.ExpireAccessTokens()
	medicines, err := f.medicine.List(ctx)
	require.NoError(t, err)
	require.Len(t, medicines, 1)
	assert.Equal(t, "5mg", medicines[0].Dosage)

	require.NoError(t, f.medicine.Delete(ctx, created.ID))
	medicines, err = f.medicine.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, medicines)
}

func TestMedicineServiceLogsOutWhenRefreshIsRejected(t *testing.T) {
	t.Parallel()
	f := newLiveFixture(t)
	f.login(t)
	f.server.ExpireAccessTokens()
	f.server.RevokeRefreshTokens()

	_, err := f.medicine.List(context.Background())
	require.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, domain.SessionUnauthenticated, f.session.Snapshot().State)
}
