package auth

import (
	"context"
	"testing"
	"time"

	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func users(t *testing.T) *models.AppData {
	t.Helper()
	hash, err := HashPIN("2468")
	require.NoError(t, err)
	return &models.AppData{RegisteredUsers: []models.RegisteredUser{
		{ID: "u1", FirstName: "Legacy", LastName: "Admin", Email: "admin@example.com", PIN: "1234", Role: models.RoleAdmin, TechnicianID: "TECH-001"},
		{ID: "u2", FirstName: "Alex", LastName: "Morgan", Email: "alex@example.com", PINHash: hash, Role: models.RoleTech, TechnicianID: "TECH-002"},
	}}
}

func TestVerifiers(t *testing.T) {
	data := users(t)
	legacy, hashed := &data.RegisteredUsers[0], &data.RegisteredUsers[1]

	assert.True(t, PlaintextVerifier{}.Verify(legacy, "1234"))
	assert.False(t, PlaintextVerifier{}.Verify(legacy, "1235"))
	assert.False(t, PlaintextVerifier{}.Verify(hashed, "2468"))

	assert.True(t, BcryptVerifier{}.Verify(hashed, "2468"))
	assert.False(t, BcryptVerifier{}.Verify(legacy, "1234"))

	chain := DefaultVerifier()
	assert.True(t, chain.Verify(legacy, "1234"))
	assert.True(t, chain.Verify(hashed, "2468"))
	assert.False(t, chain.Verify(hashed, ""))
	assert.False(t, chain.Verify(nil, "1234"))
}

func TestValidatePIN(t *testing.T) {
	assert.NoError(t, ValidatePIN("0042"))
	assert.Error(t, ValidatePIN("123"))
	assert.Error(t, ValidatePIN("123456789"))
	assert.Error(t, ValidatePIN("12a4"))
}

func TestUpgradePIN(t *testing.T) {
	u := models.RegisteredUser{PIN: "1234"}
	changed, err := UpgradePIN(&u)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, u.PIN)
	assert.True(t, BcryptVerifier{}.Verify(&u, "1234"))

	changed, err = UpgradePIN(&u)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestLogin(t *testing.T) {
	data := users(t)

	u, err := Login(data, "ALEX@example.com", "2468", DefaultVerifier())
	require.NoError(t, err)
	assert.Equal(t, models.User{Name: "Alex Morgan", TechnicianID: "TECH-002", Role: models.RoleTech, Email: "alex@example.com"}, u)

	u, err = Login(data, "TECH-001", "1234", DefaultVerifier())
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	_, err = Login(data, "TECH-002", "0000", DefaultVerifier())
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = Login(data, "nobody", "1234", DefaultVerifier())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenManager(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	user := models.User{Name: "Alex Morgan", TechnicianID: "TECH-002", Role: models.RoleTech}

	token, err := m.Issue(user)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user, claims.User())

	other := NewTokenManager("different", time.Hour)
	_, err = other.Validate(token)
	assert.Error(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Validate(token)
	assert.Error(t, err, "expired token must be rejected")
}

func TestExtractToken(t *testing.T) {
	tok, err := ExtractToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = ExtractToken("Basic abc")
	assert.Error(t, err)
	_, err = ExtractToken("")
	assert.Error(t, err)
}

type oracleFunc func(ctx context.Context, id string) bool

func (f oracleFunc) Verify(ctx context.Context, id string) bool { return f(ctx, id) }

func TestBiometricLogin(t *testing.T) {
	ctx := context.Background()
	data := users(t)
	slot := storage.NewMemorySlot()
	store := NewCredentialStore(slot)
	yes := oracleFunc(func(context.Context, string) bool { return true })
	no := oracleFunc(func(context.Context, string) bool { return false })

	_, err := BiometricLogin(ctx, data, "TECH-002", store, yes)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	require.NoError(t, store.Enroll(ctx, "TECH-002", []byte{0xde, 0xad, 0xbe, 0xef}))
	raw, ok, err := slot.Get(ctx, storage.CredentialKeyPrefix+"TECH-002")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3q2+7w==", raw)

	_, err = BiometricLogin(ctx, data, "TECH-002", store, no)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u, err := BiometricLogin(ctx, data, "TECH-002", store, yes)
	require.NoError(t, err)
	assert.Equal(t, "TECH-002", u.TechnicianID)

	require.NoError(t, store.Remove(ctx, "TECH-002"))
	enrolled, err := store.IsEnrolled(ctx, "TECH-002")
	require.NoError(t, err)
	assert.False(t, enrolled)
}

func TestPresentedCredential(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(storage.NewMemorySlot())
	require.NoError(t, store.Enroll(ctx, "TECH-002", []byte("cred-1")))

	assert.True(t, PresentedCredential{Store: store, ID: []byte("cred-1")}.Verify(ctx, "TECH-002"))
	assert.False(t, PresentedCredential{Store: store, ID: []byte("cred-2")}.Verify(ctx, "TECH-002"))
	assert.False(t, PresentedCredential{Store: store, ID: []byte("cred-1")}.Verify(ctx, "TECH-001"))
}
