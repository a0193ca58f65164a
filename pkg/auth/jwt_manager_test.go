package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Generate_And_Verify_Roundtrip(t *testing.T) {
	req := require.New(t)
	manager := NewJWTManager("test-secret", time.Hour)
	userID := uuid.New().String()

	token, err := manager.Generate(userID)
	req.NoError(err)

	claims, err := manager.Verify(token)
	req.NoError(err)
	req.Equal(userID, claims.Subject)
}

func Test_Verify_Rejects_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	manager := NewJWTManager("test-secret", time.Hour)

	token, err := manager.Generate(uuid.New().String())
	req.NoError(err)

	other := NewJWTManager("other-secret", time.Hour)
	_, err = other.Verify(token)
	req.Error(err)
}

func Test_Expiry_Matches_Duration(t *testing.T) {
	req := require.New(t)
	manager := NewJWTManager("test-secret", time.Hour)

	token, err := manager.Generate(uuid.New().String())
	req.NoError(err)

	exp, err := manager.Expiry(token)
	req.NoError(err)
	req.WithinDuration(time.Now().Add(time.Hour), exp, time.Minute)
}

func Test_ExtractTokenFromHeader(t *testing.T) {
	req := require.New(t)

	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc.def.ghi")

	token, err := ExtractTokenFromHeader(r)
	req.NoError(err)
	req.Equal("abc.def.ghi", token)

	r.Header.Set("Authorization", "abc.def.ghi")
	_, err = ExtractTokenFromHeader(r)
	req.Error(err)
}
