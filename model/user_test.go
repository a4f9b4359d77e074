package model_test

import (
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytasks/taskstore/model"
)

func TestUserValidate(t *testing.T) {
	tests := []struct {
		name string
		user model.User
		ok   bool
	}{
		{"valid", model.User{ID: "kat", Email: "kat@example.com", FullName: "Kat Example"}, true},
		{"missing id", model.User{Email: "kat@example.com", FullName: "Kat Example"}, false},
		{"missing email", model.User{ID: "kat", FullName: "Kat Example"}, false},
		{"malformed email", model.User{ID: "kat", Email: "not-an-email", FullName: "Kat Example"}, false},
		{"missing full name", model.User{ID: "kat", Email: "kat@example.com"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSetPassword(t *testing.T) {
	var user model.User
	require.NoError(t, user.SetPassword("hunter2"))

	salt, err := hex.DecodeString(user.Salt)
	require.NoError(t, err)
	assert.Len(t, salt, 16)

	hash, err := hex.DecodeString(user.Hash)
	require.NoError(t, err)
	assert.Len(t, hash, 64)
}

func TestSetPassword_FreshSaltEachTime(t *testing.T) {
	var user model.User
	require.NoError(t, user.SetPassword("hunter2"))
	firstSalt, firstHash := user.Salt, user.Hash

	require.NoError(t, user.SetPassword("hunter2"))
	assert.NotEqual(t, firstSalt, user.Salt)
	assert.NotEqual(t, firstHash, user.Hash)
}

func TestValidatePassword(t *testing.T) {
	var user model.User
	require.NoError(t, user.SetPassword("hunter2"))

	ok, err := user.ValidatePassword("hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = user.ValidatePassword("hunter3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidatePassword_MissingMaterial(t *testing.T) {
	_, err := (&model.User{Salt: "aa"}).ValidatePassword("hunter2")
	assert.ErrorIs(t, err, model.ErrNoPasswordHash)

	_, err = (&model.User{Hash: "bb"}).ValidatePassword("hunter2")
	assert.ErrorIs(t, err, model.ErrNoPasswordSalt)
}

func TestGenerateJWT(t *testing.T) {
	secret := []byte("test-secret")
	user := model.User{ID: "kat", Email: "kat@example.com", FullName: "Kat Example"}

	signed, err := user.GenerateJWT(secret)
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "kat", claims["id"])
	assert.Equal(t, "kat@example.com", claims["email"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp.Time, time.Minute)
}

func TestGenerateJWT_EmptySecret(t *testing.T) {
	user := model.User{ID: "kat", Email: "kat@example.com"}

	_, err := user.GenerateJWT(nil)
	assert.ErrorIs(t, err, model.ErrEmptyTokenSecret)
}

func TestUserJSON_HidesCredentials(t *testing.T) {
	user := model.User{
		ID:       "kat",
		Email:    "kat@example.com",
		FullName: "Kat Example",
		Salt:     "aa11",
		Hash:     "bb22",
	}
	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "aa11")
	assert.NotContains(t, string(raw), "bb22")
}
