// Package model holds the plain domain entities persisted by the storage
// layer, together with the little behavior that is not persistence: password
// hashing and token issuance on User, and validation helpers used by the
// request layer.
package model

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/pbkdf2"
)

// Password material parameters. They match the existing user records, so they
// cannot change without re-hashing every stored password.
const (
	saltBytes      = 16
	hashBytes      = 64
	hashIterations = 1000
	tokenTTL       = 24 * time.Hour
)

var (
	// ErrNoPasswordHash is returned when validating a password against a user
	// that has no stored hash.
	ErrNoPasswordHash = errors.New("taskstore: user has no password hash")

	// ErrNoPasswordSalt is returned when validating a password against a user
	// that has no stored salt.
	ErrNoPasswordSalt = errors.New("taskstore: user has no password salt")

	// ErrEmptyTokenSecret is returned when a token is requested without a
	// signing secret.
	ErrEmptyTokenSecret = errors.New("taskstore: token signing secret is empty")
)

var validate = validator.New()

// Preferences are the per-user settings stored on the user item.
type Preferences struct {
	// DefaultListID references the user's default list, or nil when none is
	// set. The store does not enforce the reference: deleting the list leaves
	// it dangling.
	DefaultListID *string `json:"defaultListId"`
}

// User is an account identified by a caller-chosen id. The id doubles as the
// username, so uniqueness is enforced at creation time by the store.
type User struct {
	ID       string `json:"id" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required"`
	Nickname string `json:"nickname"`

	// Salt and Hash are the password material. They are persisted but must
	// never be included in a response payload.
	Salt string `json:"-"`
	Hash string `json:"-"`

	Preferences *Preferences `json:"preferences,omitempty"`
}

// Validate checks the fields required at signup.
func (u *User) Validate() error {
	return validate.Struct(u)
}

// SetPassword derives fresh password material from password, replacing any
// existing salt and hash.
func (u *User) SetPassword(password string) error {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	u.Salt = hex.EncodeToString(salt)
	u.Hash = derivePassword(password, u.Salt)
	return nil
}

// ValidatePassword reports whether password matches the stored hash.
func (u *User) ValidatePassword(password string) (bool, error) {
	if u.Hash == "" {
		return false, ErrNoPasswordHash
	}
	if u.Salt == "" {
		return false, ErrNoPasswordSalt
	}
	derived := derivePassword(password, u.Salt)
	return subtle.ConstantTimeCompare([]byte(derived), []byte(u.Hash)) == 1, nil
}

// GenerateJWT issues a signed token carrying the user's id and email,
// expiring a day from now.
func (u *User) GenerateJWT(secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptyTokenSecret
	}
	claims := jwt.MapClaims{
		"id":    u.ID,
		"email": u.Email,
		"exp":   time.Now().Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// The hex-encoded salt feeds the derivation as its literal bytes. That is how
// the existing records were written, so it stays that way.
func derivePassword(password, saltHex string) string {
	key := pbkdf2.Key([]byte(password), []byte(saltHex), hashIterations, hashBytes, sha512.New)
	return hex.EncodeToString(key)
}

// UserPatch is a partial update of a user's profile. Zero-valued fields are
// left untouched; ID is required to address the item.
type UserPatch struct {
	ID       string `json:"id" validate:"required"`
	FullName string `json:"fullName"`
	Nickname string `json:"nickname"`

	// DefaultListID updates preferences.defaultListId when non-nil.
	DefaultListID *string `json:"defaultListId"`
}
