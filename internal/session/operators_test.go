package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashFor(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestParseDirectory(t *testing.T) {
	doc := fmt.Sprintf(`
operators:
  - username: Nour
    display_name: Nour Adel
    role: supervisor
    password_hash: %q
  - id: 0b6f1b8e-4f4a-4d7e-9a35-3f1f0e6c9d21
    username: karim
    password_hash: %q
`, hashFor(t, "nour-pass"), hashFor(t, "karim-pass"))

	dir, err := ParseDirectory([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, dir.Len())

	nour, ok := dir.Lookup("NOUR")
	require.True(t, ok)
	assert.Equal(t, "Nour Adel", nour.DisplayName)
	assert.Equal(t, "supervisor", nour.Role)
	assert.Equal(t, operatorID("nour"), nour.ID, "ids are stable when not listed")

	karim, ok := dir.Lookup("karim")
	require.True(t, ok)
	assert.Equal(t, "0b6f1b8e-4f4a-4d7e-9a35-3f1f0e6c9d21", karim.ID.String())
	assert.Equal(t, "officer", karim.Role)

	byID, ok := dir.ByID(karim.ID)
	require.True(t, ok)
	assert.Same(t, karim, byID)
}

func TestParseDirectoryErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: "operators: []"},
		{name: "missing username", doc: "operators:\n  - password_hash: x"},
		{name: "plain text password", doc: "operators:\n  - username: a\n    password_hash: secret"},
		{name: "not yaml", doc: ":::"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDirectory([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestDevDirectory(t *testing.T) {
	dir := DevDirectory()
	assert.Equal(t, 3, dir.Len())
	admin, ok := dir.Lookup("admin")
	require.True(t, ok)
	assert.NoError(t, bcrypt.CompareHashAndPassword(admin.PasswordHash, []byte("admin123")))
}
