package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "student@example.com", NormalizeEmail("  Student@EXAMPLE.com "))
	require.Equal(t, "a@b.c", NormalizeEmail("a@b.c"))
}

func TestDirectoryJSON(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("marshals as sorted email account pairs", func(t *testing.T) {
		dir := Directory{
			"b@example.com": {ID: "id-b", Email: "b@example.com", CreatedAt: created},
			"a@example.com": {ID: "id-a", Email: "a@example.com", CreatedAt: created},
		}

		raw, err := json.Marshal(dir)
		require.NoError(t, err)

		var pairs [][2]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &pairs))
		require.Len(t, pairs, 2)
		require.JSONEq(t, `"a@example.com"`, string(pairs[0][0]))
		require.JSONEq(t, `"b@example.com"`, string(pairs[1][0]))
	})

	t.Run("round trips", func(t *testing.T) {
		lastLogin := created.Add(time.Hour)
		dir := Directory{
			"a@example.com": {
				ID:           "id-a",
				Email:        "a@example.com",
				PasswordHash: "$argon2id$...",
				CreatedAt:    created,
				LastLogin:    &lastLogin,
			},
		}

		raw, err := json.Marshal(dir)
		require.NoError(t, err)

		var decoded Directory
		require.NoError(t, json.Unmarshal(raw, &decoded))
		require.Equal(t, dir, decoded)
	})

	t.Run("decodes a hand-written pair array", func(t *testing.T) {
		raw := `[["a@example.com",{"id":"id-a","email":"a@example.com","passwordHash":"h","createdAt":"2026-01-02T03:04:05Z","lastLogin":null}]]`

		var decoded Directory
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
		require.Len(t, decoded, 1)
		account := decoded["a@example.com"]
		require.Equal(t, "id-a", account.ID)
		require.Nil(t, account.LastLogin)
	})

	t.Run("rejects a non-array blob", func(t *testing.T) {
		var decoded Directory
		require.Error(t, json.Unmarshal([]byte(`{"a@example.com":{}}`), &decoded))
	})
}
