package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Account is an identity and credential record. IDs are ULIDs, generated at
// creation and stable for the account's lifetime; all per-user data is
// namespaced under them.
type Account struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"` // normalized, unique directory key
	PasswordHash string     `json:"passwordHash"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin"` // nil until first successful login
}

// NormalizeEmail lowercases and trims an email for use as a directory key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Directory is the account directory: normalized email → account. It holds at
// most one account per normalized email.
//
// The persisted form is an array of [email, account] pairs rather than a JSON
// object, which keeps existing apush_users blobs loading unchanged.
type Directory map[string]Account

func (d Directory) MarshalJSON() ([]byte, error) {
	emails := make([]string, 0, len(d))
	for email := range d {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	pairs := make([][2]json.RawMessage, 0, len(emails))
	for _, email := range emails {
		rawEmail, err := json.Marshal(email)
		if err != nil {
			return nil, err
		}
		rawAccount, err := json.Marshal(d[email])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]json.RawMessage{rawEmail, rawAccount})
	}
	return json.Marshal(pairs)
}

func (d *Directory) UnmarshalJSON(data []byte) error {
	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}

	out := make(Directory, len(pairs))
	for i, pair := range pairs {
		var email string
		if err := json.Unmarshal(pair[0], &email); err != nil {
			return fmt.Errorf("directory entry %d: %w", i, err)
		}
		var account Account
		if err := json.Unmarshal(pair[1], &account); err != nil {
			return fmt.Errorf("directory entry %d: %w", i, err)
		}
		out[email] = account
	}
	*d = out
	return nil
}
