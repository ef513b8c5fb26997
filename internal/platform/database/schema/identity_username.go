// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// IdentityUsernameTable represents the 'identity.usernames' table
type IdentityUsernameTable struct {
	Table     string
	Username  string
	AccountID string
	CreatedAt string

	// UsernameKey rejects a second binding for the same username.
	UsernameKey string

	// AccountKey rejects a second username for the same account.
	AccountKey string
}

// IdentityUsername is the schema definition for identity.usernames
var IdentityUsername = IdentityUsernameTable{
	Table:       "identity.usernames",
	Username:    "username",
	AccountID:   "account_id",
	CreatedAt:   "created_at",
	UsernameKey: "usernames_pkey",
	AccountKey:  "usernames_account_id_key",
}

// Columns returns all standard column names
func (t IdentityUsernameTable) Columns() []string {
	return []string{t.Username, t.AccountID, t.CreatedAt}
}
