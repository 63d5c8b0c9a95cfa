package common

import "strings"

// GetAccountFromArgs returns the trimmed "account" argument. A missing,
// blank or non-string value selects fallback.
func GetAccountFromArgs(args map[string]any, fallback string) string {
	account, _ := args["account"].(string)
	if account = strings.TrimSpace(account); account != "" {
		return account
	}
	return fallback
}
