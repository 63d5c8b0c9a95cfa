package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Attribute keys shared by the CLI, the MCP server and the audit log.
const (
	KeyOperation  = "operation"
	KeyService    = "service"
	KeyAccount    = "account"
	KeyUserHash   = "user_hash"
	KeyUserDomain = "user_domain"
	KeyDuration   = "duration"
	KeyStatus     = "status"
	KeyError      = "error"
	KeyTool       = "tool"
)

// WithAccount scopes a logger to one signed-in account
func WithAccount(logger *slog.Logger, account string) *slog.Logger {
	return logger.With(Account(account))
}

func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

func Service(svc string) slog.Attr {
	return slog.String(KeyService, svc)
}

func Account(account string) slog.Attr {
	return slog.String(KeyAccount, account)
}

func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Err returns the error attribute. A nil error yields an empty group, which
// handlers drop, so Err(err) is safe on the success path.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeUser hashes a username (UPN or email) so log lines of one user
// can be correlated without logging the name.
func AnonymizeUser(user string) string {
	if user == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(user)))
	return "user:" + hex.EncodeToString(sum[:8])
}

func UserHash(user string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeUser(user))
}

func UserDomain(domain string) slog.Attr {
	return slog.String(KeyUserDomain, domain)
}

// SanitizeToken describes a token by its length only. Even a JWT header
// prefix is not logged.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
