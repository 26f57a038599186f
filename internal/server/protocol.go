// Package server defines the newline-delimited wire protocol shared by
// the connection handlers: one UTF-8 message per line, no framing.
package server

import "strings"

// Request prefixes accepted from unauthenticated clients.
const (
	loginPrefix    = "LOGIN_REQUEST:"
	registerPrefix = "REGISTER_REQUEST:"
)

// Reply prefixes sent to clients.
const (
	replyLoginSuccess    = "LOGIN_SUCCESS:"
	replyLoginFailed     = "LOGIN_FAILED:"
	replyRegisterSuccess = "REGISTER_SUCCESS:"
	replyRegisterFailed  = "REGISTER_FAILED:"
	replyError           = "ERROR:"
)

// Failure reasons sent to clients. The exact strings are part of the
// wire protocol and must not change.
const (
	reasonBadLoginFormat     = "Invalid login request format."
	reasonBadCredentials     = "Invalid username or password."
	reasonLoginStoreError    = "Database error during login."
	reasonBadRegisterFormat  = "Invalid registration request format."
	reasonUsernameTaken      = "Username already exists."
	reasonRegisterStoreError = "Database error during registration."
	reasonNotLoggedIn        = "Please log in or register first."
)

// parseCredentials splits the payload after a request prefix into
// exactly a username and a secret. Neither field may contain the
// delimiter; any other field count is malformed. Trailing empty fields
// do not count, so a payload ending in the delimiter is malformed too
// rather than a credential with an empty secret.
func parseCredentials(payload string) (username, secret string, ok bool) {
	parts := strings.Split(payload, ":")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// isExpectedCloseError checks if an error is expected during connection
// closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer") ||
		strings.Contains(errStr, "closed pipe")
}
