// Package auth provides OAuth2 authentication and token management for the
// Microsoft identity platform.
//
// Tokens are stored per account on disk (one JSON file per account in the user
// cache directory) and refreshed through the configured OAuth client. The
// TokenProvider interface allows different token sources to be plugged in;
// TokenSource adapts a provider into the opaque oauth2.TokenSource the Graph
// data-access layer is built with.
//
// Authentication failures are reported as *AuthError.
package auth
