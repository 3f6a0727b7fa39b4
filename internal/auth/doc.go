// Package auth validates the bearer tokens that identify a bridge owner.
//
// Tokens are HS256 JWTs signed with the configured secret. The subject
// claim is the user id every other package scopes its data by. Token
// issuance lives with the identity provider; GenerateAccessToken exists
// for development and tests.
package auth
