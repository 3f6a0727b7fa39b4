// Package bridge stores the bridges each user has registered: network
// address, provider, and the username issued by link-button pairing.
//
// Logical bridge ids are scoped to the owning user and allocated from a
// per-user counter, so the first bridge a user registers is "1" no
// matter how many bridges other users have.
package bridge
