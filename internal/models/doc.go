// Package models defines the domain entities persisted by the musicagent service.
//
// [User] is an account record with an optional embedded [SpotifyAuth]. [UserPatch]
// is the partial update shape: each field is an [Optional] that records whether
// the key was present and whether it was null, so "absent", "null" and "set" are
// all distinguishable.
//
// [Snapshot] is one immutable capture of a user's listening data, kept as the
// provider's raw JSON items. [TokenPayload] is the provider's token response.
package models
