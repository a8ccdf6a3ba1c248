// Package models defines the domain types shared by the mixtape services, pipeline and repositories.
//
// The package contains two categories of types:
//
// 1. Catalog values: immutable data returned by the remote services
//   - [Track] : a catalog track with its artists
//   - [SignalVector] : per-track numeric audio features keyed by [Dimension]
//   - [Artist] : artist search results
//   - [ArtistAttribute] : categorical metadata looked up by artist name
//
// 2. Pipeline values: inputs, intermediates and records of a synthesis run
//   - [SynthesisRequest] : the caller's preferences
//   - [SuggestionPair] : a title/artist pair parsed from generated text
//   - [TargetProfile] : aggregated dimension means
//   - [Run] : a persisted record of a completed synthesis
package models
