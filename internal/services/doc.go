// Package services implements the remote collaborators of the synthesis pipeline on top of a shared [Client].
//
// # Resilient Client
//
// [Client] sends every request with a per-attempt timeout and an optional token-bucket limiter. When it holds a
// [session.Store] and an [Authorizer], a 401 causes exactly one refresh followed by exactly one resend:
//
//   - refresh succeeds: the new token is stored and the request is resent
//   - refresh fails or no refresh token exists: the stored access token is cleared, [shared.ErrAuthExpired]
//   - resend answers 401 again: the stored access token is cleared, [shared.ErrAuthExpired]
//
// Other non-2xx statuses surface as [shared.UpstreamError] and are never retried.
//
// # Spotify
//
// [SpotifyCatalog] implements [Catalog] against the Spotify Web API. [OAuthRefresher] performs the
// refresh_token grant through [oauth2.Config.TokenSource].
//
// # OpenAI
//
// [OpenAIGenerator] implements [Generator] with the chat completions endpoint.
//
// # MusicBrainz
//
// [MusicBrainzLookup] implements [AttributeLookup] with one batched artist search per group of names,
// keeping only exact, case-sensitive name matches.
package services
