// Package tasks runs recommendation synthesis and playlist export with real-time progress reporting.
//
// # Pipeline
//
// [Pipeline] implements [Synthesizer] as a linear state machine. Each state is entered at most once and in order:
//
//  1. [RequestReceived] : the request passed validation
//  2. [SuggestionsFetched] : the generator answered a prompt built by [BuildPrompt], parsed by [ParseSuggestions]
//  3. [TracksResolved] : each suggestion was searched in the catalog; misses are dropped
//  4. [ProfileComputed] : resolved tracks' signal vectors were averaged into a target profile
//  5. [CandidatesFetched] : the catalog recommended tracks for seeds and targets from [RecommendationQuery]
//  6. [Merged] : resolved tracks and recommendations were combined by [Merge]
//  7. [AttributeFiltered] : only when the request names an attribute preference, see [FilterByAttribute]
//  8. [Done]
//
// The first failing stage ends the run. Its error is returned as-is so callers can match the sentinels in
// package shared.
//
// # Progress Reporting
//
// [Pipeline.SynthesizeWithProgress] sends a [ProgressUpdate] per transition and per catalog search.
// Updates use select with default so a slow reader never blocks a run.
//
// # Run History
//
// The optional [RunRecorder] receives every completed run (repositories.RunRepository in the CLI).
// Recording failures are logged and never fail the run.
//
// # Export
//
// [PlaylistExporter] writes a result to a new private playlist in the current user's library.
package tasks
