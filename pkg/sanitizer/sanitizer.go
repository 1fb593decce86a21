// Package sanitizer normalizes free-form user input before validation and
// persistence. Participant display names and schedule titles arrive from
// untrusted clients; normalization here keeps equality checks (for example,
// matching a participant's existing availability entries) stable across
// whitespace variations.
package sanitizer
