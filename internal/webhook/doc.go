// Package webhook implements the GitHub webhook endpoint that drives
// codex-relay.
//
// Every inbound request is HMAC-SHA256 verified against the shared
// webhook secret before anything else happens. Verified requests are
// then filtered down to issue and issue-comment events authored by the
// single watched user; everything else is acknowledged and ignored.
//
// # Security Model
//
// - HMAC-SHA256 signatures verified using crypto/subtle (constant-time comparison)
// - Only the GitHub "sha256=<hex>" signature format is accepted
// - Body size limits enforced to prevent DoS attacks
// - No signature details leaked in error responses (always a generic 401)
// - Request logging excludes payload bodies
//
// # Request Flow
//
//  1. HTTP POST arrives at /github-webhook-codex
//  2. Body size checked (reject with 413 if too large)
//  3. HMAC-SHA256 verified over the raw body (reject with 401 on mismatch)
//  4. Body parsed as JSON (reject with 400 on failure)
//  5. Event type, action, and sender filtered (200 {"msg":"ignored"} when out of scope)
//  6. Comment or issue text handed to the prompt generator
//  7. Generated prompt posted back as an issue comment, notification follows
//  8. 200 {"msg":"processed"} returned
//
// Downstream failures (generation, comment, notification, journal) are
// logged but never reported back to GitHub; the only error responses
// are the 401 and 400 rejections above.
package webhook
