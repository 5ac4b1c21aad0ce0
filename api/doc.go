// Package api owns VK API transport concerns.
//
// Ownership boundary:
// - method call envelope (token + version injection, error decoding)
// - retry/backoff on transport failures
// - media upload pipelines
// - Bots Long Poll server acquisition and wait cycles
//
// api does not interpret update payloads; that belongs to the bot core.
package api
