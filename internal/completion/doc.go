// Package completion aggregates completion candidates from several
// providers into one ranked, bounded list.
//
// # Query
//
// Aggregator.Query asks every provider registered for the document, in
// registration order, for candidates at the cursor. Providers are called one
// at a time so the merged list keeps provider order without a separate merge
// step. When completion was started by a trigger character, a provider is
// only called if that character is one of its trigger characters or the
// cursor sits right after a word character.
//
// With server side fuzzy matching enabled, each candidate is scored against
// the word typed so far and candidates that do not match are dropped. The
// surviving batch of each provider is stored as one slot of the item cache,
// and every outgoing item carries a Handle (provider id, index, slot, match)
// in its data. When an entries limit is configured and exceeded, the list is
// ranked and cut down, and the result is marked incomplete.
//
// # Resolve
//
// Aggregator.Resolve decodes the handle of a wire item, looks up the original
// candidate in the cache, and lets the owning provider fill in deferred
// fields. Any failure to find the original returns the item unchanged.
//
// # Selection command
//
// Every outgoing item carries AcceptCommand. When the transport runs it, the
// aggregator notifies selection observers and then forwards to the command
// the provider attached to the original candidate, if any.
package completion
