// Package document implements the fetch-once document cache.
//
// A Cache maps document URIs to parsed JSON trees. Every URI passes through
// an ordered chain of Rewriters before the cache lookup, so a caller can point
// remote schema locations at local mirrors without the rest of the engine
// noticing. On a miss the raw content is fetched through a Fetcher, decoded
// (JSON, YAML, or CUE by extension), checked to be an object or array, stored,
// and handed to the store hook exactly once before Fetch returns.
//
// Documents are never evicted or refreshed: the cache lives as long as the
// engine that owns it.
package document
