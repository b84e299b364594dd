// Package progress tracks per-lecture completion for one open course view.
//
// Store is the local progress set. Synchronizer owns a Store, a lecture
// navigator and the request lifecycle:
//   - Load fetches the lecture list and the authoritative progress set.
//   - BeginToggle applies an optimistic flip and Commit sends it, then
//     fetches the whole set again and replaces the local one.
//   - BeginPlayback auto-completes a lecture when playback starts.
//   - Close drops every completion that arrives afterwards.
//
// Phases move through a single transition function:
//
//	Idle -> Loading -> Ready <-> Mutating
//	Loading -> Failed -> (Load) -> Loading
//	any -> Closed
//
// A toggle started during a refetch keeps the phase at Loading; the
// fetched snapshot re-applies it.
package progress
