// Package inbox submits documents dropped into a directory.
//
// A submission is a pair of files sharing a base name:
//
//	<name>.json   the product document
//	<name>.sig    the detached signature (surrounding whitespace is trimmed)
//
// Once both files exist and neither has changed for the debounce interval,
// the pair is handed to a pool of workers that submit it through a shared
// client, and therefore a shared admission gate. A successful pair is moved
// to the done directory next to <name>.response holding the response body.
// A failed pair is moved to the failed directory next to <name>.error.
//
// Pairs already present when Run starts are picked up immediately. When the
// context passed to Run ends, no new pairs are started, in-flight
// submissions are allowed to finish, and untouched pairs stay in the inbox
// for the next run.
package inbox
