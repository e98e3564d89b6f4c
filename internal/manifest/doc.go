// Package manifest persists a queryable journal of scan runs in SQLite.
//
// Each run row captures the roots, keywords, worker count, timestamps, and
// terminal status of one invocation; result rows record every match with its
// classification, destination, and copy outcome. The journal is what lets an
// operator audit how complete a whole-drive recovery was after the fact,
// and it backs the "report" command.
//
// Schema changes are applied through embedded, ordered migration files.
package manifest
