// Package scan drives the recovery pipeline: breadth-first directory
// enumeration, a bounded pool of classification workers, and a lock-guarded
// aggregator that merges matches, copy outcomes, and recoverable errors into
// one consistent progress view.
//
// The pipeline distinguishes fatal failures (an inaccessible scan root) from
// recoverable per-entry failures, which are counted by category and never
// abort the run. Running with one worker or many produces identical match
// sets and final counts; parallelism changes only throughput.
//
// Cancellation through the context stops issuing new work promptly while
// letting in-flight copies finish, so the output tree stays consistent.
package scan
