// Package scoring derives element balance, strength, pattern, affinity and
// compatibility scores from a chart.
//
// Every function is pure: the same Pillars and Params always produce the same
// result, nothing is cached here, and missing chart positions degrade the
// score (the skipped factor is recorded) instead of failing.
package scoring
