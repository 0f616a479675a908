// Package saju holds the versioned four-pillar chart value types that flow
// between the chart collaborator and the scoring engine.
//
// Stem and Branch use their zero value as the explicit "absent" variant, so a
// chart with an unknown birth hour carries a Pillar whose Known() is false
// rather than a nil pointer. Element relations (generation and control),
// hidden stems, ten-god lookup and the fixed pairwise branch/stem relation
// tables all live here so the scoring engine only deals with plain values.
package saju
