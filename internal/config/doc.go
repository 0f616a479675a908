// Package config loads the saju-engine configuration from a YAML file,
// applies environment overrides and validates the result.
//
// Watch hot-reloads the file; only the scoring section is meant to be
// swapped at runtime; everything else takes effect on restart.
package config
