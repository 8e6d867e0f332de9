// Package model loads serialized model artifacts.
//
// An artifact is a JSON or YAML document describing a pre-fitted pipeline:
// the expected features, an optional standard scaler and the fitted estimator.
// The factory builds the estimator by artifact kind.
// Currently supports:
//   - linear_regression (gonum)
//
// A loaded Model is immutable; there is no reload path.
package model
