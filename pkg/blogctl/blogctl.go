// Package blogctl re-exports the pipeline result types as the public API.
// Embedders import this package and use blogctl.PublishResult,
// blogctl.VerifyResult, etc., without reaching into internal.
package blogctl

import (
	"github.com/byo/bswieckidev-blog/internal/engine"
	"github.com/byo/bswieckidev-blog/internal/gitrepo"
	"github.com/byo/bswieckidev-blog/internal/lint"
	"github.com/byo/bswieckidev-blog/internal/manifest"
)

type VerifyResult = engine.VerifyResult
type PublishResult = engine.PublishResult
type StatusResult = engine.StatusResult
type Change = gitrepo.Change
type Problem = lint.Problem
type Delta = manifest.Delta
