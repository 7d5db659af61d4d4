package spacetravelling

import "embed"

// EmbeddedAssets contains static assets shipped with the framework:
// spacetravelling.js (load more, fallback loading, comment widget mount)
// and spacetravelling.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
