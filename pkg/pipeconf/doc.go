// Package pipeconf builds pipelines from human-readable YAML definitions.
//
// Register stages by name in a typed Registry, then define pipelines that
// reference those names and optional modifiers:
//
//	name: ingest
//	on_cancel: discard
//	stages:
//	  - fetch
//	  - name: parse
//	    timeout: 60s
//	  - validate
//
// Build the pipeline with Build(registry, config). A file holding several
// pipelines under a top-level "pipelines" map is parsed with ParseMulti and
// built with BuildAll.
//
// The chain behavior "convert" cannot be configured here: it only exists on
// convertible chains, which are assembled in code.
package pipeconf
