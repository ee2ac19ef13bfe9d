// Package main hosts the purlmatch CLI entrypoint and command graph.
//
// The Cobra-based command tree covers codebase collection, pipeline runs,
// package reporting, environment checks, and configuration scaffolding. It
// centralizes configuration resolution, store access, and structured logging
// setup so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
