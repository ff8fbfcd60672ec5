package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose    = "verbose"
	FlagConfig     = "config"
	FlagLogFile    = "log-file"
	FlagEventsFile = "events-file"

	// Watch command flags
	FlagTUI = "tui"

	// Resolve command flags
	FlagEnvelope = "envelope"

	// Events command flags
	FlagFollow  = "follow"
	FlagCount   = "count"
	FlagSession = "session"

	// Output format flags
	FlagJSON = "json"
)
