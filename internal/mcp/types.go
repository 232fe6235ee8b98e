package mcp

import "github.com/1broseidon/taskbg/internal/ipc"

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	Status ipc.StatusData `json:"status"`
}

// ReloadOutput is the output for the reload tool.
type ReloadOutput struct {
	SettingsVersion uint64 `json:"settings_version"`
}

// ReapplyOutput is the output for the reapply tool.
type ReapplyOutput struct {
	Surfaces int    `json:"surfaces"`
	Warning  string `json:"warning,omitempty" jsonschema:"Set when some surfaces could not be styled"`
}
