// Package configs embeds the configuration templates written by
// 'jump config init'.
//
// Configuration layers, lowest to highest precedence (see config.Load):
//  1. Hardcoded defaults (config.NewConfig)
//  2. User config (~/.config/jump/config.yaml)
//  3. Project config (.jump.yaml)
//  4. Environment variables (JUMP_*)
package configs

import _ "embed"

// UserConfigTemplate is written to ~/.config/jump/config.yaml by
// 'jump config init'. It holds settings that apply to every project on
// the machine: editor, logging and telemetry.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is written to .jump.yaml by
// 'jump config init --project'. It holds settings meant to be committed
// with the project: exclusions, tie-break orders and symbol languages.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
