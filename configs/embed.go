// Package configs provides embedded configuration templates for Scout.
//
// Templates are embedded at build time using Go's //go:embed directive, so
// they are available in all distributions: source builds, binary releases,
// and package-manager installs.
//
// The templates are used by:
//   - cmd/scout/cmd/init.go - creates .scout.yaml in the project root
//   - cmd/scout/cmd/config.go - creates the user config at
//     ~/.config/scout/config.yaml
//
// Configuration hierarchy (see internal/config Load()):
//  1. Hardcoded defaults (internal/config NewConfig())
//  2. User config (~/.config/scout/config.yaml)
//  3. Project config (.scout.yaml)
//  4. Environment variables (SCOUT_*)
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration.
// Created by `scout config init` at ~/.config/scout/config.yaml.
// Contains machine-wide settings: language-model endpoint, API keys,
// provider order.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for project-level configuration.
// Created by `scout init` at .scout.yaml in the project root.
// Contains per-project overrides: result caps, provider tweaks.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
