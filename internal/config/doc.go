// SPDX-License-Identifier: MPL-2.0

// Package config handles shellplus configuration using Viper with CUE as the file format.
//
// The configuration file is looked up at the path given with --config, then
// ./shellplus.cue, then the user configuration directory
// ($XDG_CONFIG_HOME/shellplus/config.cue on Linux). Every file is validated
// against the embedded #Config schema (config_schema.cue) before it is merged
// over the defaults.
//
// Environment overrides are applied after the file: SHELLPLUS_PROJECT_ROOT
// (or the legacy PROJECT_ROOT) sets the project root and SHELLPLUS_STARTUP
// names the startup script. A .env file in the working directory supplies
// values for variables that are not already set.
package config
