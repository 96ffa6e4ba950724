// SPDX-License-Identifier: MPL-2.0

// Package config handles autodoc configuration using Viper with CUE as the file format.
//
// Values are layered: built-in defaults, then an optional CUE file validated
// against the embedded #Config schema (config_schema.cue), then environment
// variables. The API credentials are normally supplied through the
// AZURE_OPENAI_* variables and the documentation type through DOC_TYPE.
package config
