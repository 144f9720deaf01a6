// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags, via LoadMap)
//  2. Environment variables (CHANSTORE_SECTION_KEY)
//  3. Configuration file (YAML)
//  4. Defaults
package confloader
