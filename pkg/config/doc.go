/*
Package config loads the canonical environment file into an explicit
configuration struct.

The stack's .env file is the single source of truth for every credential
(database passwords, API secrets, bearer tokens). This package parses it
with koanf's dotenv parser on top of built-in defaults, validates the
result, and hands other components a typed, immutable Config instead of
shell-style ambient variables.

The full flat key/value mapping is retained alongside the typed fields
because the alignment checker compares service config files against
canonical values by env key name, including keys this struct does not
model explicitly.
*/
package config
