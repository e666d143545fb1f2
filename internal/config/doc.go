// Package config defines the format-agnostic model of a flow definition
// and the interfaces a format-specific loader must implement.
package config
