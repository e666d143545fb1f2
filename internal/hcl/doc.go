// Package hcl implements the config.Loader interface for HCL flow files.
package hcl
