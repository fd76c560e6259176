// Package policyassets provides the embedded content-gateway extension policy.
//
// The policy is embedded at compile time to ensure the server and library
// work correctly regardless of the working directory or installation location.
package policyassets

import _ "embed"

// Extensions is the embedded extension policy document.
//
// It carries the base64 extension set and the recognized-extension
// allow-list consumed by the gateway's content resolution.
//
//go:embed extensions.yaml
var Extensions []byte
