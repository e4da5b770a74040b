// Package setupfile reads derivation setups from YAML or JSON documents
// written in bracket notation.
package setupfile
