package mcpserver

import "encoding/json"

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	registryName   = "io.github.codegraph-labs/codegraph"
	repositoryURL  = "https://github.com/codegraph-labs/codegraph"
	ociImage       = "ghcr.io/codegraph-labs/codegraph"
)

// Manifest is the server.json registry document, schema 2025-10-17.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository points at the source repository.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	ID     string `json:"id,omitempty"`
}

// Package tells clients how to install and start the server.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

// Argument is one command-line argument in the launch invocation.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Transport names the wire transport; this server only speaks stdio.
type Transport struct {
	Type string `json:"type"`
}

// newManifest describes this release: the published container image,
// started with the mcp subcommand over stdio.
func newManifest(version string) Manifest {
	return Manifest{
		Schema:      manifestSchema,
		Name:        registryName,
		Description: "Multi-language code graph: entities, call edges, test coverage links, and unresolved references",
		Version:     version,
		Repository:  &Repository{URL: repositoryURL, Source: "github"},
		Packages: []Package{{
			RegistryType:     "oci",
			Identifier:       ociImage + ":" + version,
			PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
			Transport:        Transport{Type: "stdio"},
		}},
	}
}

// GenerateManifest renders the manifest for a release version; an empty
// version marks an unreleased build.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}
	return json.MarshalIndent(newManifest(version), "", "  ")
}
