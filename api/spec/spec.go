// Package spec embeds the API reference served on /openapi.yaml and /docs.
package spec

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte

//go:embed docs.html
var DocsPage []byte
