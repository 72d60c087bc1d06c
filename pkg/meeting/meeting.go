package meeting

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ReferenceGenerator produces opaque, human-shareable meeting-join references.
// The lifecycle services treat it as an injected capability.
type ReferenceGenerator interface {
	NewReference() string
	JoinURL(reference string) string
}

// Generator creates meeting references under a configured base URL.
type Generator struct {
	baseURL string
}

// NewGenerator creates a reference generator. baseURL is the public meeting
// host, e.g. "https://meet.mentorhub.dev".
func NewGenerator(baseURL string) *Generator {
	return &Generator{baseURL: strings.TrimRight(baseURL, "/")}
}

// NewReference returns a fresh opaque join token.
func (g *Generator) NewReference() string {
	return uuid.NewString()
}

// JoinURL renders the shareable join URL for a reference.
func (g *Generator) JoinURL(reference string) string {
	return fmt.Sprintf("%s/session/%s", g.baseURL, reference)
}

var _ ReferenceGenerator = (*Generator)(nil)
