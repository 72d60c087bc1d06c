package meeting_test

import (
	"strings"
	"testing"

	"github.com/mentorhub/mentorhub-api/pkg/meeting"
	"github.com/stretchr/testify/assert"
)

func TestGenerator_NewReferenceIsUnique(t *testing.T) {
	g := meeting.NewGenerator("https://meet.mentorhub.dev")

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		ref := g.NewReference()
		assert.NotEmpty(t, ref)
		_, dup := seen[ref]
		assert.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
	}
}

func TestGenerator_JoinURL(t *testing.T) {
	g := meeting.NewGenerator("https://meet.mentorhub.dev")
	assert.Equal(t, "https://meet.mentorhub.dev/session/abc-123", g.JoinURL("abc-123"))
}

func TestGenerator_JoinURL_TrimsTrailingSlash(t *testing.T) {
	g := meeting.NewGenerator("https://meet.mentorhub.dev/")
	url := g.JoinURL("abc-123")
	assert.Equal(t, "https://meet.mentorhub.dev/session/abc-123", url)
	assert.False(t, strings.Contains(url, "//session"))
}
