package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLinksResolvesRelative(t *testing.T) {
	html := `<html><body>
		<a href="/rooms">Rooms</a>
		<a href="dining">Dining</a>
		<a href="https://example.com/contact">Contact</a>
	</body></html>`

	links := ExtractLinks(html, "https://example.com/about")

	assert.Equal(t, []string{
		"https://example.com/rooms",
		"https://example.com/dining",
		"https://example.com/contact",
	}, links)
}

func TestExtractLinksPreservesDocumentOrder(t *testing.T) {
	html := `<html><body>
		<a href="/c">c</a>
		<a href="/a">a</a>
		<a href="/b">b</a>
	</body></html>`

	links := ExtractLinks(html, "https://example.com")

	assert.Equal(t, []string{
		"https://example.com/c",
		"https://example.com/a",
		"https://example.com/b",
	}, links)
}

func TestExtractLinksSkipsNonPageHrefs(t *testing.T) {
	html := `<html><body>
		<a href="mailto:stay@example.com">Email</a>
		<a href="tel:+15551234">Call</a>
		<a href="javascript:void(0)">Menu</a>
		<a href="#gallery">Gallery</a>
		<a href="">Empty</a>
		<a href="/rooms">Rooms</a>
	</body></html>`

	links := ExtractLinks(html, "https://example.com")

	assert.Equal(t, []string{"https://example.com/rooms"}, links)
}

func TestExtractLinksDeduplicatesWithinPage(t *testing.T) {
	html := `<html><body>
		<a href="/rooms">Rooms</a>
		<a href="/rooms">Rooms again</a>
	</body></html>`

	links := ExtractLinks(html, "https://example.com")

	assert.Len(t, links, 1)
}

func TestExtractLinksEmptyPage(t *testing.T) {
	assert.Empty(t, ExtractLinks("<html><body><p>No links here.</p></body></html>", "https://example.com"))
}
