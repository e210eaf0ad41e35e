package extract

import (
	"bytes"

	"github.com/devraulu/rollcall/pkg/fetch"
)

// Node is the structural view extractors are written against. Find and
// FindAll search descendants in document order.
type Node interface {
	Find(tag string) (Node, bool)
	FindAll(tag string) []Node
	Text() string
	Attr(name string) (string, bool)
}

// Parse builds a Node tree for a fetched document using the backend that
// matches its declared kind.
func Parse(doc *fetch.Document) (Node, error) {
	switch doc.Kind {
	case fetch.XML:
		return ParseXML(bytes.NewReader(doc.Body))
	default:
		return ParseHTML(bytes.NewReader(doc.Body))
	}
}
