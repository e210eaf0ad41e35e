package extract

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

type htmlNode struct {
	sel *goquery.Selection
}

func ParseHTML(r io.Reader) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return htmlNode{sel: doc.Selection}, nil
}

func (n htmlNode) Find(tag string) (Node, bool) {
	s := n.sel.Find(tag).First()
	if s.Length() == 0 {
		return nil, false
	}
	return htmlNode{sel: s}, true
}

func (n htmlNode) FindAll(tag string) []Node {
	var nodes []Node
	n.sel.Find(tag).Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, htmlNode{sel: s})
	})
	return nodes
}

func (n htmlNode) Text() string {
	return n.sel.Text()
}

func (n htmlNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}
