package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

type xmlNode struct {
	name     string
	attrs    []xml.Attr
	text     string
	children []*xmlNode
}

// ParseXML reads an XML document into a tree of element nodes. Character
// data is kept per element so Text can concatenate it in document order.
func ParseXML(r io.Reader) (Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	root := &xmlNode{}
	stack := []*xmlNode{root}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}

		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local, attrs: t.Attr}
			top.children = append(top.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			top.children = append(top.children, &xmlNode{text: string(t)})
		}
	}

	for _, c := range root.children {
		if !c.isText() {
			return root, nil
		}
	}
	return nil, fmt.Errorf("%w: no root element", ErrParse)
}

func (n *xmlNode) isText() bool {
	return n.name == ""
}

func (n *xmlNode) Find(tag string) (Node, bool) {
	for _, c := range n.children {
		if c.isText() {
			continue
		}
		if c.name == tag {
			return c, true
		}
		if found, ok := c.Find(tag); ok {
			return found, true
		}
	}
	return nil, false
}

func (n *xmlNode) FindAll(tag string) []Node {
	var nodes []Node
	for _, c := range n.children {
		if c.isText() {
			continue
		}
		if c.name == tag {
			nodes = append(nodes, c)
		}
		nodes = append(nodes, c.FindAll(tag)...)
	}
	return nodes
}

func (n *xmlNode) Text() string {
	if n.isText() {
		return n.text
	}
	var sb strings.Builder
	for _, c := range n.children {
		sb.WriteString(c.Text())
	}
	return sb.String()
}

func (n *xmlNode) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
