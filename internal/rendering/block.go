// Package rendering defines the block tree produced by macros and renders it to HTML.
package rendering

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the type of a block.
type Kind int

const (
	KindGroup Kind = iota
	KindHeader
	KindLink
	KindWord
	KindParagraph
)

var kindNames = map[Kind]string{
	KindGroup:     "group",
	KindHeader:    "header",
	KindLink:      "link",
	KindWord:      "word",
	KindParagraph: "paragraph",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown block kind %q", b)
}

// ResourceType tells how a link reference is interpreted.
type ResourceType string

const (
	ResourceURL      ResourceType = "url"
	ResourcePath     ResourceType = "path"
	ResourceDocument ResourceType = "doc"
)

// ResourceReference is the target of a link.
type ResourceReference struct {
	Reference string       `json:"reference"`
	Type      ResourceType `json:"type"`
}

// Block is a node of the rendering tree.
type Block struct {
	Kind         Kind               `json:"kind"`
	Params       map[string]string  `json:"params,omitempty"`
	Children     []*Block           `json:"children,omitempty"`
	Level        int                `json:"level,omitempty"`
	Reference    *ResourceReference `json:"reference,omitempty"`
	Freestanding bool               `json:"freestanding,omitempty"`
	Text         string             `json:"text,omitempty"`
}

// NewGroup returns a container block.
func NewGroup(params map[string]string, children ...*Block) *Block {
	return &Block{Kind: KindGroup, Params: params, Children: children}
}

// NewHeader returns a section title of the given level (1-6).
func NewHeader(level int, params map[string]string, children ...*Block) *Block {
	return &Block{Kind: KindHeader, Level: level, Params: params, Children: children}
}

// NewLink returns a link to ref.
func NewLink(ref ResourceReference, freestanding bool, params map[string]string, children ...*Block) *Block {
	return &Block{Kind: KindLink, Reference: &ref, Freestanding: freestanding, Params: params, Children: children}
}

// NewWord returns a text block.
func NewWord(text string) *Block {
	return &Block{Kind: KindWord, Text: text}
}

// NewParagraph returns a paragraph block.
func NewParagraph(params map[string]string, children ...*Block) *Block {
	return &Block{Kind: KindParagraph, Params: params, Children: children}
}

// AddChild appends c.
func (b *Block) AddChild(c *Block) {
	b.Children = append(b.Children, c)
}

// Param returns a parameter value, or "".
func (b *Block) Param(name string) string {
	if b.Params == nil {
		return ""
	}
	return b.Params[name]
}

// Walk visits b and its descendants depth first. Returning false from fn skips
// the children of the visited block.
func (b *Block) Walk(fn func(*Block) bool) {
	if !fn(b) {
		return
	}
	for _, c := range b.Children {
		c.Walk(fn)
	}
}

// Find returns every block of the tree for which match is true.
func Find(blocks []*Block, match func(*Block) bool) []*Block {
	var out []*Block
	for _, root := range blocks {
		root.Walk(func(b *Block) bool {
			if match(b) {
				out = append(out, b)
			}
			return true
		})
	}
	return out
}

// MarshalBlocks encodes a tree as indented JSON.
func MarshalBlocks(blocks []*Block) ([]byte, error) {
	return json.MarshalIndent(blocks, "", "  ")
}
