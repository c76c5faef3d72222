package tree

import (
	"bytes"
	"errors"
	"io"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// RedactNode applies the same key and path rules to a yaml.v3 node tree.
// Mappings play the role of objects and sequences of arrays; aliases are not
// followed. Replaced nodes become string scalars that keep their comments.
func (r *Redactor) RedactNode(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			r.RedactNode(c)
		}
	case yaml.MappingNode:
		r.walkMapping(n, "")
	}
}

func (r *Redactor) walkMapping(n *yaml.Node, path string) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		val := n.Content[i+1]
		child := childPath(path, key)
		switch {
		case r.matchesPath(child):
			n.Content[i+1] = r.scalar(val)
		case r.matchesKey(key):
			if val.Kind == yaml.SequenceNode {
				for j, el := range val.Content {
					val.Content[j] = r.scalar(el)
				}
				continue
			}
			n.Content[i+1] = r.scalar(val)
		case val.Kind == yaml.MappingNode:
			r.walkMapping(val, child)
		}
	}
}

func (r *Redactor) scalar(old *yaml.Node) *yaml.Node {
	return &yaml.Node{
		Kind:        yaml.ScalarNode,
		Tag:         "!!str",
		Value:       r.placeholder,
		HeadComment: old.HeadComment,
		LineComment: old.LineComment,
		FootComment: old.FootComment,
	}
}

// RedactYAML parses every document in s, redacts each and encodes them back
// with two-space indentation.
func (r *Redactor) RedactYAML(s string) (string, error) {
	dec := yaml.NewDecoder(strings.NewReader(s))
	var docs []*yaml.Node
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", &ParseError{Format: "yaml", Err: err}
		}
		r.RedactNode(&doc)
		docs = append(docs, &doc)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return "", err
		}
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
