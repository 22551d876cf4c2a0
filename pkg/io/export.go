package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/reftree/reftree/pkg/reftree"
)

// Document is the JSON form of a reftree.Tree.
type Document struct {
	Workspace string `json:"workspace,omitempty"`
	Root      string `json:"root"`
	Direct    bool   `json:"direct,omitempty"`
	MaxDepth  int    `json:"max_depth"`
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
}

// Node is one project of a Document.
type Node struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Path       string `json:"path,omitempty"`
	Depth      int    `json:"depth"`
	Inbound    int    `json:"inbound"`
	Outbound   int    `json:"outbound"`
	Owner      string `json:"owner,omitempty"`
	Expanded   bool   `json:"expanded"`
	Unresolved bool   `json:"unresolved,omitempty"`
}

// Edge is a reference between two nodes of a Document.
type Edge struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Deepest bool   `json:"deepest,omitempty"`
}

// FromTree converts t into a Document. workspace may be empty.
func FromTree(t *reftree.Tree, workspace string) Document {
	doc := Document{
		Workspace: workspace,
		Root:      t.Root().Project.ID,
		Direct:    t.DirectOnly(),
		MaxDepth:  t.MaxDepth(),
		Nodes:     make([]Node, 0, t.Len()),
	}

	t.VisitAll(func(n reftree.Node) bool {
		nd := Node{
			ID:         n.Project.ID,
			Depth:      n.Depth,
			Inbound:    n.Inbound,
			Outbound:   n.Outbound,
			Expanded:   n.Expanded,
			Unresolved: n.Unresolved,
			Kind:       n.Project.Kind,
			Path:       n.Project.Path,
		}
		if n.Project.Name != n.Project.ID {
			nd.Name = n.Project.Name
		}
		if owner, ok := t.CanonicalOwner(n.Project.ID); ok {
			nd.Owner = owner.Project.ID
		}
		doc.Nodes = append(doc.Nodes, nd)
		return true
	})

	deepest := make(map[reftree.Edge]bool)
	for _, e := range t.DeepestEdges() {
		deepest[e] = true
	}
	for _, e := range t.Edges() {
		from, _ := t.Node(e.From)
		to, _ := t.Node(e.To)
		doc.Edges = append(doc.Edges, Edge{From: from.Project.ID, To: to.Project.ID, Deepest: deepest[e]})
	}
	return doc
}

// WriteJSON encodes t as an indented JSON document.
func WriteJSON(t *reftree.Tree, workspace string, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromTree(t, workspace)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes t to a JSON file at path.
func ExportJSON(t *reftree.Tree, workspace, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(t, workspace, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
