package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/reftree/reftree/pkg/errors"
	"github.com/reftree/reftree/pkg/project"
	"github.com/reftree/reftree/pkg/source"
)

// ReadJSON decodes a Document from r and checks that every edge names a
// declared node and that the root is declared. Depths are not validated;
// rebuild through ToWorkspace to recompute them.
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode tree document")
	}

	ids := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if n.ID == "" {
			return Document{}, errors.New(errors.ErrCodeInvalidFormat, "node without id")
		}
		if ids[n.ID] {
			return Document{}, errors.New(errors.ErrCodeInvalidFormat, "duplicate node %q", n.ID)
		}
		ids[n.ID] = true
	}
	if !ids[doc.Root] {
		return Document{}, errors.New(errors.ErrCodeInvalidFormat, "root %q is not a node", doc.Root)
	}
	for _, e := range doc.Edges {
		if !ids[e.From] || !ids[e.To] {
			return Document{}, errors.New(errors.ErrCodeInvalidFormat, "edge %s->%s names an unknown node", e.From, e.To)
		}
	}
	return doc, nil
}

// ImportJSON reads a Document from the file at path.
func ImportJSON(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// Project returns the project described by n.
func (n Node) Project() project.Project {
	name := n.Name
	if name == "" {
		name = n.ID
	}
	return project.Project{ID: n.ID, Name: name, Path: n.Path, Kind: n.Kind}
}

// ToWorkspace turns the document's nodes and edges back into a workspace
// whose startup project is the document root. Edge order is kept, so
// rebuilding yields the same tree.
func (d Document) ToWorkspace() (*source.Workspace, error) {
	projects := make([]project.Project, len(d.Nodes))
	for i, n := range d.Nodes {
		projects[i] = n.Project()
	}
	refs := make(map[string][]string)
	for _, e := range d.Edges {
		refs[e.From] = append(refs[e.From], e.To)
	}
	name := d.Workspace
	if name == "" {
		name = d.Root
	}
	return source.NewStatic(name, projects, refs, d.Root)
}
