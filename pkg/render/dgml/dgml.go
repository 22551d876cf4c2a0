// Package dgml writes leveled trees as Directed Graph Markup Language, the
// XML graph format understood by Visual Studio's graph viewer.
//
// Every reference becomes a Link; links from a node's canonical owner carry
// the "Deepest" category so the viewer can filter the spanning tree. Nodes
// carry their depth and reference counts as properties.
package dgml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/reftree/reftree/pkg/reftree"
	"github.com/reftree/reftree/pkg/source"
)

// Namespace is the DGML XML namespace.
const Namespace = "http://schemas.microsoft.com/vs/2009/dgml"

// Categories assigned to nodes and links.
const (
	CategoryRoot       = "Root"
	CategoryUnresolved = "Unresolved"
	CategoryDeepest    = "Deepest"
)

// Options configures DGML generation.
type Options struct {
	HideVirtual bool // omit the whole-workspace root
}

type document struct {
	XMLName    xml.Name   `xml:"DirectedGraph"`
	Xmlns      string     `xml:"xmlns,attr"`
	Title      string     `xml:"Title,attr,omitempty"`
	Nodes      []node     `xml:"Nodes>Node"`
	Links      []link     `xml:"Links>Link"`
	Categories []category `xml:"Categories>Category"`
	Properties []property `xml:"Properties>Property"`
}

type node struct {
	ID       string `xml:"Id,attr"`
	Label    string `xml:"Label,attr"`
	Category string `xml:"Category,attr,omitempty"`
	Depth    int    `xml:"Depth,attr"`
	Inbound  int    `xml:"Inbound,attr"`
	Outbound int    `xml:"Outbound,attr"`
	Path     string `xml:"FilePath,attr,omitempty"`
}

type link struct {
	Source   string `xml:"Source,attr"`
	Target   string `xml:"Target,attr"`
	Category string `xml:"Category,attr,omitempty"`
}

type category struct {
	ID         string `xml:"Id,attr"`
	Label      string `xml:"Label,attr,omitempty"`
	Background string `xml:"Background,attr,omitempty"`
	Stroke     string `xml:"Stroke,attr,omitempty"`
}

type property struct {
	ID       string `xml:"Id,attr"`
	DataType string `xml:"DataType,attr"`
	Label    string `xml:"Label,attr,omitempty"`
}

// Write encodes t as a DGML document to w.
func Write(w io.Writer, t *reftree.Tree, title string, opts Options) error {
	doc := document{
		Xmlns: Namespace,
		Title: title,
		Categories: []category{
			{ID: CategoryRoot, Label: "Root", Background: "#FF556B2F"},
			{ID: CategoryUnresolved, Label: "Unresolved", Stroke: "#FF808080"},
			{ID: CategoryDeepest, Label: "Deepest reference"},
		},
		Properties: []property{
			{ID: "Depth", DataType: "System.Int32", Label: "Depth"},
			{ID: "Inbound", DataType: "System.Int32", Label: "Referenced by"},
			{ID: "Outbound", DataType: "System.Int32", Label: "References"},
		},
	}

	hidden := func(n reftree.Node) bool {
		return opts.HideVirtual && source.IsVirtual(n.Project)
	}

	t.VisitAll(func(n reftree.Node) bool {
		if hidden(n) {
			return true
		}
		nd := node{
			ID:       n.Project.ID,
			Label:    n.Label(),
			Depth:    n.Depth,
			Inbound:  n.Inbound,
			Outbound: n.Outbound,
			Path:     n.Project.Path,
		}
		switch {
		case n.IsRoot():
			nd.Category = CategoryRoot
		case n.Unresolved:
			nd.Category = CategoryUnresolved
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
		if hidden(from) || hidden(to) {
			continue
		}
		l := link{Source: from.Project.ID, Target: to.Project.ID}
		if deepest[e] {
			l.Category = CategoryDeepest
		}
		doc.Links = append(doc.Links, l)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode dgml: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Marshal returns t as DGML bytes.
func Marshal(t *reftree.Tree, title string, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, t, title, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
