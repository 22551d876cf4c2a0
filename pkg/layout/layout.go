package layout

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/reftree/reftree/pkg/errors"
	"github.com/reftree/reftree/pkg/reftree"
)

// Mode selects which references become connections.
type Mode string

const (
	ModeDeepest Mode = "deepest"
	ModeAll     Mode = "all"
)

// Modes lists the accepted connection modes.
var Modes = []string{string(ModeDeepest), string(ModeAll)}

// ParseMode validates s. An empty string selects ModeDeepest.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeDeepest, nil
	}
	if err := errors.ValidateMode(s, Modes); err != nil {
		return "", err
	}
	return Mode(s), nil
}

// Default frame and node metrics.
const (
	DefaultWidth          = 800.0
	DefaultHeight         = 600.0
	DefaultNodeHeight     = 200.0
	DefaultEmptyNodeWidth = 100.0
	DefaultCharWidth      = 10.0
)

// Options controls Compute. Zero values select the defaults.
type Options struct {
	Width          float64
	Height         float64
	NodeHeight     float64
	EmptyNodeWidth float64 // width of a node with an empty label
	CharWidth      float64 // width added per label character
	Mode           Mode
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.EmptyNodeWidth <= 0 {
		o.EmptyNodeWidth = DefaultEmptyNodeWidth
	}
	if o.CharWidth <= 0 {
		o.CharWidth = DefaultCharWidth
	}
	if o.Mode == "" {
		o.Mode = ModeDeepest
	}
	return o
}

// Layout is a positioned tree.
type Layout struct {
	Mode    Mode       `json:"mode"`
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	Nodes   []Node     `json:"nodes"`
	Edges   []Edge     `json:"edges"`
	Columns [][]string `json:"columns"` // node IDs per depth
}

// Node is a positioned project.
type Node struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Depth      int     `json:"depth"`
	Row        int     `json:"row"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Inbound    int     `json:"inbound"`
	Outbound   int     `json:"outbound"`
	Root       bool    `json:"root,omitempty"`
	Unresolved bool    `json:"unresolved,omitempty"`
}

// Edge is a connection between two positioned nodes. Skip is the number of
// levels the reference jumps over; connections from the owner have Skip 0.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Skip int    `json:"skip,omitempty"`
}

// Compute lays out t.
func Compute(t *reftree.Tree, opts Options) (Layout, error) {
	opts = opts.withDefaults()
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return Layout{}, err
	}

	l := Layout{Mode: opts.Mode, Width: opts.Width, Height: opts.Height}
	pos := make(map[reftree.NodeID]int, t.Len())

	x, longest := 0.0, 0
	for d, level := range t.Levels() {
		x += opts.EmptyNodeWidth + opts.CharWidth*float64(longest)
		top := (opts.Height - float64(len(level))*opts.NodeHeight) / 2

		ids := make([]string, 0, len(level))
		longest = 0
		for i, n := range level {
			label := n.Label()
			pos[n.ID] = len(l.Nodes)
			l.Nodes = append(l.Nodes, Node{
				ID:         n.Project.ID,
				Label:      label,
				Depth:      d,
				Row:        i,
				X:          x,
				Y:          top + opts.NodeHeight*float64(i),
				Width:      opts.EmptyNodeWidth + opts.CharWidth*float64(len(label)),
				Height:     opts.NodeHeight,
				Inbound:    n.Inbound,
				Outbound:   n.Outbound,
				Root:       n.IsRoot(),
				Unresolved: n.Unresolved,
			})
			ids = append(ids, n.Project.ID)
			longest = max(longest, len(label))
		}
		l.Columns = append(l.Columns, ids)
		l.Width = max(l.Width, x+opts.EmptyNodeWidth+opts.CharWidth*float64(longest))
		l.Height = max(l.Height, float64(len(level))*opts.NodeHeight)
	}

	edges := t.DeepestEdges()
	if opts.Mode == ModeAll {
		edges = t.Edges()
	}
	for _, e := range edges {
		from, to := l.Nodes[pos[e.From]], l.Nodes[pos[e.To]]
		l.Edges = append(l.Edges, Edge{From: from.ID, To: to.ID, Skip: to.Depth - from.Depth - 1})
	}
	return l, nil
}

// Node returns the positioned node for a project ID.
func (l Layout) Node(id string) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Marshal serializes l to indented JSON.
func Marshal(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Unmarshal parses a layout and checks the mode.
func Unmarshal(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if _, err := ParseMode(string(l.Mode)); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// WriteFile writes l as JSON to path.
func WriteFile(l Layout, path string) error {
	data, err := Marshal(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile reads a layout from a JSON file.
func ReadFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
