package reftree

import (
	"context"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/reftree/reftree/pkg/errors"
	"github.com/reftree/reftree/pkg/project"
)

// Options bounds and instruments a build. The zero value is unbounded and
// silent.
type Options struct {
	// MaxDepth stops expansion of nodes created at this depth or deeper.
	// Such nodes are kept as unexpanded leaves. Zero means unlimited.
	MaxDepth int
	// MaxNodes aborts the build with LIMIT_EXCEEDED once the tree would grow
	// past this many nodes. Zero means unlimited.
	MaxNodes int
	// SkipUnresolved keeps dependencies whose references cannot be enumerated
	// as unresolved leaves instead of failing the build. The root must always
	// resolve.
	SkipUnresolved bool
	// Logger receives debug output about node creation and re-leveling.
	Logger *log.Logger
}

// Builder constructs leveled trees from a Reference Source.
// A Builder holds no per-build state and may be reused.
type Builder struct {
	src  project.Source
	opts Options
}

// NewBuilder creates a Builder reading references from src.
func NewBuilder(src project.Source, opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Builder{src: src, opts: opts}
}

// build is the state of a single BuildTree call.
type build struct {
	ctx       context.Context
	src       project.Source
	opts      Options
	t         *Tree
	expanding map[string]bool // projects whose expansion is on the call stack
}

// BuildTree expands root recursively and levels every reachable project at
// its longest discovered distance from root.
//
// If root cannot be enumerated the error has code UNRESOLVED_PROJECT and the
// tree is nil. Errors below the root abort the subtree in progress; the tree
// built so far is returned together with the error and remains consistent.
func (b *Builder) BuildTree(ctx context.Context, root project.Project) (*Tree, error) {
	refs, err := references(ctx, b.src, root)
	if err != nil {
		return nil, err
	}

	bl := &build{
		ctx:       ctx,
		src:       b.src,
		opts:      b.opts,
		t:         newTree(root),
		expanding: make(map[string]bool),
	}
	if err := bl.expand(0, refs); err != nil {
		return bl.t, err
	}
	return bl.t, nil
}

// BuildDirectOnly builds the two-level tree of root and its direct
// references. Duplicate references collapse into one node; nothing below
// depth 1 is enumerated.
func (b *Builder) BuildDirectOnly(ctx context.Context, root project.Project) (*Tree, error) {
	refs, err := references(ctx, b.src, root)
	if err != nil {
		return nil, err
	}

	t := newTree(root)
	t.direct = true
	t.nodes[0].Expanded = true
	t.nodes[0].Outbound = len(refs)
	for _, ref := range refs {
		id := t.add(ref, 1)
		t.nodes[id].Inbound = 1
		t.owner[ref.ID] = 0
		t.attach(0, id)
	}
	return t, nil
}

// references asks the source for p's references, drops self references and
// duplicates, and codes failures as UNRESOLVED_PROJECT.
func references(ctx context.Context, src project.Source, p project.Project) ([]project.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	refs, err := src.References(ctx, p)
	if err != nil {
		if errors.Is(err, errors.ErrCodeUnresolvedProject) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeUnresolvedProject, err, "enumerate references of %q", p.ID)
	}
	return dedupe(p, refs), nil
}

func dedupe(self project.Project, refs []project.Project) []project.Project {
	seen := make(map[string]bool, len(refs))
	out := make([]project.Project, 0, len(refs))
	for _, r := range refs {
		if r.ID == self.ID || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

// expand attaches every reference of node id. refs were already fetched by
// the caller, which fixes the node's Outbound count.
func (bl *build) expand(id NodeID, refs []project.Project) error {
	p := bl.t.nodes[id].Project
	bl.t.nodes[id].Expanded = true
	bl.t.nodes[id].Outbound = len(refs)

	bl.expanding[p.ID] = true
	defer delete(bl.expanding, p.ID)

	for _, dep := range refs {
		if err := bl.attachDependency(id, dep); err != nil {
			return err
		}
	}
	return nil
}

// attachDependency places dep under parent, creating it (first sighting) or
// reusing the existing node and re-leveling it when parent is at least as
// deep as the current owner.
func (bl *build) attachDependency(parent NodeID, dep project.Project) error {
	t := bl.t
	if bl.expanding[dep.ID] {
		return errors.New(errors.ErrCodeInconsistent,
			"reference cycle: %q is referenced by %q while being expanded", dep.ID, t.nodes[parent].Project.ID)
	}

	owner, known := t.owner[dep.ID]
	if !known {
		return bl.attachNew(parent, dep)
	}

	existing, ok := t.childFor(owner, dep.ID)
	if !ok {
		return errors.New(errors.ErrCodeInconsistent,
			"%q is owned by %q but is not among its children", dep.ID, t.nodes[owner].Project.ID)
	}
	if !t.attach(parent, existing) {
		return nil
	}
	t.nodes[existing].Inbound++

	if t.nodes[owner].Depth > t.nodes[parent].Depth {
		return nil
	}
	bl.opts.Logger.Debug("ownership transfer",
		"project", dep.ID,
		"from", t.nodes[owner].Project.ID,
		"to", t.nodes[parent].Project.ID)
	t.owner[dep.ID] = parent
	return bl.relevel(existing, t.nodes[parent].Depth+1)
}

func (bl *build) attachNew(parent NodeID, dep project.Project) error {
	t := bl.t
	if bl.opts.MaxNodes > 0 && t.Len() >= bl.opts.MaxNodes {
		return errors.New(errors.ErrCodeLimitExceeded, "tree exceeds %d nodes", bl.opts.MaxNodes)
	}

	depth := t.nodes[parent].Depth + 1
	id := t.add(dep, depth)
	t.nodes[id].Inbound = 1
	t.owner[dep.ID] = parent
	t.attach(parent, id)
	bl.opts.Logger.Debug("node", "project", dep.ID, "depth", depth, "parent", t.nodes[parent].Project.ID)

	if bl.opts.MaxDepth > 0 && depth >= bl.opts.MaxDepth {
		return nil
	}

	refs, err := references(bl.ctx, bl.src, dep)
	if err != nil {
		if bl.opts.SkipUnresolved && errors.Is(err, errors.ErrCodeUnresolvedProject) {
			bl.opts.Logger.Warn("unresolved dependency", "project", dep.ID, "err", err)
			t.nodes[id].Unresolved = true
			return nil
		}
		return err
	}
	return bl.expand(id, refs)
}

// relevel moves id to depth and pushes every child that is now reachable
// along a longer path down with it. Children already at depth+1 or deeper are
// held by an equal or deeper claimant and are left alone.
//
// The child's depth decides, not who owns it: a child owned by another,
// shallower parent must still follow id down, or it would keep a depth
// below the longest path (see TestBuildTreeRelevelTakesChildOwnedElsewhere).
func (bl *build) relevel(id NodeID, depth int) error {
	t := bl.t
	if depth > t.Len() {
		return errors.New(errors.ErrCodeInconsistent,
			"re-leveling %q to depth %d exceeds the node count; the references contain a cycle", t.nodes[id].Project.ID, depth)
	}
	if t.nodes[id].Depth != depth {
		bl.opts.Logger.Debug("relevel", "project", t.nodes[id].Project.ID, "from", t.nodes[id].Depth, "to", depth)
	}
	t.nodes[id].Depth = depth

	for _, c := range slices.Clone(t.nodes[id].Children) {
		if t.nodes[c].Depth >= depth+1 {
			continue
		}
		t.owner[t.nodes[c].Project.ID] = id
		if err := bl.relevel(c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
