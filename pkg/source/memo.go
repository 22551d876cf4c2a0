package source

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/reftree/reftree/pkg/project"
)

// DefaultMemoSize bounds the number of projects a Memo remembers.
const DefaultMemoSize = 4096

// MemoSource remembers the references of recently queried projects.
// Concurrent queries for the same project share one call to the wrapped
// source. Errors are not remembered.
type MemoSource struct {
	src   project.Source
	cache *lru.Cache[string, []project.Project]
	group singleflight.Group
}

// Memo wraps src with an LRU of the given size (DefaultMemoSize if <= 0).
func Memo(src project.Source, size int) *MemoSource {
	if size <= 0 {
		size = DefaultMemoSize
	}
	c, _ := lru.New[string, []project.Project](size)
	return &MemoSource{src: src, cache: c}
}

// References answers from the memo or asks the wrapped source. The shared
// call runs detached from any one caller's cancellation, so a caller that
// gives up returns ctx.Err() without failing the others waiting on p.
func (m *MemoSource) References(ctx context.Context, p project.Project) ([]project.Project, error) {
	if refs, ok := m.cache.Get(p.ID); ok {
		return refs, nil
	}
	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan(p.ID, func() (any, error) {
		if refs, ok := m.cache.Get(p.ID); ok {
			return refs, nil
		}
		refs, err := m.src.References(detached, p)
		if err != nil {
			return nil, err
		}
		m.cache.Add(p.ID, refs)
		return refs, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]project.Project), nil
	}
}

// Len returns the number of remembered projects.
func (m *MemoSource) Len() int { return m.cache.Len() }

// Purge forgets everything.
func (m *MemoSource) Purge() { m.cache.Purge() }
