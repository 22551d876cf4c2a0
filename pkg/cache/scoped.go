package cache

// ScopedKeyer prefixes every key of an inner Keyer, so that several users or
// environments can share one Redis or Mongo backend.
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "ci:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ReferencesKey(workspace, projectID string) string {
	return k.prefix + k.inner.ReferencesKey(workspace, projectID)
}

func (k *ScopedKeyer) ArtifactKey(treeHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(treeHash, opts)
}
