package cache

// Keyer builds cache keys. Swap it (see [ScopedKeyer]) to isolate workspaces
// that share one backend.
type Keyer interface {
	// ReferencesKey addresses the direct references of one project.
	ReferencesKey(workspace, projectID string) string
	// ArtifactKey addresses an exported artifact of a tree.
	ArtifactKey(treeHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds the export settings that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Mode     string `json:"mode,omitempty"`
	Engine   string `json:"engine,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer produces "refs:<hash>" and "artifact:<hash>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ReferencesKey(workspace, projectID string) string {
	return hashKey("refs", workspace, projectID)
}

func (DefaultKeyer) ArtifactKey(treeHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", treeHash, opts)
}
