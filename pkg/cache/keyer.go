package cache

// Keyer builds cache keys. Implementations must return the same key for the
// same inputs and different keys whenever a parameter changes the result.
type Keyer interface {
	TreeKey(graphHash string, opts TreeKeyOpts) string
	BundleKey(graphHash string, opts BundleKeyOpts) string
}

// TreeKeyOpts are the parameters that determine a tree result.
type TreeKeyOpts struct {
	Algorithm string `json:"algorithm"`
	Layer     int    `json:"layer"`
	Root      string `json:"root"`
}

// BundleKeyOpts are the parameters that determine bundled paths.
// Worker count and logging do not change the output and are left out.
type BundleKeyOpts struct {
	MaxLoops        int     `json:"max_loops"`
	Stiffness       float64 `json:"stiffness"`
	StepSize        float64 `json:"step_size"`
	CompatThreshold float64 `json:"compat_threshold"`
	Electro         string  `json:"electro"`
	Edges           string  `json:"edges"`
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TreeKey returns "tree:<sha256>".
func (DefaultKeyer) TreeKey(graphHash string, opts TreeKeyOpts) string {
	return hashKey(KindTree, graphHash, opts)
}

// BundleKey returns "bundle:<sha256>".
func (DefaultKeyer) BundleKey(graphHash string, opts BundleKeyOpts) string {
	return hashKey(KindBundle, graphHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix, giving tenants or environments
// that share a Redis or MongoDB backend separate namespaces.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer uses
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// TreeKey returns the prefixed tree key.
func (k *ScopedKeyer) TreeKey(graphHash string, opts TreeKeyOpts) string {
	return k.prefix + k.inner.TreeKey(graphHash, opts)
}

// BundleKey returns the prefixed bundle key.
func (k *ScopedKeyer) BundleKey(graphHash string, opts BundleKeyOpts) string {
	return k.prefix + k.inner.BundleKey(graphHash, opts)
}
