package nsof

import "sync"

// Compander compresses and decompresses the contents of large binaries.
// No compander ships with this package; callers register the ones they
// need by the class name stored on the wire.
type Compander interface {
	Compress(data, params []byte) ([]byte, error)
	Decompress(data, params []byte) ([]byte, error)
}

var companders = struct {
	sync.RWMutex
	m map[string]func() Compander
}{m: make(map[string]func() Compander)}

// RegisterCompander makes a compander available under name.
func RegisterCompander(name string, ctor func() Compander) {
	companders.Lock()
	companders.m[name] = ctor
	companders.Unlock()
}

// LookupCompander returns a new compander for name, or nil when none is
// registered. Many compander names seen on the wire have no
// implementation, so a miss is not an error.
func LookupCompander(name string) Compander {
	companders.RLock()
	ctor, ok := companders.m[name]
	companders.RUnlock()
	if !ok {
		return nil
	}
	return ctor()
}

// LargeBinary is a binary whose data may be compressed by a named
// compander.
type LargeBinary struct {
	Class      Object
	Compressed bool
	Compander  string
	Params     []byte
	Data       []byte
}

func (*LargeBinary) Kind() Kind { return KindLargeBinary }

// Contents returns the uncompressed data. ok is false when the data is
// compressed and its compander is unknown or fails.
func (b *LargeBinary) Contents() (data []byte, ok bool) {
	if !b.Compressed {
		return b.Data, true
	}
	c := LookupCompander(b.Compander)
	if c == nil {
		return nil, false
	}
	out, err := c.Decompress(b.Data, b.Params)
	if err != nil {
		return nil, false
	}
	return out, true
}
