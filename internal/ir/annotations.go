package ir

// AnnotationID identifies a kind of lazily computed side-band record
// attached to a type or value (§3.5). Annotations let callers cache
// derived data — struct layouts, constant-folding dispatch tables —
// without widening the host type's own interface.
type AnnotationID int

const (
	AnnStructLayout AnnotationID = iota
)

// AnnotationFactory lazily builds an annotation for a host on first
// request. The factory receives the host (a *Type or a *Value) and
// the Context, so it can consult other uniquing tables.
type AnnotationFactory func(ctx *Context, host interface{}) interface{}

// annotationStore holds one factory per AnnotationID and the
// per-host cache. Lookups are lazy: "if absent, compute and insert
// on first request."
type annotationStore struct {
	factories map[AnnotationID]AnnotationFactory
	cache     map[interface{}]map[AnnotationID]interface{}
}

func newAnnotationStore() *annotationStore {
	return &annotationStore{
		factories: make(map[AnnotationID]AnnotationFactory),
		cache:     make(map[interface{}]map[AnnotationID]interface{}),
	}
}

// RegisterAnnotation installs the factory used to build annotation id
// on first request. Re-registering the same id replaces the factory;
// it does not invalidate already-cached instances.
func (c *Context) RegisterAnnotation(id AnnotationID, factory AnnotationFactory) {
	c.anns.factories[id] = factory
}

// Annotation returns the cached annotation for (host, id), building it
// via the registered factory if this is the first request.
func (c *Context) Annotation(host interface{}, id AnnotationID) interface{} {
	byID := c.anns.cache[host]
	if byID == nil {
		byID = make(map[AnnotationID]interface{})
		c.anns.cache[host] = byID
	}
	if v, ok := byID[id]; ok {
		return v
	}
	factory := c.anns.factories[id]
	if factory == nil {
		return nil
	}
	v := factory(c, host)
	byID[id] = v
	return v
}

// DropAnnotations releases every cached annotation for a host,
// e.g. when the host value is erased.
func (c *Context) DropAnnotations(host interface{}) {
	delete(c.anns.cache, host)
}
