package entity

import "sync"

// Delegate observes state transitions of an entity.
// SourceImageStateChanged runs on the control thread before the new state is
// stored, so img.State() still returns oldState during the call.
type Delegate interface {
	SourceImageStateChanged(img *ImageEntity, oldState, newState SourceImageState)
}

// Observers maps entities to the delegate currently displaying them.
// Entities look their delegate up at notification time instead of holding a
// pointer to it, so dropping a registration is all it takes to release a view.
//
// Registrations are keyed by entity, not by identity: a gallery may list the
// same URL on several pages, and each page's entity has its own delegate.
type Observers struct {
	mu        sync.RWMutex
	delegates map[*ImageEntity]Delegate
}

// NewObservers creates an empty registry.
func NewObservers() *Observers {
	return &Observers{delegates: make(map[*ImageEntity]Delegate)}
}

// Register makes d the delegate of img, replacing any earlier registration.
func (o *Observers) Register(img *ImageEntity, d Delegate) {
	o.mu.Lock()
	o.delegates[img] = d
	o.mu.Unlock()
	img.observers = o
}

// Unregister drops the delegate of img.
func (o *Observers) Unregister(img *ImageEntity) {
	o.mu.Lock()
	delete(o.delegates, img)
	o.mu.Unlock()
}

// Lookup returns the delegate registered for img, or nil.
func (o *Observers) Lookup(img *ImageEntity) Delegate {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.delegates[img]
}

// Len reports the number of registrations.
func (o *Observers) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.delegates)
}
