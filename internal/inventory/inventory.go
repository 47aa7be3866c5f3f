package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/elliotchance/orderedmap/v2"
)

// ObjectRef identifies one database object in the live inventory.
type ObjectRef struct {
	Kind  Kind
	Owner string // schema name; empty for database-scoped kinds
	Name  string

	// ParentOwner/ParentName carry the owning table for parent-scoped kinds
	// (constraints, indexes, row-level triggers).
	ParentOwner string
	ParentName  string

	// Modified is the catalog modify_date. HasModified is false for kinds the
	// engine does not timestamp reliably.
	Modified    time.Time
	HasModified bool
}

// Key returns the identity used for delta comparison: (kind, owner, name).
func (r ObjectRef) Key() string {
	return fmt.Sprintf("%s|%s|%s", r.Kind, r.Owner, r.Name)
}

// QualifiedName returns "owner.name", or just the name for ownerless kinds.
func (r ObjectRef) QualifiedName() string {
	if r.Owner == "" {
		return r.Name
	}
	return r.Owner + "." + r.Name
}

// Snapshot is one consistent read of the live inventory, grouped by kind in
// apply order.
type Snapshot struct {
	TakenAt time.Time
	byKind  *orderedmap.OrderedMap[Kind, []ObjectRef]
}

// NewSnapshot creates an empty snapshot with every kind pre-seeded in apply
// order, so iteration order never depends on which kinds happened to have
// objects.
func NewSnapshot(takenAt time.Time) *Snapshot {
	m := orderedmap.NewOrderedMap[Kind, []ObjectRef]()
	for _, k := range AllKinds() {
		m.Set(k, nil)
	}
	return &Snapshot{TakenAt: takenAt, byKind: m}
}

// Add appends an object to its kind bucket.
func (s *Snapshot) Add(ref ObjectRef) {
	refs, _ := s.byKind.Get(ref.Kind)
	s.byKind.Set(ref.Kind, append(refs, ref))
}

// ByKind returns the objects of one kind.
func (s *Snapshot) ByKind(kind Kind) []ObjectRef {
	refs, _ := s.byKind.Get(kind)
	return refs
}

// All returns every object in apply order.
func (s *Snapshot) All() []ObjectRef {
	var all []ObjectRef
	for el := s.byKind.Front(); el != nil; el = el.Next() {
		all = append(all, el.Value...)
	}
	return all
}

// Count returns the total object count.
func (s *Snapshot) Count() int {
	n := 0
	for el := s.byKind.Front(); el != nil; el = el.Next() {
		n += len(el.Value)
	}
	return n
}

// Source enumerates database objects with identifying keys and, where
// available, modification timestamps.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}
