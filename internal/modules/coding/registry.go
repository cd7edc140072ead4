package coding

import (
	"github.com/google/uuid"
)

// CodeStatus is the pipeline-local lifecycle of a code or assignment record.
type CodeStatus int

const (
	// StatusCreated marks a record first seen during this run.
	StatusCreated CodeStatus = iota
	// StatusExisting marks a code seeded from a persisted codebook.
	StatusExisting
	StatusDeleted
)

func (s CodeStatus) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusExisting:
		return "existing"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RefinedStatus records whether refinement rewrote an assignment.
type RefinedStatus int

const (
	RefinedKept RefinedStatus = iota
	RefinedModified
)

func (s RefinedStatus) String() string {
	switch s {
	case RefinedKept:
		return "kept"
	case RefinedModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Provenance links a renamed code back to the name it was discovered under.
type Provenance struct {
	OriginalName string
	Reasoning    string
}

type CodeRecord struct {
	Name            string
	Description     string
	Color           string
	ProjectID       uuid.UUID
	IsAutoGenerated bool
	Status          CodeStatus
	GroupName       string
	Provenance      *Provenance
	// Rationale from a keep verdict.
	RefinementReasoning string
}

type AssignmentRecord struct {
	DocumentID   uuid.UUID
	CodeName     string
	StartChar    int
	EndChar      int
	Quote        string
	TextSnapshot string
	Confidence   int
	Status       CodeStatus

	RefinedStatus       RefinedStatus
	OriginalCodeName    string
	RefinementReasoning string
}

// Registry is one run's working memory: codes keyed by name in discovery
// order, and the assignments that reference them by name. It is not safe for
// concurrent mutation.
type Registry struct {
	order       []string
	codes       map[string]*CodeRecord
	assignments []*AssignmentRecord
}

func NewRegistry() *Registry {
	return &Registry{codes: map[string]*CodeRecord{}}
}

func (r *Registry) Get(name string) (*CodeRecord, bool) {
	c, ok := r.codes[name]
	return c, ok
}

// Add inserts rec unless its name is already registered.
func (r *Registry) Add(rec *CodeRecord) bool {
	if _, ok := r.codes[rec.Name]; ok {
		return false
	}
	r.codes[rec.Name] = rec
	r.order = append(r.order, rec.Name)
	return true
}

func (r *Registry) AddAssignment(a *AssignmentRecord) {
	r.assignments = append(r.assignments, a)
}

// Codes returns every registered code in discovery order.
func (r *Registry) Codes() []*CodeRecord {
	out := make([]*CodeRecord, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.codes[name])
	}
	return out
}

func (r *Registry) LiveCodes() []*CodeRecord {
	out := make([]*CodeRecord, 0, len(r.order))
	for _, name := range r.order {
		if c := r.codes[name]; c.Status != StatusDeleted {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) Assignments() []*AssignmentRecord {
	out := make([]*AssignmentRecord, 0, len(r.assignments))
	for _, a := range r.assignments {
		if a.Status != StatusDeleted {
			out = append(out, a)
		}
	}
	return out
}

func (r *Registry) AssignmentsFor(name string) []*AssignmentRecord {
	var out []*AssignmentRecord
	for _, a := range r.assignments {
		if a.Status != StatusDeleted && a.CodeName == name {
			out = append(out, a)
		}
	}
	return out
}

// Remove drops a code together with all of its assignments.
func (r *Registry) Remove(name string) int {
	if _, ok := r.codes[name]; !ok {
		return 0
	}
	delete(r.codes, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	kept := r.assignments[:0]
	dropped := 0
	for _, a := range r.assignments {
		if a.CodeName == name {
			dropped++
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(r.assignments); i++ {
		r.assignments[i] = nil
	}
	r.assignments = kept
	return dropped
}

// Rename re-keys a code and rewrites every assignment that referenced the old
// name. When newName is already registered the two are merged into the
// existing record. Returns the record now holding the assignments.
func (r *Registry) Rename(oldName, newName, description, reasoning string) *CodeRecord {
	old, ok := r.codes[oldName]
	if !ok {
		return nil
	}
	for _, a := range r.assignments {
		if a.Status == StatusDeleted || a.CodeName != oldName {
			continue
		}
		a.CodeName = newName
		a.RefinedStatus = RefinedModified
		a.OriginalCodeName = oldName
		a.RefinementReasoning = reasoning
	}
	if newName == oldName {
		if description != "" {
			old.Description = description
		}
		old.Provenance = &Provenance{OriginalName: oldName, Reasoning: reasoning}
		return old
	}

	delete(r.codes, oldName)
	idx := -1
	for i, n := range r.order {
		if n == oldName {
			idx = i
			break
		}
	}

	if target, exists := r.codes[newName]; exists {
		if idx >= 0 {
			r.order = append(r.order[:idx], r.order[idx+1:]...)
		}
		return target
	}

	old.Name = newName
	if description != "" {
		old.Description = description
	}
	old.Provenance = &Provenance{OriginalName: oldName, Reasoning: reasoning}
	r.codes[newName] = old
	if idx >= 0 {
		r.order[idx] = newName
	}
	return old
}
