package vm

import "github.com/pepper-lang/pepper/internal/object"

// GlobalsSize is the fixed capacity of the globals array, per spec.md §4.4.
const GlobalsSize = 512

// GlobalStore is the redesigned collaborator spec.md §9's "Globals
// hand-off between REPL iterations" note asks for: instead of the VM
// copying a globals buffer out after each run and back in before the
// next, the REPL owns one GlobalStore for its whole lifetime and lends it
// to each VM instance for the duration of Run. This makes the persistence
// explicit and removes the copy.
type GlobalStore struct {
	slots [GlobalsSize]object.Object
}

// NewGlobalStore returns an empty store, ready to be borrowed by the
// first VM instance of a REPL session or script run.
func NewGlobalStore() *GlobalStore {
	return &GlobalStore{}
}

func (g *GlobalStore) Get(i int) object.Object { return g.slots[i] }
func (g *GlobalStore) Set(i int, obj object.Object) { g.slots[i] = obj }
