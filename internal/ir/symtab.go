package ir

import "fmt"

// symbolTable maps names to module-level symbols within a single
// scope (a Module, or a Function for its local argument/block names),
// enforcing uniqueness and handing out a disambiguated name on
// collision (§3.4) rather than failing outright, matching the
// teacher's printer convention of renaming rather than rejecting.
type symbolTable struct {
	byName map[string]interface{}
}

func newSymbolTable() *symbolTable {
	return &symbolTable{byName: make(map[string]interface{})}
}

// Insert registers sym under name, returning the name actually used
// (name itself, or name suffixed with a disambiguating counter).
func (t *symbolTable) Insert(name string, sym interface{}) string {
	if name == "" {
		name = "tmp"
	}
	if _, taken := t.byName[name]; !taken {
		t.byName[name] = sym
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%d", name, i)
		if _, taken := t.byName[candidate]; !taken {
			t.byName[candidate] = sym
			return candidate
		}
	}
}

// Lookup returns the symbol registered under name, if any.
func (t *symbolTable) Lookup(name string) (interface{}, bool) {
	sym, ok := t.byName[name]
	return sym, ok
}

// Remove deletes a name from the table, freeing it for reuse.
func (t *symbolTable) Remove(name string) {
	delete(t.byName, name)
}
