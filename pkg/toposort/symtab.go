package toposort

// SymbolTable provides bidirectional mapping between node names and dense integer IDs.
type SymbolTable struct {
	strToID map[string]int
	idToStr []string
}

// NewSymbolTable creates a new SymbolTable.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{strToID: make(map[string]int)}
}

// Intern returns the unique ID for the given name, assigning the next free
// ID on first use.
func (table *SymbolTable) Intern(name string) int {
	if id, exists := table.strToID[name]; exists {
		return id
	}

	id := len(table.idToStr)
	table.idToStr = append(table.idToStr, name)
	table.strToID[name] = id

	return id
}

// Lookup returns the ID of an already interned name.
func (table *SymbolTable) Lookup(name string) (int, bool) {
	id, ok := table.strToID[name]

	return id, ok
}

// Resolve returns the name associated with the given ID, or "" if the ID is invalid.
func (table *SymbolTable) Resolve(id int) string {
	if id < 0 || id >= len(table.idToStr) {
		return ""
	}

	return table.idToStr[id]
}

// Len returns the number of interned names.
func (table *SymbolTable) Len() int {
	return len(table.idToStr)
}
