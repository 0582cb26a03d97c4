package graph

// symbolTable maps vertex names to dense integer slots and back. Slots of
// removed vertices are never reused, so slot order is creation order.
type symbolTable struct {
	strToID map[string]int
	idToStr []string
}

func newSymbolTable() *symbolTable {
	return &symbolTable{strToID: make(map[string]int)}
}

// intern returns the slot of name, assigning the next one if it is new.
func (table *symbolTable) intern(name string) int {
	if id, ok := table.strToID[name]; ok {
		return id
	}

	id := len(table.idToStr)
	table.idToStr = append(table.idToStr, name)
	table.strToID[name] = id

	return id
}

// lookup returns the slot of a live name.
func (table *symbolTable) lookup(name string) (int, bool) {
	id, ok := table.strToID[name]

	return id, ok
}

// forget drops name; its slot keeps resolving for history.
func (table *symbolTable) forget(name string) {
	delete(table.strToID, name)
}

// resolve returns the name of a slot, or "" for an invalid one.
func (table *symbolTable) resolve(id int) string {
	if id < 0 || id >= len(table.idToStr) {
		return ""
	}

	return table.idToStr[id]
}

func (table *symbolTable) clone() *symbolTable {
	c := &symbolTable{strToID: make(map[string]int, len(table.strToID)), idToStr: append([]string(nil), table.idToStr...)}
	for k, v := range table.strToID {
		c.strToID[k] = v
	}

	return c
}
