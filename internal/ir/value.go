package ir

// Value is the header every SSA entity embeds: a type, an optional
// textual name unique within its symbol-table scope, and the list of
// uses that read it (§3.2). Constant, Global, Argument, BasicBlock,
// and Instruction all embed Value by value, so a pointer to any of
// them can be recovered from a *Value via the owner field.
type Value struct {
	id    uint64
	Type  *Type
	Name  string
	Uses  []*Use
	owner interface{} // the concrete *Constant/*Global/*Argument/*BasicBlock/*Instruction
}

// ID is a stable, process-local identifier, used by slot numbering
// and by the codec for forward-reference placeholders.
func (v *Value) ID() uint64 { return v.id }

// Owner returns the concrete value (e.g. *Instruction) this header
// belongs to.
func (v *Value) Owner() interface{} { return v.owner }

// Use is a directed edge operand -> definer (§3.2). Each Value
// maintains the list of Uses that read it so replace-all-uses-with is
// O(|uses|); each Use also knows which operand slot of which
// instruction it occupies, so RAUW can rewrite the operand in place.
type Use struct {
	Def  *Value
	User *Instruction
	Slot int
}

// addUse registers a new back-edge on v's use list and returns it.
func (v *Value) addUse(user *Instruction, slot int) *Use {
	u := &Use{Def: v, User: user, Slot: slot}
	v.Uses = append(v.Uses, u)
	return u
}

// removeUse deletes a single Use from this value's use list. Order is
// not preserved (swap-with-last), since use-list order carries no
// meaning.
func (v *Value) removeUse(target *Use) {
	for i, u := range v.Uses {
		if u == target {
			last := len(v.Uses) - 1
			v.Uses[i] = v.Uses[last]
			v.Uses = v.Uses[:last]
			return
		}
	}
}

// ReplaceAllUsesWith redirects every use of v to point at repl
// instead (§4.2 RAUW). Both values must have identical types. This is
// O(|uses(v)|): v's entire use list is spliced onto repl's use list in
// one pass, each Use's operand slot rewritten to reference repl.
func ReplaceAllUsesWith(v, repl *Value) {
	if v == repl {
		return
	}
	if v.Type != repl.Type {
		panic("ir: ReplaceAllUsesWith requires identical types")
	}
	for _, u := range v.Uses {
		// u is the same *Use pointer stored in u.User.Operands[u.Slot],
		// so mutating u.Def in place rewrites the operand too.
		u.Def = repl
		repl.Uses = append(repl.Uses, u)
	}
	v.Uses = nil
}

// ReplaceAllUsesWithNull clears every use of v, leaving the operand
// slots pointing at nil. Used only for the documented dead-phi
// exception in §4.2 ("dead PHIs may RAUW-to-null first").
func ReplaceAllUsesWithNull(v *Value) {
	for _, u := range v.Uses {
		u.Def = nil
	}
	v.Uses = nil
}

// NumUses reports how many uses currently read v.
func (v *Value) NumUses() int { return len(v.Uses) }
