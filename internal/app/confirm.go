package app

// confirmGuard is the retype-to-confirm state machine used for set
// deletion and card removal. From pending, the only path to an armed
// confirm is input exactly equal to the expected string; cancelling
// discards the pending target without any backend call.
//
// Callers synchronize access; the guard itself holds no lock.
type confirmGuard struct {
	pending  bool
	targetID string
	expected string
	input    string
}

func (g *confirmGuard) begin(targetID, expected string) {
	g.pending = true
	g.targetID = targetID
	g.expected = expected
	g.input = ""
}

func (g *confirmGuard) offer(input string) {
	if !g.pending {
		return
	}
	g.input = input
}

func (g *confirmGuard) armed() bool {
	return g.pending && g.input == g.expected
}

func (g *confirmGuard) target() (string, bool) {
	return g.targetID, g.pending
}

func (g *confirmGuard) reset() {
	*g = confirmGuard{}
}
