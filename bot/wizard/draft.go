package wizard

// Anchor is an opaque handle to the builder's anchor message. The engine
// never inspects it; it only hands it back to the gateway for edits.
type Anchor any

// Draft is the in-progress state of one user's build.
type Draft struct {
	// Collected maps field keys to the values gathered so far. Later
	// submissions of the same key overwrite earlier ones.
	Collected map[string]string
	// Anchor locates the message all stage prompts are edited into. It is
	// set once, when the builder leaves the intro stage.
	Anchor Anchor
}

func newDraft() *Draft {
	return &Draft{Collected: make(map[string]string)}
}

// clone returns an independent copy of the draft.
func (d *Draft) clone() *Draft {
	c := &Draft{
		Collected: make(map[string]string, len(d.Collected)),
		Anchor:    d.Anchor,
	}
	for k, v := range d.Collected {
		c.Collected[k] = v
	}
	return c
}
