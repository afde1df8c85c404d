package wizard

import "context"

// Button is a rendered control.
type Button struct {
	Label string
	// Data is the encoded ControlID delivered back when the button is
	// pressed.
	Data string
}

// View is what the engine asks the gateway to render: a titled message with a
// row-major button layout.
type View struct {
	Title       string
	Description string
	Footer      string
	Buttons     [][]Button
}

// FormRequest asks the gateway to collect the listed fields from the owner.
// The completed submission comes back as a FormSubmission event.
type FormRequest struct {
	ID     FormID
	Title  string
	Fields []FieldSpec
}

// Gateway is the engine's only view of the chat platform. Implementations
// translate views and forms into real messages; the engine stays free of
// transport types.
type Gateway interface {
	// Anchor returns the handle of the message the triggering event came
	// from, for capture into the draft.
	Anchor() Anchor
	// Send posts a new message and returns its anchor.
	Send(ctx context.Context, v View) (Anchor, error)
	// Edit replaces the content of a previously sent message.
	Edit(ctx context.Context, a Anchor, v View) error
	// OpenForm starts collecting the requested fields from the owner.
	OpenForm(ctx context.Context, owner int64, req FormRequest) error
	// Delete removes a previously sent message.
	Delete(ctx context.Context, a Anchor) error
	// Notice shows the user a short transient message without disturbing
	// the anchor.
	Notice(ctx context.Context, userID int64, text string) error
}
