package wizard

// Command and subcommand names routed to the character builder.
const (
	CommandName      = "character"
	SubcommandCreate = "create"
)

// CommandInvocation is a user invoking the builder command.
type CommandInvocation struct {
	UserID     int64
	Command    string
	Subcommand string
}

// ButtonClick is a pressed control, already parsed by the router.
type ButtonClick struct {
	UserID  int64
	Control ControlID
}

// FieldValue is one submitted form field. Order is preserved from the form.
type FieldValue struct {
	Key   string
	Value string
}

// FormSubmission carries a completed form back into the engine.
type FormSubmission struct {
	UserID int64
	Form   FormID
	Fields []FieldValue
}
