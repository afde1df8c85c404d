package wizard

import (
	"fmt"
	"strconv"
	"strings"
)

// Delimiter separates the fields of an encoded control or form identifier.
const Delimiter = "|"

// Action labels carried by wizard controls.
const (
	LabelStart    = "start"
	LabelContinue = "continue"
	LabelCancel   = "cancel"
	LabelDismiss  = "dismiss"
	LabelFinish   = "finish"
)

// ControlID identifies a single button control. It is embedded into the
// control's callback data as command|subcommand|label|owner|stage and parsed
// back exactly once per inbound event.
type ControlID struct {
	Command    string
	Subcommand string
	Label      string
	Owner      int64
	Stage      int
}

// Encode renders the identifier in its wire form.
func (id ControlID) Encode() string {
	return strings.Join([]string{
		id.Command,
		id.Subcommand,
		id.Label,
		strconv.FormatInt(id.Owner, 10),
		strconv.Itoa(id.Stage),
	}, Delimiter)
}

// ParseControlID decodes a control identifier, failing with MalformedIDError
// when any positional field is missing or unparseable.
func ParseControlID(raw string) (ControlID, error) {
	parts := strings.Split(raw, Delimiter)
	if len(parts) != 5 {
		return ControlID{}, &MalformedIDError{Raw: raw, Reason: fmt.Sprintf("expected 5 fields, got %d", len(parts))}
	}
	owner, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return ControlID{}, &MalformedIDError{Raw: raw, Reason: "owner is not an integer"}
	}
	stage, err := strconv.Atoi(parts[4])
	if err != nil {
		return ControlID{}, &MalformedIDError{Raw: raw, Reason: "stage is not an integer"}
	}
	return ControlID{
		Command:    parts[0],
		Subcommand: parts[1],
		Label:      parts[2],
		Owner:      owner,
		Stage:      stage,
	}, nil
}

// FormID identifies the form a submission belongs to, encoded as
// command|subcommand|stage.
type FormID struct {
	Command    string
	Subcommand string
	Stage      int
}

// Encode renders the identifier in its wire form.
func (id FormID) Encode() string {
	return strings.Join([]string{
		id.Command,
		id.Subcommand,
		strconv.Itoa(id.Stage),
	}, Delimiter)
}

// ParseFormID decodes a form identifier.
func ParseFormID(raw string) (FormID, error) {
	parts := strings.Split(raw, Delimiter)
	if len(parts) != 3 {
		return FormID{}, &MalformedIDError{Raw: raw, Reason: fmt.Sprintf("expected 3 fields, got %d", len(parts))}
	}
	stage, err := strconv.Atoi(parts[2])
	if err != nil {
		return FormID{}, &MalformedIDError{Raw: raw, Reason: "stage is not an integer"}
	}
	return FormID{
		Command:    parts[0],
		Subcommand: parts[1],
		Stage:      stage,
	}, nil
}

// MalformedIDError reports an encoded identifier that does not follow the
// expected wire format. It indicates a desynchronized UI, not user error.
type MalformedIDError struct {
	Raw    string
	Reason string
}

func (e *MalformedIDError) Error() string {
	return fmt.Sprintf("malformed control identifier %q: %s", e.Raw, e.Reason)
}
