package bridge

import (
	"fmt"
	"strings"
	"sync"

	"github.com/halvden/scribebot/bot/wizard"
)

// pendingForm tracks a form being filled field by field over chat replies.
type pendingForm struct {
	req    wizard.FormRequest
	next   int
	values []wizard.FieldValue
}

func (p *pendingForm) current() wizard.FieldSpec {
	return p.req.Fields[p.next]
}

// FormCollector turns a field list into a sequence of reply prompts. Telegram
// has no native multi-field input, so a form becomes one question per field,
// answered by plain text replies. At most one form is open per user.
type FormCollector struct {
	mu   sync.Mutex
	open map[int64]*pendingForm
}

// NewFormCollector returns an empty collector.
func NewFormCollector() *FormCollector {
	return &FormCollector{open: make(map[int64]*pendingForm)}
}

// Open starts collecting the requested fields from the user and returns the
// first prompt to show. An already open form for the user is replaced.
func (f *FormCollector) Open(userID int64, req wizard.FormRequest) (string, error) {
	if len(req.Fields) == 0 {
		return "", fmt.Errorf("form %q has no fields", req.ID.Encode())
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &pendingForm{req: req}
	f.open[userID] = p
	return promptFor(p.req, p.current()), nil
}

// Active reports whether the user has an open form.
func (f *FormCollector) Active(userID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.open[userID]
	return ok
}

// Feed consumes one text reply. It returns, in order: the next prompt to show
// (empty when the form is done), the completed submission (nil until the last
// field arrives), and whether the user had an open form at all. Blank replies
// repeat the current prompt.
func (f *FormCollector) Feed(userID int64, text string) (string, *wizard.FormSubmission, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.open[userID]
	if !ok {
		return "", nil, false
	}
	if strings.TrimSpace(text) == "" {
		return promptFor(p.req, p.current()), nil, true
	}

	p.values = append(p.values, wizard.FieldValue{Key: p.current().Key, Value: strings.TrimSpace(text)})
	p.next++
	if p.next < len(p.req.Fields) {
		return promptFor(p.req, p.current()), nil, true
	}

	delete(f.open, userID)
	return "", &wizard.FormSubmission{UserID: userID, Form: p.req.ID, Fields: p.values}, true
}

// Abort drops the user's open form, if any.
func (f *FormCollector) Abort(userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.open, userID)
}

func promptFor(req wizard.FormRequest, spec wizard.FieldSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\nReply with your character's *%s*.", req.Title, spec.Label)
	if spec.Multiline {
		b.WriteString(" Take as many lines as you need.")
	}
	return b.String()
}
