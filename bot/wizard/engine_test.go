package wizard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/halvden/scribebot/bot/character"
)

type fakeAnchor struct{ id int }

// fakeGateway records every call the engine makes.
type fakeGateway struct {
	anchor  Anchor
	sendErr error
	editErr error
	formErr error

	sent    []View
	edits   []editCall
	forms   []formCall
	deletes []Anchor
	notices []string
}

type editCall struct {
	anchor Anchor
	view   View
}

type formCall struct {
	owner int64
	req   FormRequest
}

func (g *fakeGateway) Anchor() Anchor { return g.anchor }

func (g *fakeGateway) Send(_ context.Context, v View) (Anchor, error) {
	if g.sendErr != nil {
		return nil, g.sendErr
	}
	g.sent = append(g.sent, v)
	return &fakeAnchor{id: len(g.sent)}, nil
}

func (g *fakeGateway) Edit(_ context.Context, a Anchor, v View) error {
	if g.editErr != nil {
		return g.editErr
	}
	g.edits = append(g.edits, editCall{anchor: a, view: v})
	return nil
}

func (g *fakeGateway) OpenForm(_ context.Context, owner int64, req FormRequest) error {
	if g.formErr != nil {
		return g.formErr
	}
	g.forms = append(g.forms, formCall{owner: owner, req: req})
	return nil
}

func (g *fakeGateway) Delete(_ context.Context, a Anchor) error {
	g.deletes = append(g.deletes, a)
	return nil
}

func (g *fakeGateway) Notice(_ context.Context, _ int64, text string) error {
	g.notices = append(g.notices, text)
	return nil
}

func (g *fakeGateway) lastEdit(t *testing.T) View {
	t.Helper()
	if len(g.edits) == 0 {
		t.Fatal("no edits recorded")
	}
	return g.edits[len(g.edits)-1].view
}

type fakeInserter struct {
	err      error
	inserted []character.Character
	owners   []int64
}

func (f *fakeInserter) Insert(_ context.Context, ownerID int64, ch character.Character) error {
	if f.err != nil {
		return f.err
	}
	f.owners = append(f.owners, ownerID)
	f.inserted = append(f.inserted, ch)
	return nil
}

func newTestEngine() (*Engine, *fakeGateway, *fakeInserter) {
	gw := &fakeGateway{anchor: &fakeAnchor{id: 0}}
	ins := &fakeInserter{}
	return NewEngine(NewSessionStore(), NewCatalog(), ins), gw, ins
}

func invocation(user int64) CommandInvocation {
	return CommandInvocation{UserID: user, Command: CommandName, Subcommand: SubcommandCreate}
}

func click(user int64, label string, stage int) ButtonClick {
	return ButtonClick{
		UserID: user,
		Control: ControlID{
			Command:    CommandName,
			Subcommand: SubcommandCreate,
			Label:      label,
			Owner:      user,
			Stage:      stage,
		},
	}
}

func buttonLabels(v View) []string {
	var labels []string
	for _, row := range v.Buttons {
		for _, b := range row {
			labels = append(labels, b.Label)
		}
	}
	return labels
}

func fillDraft(e *Engine, user int64, withClass bool) {
	e.Store().Update(user, func(d *Draft) {
		for _, key := range character.RequiredKeys {
			if key == character.KeyClass {
				continue
			}
			d.Collected[key] = "value for " + key
		}
		if withClass {
			d.Collected[character.KeyClass] = "caster"
		}
	})
}

func TestBeginPostsIntro(t *testing.T) {
	e, gw, _ := newTestEngine()
	if err := e.Begin(context.Background(), gw, invocation(7)); err != nil {
		t.Fatal(err)
	}
	if len(gw.sent) != 1 {
		t.Fatalf("want 1 sent message, got %d", len(gw.sent))
	}
	v := gw.sent[0]
	labels := buttonLabels(v)
	if len(labels) != 2 || labels[0] != "Start" || labels[1] != "Cancel" {
		t.Fatalf("unexpected intro buttons %v", labels)
	}
	id, err := ParseControlID(v.Buttons[0][0].Data)
	if err != nil {
		t.Fatal(err)
	}
	if id.Owner != 7 || id.Label != LabelStart || id.Stage != StageIntro {
		t.Fatalf("unexpected start control %+v", id)
	}
	if e.Store().Active(7) {
		t.Error("Begin must not create a draft before Start is pressed")
	}
}

func TestStartCreatesDraftAndShowsBasics(t *testing.T) {
	e, gw, _ := newTestEngine()
	if err := e.HandleButton(context.Background(), gw, click(7, LabelStart, StageIntro)); err != nil {
		t.Fatal(err)
	}
	if !e.Store().Active(7) {
		t.Fatal("Start should create a draft")
	}

	snap, _ := e.Store().Snapshot(7)
	if snap.Anchor != gw.anchor {
		t.Error("Start should capture the triggering message as anchor")
	}

	v := gw.lastEdit(t)
	if !strings.Contains(v.Title, "basics") {
		t.Errorf("unexpected stage title %q", v.Title)
	}
	id, err := ParseControlID(v.Buttons[0][0].Data)
	if err != nil {
		t.Fatal(err)
	}
	if id.Label != LabelContinue || id.Stage != StageBasics {
		t.Fatalf("first button should continue into stage 1, got %+v", id)
	}
}

func TestStartWhileBuildingNotices(t *testing.T) {
	e, gw, _ := newTestEngine()
	if err := e.Store().Begin(7); err != nil {
		t.Fatal(err)
	}
	e.Store().Update(7, func(d *Draft) { d.Collected["name"] = "kept" })

	if err := e.HandleButton(context.Background(), gw, click(7, LabelStart, StageIntro)); err != nil {
		t.Fatal(err)
	}
	if len(gw.notices) != 1 {
		t.Fatalf("want 1 notice, got %d", len(gw.notices))
	}
	snap, _ := e.Store().Snapshot(7)
	if snap.Collected["name"] != "kept" {
		t.Error("existing draft must survive a duplicate Start")
	}
}

func TestNonOwnerClickIgnored(t *testing.T) {
	e, gw, _ := newTestEngine()
	c := click(7, LabelStart, StageIntro)
	c.UserID = 8 // someone else pressing the owner's button
	if err := e.HandleButton(context.Background(), gw, c); err != nil {
		t.Fatal(err)
	}
	if len(gw.sent)+len(gw.edits)+len(gw.forms)+len(gw.notices)+len(gw.deletes) != 0 {
		t.Error("non-owner clicks must produce no visible reaction")
	}
	if e.Store().Active(7) || e.Store().Active(8) {
		t.Error("non-owner clicks must not touch session state")
	}
}

func TestContinueOpensForm(t *testing.T) {
	e, gw, _ := newTestEngine()
	if err := e.Store().Begin(7); err != nil {
		t.Fatal(err)
	}
	if err := e.HandleButton(context.Background(), gw, click(7, LabelContinue, StageTastes)); err != nil {
		t.Fatal(err)
	}
	if len(gw.forms) != 1 {
		t.Fatalf("want 1 form, got %d", len(gw.forms))
	}
	f := gw.forms[0]
	if f.owner != 7 {
		t.Errorf("form owner = %d", f.owner)
	}
	if f.req.ID.Stage != StageTastes {
		t.Errorf("form stage = %d", f.req.ID.Stage)
	}
	if len(f.req.Fields) != 2 || f.req.Fields[0].Key != "likes" {
		t.Errorf("unexpected form fields %+v", f.req.Fields)
	}
}

func TestContinueWithoutDraftNotices(t *testing.T) {
	e, gw, _ := newTestEngine()
	if err := e.HandleButton(context.Background(), gw, click(7, LabelContinue, StageBasics)); err != nil {
		t.Fatal(err)
	}
	if len(gw.forms) != 0 {
		t.Error("no form should open without a draft")
	}
	if len(gw.notices) != 1 {
		t.Fatalf("want 1 notice, got %d", len(gw.notices))
	}
}

func TestFormSubmissionAdvancesStage(t *testing.T) {
	e, gw, _ := newTestEngine()
	if err := e.Store().Begin(7); err != nil {
		t.Fatal(err)
	}
	e.Store().Update(7, func(d *Draft) { d.Anchor = gw.anchor })

	sub := FormSubmission{
		UserID: 7,
		Form:   FormID{Command: CommandName, Subcommand: SubcommandCreate, Stage: StageBasics},
		Fields: []FieldValue{
			{Key: "name", Value: "Riven"},
			{Key: "species", Value: "tiefling"},
			{Key: "appearance", Value: "  "}, // blank, must not overwrite
		},
	}
	if err := e.HandleForm(context.Background(), gw, sub); err != nil {
		t.Fatal(err)
	}

	snap, _ := e.Store().Snapshot(7)
	if snap.Collected["name"] != "Riven" || snap.Collected["species"] != "tiefling" {
		t.Fatalf("fields not merged: %+v", snap.Collected)
	}
	if _, ok := snap.Collected["appearance"]; ok {
		t.Error("blank values must be skipped")
	}

	v := gw.lastEdit(t)
	if v.Footer != "2/5" {
		t.Errorf("anchor should advance to stage 2, footer = %q", v.Footer)
	}
}

func TestStoryFormLeadsToClassButtons(t *testing.T) {
	e, gw, _ := newTestEngine()
	if err := e.Store().Begin(7); err != nil {
		t.Fatal(err)
	}
	e.Store().Update(7, func(d *Draft) { d.Anchor = gw.anchor })

	sub := FormSubmission{
		UserID: 7,
		Form:   FormID{Command: CommandName, Subcommand: SubcommandCreate, Stage: StageStory},
		Fields: []FieldValue{{Key: "motivations", Value: "gold"}},
	}
	if err := e.HandleForm(context.Background(), gw, sub); err != nil {
		t.Fatal(err)
	}

	v := gw.lastEdit(t)
	labels := buttonLabels(v)
	want := []string{"Martial", "Half-Caster", "Caster", "Cancel"}
	if len(labels) != len(want) {
		t.Fatalf("class view buttons = %v", labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("class view buttons = %v, want %v", labels, want)
		}
	}
}

func TestFormContractViolations(t *testing.T) {
	e, gw, _ := newTestEngine()

	t.Run("no fields at stage", func(t *testing.T) {
		sub := FormSubmission{
			UserID: 7,
			Form:   FormID{Command: CommandName, Subcommand: SubcommandCreate, Stage: StageConfirm},
		}
		var contract *ContractError
		if err := e.HandleForm(context.Background(), gw, sub); !errors.As(err, &contract) {
			t.Fatalf("want ContractError, got %v", err)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		if err := e.Store().Begin(7); err != nil {
			t.Fatal(err)
		}
		defer e.Store().Cancel(7)
		sub := FormSubmission{
			UserID: 7,
			Form:   FormID{Command: CommandName, Subcommand: SubcommandCreate, Stage: StageBasics},
			Fields: []FieldValue{{Key: "alignment", Value: "chaotic"}},
		}
		var contract *ContractError
		if err := e.HandleForm(context.Background(), gw, sub); !errors.As(err, &contract) {
			t.Fatalf("want ContractError, got %v", err)
		}
	})

	t.Run("no draft", func(t *testing.T) {
		sub := FormSubmission{
			UserID: 9,
			Form:   FormID{Command: CommandName, Subcommand: SubcommandCreate, Stage: StageBasics},
			Fields: []FieldValue{{Key: "name", Value: "x"}},
		}
		var contract *ContractError
		if err := e.HandleForm(context.Background(), gw, sub); !errors.As(err, &contract) {
			t.Fatalf("want ContractError, got %v", err)
		}
	})
}

func TestClassPickShowsConfirm(t *testing.T) {
	e, gw, _ := newTestEngine()
	if err := e.Store().Begin(7); err != nil {
		t.Fatal(err)
	}
	if err := e.HandleButton(context.Background(), gw, click(7, "half-caster", StageClass)); err != nil {
		t.Fatal(err)
	}

	snap, _ := e.Store().Snapshot(7)
	if snap.Collected[character.KeyClass] != "half-caster" {
		t.Fatalf("class not recorded: %+v", snap.Collected)
	}

	v := gw.lastEdit(t)
	labels := buttonLabels(v)
	if len(labels) != 2 || labels[0] != "Finish" || labels[1] != "Cancel" {
		t.Fatalf("confirm buttons = %v", labels)
	}
	id, err := ParseControlID(v.Buttons[0][0].Data)
	if err != nil {
		t.Fatal(err)
	}
	if id.Stage != StageConfirm {
		t.Errorf("finish control stage = %d", id.Stage)
	}
}

func TestFinishSavesCharacter(t *testing.T) {
	e, gw, ins := newTestEngine()
	if err := e.Store().Begin(7); err != nil {
		t.Fatal(err)
	}
	fillDraft(e, 7, true)

	if err := e.HandleButton(context.Background(), gw, click(7, LabelFinish, StageConfirm)); err != nil {
		t.Fatal(err)
	}
	if len(ins.inserted) != 1 {
		t.Fatalf("want 1 insert, got %d", len(ins.inserted))
	}
	if ins.owners[0] != 7 {
		t.Errorf("insert owner = %d", ins.owners[0])
	}
	if ins.inserted[0].Class != character.ClassCaster {
		t.Errorf("insert class = %v", ins.inserted[0].Class)
	}
	if e.Store().Active(7) {
		t.Error("draft must be removed after a successful finish")
	}
	if !strings.Contains(gw.lastEdit(t).Title, "saved") {
		t.Errorf("unexpected success title %q", gw.lastEdit(t).Title)
	}
}

func TestFinishIncompleteDraft(t *testing.T) {
	e, gw, ins := newTestEngine()
	if err := e.Store().Begin(7); err != nil {
		t.Fatal(err)
	}
	// class is picked but everything else is empty
	e.Store().Update(7, func(d *Draft) { d.Collected[character.KeyClass] = "martial" })

	if err := e.HandleButton(context.Background(), gw, click(7, LabelFinish, StageConfirm)); err != nil {
		t.Fatal(err)
	}
	if len(ins.inserted) != 0 {
		t.Error("incomplete drafts must not be inserted")
	}
	if e.Store().Active(7) {
		t.Error("draft is discarded even when the finish fails validation")
	}
	v := gw.lastEdit(t)
	if !strings.Contains(v.Description, "name") {
		t.Errorf("failure view should list missing fields, got %q", v.Description)
	}
}

func TestFinishUnknownClassValue(t *testing.T) {
	e, gw, ins := newTestEngine()
	if err := e.Store().Begin(7); err != nil {
		t.Fatal(err)
	}
	fillDraft(e, 7, false)
	e.Store().Update(7, func(d *Draft) { d.Collected[character.KeyClass] = "warlock" })

	if err := e.HandleButton(context.Background(), gw, click(7, LabelFinish, StageConfirm)); err != nil {
		t.Fatalf("an out-of-set class value is user-correctable, got %v", err)
	}
	if len(ins.inserted) != 0 {
		t.Error("drafts with an unknown class must not be inserted")
	}
	if e.Store().Active(7) {
		t.Error("draft is discarded even when the class value is unknown")
	}
	v := gw.lastEdit(t)
	if !strings.Contains(v.Description, "warlock") {
		t.Errorf("failure view should name the rejected class, got %q", v.Description)
	}
}

func TestFinishInsertFailure(t *testing.T) {
	e, gw, ins := newTestEngine()
	ins.err = errors.New("connection refused")
	if err := e.Store().Begin(7); err != nil {
		t.Fatal(err)
	}
	fillDraft(e, 7, true)

	if err := e.HandleButton(context.Background(), gw, click(7, LabelFinish, StageConfirm)); err != nil {
		t.Fatal(err)
	}
	if e.Store().Active(7) {
		t.Error("draft is discarded even when the insert fails")
	}
	v := gw.lastEdit(t)
	if !strings.Contains(v.Description, "connection refused") {
		t.Errorf("failure view should carry the storage error, got %q", v.Description)
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	e, gw, _ := newTestEngine()
	if err := e.Store().Begin(7); err != nil {
		t.Fatal(err)
	}
	if err := e.HandleButton(context.Background(), gw, click(7, LabelCancel, StageTastes)); err != nil {
		t.Fatal(err)
	}
	if e.Store().Active(7) {
		t.Error("Cancel must discard the draft")
	}
	v := gw.lastEdit(t)
	if len(buttonLabels(v)) != 0 {
		t.Fatalf("cancelled view must keep no controls, got %v", buttonLabels(v))
	}
	if err := e.Store().Begin(7); err != nil {
		t.Errorf("a new build should start right after Cancel, got %v", err)
	}
}

func TestCancelBeforeStart(t *testing.T) {
	e, gw, _ := newTestEngine()
	// intro Cancel with no draft: still edits to the cancelled view
	if err := e.HandleButton(context.Background(), gw, click(7, LabelCancel, StageIntro)); err != nil {
		t.Fatal(err)
	}
	if len(gw.edits) != 1 {
		t.Fatalf("want 1 edit, got %d", len(gw.edits))
	}
}

func TestDismissDeletesMessage(t *testing.T) {
	e, gw, _ := newTestEngine()
	if err := e.HandleButton(context.Background(), gw, click(7, LabelDismiss, StageConfirm)); err != nil {
		t.Fatal(err)
	}
	if len(gw.deletes) != 1 {
		t.Fatalf("want 1 delete, got %d", len(gw.deletes))
	}
}

func TestUnknownLabelIgnored(t *testing.T) {
	e, gw, _ := newTestEngine()
	if err := e.HandleButton(context.Background(), gw, click(7, "bogus", StageIntro)); err != nil {
		t.Fatal(err)
	}
	if len(gw.sent)+len(gw.edits)+len(gw.forms)+len(gw.deletes) != 0 {
		t.Error("unknown labels must produce no visible reaction")
	}
}

func TestSendFailureDoesNotPropagate(t *testing.T) {
	e, gw, _ := newTestEngine()
	gw.sendErr = errors.New("telegram: 502")
	if err := e.Begin(context.Background(), gw, invocation(7)); err != nil {
		t.Fatalf("transport failures must not bubble out, got %v", err)
	}
	if len(gw.notices) != 1 {
		t.Fatalf("want a failure notice, got %d", len(gw.notices))
	}
}

func TestFullHappyPath(t *testing.T) {
	e, gw, ins := newTestEngine()
	ctx := context.Background()

	if err := e.Begin(ctx, gw, invocation(42)); err != nil {
		t.Fatal(err)
	}
	if err := e.HandleButton(ctx, gw, click(42, LabelStart, StageIntro)); err != nil {
		t.Fatal(err)
	}

	values := map[string]string{
		"name": "Riven", "species": "tiefling", "appearance": "tall",
		"likes": "tea", "dislikes": "cold",
		"companions": "a raven", "extra": "N/A",
		"motivations": "gold", "alignment": "chaotic good", "backstory": "long",
	}
	for _, stage := range []int{StageBasics, StageTastes, StageCompany, StageStory} {
		if err := e.HandleButton(ctx, gw, click(42, LabelContinue, stage)); err != nil {
			t.Fatal(err)
		}
		specs, err := e.catalog.FieldsFor(stage)
		if err != nil {
			t.Fatal(err)
		}
		var fields []FieldValue
		for _, spec := range specs {
			fields = append(fields, FieldValue{Key: spec.Key, Value: values[spec.Key]})
		}
		sub := FormSubmission{
			UserID: 42,
			Form:   FormID{Command: CommandName, Subcommand: SubcommandCreate, Stage: stage},
			Fields: fields,
		}
		if err := e.HandleForm(ctx, gw, sub); err != nil {
			t.Fatal(err)
		}
	}

	if err := e.HandleButton(ctx, gw, click(42, "martial", StageClass)); err != nil {
		t.Fatal(err)
	}
	if err := e.HandleButton(ctx, gw, click(42, LabelFinish, StageConfirm)); err != nil {
		t.Fatal(err)
	}

	if len(ins.inserted) != 1 {
		t.Fatalf("want 1 insert, got %d", len(ins.inserted))
	}
	ch := ins.inserted[0]
	if ch.Name != "Riven" || ch.Class != character.ClassMartial || ch.Backstory != "long" {
		t.Fatalf("unexpected character %+v", ch)
	}
	if e.Store().Len() != 0 {
		t.Error("no drafts should remain")
	}
}
