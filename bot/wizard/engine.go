package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/halvden/scribebot/bot/character"
	"github.com/halvden/scribebot/core/logger"
)

const logComponent = "wizard"

// Inserter persists a finished character. The engine treats it as a single
// atomic operation; partial writes are the implementation's problem.
type Inserter interface {
	Insert(ctx context.Context, ownerID int64, ch character.Character) error
}

// Engine drives the character builder: it owns the stage transitions and the
// session lifecycle, and talks to the chat platform only through a Gateway.
type Engine struct {
	store    *SessionStore
	catalog  *Catalog
	inserter Inserter
}

// NewEngine wires an engine over the given store and persistence boundary.
func NewEngine(store *SessionStore, catalog *Catalog, inserter Inserter) *Engine {
	return &Engine{store: store, catalog: catalog, inserter: inserter}
}

// Store exposes the session store for callers that need lifecycle hooks, such
// as aborting an open form when the draft goes away.
func (e *Engine) Store() *SessionStore { return e.store }

// Begin handles the builder command: it posts the intro view with Start and
// Cancel controls. The draft itself is created only when Start is pressed.
func (e *Engine) Begin(ctx context.Context, gw Gateway, inv CommandInvocation) error {
	prompt, err := e.catalog.PromptFor(StageIntro)
	if err != nil {
		return err
	}
	view := e.viewFor(prompt, [][]Button{{
		e.control(inv, LabelStart, StageIntro),
		e.control(inv, LabelCancel, StageIntro),
	}})
	if _, err := gw.Send(ctx, view); err != nil {
		e.reportSendFailure(ctx, gw, inv.UserID, "wizard.intro.send", err)
	}
	return nil
}

// HandleButton routes a pressed control. Presses by anyone but the control's
// owner are ignored without feedback.
func (e *Engine) HandleButton(ctx context.Context, gw Gateway, click ButtonClick) error {
	if click.UserID != click.Control.Owner {
		logger.Debug(ctx, logComponent, "wizard.button.ignored",
			slog.Int64("owner", click.Control.Owner),
			slog.String("label", click.Control.Label))
		return nil
	}

	switch click.Control.Label {
	case LabelStart:
		return e.handleStart(ctx, gw, click)
	case LabelContinue:
		return e.handleContinue(ctx, gw, click)
	case LabelCancel:
		return e.handleCancel(ctx, gw, click)
	case LabelDismiss:
		if err := gw.Delete(ctx, gw.Anchor()); err != nil {
			e.reportSendFailure(ctx, gw, click.UserID, "wizard.dismiss", err)
		}
		return nil
	case LabelFinish:
		return e.handleFinish(ctx, gw, click)
	}

	if _, err := character.ParseClass(click.Control.Label); err == nil {
		return e.handleClassPick(ctx, gw, click)
	}

	logger.Warn(ctx, logComponent, "wizard.button.unknown",
		slog.String("label", click.Control.Label),
		slog.Int("stage", click.Control.Stage))
	return nil
}

func (e *Engine) handleStart(ctx context.Context, gw Gateway, click ButtonClick) error {
	if err := e.store.Begin(click.UserID); err != nil {
		if errors.Is(err, ErrAlreadyBuilding) {
			e.notice(ctx, gw, click.UserID, "You already have a character build in progress. Finish or cancel it first.")
			return nil
		}
		return err
	}

	anchor := gw.Anchor()
	e.store.Update(click.UserID, func(d *Draft) { d.Anchor = anchor })

	logger.Info(ctx, logComponent, "wizard.started", slog.Int64("user", click.UserID))
	return e.showStage(ctx, gw, click, StageBasics)
}

func (e *Engine) handleContinue(ctx context.Context, gw Gateway, click ButtonClick) error {
	if !e.store.Active(click.UserID) {
		e.notice(ctx, gw, click.UserID, "This build is no longer active. Run the character command to start over.")
		return nil
	}
	fields, err := e.catalog.FieldsFor(click.Control.Stage)
	if err != nil {
		return err
	}
	prompt, err := e.catalog.PromptFor(click.Control.Stage)
	if err != nil {
		return err
	}
	req := FormRequest{
		ID: FormID{
			Command:    click.Control.Command,
			Subcommand: click.Control.Subcommand,
			Stage:      click.Control.Stage,
		},
		Title:  prompt.Title,
		Fields: fields,
	}
	if err := gw.OpenForm(ctx, click.UserID, req); err != nil {
		e.reportSendFailure(ctx, gw, click.UserID, "wizard.form.open", err)
	}
	return nil
}

func (e *Engine) handleCancel(ctx context.Context, gw Gateway, click ButtonClick) error {
	e.store.Cancel(click.UserID)
	logger.Info(ctx, logComponent, "wizard.cancelled", slog.Int64("user", click.UserID))

	// The cancelled view keeps no controls at all.
	view := View{
		Title:       "Character creation cancelled",
		Description: "Nothing was saved. Run the character command whenever you want to start again.",
	}
	if err := gw.Edit(ctx, gw.Anchor(), view); err != nil {
		e.reportSendFailure(ctx, gw, click.UserID, "wizard.cancel.edit", err)
	}
	return nil
}

func (e *Engine) handleClassPick(ctx context.Context, gw Gateway, click ButtonClick) error {
	class, err := character.ParseClass(click.Control.Label)
	if err != nil {
		return contractf("engine.class", err, "unparseable class label %q", click.Control.Label)
	}
	if ok := e.store.Update(click.UserID, func(d *Draft) {
		d.Collected[character.KeyClass] = class.String()
	}); !ok {
		e.notice(ctx, gw, click.UserID, "This build is no longer active. Run the character command to start over.")
		return nil
	}

	prompt, err := e.catalog.PromptFor(StageConfirm)
	if err != nil {
		return err
	}
	view := e.viewFor(prompt, [][]Button{{
		e.controlFor(click.Control, LabelFinish, StageConfirm),
		e.controlFor(click.Control, LabelCancel, StageConfirm),
	}})
	if err := gw.Edit(ctx, gw.Anchor(), view); err != nil {
		e.reportSendFailure(ctx, gw, click.UserID, "wizard.confirm.edit", err)
	}
	return nil
}

func (e *Engine) handleFinish(ctx context.Context, gw Gateway, click ButtonClick) error {
	draft, ok := e.store.Finish(click.UserID)
	if !ok {
		e.notice(ctx, gw, click.UserID, "This build is no longer active. Run the character command to start over.")
		return nil
	}

	ch, err := character.Build(draft.Collected)
	if err != nil {
		var missing *character.MissingFieldsError
		if errors.As(err, &missing) {
			e.finishFailed(ctx, gw, click,
				"Some fields are still empty: "+strings.Join(missing.Keys, ", ")+". The draft was discarded; run the character command to try again.")
			logger.Warn(ctx, logComponent, "wizard.finish.incomplete",
				slog.Int64("user", click.UserID),
				slog.String("missing", strings.Join(missing.Keys, ",")))
			return nil
		}
		var invalid *character.InvalidClassError
		if errors.As(err, &invalid) {
			e.finishFailed(ctx, gw, click,
				fmt.Sprintf("%q is not a class this builder knows. The draft was discarded; run the character command to try again.", invalid.Value))
			logger.Warn(ctx, logComponent, "wizard.finish.badclass",
				slog.Int64("user", click.UserID),
				slog.String("class", invalid.Value))
			return nil
		}
		return contractf("engine.finish", err, "draft failed to build for user %d", click.UserID)
	}

	if err := e.inserter.Insert(ctx, click.UserID, ch); err != nil {
		logger.Error(ctx, logComponent, "wizard.finish.insert",
			slog.Int64("user", click.UserID), slog.Any("error", err))
		e.finishFailed(ctx, gw, click,
			fmt.Sprintf("Saving your character failed: %v. The draft was discarded; run the character command to try again.", err))
		return nil
	}

	logger.Info(ctx, logComponent, "wizard.finished",
		slog.Int64("user", click.UserID), slog.String("name", ch.Name))
	view := View{
		Title:       "Character saved!",
		Description: fmt.Sprintf("%s the %s is ready for adventure.", ch.Name, ch.Species),
		Buttons:     [][]Button{{e.controlFor(click.Control, LabelDismiss, click.Control.Stage)}},
	}
	if err := gw.Edit(ctx, gw.Anchor(), view); err != nil {
		e.reportSendFailure(ctx, gw, click.UserID, "wizard.finish.edit", err)
	}
	return nil
}

func (e *Engine) finishFailed(ctx context.Context, gw Gateway, click ButtonClick, text string) {
	view := View{
		Title:       "Character not saved",
		Description: text,
		Buttons:     [][]Button{{e.controlFor(click.Control, LabelDismiss, click.Control.Stage)}},
	}
	if err := gw.Edit(ctx, gw.Anchor(), view); err != nil {
		e.reportSendFailure(ctx, gw, click.UserID, "wizard.finish.edit", err)
	}
}

// HandleForm merges a completed form into the draft and advances the anchor
// to the next stage.
func (e *Engine) HandleForm(ctx context.Context, gw Gateway, sub FormSubmission) error {
	specs, err := e.catalog.FieldsFor(sub.Form.Stage)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(specs))
	for _, spec := range specs {
		known[spec.Key] = true
	}
	for _, f := range sub.Fields {
		if !known[f.Key] {
			return contractf("engine.form", nil, "stage %d submission carries unknown key %q", sub.Form.Stage, f.Key)
		}
	}

	if ok := e.store.Update(sub.UserID, func(d *Draft) {
		for _, f := range sub.Fields {
			if strings.TrimSpace(f.Value) == "" {
				continue
			}
			d.Collected[f.Key] = f.Value
		}
	}); !ok {
		return contractf("engine.form", nil, "stage %d submission for user %d without a draft", sub.Form.Stage, sub.UserID)
	}

	next := sub.Form.Stage + 1
	click := ButtonClick{
		UserID: sub.UserID,
		Control: ControlID{
			Command:    sub.Form.Command,
			Subcommand: sub.Form.Subcommand,
			Owner:      sub.UserID,
			Stage:      next,
		},
	}
	return e.showStage(ctx, gw, click, next)
}

// showStage edits the draft's anchor to the prompt for the given stage with
// the controls that belong there.
func (e *Engine) showStage(ctx context.Context, gw Gateway, click ButtonClick, stage int) error {
	prompt, err := e.catalog.PromptFor(stage)
	if err != nil {
		return err
	}

	var rows [][]Button
	switch stage {
	case StageClass:
		var classRow []Button
		for _, class := range character.Classes() {
			classRow = append(classRow, e.controlFor(click.Control, class.String(), stage))
		}
		rows = [][]Button{classRow, {e.controlFor(click.Control, LabelCancel, stage)}}
	default:
		rows = [][]Button{{
			e.controlFor(click.Control, LabelContinue, stage),
			e.controlFor(click.Control, LabelCancel, stage),
		}}
	}

	draft, ok := e.store.Snapshot(click.UserID)
	if !ok {
		return contractf("engine.stage", nil, "stage %d shown for user %d without a draft", stage, click.UserID)
	}
	if err := gw.Edit(ctx, draft.Anchor, e.viewFor(prompt, rows)); err != nil {
		e.reportSendFailure(ctx, gw, click.UserID, "wizard.stage.edit", err)
	}
	return nil
}

func (e *Engine) viewFor(prompt Prompt, rows [][]Button) View {
	return View{
		Title:       prompt.Title,
		Description: prompt.Description,
		Footer:      prompt.Footer,
		Buttons:     rows,
	}
}

// control builds a button bound to the invoking user.
func (e *Engine) control(inv CommandInvocation, label string, stage int) Button {
	return e.button(ControlID{
		Command:    inv.Command,
		Subcommand: inv.Subcommand,
		Label:      label,
		Owner:      inv.UserID,
		Stage:      stage,
	})
}

// controlFor derives a sibling button from an existing control.
func (e *Engine) controlFor(src ControlID, label string, stage int) Button {
	return e.button(ControlID{
		Command:    src.Command,
		Subcommand: src.Subcommand,
		Label:      label,
		Owner:      src.Owner,
		Stage:      stage,
	})
}

func (e *Engine) button(id ControlID) Button {
	return Button{Label: buttonText(id.Label), Data: id.Encode()}
}

// buttonText maps an action label to its display caption.
func buttonText(label string) string {
	switch label {
	case LabelStart:
		return "Start"
	case LabelContinue:
		return "Continue"
	case LabelCancel:
		return "Cancel"
	case LabelDismiss:
		return "Dismiss"
	case LabelFinish:
		return "Finish"
	}
	if class, err := character.ParseClass(label); err == nil {
		return class.Display()
	}
	return label
}

// notice delivers a short user-facing message, best effort.
func (e *Engine) notice(ctx context.Context, gw Gateway, userID int64, text string) {
	if err := gw.Notice(ctx, userID, text); err != nil {
		logger.Error(ctx, logComponent, "wizard.notice",
			slog.Int64("user", userID), slog.Any("error", err))
	}
}

// reportSendFailure logs a transport failure and tells the user their action
// did not take effect. Failed sends are never retried here.
func (e *Engine) reportSendFailure(ctx context.Context, gw Gateway, userID int64, event string, err error) {
	logger.Error(ctx, logComponent, event,
		slog.Int64("user", userID), slog.Any("error", err))
	e.notice(ctx, gw, userID, "Something went wrong delivering that update. Please try again.")
}
