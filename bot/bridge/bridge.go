// Package bridge wires the character builder into the Telegram transport:
// commands, callback dispatch, and the reply-driven form flow.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/halvden/scribebot/bot/character"
	"github.com/halvden/scribebot/bot/profile"
	"github.com/halvden/scribebot/bot/wizard"
	"github.com/halvden/scribebot/core/logger"
	tgcore "github.com/halvden/scribebot/core/telegram"
	"github.com/halvden/scribebot/core/telegram/callbacks"
	"github.com/halvden/scribebot/core/telegram/commands"
	"github.com/halvden/scribebot/core/telegram/helpers"
	"github.com/halvden/scribebot/core/telegram/keyboard"
)

const logComponent = "bridge"

// Bridge routes Telegram updates into the builder engine.
type Bridge struct {
	engine     *wizard.Engine
	profiles   *profile.Repo
	characters *character.Repo
	collector  *FormCollector
}

// New builds a bridge over the engine, the user registry, and the character
// store.
func New(engine *wizard.Engine, profiles *profile.Repo, characters *character.Repo) *Bridge {
	return &Bridge{
		engine:     engine,
		profiles:   profiles,
		characters: characters,
		collector:  NewFormCollector(),
	}
}

// Register binds the bridge's commands, its callback key, and the text
// handler onto the registry.
func (b *Bridge) Register(reg *tgcore.Registry) error {
	reg.RegisterCommand("/character", commands.Command{
		Handler:     b.handleCharacter,
		Description: "Create a character",
	})
	reg.RegisterCommand("/register", commands.Command{
		Handler:     b.handleRegister,
		Description: "Register with the bot",
	})
	reg.RegisterCommand("/deregister", commands.Command{
		Handler:     b.handleDeregister,
		Description: "Remove your data from the bot",
	})
	if err := reg.RegisterCallback(callbackUnique, b.handleCallback); err != nil {
		return err
	}
	reg.SetTextHandler(b.handleText)
	return nil
}

func (b *Bridge) handleCharacter(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	userID := c.Sender().ID

	registered, err := b.profiles.Exists(ctx, userID)
	if err != nil {
		logger.Error(ctx, logComponent, "bridge.profile.check",
			slog.Int64("user", userID), slog.Any("error", err))
		return helpers.SendText(c, "Something went wrong, please try again later.")
	}
	if !registered {
		return helpers.SendText(c, "You need to /register before creating a character.")
	}

	inv := wizard.CommandInvocation{
		UserID:     userID,
		Command:    wizard.CommandName,
		Subcommand: wizard.SubcommandCreate,
	}
	return b.finishEvent(ctx, b.engine.Begin(ctx, newGateway(c, b.collector), inv))
}

func (b *Bridge) handleRegister(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	userID := c.Sender().ID

	registered, err := b.profiles.Exists(ctx, userID)
	if err != nil {
		logger.Error(ctx, logComponent, "bridge.register",
			slog.Int64("user", userID), slog.Any("error", err))
		return helpers.SendText(c, "Registration failed, please try again later.")
	}
	if registered {
		return helpers.SendText(c, "You're already registered.")
	}

	if err := b.profiles.Insert(ctx, userID); err != nil {
		logger.Error(ctx, logComponent, "bridge.register",
			slog.Int64("user", userID), slog.Any("error", err))
		return helpers.SendText(c, "Registration failed, please try again later.")
	}
	return helpers.SendText(c, "You're registered. Use /character to create a character.")
}

func (b *Bridge) handleDeregister(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	userID := c.Sender().ID

	registered, err := b.profiles.Exists(ctx, userID)
	if err != nil {
		logger.Error(ctx, logComponent, "bridge.deregister",
			slog.Int64("user", userID), slog.Any("error", err))
		return helpers.SendText(c, "Deregistration failed, please try again later.")
	}
	if !registered {
		return helpers.SendText(c, "You're not registered.")
	}

	// Drop any in-flight build along with the stored data.
	b.engine.Store().Cancel(userID)
	b.collector.Abort(userID)

	owned, err := b.characters.CountByOwner(ctx, userID)
	if err != nil {
		logger.Error(ctx, logComponent, "bridge.deregister.count",
			slog.Int64("user", userID), slog.Any("error", err))
		owned = -1
	}

	if err := b.profiles.Delete(ctx, userID); err != nil {
		logger.Error(ctx, logComponent, "bridge.deregister",
			slog.Int64("user", userID), slog.Any("error", err))
		return helpers.SendText(c, "Deregistration failed, please try again later.")
	}
	return helpers.SendText(c, deregisteredText(owned))
}

func deregisteredText(owned int) string {
	switch {
	case owned < 0:
		return "You're deregistered and your characters were removed."
	case owned == 0:
		return "You're deregistered. You had no saved characters."
	case owned == 1:
		return "You're deregistered and your 1 saved character was removed."
	default:
		return fmt.Sprintf("You're deregistered and your %d saved characters were removed.", owned)
	}
}

func (b *Bridge) handleCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	payload := callbacks.CallbackPayload(c)

	control, err := wizard.ParseControlID(payload)
	if err != nil {
		logger.Warn(ctx, logComponent, "bridge.callback.malformed",
			slog.String("payload", logger.Sanitize(payload)), slog.Any("error", err))
		return nil
	}

	userID := c.Sender().ID
	b.abortFormIfEnding(userID, control)

	click := wizard.ButtonClick{UserID: userID, Control: control}
	return b.finishEvent(ctx, b.engine.HandleButton(ctx, newGateway(c, b.collector), click))
}

// abortFormIfEnding drops the user's half-filled form when they press one of
// their own flow-ending controls. A click on someone else's control is ignored
// here just like the engine ignores it, so it cannot touch the clicker's form.
func (b *Bridge) abortFormIfEnding(userID int64, control wizard.ControlID) {
	if control.Owner != userID {
		return
	}
	switch control.Label {
	case wizard.LabelCancel, wizard.LabelDismiss, wizard.LabelFinish:
		b.collector.Abort(userID)
	}
}

func (b *Bridge) handleText(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	userID := c.Sender().ID

	prompt, sub, active := b.collector.Feed(userID, c.Text())
	if !active {
		return nil
	}
	if sub == nil {
		return helpers.SendMD(c, prompt, keyboard.ForceReply())
	}
	return b.finishEvent(ctx, b.engine.HandleForm(ctx, newGateway(c, b.collector), *sub))
}

// finishEvent absorbs contract violations: the offending event is logged and
// dropped, the process keeps serving everyone else.
func (b *Bridge) finishEvent(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var contract *wizard.ContractError
	if errors.As(err, &contract) {
		logger.Error(ctx, logComponent, "bridge.contract",
			slog.String("op", contract.Op), slog.Any("error", contract))
		return nil
	}
	return err
}
