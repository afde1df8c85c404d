package bridge

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/halvden/scribebot/bot/wizard"
	"github.com/halvden/scribebot/core/telegram/helpers"
	"github.com/halvden/scribebot/core/telegram/keyboard"
)

// callbackUnique is the registry key all builder controls dispatch under. The
// encoded control identifier travels as the callback payload.
const callbackUnique = "chrwiz"

// teleGateway adapts one Telegram update into the engine's gateway. A fresh
// gateway is built per inbound event.
type teleGateway struct {
	c         tele.Context
	collector *FormCollector
}

func newGateway(c tele.Context, collector *FormCollector) *teleGateway {
	return &teleGateway{c: c, collector: collector}
}

// Anchor returns a handle to the message the current event originated from.
func (g *teleGateway) Anchor() wizard.Anchor {
	var msg *tele.Message
	if cb := g.c.Callback(); cb != nil {
		msg = cb.Message
	} else {
		msg = g.c.Message()
	}
	if msg == nil || msg.Chat == nil {
		return nil
	}
	return &tele.StoredMessage{
		MessageID: strconv.Itoa(msg.ID),
		ChatID:    msg.Chat.ID,
	}
}

func (g *teleGateway) Send(_ context.Context, v wizard.View) (wizard.Anchor, error) {
	msg, err := g.c.Bot().Send(g.c.Recipient(), renderView(v), &tele.SendOptions{
		ParseMode:   tele.ModeMarkdown,
		ReplyMarkup: renderButtons(v),
	})
	if err != nil {
		return nil, fmt.Errorf("send view: %w", err)
	}
	return &tele.StoredMessage{
		MessageID: strconv.Itoa(msg.ID),
		ChatID:    msg.Chat.ID,
	}, nil
}

func (g *teleGateway) Edit(_ context.Context, a wizard.Anchor, v wizard.View) error {
	stored, err := storedMessage(a)
	if err != nil {
		return err
	}
	_, err = g.c.Bot().Edit(stored, renderView(v), &tele.SendOptions{
		ParseMode:   tele.ModeMarkdown,
		ReplyMarkup: renderButtons(v),
	})
	if err != nil {
		return fmt.Errorf("edit view: %w", err)
	}
	return nil
}

func (g *teleGateway) OpenForm(_ context.Context, owner int64, req wizard.FormRequest) error {
	prompt, err := g.collector.Open(owner, req)
	if err != nil {
		return err
	}
	return helpers.SendMD(g.c, prompt, keyboard.ForceReply())
}

func (g *teleGateway) Delete(_ context.Context, a wizard.Anchor) error {
	stored, err := storedMessage(a)
	if err != nil {
		return err
	}
	if err := g.c.Bot().Delete(stored); err != nil {
		return fmt.Errorf("delete view: %w", err)
	}
	return nil
}

func (g *teleGateway) Notice(_ context.Context, _ int64, text string) error {
	return helpers.SendText(g.c, text)
}

func storedMessage(a wizard.Anchor) (*tele.StoredMessage, error) {
	stored, ok := a.(*tele.StoredMessage)
	if !ok || stored == nil {
		return nil, fmt.Errorf("anchor is %T, not a stored message", a)
	}
	return stored, nil
}

// renderView lays a view out as Markdown.
func renderView(v wizard.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*", v.Title)
	if v.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(v.Description)
	}
	if v.Footer != "" {
		fmt.Fprintf(&b, "\n\n_%s_", v.Footer)
	}
	return b.String()
}

func renderButtons(v wizard.View) *tele.ReplyMarkup {
	if len(v.Buttons) == 0 {
		return nil
	}
	rows := make([][]keyboard.InlineBtn, len(v.Buttons))
	for i, row := range v.Buttons {
		btns := make([]keyboard.InlineBtn, len(row))
		for j, btn := range row {
			btns[j] = keyboard.InlineBtn{
				Text:   btn.Label,
				Unique: callbackUnique,
				Data:   btn.Data,
			}
		}
		rows[i] = btns
	}
	return keyboard.InlineButtonsRows(rows...)
}
