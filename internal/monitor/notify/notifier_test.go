package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func TestMultiJoinsErrors(t *testing.T) {
	var got []string
	record := Func(func(_ context.Context, text string) error {
		got = append(got, text)
		return nil
	})
	boom := errors.New("boom")
	failing := Func(func(context.Context, string) error { return boom })

	err := Multi{failing, record}.Notify(context.Background(), "WINUSDT - ASK BARRIER! 1")

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"WINUSDT - ASK BARRIER! 1"}, got)
	assert.NoError(t, Multi{record}.Notify(context.Background(), "x"))
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	require.NoError(t, Log{Logger: zap.New(core)}.Notify(context.Background(), "you made a new BUY order"))

	entries := logs.FilterField(zap.String("text", "you made a new BUY order")).All()
	assert.Len(t, entries, 1)
}

func TestDesktop(t *testing.T) {
	var title, message string
	d := &Desktop{Title: "depthwatch", send: func(ti, msg string, _ any) error {
		title, message = ti, msg
		return nil
	}}

	require.NoError(t, d.Notify(context.Background(), "hello"))
	assert.Equal(t, "depthwatch", title)
	assert.Equal(t, "hello", message)

	d.send = func(string, string, any) error { return errors.New("no dbus") }
	assert.Error(t, d.Notify(context.Background(), "hello"))
}

func TestTelegram(t *testing.T) {
	bot := &fakeBot{}
	tg := &Telegram{bot: bot, chatID: 42}

	require.NoError(t, tg.Notify(context.Background(), "you made a new SELL order"))
	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(42), bot.sent[0].ChatID)
	assert.Equal(t, "you made a new SELL order", bot.sent[0].Text)

	assert.Error(t, tg.Notify(context.Background(), ""))

	bot.err = errors.New("forbidden")
	assert.Error(t, tg.Notify(context.Background(), "x"))
}

func TestNewTelegramRejectsZeroChat(t *testing.T) {
	_, err := NewTelegram("token", 0)
	assert.Error(t, err)
}
