package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/glebk/moodbot/internal/config"
	"github.com/glebk/moodbot/internal/domain"
	"github.com/glebk/moodbot/internal/repository/memory"
	"github.com/glebk/moodbot/internal/service"
)

const ownerChat int64 = 42

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeAPI records what the bot sends
type fakeAPI struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// lastText returns the text of the last message or edit
func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)

	switch c := f.sent[len(f.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		return c.Text
	case tgbotapi.EditMessageTextConfig:
		return c.Text
	default:
		t.Fatalf("unexpected chattable %T", c)
		return ""
	}
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type testBot struct {
	*Bot
	api   *fakeAPI
	clock *fixedClock
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	bank, err := service.LoadQuestionBank("")
	require.NoError(t, err)

	clock := &fixedClock{now: time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)}
	cfg := &config.Config{
		OwnerChatID: ownerChat,
		Location:    time.UTC,
		SessionTTL:  30 * time.Minute,
		StorageKeys: domain.DefaultStorageKeys(),
	}

	moodLog := service.NewMoodLog(memory.NewKVStore(), cfg.StorageKeys, clock, nil)
	api := &fakeAPI{}
	b := newBot(api, moodLog, service.NewScreeningEngine(bank), cfg, clock, nil)

	return &testBot{Bot: b, api: api, clock: clock}
}

func command(chatID int64, text string) tgbotapi.Update {
	cmd := text
	for i, r := range text {
		if r == ' ' {
			cmd = text[:i]
			break
		}
	}

	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{FirstName: "Ann"},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func text(chatID int64, s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: s,
	}}
}

func callback(chatID int64, messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      fmt.Sprintf("cb-%s", data),
		Data:    data,
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestStartShowsMainKeyboard(t *testing.T) {
	tb := newTestBot(t)

	tb.handleUpdate(context.Background(), command(ownerChat, "/start"))

	require.Len(t, tb.api.sent, 1)
	msg, ok := tb.api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "Hi Ann!")
	assert.IsType(t, tgbotapi.ReplyKeyboardMarkup{}, msg.ReplyMarkup)
}

func TestForeignChatIsRefused(t *testing.T) {
	tb := newTestBot(t)

	tb.handleUpdate(context.Background(), command(7, "/mood"))

	assert.Equal(t, "⛔️ This is a private bot.", tb.api.lastText(t))
	assert.Empty(t, tb.Bot.chats)
}

func TestLogMoodSkippingNote(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.handleUpdate(ctx, command(ownerChat, "/mood"))
	tb.handleUpdate(ctx, callback(ownerChat, 1, "mood:happy"))
	tb.handleUpdate(ctx, callback(ownerChat, 1, "note:skip"))

	assert.Equal(t, "✅ Saved 😊 happy for 2024-01-15.", tb.api.lastText(t))

	entries := tb.moodLog.ListEntries(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.MoodHappy, entries[0].Mood)
	assert.Empty(t, entries[0].Note)
}

func TestLogMoodWithNote(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.handleUpdate(ctx, callback(ownerChat, 1, "mood:stressed"))
	tb.handleUpdate(ctx, text(ownerChat, "  exam week  "))

	entries := tb.moodLog.ListEntries(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.MoodStressed, entries[0].Mood)
	assert.Equal(t, "exam week", entries[0].Note)

	// The note prompt is consumed by the save
	tb.handleUpdate(ctx, text(ownerChat, "hello"))
	assert.Len(t, tb.moodLog.ListEntries(ctx), 1)
}

func TestSkipWithoutMoodSavesNothing(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.handleUpdate(ctx, callback(ownerChat, 1, "note:skip"))

	assert.Empty(t, tb.moodLog.ListEntries(ctx))
	require.Len(t, tb.api.requests, 1)
	assert.Equal(t, "Please select a mood first", tb.api.requests[0].(tgbotapi.CallbackConfig).Text)
}

func TestUnknownMoodIsRejected(t *testing.T) {
	tb := newTestBot(t)

	tb.handleUpdate(context.Background(), callback(ownerChat, 1, "mood:ecstatic"))

	assert.Empty(t, tb.state(ownerChat).pendingMood)
	assert.Empty(t, tb.api.sent)
}

func TestCalendarShowsLoggedMood(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	_, err := tb.moodLog.AppendEntry(ctx, domain.MoodCalm, "")
	require.NoError(t, err)

	tb.handleUpdate(ctx, command(ownerChat, "/calendar 2024-01"))

	msg, ok := tb.api.sent[len(tb.api.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "January 2024")
	assert.Contains(t, msg.Text, domain.MoodCalm.Emoji())
	assert.NotContains(t, msg.Text, "No moods logged")
}

func TestCalendarRejectsBadMonth(t *testing.T) {
	tb := newTestBot(t)

	tb.handleUpdate(context.Background(), command(ownerChat, "/calendar january"))

	assert.Contains(t, tb.api.lastText(t), "month must look like 2024-01")
}

func TestScreeningToResult(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.handleUpdate(ctx, command(ownerChat, "/test depression"))
	st := tb.state(ownerChat)
	require.NotNil(t, st.session)
	msgID := st.sessionMsgID
	assert.Contains(t, tb.api.lastText(t), "Question 1 of 5")

	for i := 0; i < 5; i++ {
		tb.handleUpdate(ctx, callback(ownerChat, msgID, "answer:3"))
	}

	assert.Nil(t, st.session)
	result := tb.api.lastText(t)
	assert.Contains(t, result, "score: 15 out of 15")
	assert.Contains(t, result, "Counseling Center")
}

func TestScreeningBackFromFirstQuestionExits(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.handleUpdate(ctx, callback(ownerChat, 1, "test:anxiety"))
	st := tb.state(ownerChat)
	require.NotNil(t, st.session)

	tb.handleUpdate(ctx, callback(ownerChat, st.sessionMsgID, "back"))

	assert.Nil(t, st.session)
	assert.Contains(t, tb.api.lastText(t), "Screening cancelled")
}

func TestScreeningBackKeepsAnswer(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.handleUpdate(ctx, command(ownerChat, "/test anxiety"))
	st := tb.state(ownerChat)
	msgID := st.sessionMsgID

	tb.handleUpdate(ctx, callback(ownerChat, msgID, "answer:2"))
	tb.handleUpdate(ctx, callback(ownerChat, msgID, "back"))

	edit, ok := tb.api.sent[len(tb.api.sent)-1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Contains(t, edit.Text, "Question 1 of 5")
	assert.Equal(t, "✅ More than half the days", edit.ReplyMarkup.InlineKeyboard[2][0].Text)
}

func TestStaleSessionButtonsAreIgnored(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.handleUpdate(ctx, command(ownerChat, "/test anxiety"))
	st := tb.state(ownerChat)

	tb.handleUpdate(ctx, callback(ownerChat, st.sessionMsgID+100, "answer:1"))

	assert.Equal(t, 0, st.session.Index())
	last := tb.api.requests[len(tb.api.requests)-1].(tgbotapi.CallbackConfig)
	assert.Equal(t, "This screening is no longer active", last.Text)
}

func TestUnknownTestKind(t *testing.T) {
	tb := newTestBot(t)

	tb.handleUpdate(context.Background(), command(ownerChat, "/test stress"))

	assert.Contains(t, tb.api.lastText(t), `Unknown test "stress"`)
	assert.Nil(t, tb.state(ownerChat).session)
}

func TestExpireSessions(t *testing.T) {
	tb := newTestBot(t)

	tb.handleUpdate(context.Background(), command(ownerChat, "/test depression"))
	st := tb.state(ownerChat)

	tb.clock.now = tb.clock.now.Add(10 * time.Minute)
	tb.expireSessions()
	require.NotNil(t, st.session)

	tb.clock.now = tb.clock.now.Add(time.Hour)
	tb.expireSessions()
	assert.Nil(t, st.session)
	assert.Contains(t, tb.api.lastText(t), "Screening expired")
}

func TestCancelCommand(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.handleUpdate(ctx, command(ownerChat, "/cancel"))
	assert.Equal(t, "Nothing to cancel.", tb.api.lastText(t))

	tb.handleUpdate(ctx, callback(ownerChat, 1, "mood:sad"))
	tb.handleUpdate(ctx, command(ownerChat, "/cancel"))
	assert.Equal(t, "👌 Cancelled.", tb.api.lastText(t))
	assert.Empty(t, tb.state(ownerChat).pendingMood)
}

func TestExpireSessionsRoutineStopsWithContext(t *testing.T) {
	tb := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		tb.expireSessionsRoutine(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
