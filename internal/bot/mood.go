package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/glebk/moodbot/internal/domain"
	"github.com/glebk/moodbot/internal/service"
)

// handleMood asks which mood to record
func (b *Bot) handleMood(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "How are you feeling today?")
	msg.ReplyMarkup = moodKeyboard()

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Error sending mood picker", zap.Error(err))
	}
}

// handleMoodPicked remembers the mood and asks for an optional note
func (b *Bot) handleMoodPicked(query *tgbotapi.CallbackQuery, mood domain.Mood) {
	if !mood.Valid() {
		b.answerCallback(query.ID, "Please select a mood")
		return
	}

	chatID := query.Message.Chat.ID
	b.state(chatID).pendingMood = mood
	b.answerCallback(query.ID, "")

	text := fmt.Sprintf("Feeling %s %s.\n\nAdd a note about your day (optional): send it as a message, or tap Skip.", mood.Emoji(), mood)
	b.editMessageWithKeyboard(chatID, query.Message.MessageID, text, noteKeyboard())
}

// handleNoteSkipped saves the pending mood without a note
func (b *Bot) handleNoteSkipped(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID
	st := b.state(chatID)
	if st.pendingMood == "" {
		b.answerCallback(query.ID, "Please select a mood first")
		return
	}

	b.answerCallback(query.ID, "")
	b.editMessage(chatID, query.Message.MessageID, fmt.Sprintf("Feeling %s %s.", st.pendingMood.Emoji(), st.pendingMood))
	b.saveMood(ctx, chatID, st, "")
}

// saveMood appends the pending mood with note and reports the outcome
func (b *Bot) saveMood(ctx context.Context, chatID int64, st *chatState, note string) {
	mood := st.pendingMood
	st.pendingMood = ""

	entry, err := b.moodLog.AppendEntry(ctx, mood, note)
	if err != nil {
		b.logger.Warn("Mood entry not saved", zap.String("mood", string(mood)), zap.Error(err))
		b.sendMessage(chatID, fmt.Sprintf("⚠️ %s %s could not be saved. Please try again later.", entry.Emoji, mood))
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("✅ Saved %s %s for %s.", entry.Emoji, entry.Mood, entry.Date))
}

// handleCalendar shows the mood calendar of a month
func (b *Bot) handleCalendar(ctx context.Context, chatID int64, arg string) {
	year, month, err := service.ParseMonth(arg, b.clock.Now())
	if err != nil {
		b.sendMessage(chatID, "❌ "+err.Error())
		return
	}

	entries := b.moodLog.ListEntries(ctx)

	msg := tgbotapi.NewMessage(chatID, calendarHTML(year, month, entries))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Error sending calendar", zap.Error(err))
	}
}

// handleRecent lists the latest entries
func (b *Bot) handleRecent(ctx context.Context, chatID int64) {
	b.sendMessage(chatID, recentText(b.moodLog.ListEntries(ctx)))
}
