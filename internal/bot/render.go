package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/glebk/moodbot/internal/domain"
	"github.com/glebk/moodbot/internal/service"
)

// Reply keyboard labels
const (
	buttonMood      = "📝 Log mood"
	buttonCalendar  = "📅 Calendar"
	buttonRecent    = "🕘 Recent"
	buttonScreening = "🧠 Screening"
	buttonSupport   = "🆘 Support"
)

// Callback actions, sent as "action" or "action:arg"
const (
	actionMood   = "mood"
	actionNote   = "note"
	actionTest   = "test"
	actionAnswer = "answer"
	actionBack   = "back"
	actionCancel = "cancel"
)

const recentLimit = 5

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonMood),
			tgbotapi.NewKeyboardButton(buttonCalendar),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonRecent),
			tgbotapi.NewKeyboardButton(buttonScreening),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonSupport),
		),
	)
}

// moodKeyboard lays the moods out three per row
func moodKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, m := range domain.Moods() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s %s", m.Emoji(), m),
			actionMood+":"+string(m),
		))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func noteKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", actionNote+":skip"),
		),
	)
}

func testMenuKeyboard(engine *service.ScreeningEngine) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, kind := range engine.Kinds() {
		test, err := engine.Test(kind)
		if err != nil {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(test.Title, actionTest+":"+string(kind)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// questionView renders the current question of an in-progress session
func questionView(session *service.ScreeningSession) (string, tgbotapi.InlineKeyboardMarkup) {
	q, _ := session.CurrentQuestion()
	selected, hasSelected := session.Selected()

	text := fmt.Sprintf("%s\nQuestion %d of %d\n%s\n\n%s",
		session.Title(),
		session.Index()+1,
		session.Len(),
		progressBar(session.Index(), session.Len()),
		q.Prompt,
	)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, o := range q.Options {
		label := o.Label
		if hasSelected && selected == o.Score {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s:%d", actionAnswer, o.Score)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", actionBack),
		tgbotapi.NewInlineKeyboardButtonData("✖️ Stop", actionCancel),
	))

	return text, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func progressBar(done, total int) string {
	const width = 10
	if total <= 0 {
		return ""
	}
	filled := done * width / total
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}

// resultText renders a score with its tier, and the support directory when
// the tier recommends it
func resultText(result domain.ScoreResult, title, disclaimer string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s score: %d out of %d\n\n", title, result.RawScore, result.MaxScore)
	fmt.Fprintf(&b, "%s\n%s\n\n", result.Tier.Title, result.Tier.Message)

	b.WriteString("What you can do:\n")
	for _, tip := range selfCareTips {
		fmt.Fprintf(&b, "  • %s\n", tip)
	}
	b.WriteString("\n")

	if result.NeedsSupport {
		b.WriteString(supportText())
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "⚠️ %s If you're experiencing thoughts of self-harm or suicide, please call %s or go to your nearest emergency room immediately.",
		disclaimer, crisisHotline)

	return b.String()
}

// calendarHTML wraps the month grid in a preformatted block
func calendarHTML(year int, month time.Month, entries []domain.MoodEntry) string {
	markers := service.MonthMarkers(entries, year, month)
	grid := service.RenderMonth(year, month, markers)

	text := "<pre>" + html.EscapeString(grid) + "</pre>"
	if len(markers) == 0 {
		text += "\nNo moods logged this month yet."
	}
	return text
}

func recentText(entries []domain.MoodEntry) string {
	recent := service.RecentEntries(entries, recentLimit)
	if len(recent) == 0 {
		return "No entries yet. Use /mood to log how you feel."
	}

	var b strings.Builder
	b.WriteString("Recent Entries\n\n")
	for _, e := range recent {
		fmt.Fprintf(&b, "%s %s · %s\n", e.Mood.Emoji(), e.Mood, e.Timestamp.Format("Jan 2, 2006 15:04"))
		if e.Note != "" {
			fmt.Fprintf(&b, "   “%s”\n", e.Note)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
