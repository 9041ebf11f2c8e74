package domain

import "time"

// Mood is one of the fixed moods a user can record
type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodCalm     Mood = "calm"
	MoodNeutral  Mood = "neutral"
	MoodStressed Mood = "stressed"
	MoodSad      Mood = "sad"
	MoodAnxious  Mood = "anxious"
)

// FallbackEmoji is shown for entries whose mood is not in the table
const FallbackEmoji = "🙂"

// DateLayout is the calendar date format used for MoodEntry.Date
const DateLayout = "2006-01-02"

var moodEmojis = map[Mood]string{
	MoodHappy:    "😊",
	MoodCalm:     "😌",
	MoodNeutral:  "😐",
	MoodStressed: "😰",
	MoodSad:      "😢",
	MoodAnxious:  "😟",
}

// Moods returns all moods in display order
func Moods() []Mood {
	return []Mood{MoodHappy, MoodCalm, MoodNeutral, MoodStressed, MoodSad, MoodAnxious}
}

// Valid reports whether m is one of the known moods
func (m Mood) Valid() bool {
	_, ok := moodEmojis[m]
	return ok
}

// Emoji returns the emoji for the mood, or FallbackEmoji for unknown moods
func (m Mood) Emoji() string {
	if e, ok := moodEmojis[m]; ok {
		return e
	}
	return FallbackEmoji
}

// MoodEntry is a single recorded mood. Entries are never modified once created.
type MoodEntry struct {
	ID        string
	Date      string // YYYY-MM-DD in the user's location
	Mood      Mood
	Emoji     string
	Note      string
	Timestamp time.Time
}

// CalendarMarker is what the calendar shows for one date
type CalendarMarker struct {
	Emoji    string
	HasEntry bool
}
