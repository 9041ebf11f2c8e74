package bot

import (
	"fmt"
	"strings"
)

type supportService struct {
	Title       string
	Description string
	Phone       string
	Email       string
	Hours       string
}

const (
	crisisHotline = "988"
	emergencyLine = "911"
)

var supportServices = []supportService{
	{
		Title:       "University Counseling Center",
		Description: "Professional counselors available for individual sessions",
		Phone:       "(555) 123-4567",
		Email:       "counseling@university.edu",
		Hours:       "Monday-Friday, 9AM-5PM",
	},
	{
		Title:       "Student Mental Health Services",
		Description: "Specialized support for academic stress and anxiety",
		Phone:       "(555) 234-5678",
		Email:       "mentalhealth@university.edu",
		Hours:       "Monday-Friday, 8AM-6PM",
	},
	{
		Title:       "Peer Support Groups",
		Description: "Connect with other students in group therapy sessions",
		Phone:       "(555) 345-6789",
		Email:       "peergroup@university.edu",
		Hours:       "Tuesdays & Thursdays, 7PM-8PM",
	},
}

var additionalResources = []string{
	"Online therapy platforms (BetterHelp, Talkspace)",
	"Campus meditation groups",
	"Academic stress workshops",
	"Self-care and mindfulness apps",
}

var selfCareTips = []string{
	"Track your mood daily with /mood",
	"Practice relaxation and breathing exercises",
	"Maintain regular sleep and exercise routines",
	"Connect with friends and family",
	"Consider talking to a counselor or therapist",
	"Contact emergency services if you have thoughts of self-harm",
}

// supportText renders the support directory
func supportText() string {
	var b strings.Builder

	b.WriteString("🆘 Professional help is always available\n\n")
	fmt.Fprintf(&b, "📞 Crisis line: %s (Suicide & Crisis Lifeline)\n", crisisHotline)
	fmt.Fprintf(&b, "🚑 Emergency: %s\n\n", emergencyLine)

	for _, s := range supportServices {
		fmt.Fprintf(&b, "🏫 %s\n%s\n", s.Title, s.Description)
		fmt.Fprintf(&b, "   ☎️ %s\n   ✉️ %s\n   🕘 %s\n\n", s.Phone, s.Email, s.Hours)
	}

	b.WriteString("More resources:\n")
	for _, r := range additionalResources {
		fmt.Fprintf(&b, "  • %s\n", r)
	}

	return b.String()
}
