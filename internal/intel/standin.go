package intel

import (
	"hash/fnv"
	"strings"
	"time"

	"lightsms-gateway/internal/models"
)

// TemplateSuggester serves curated drafts per industry and purpose. It
// is a deterministic stand-in for a generative backend: same inputs,
// same suggestions.
type TemplateSuggester struct {
	library map[string]map[string][]string
}

func NewTemplateSuggester() *TemplateSuggester {
	return &TemplateSuggester{library: map[string]map[string][]string{
		"retail": {
			"promotional": {
				"Limited time offer! Get 20% off your next purchase with code SMS20. Valid until [date]. Reply STOP to opt out.",
				"Flash sale! Save up to 30% on all [product] today only. Shop now: [link]. Reply STOP to opt out.",
				"Exclusive for our SMS subscribers: Buy one, get one 50% off this weekend. Show this text in-store. Reply STOP to opt out.",
			},
			"reminder": {
				"Reminder: Your [product] is waiting in your cart. Complete your purchase within 24h to secure your items. Reply STOP to opt out.",
				"Don't forget! The sale ends tonight at midnight. Last chance to save 20% sitewide. Reply STOP to opt out.",
				"Your wishlist items are now on sale! Limited stock available. Shop now: [link]. Reply STOP to opt out.",
			},
			"informational": {
				"We're open extended hours this weekend: Fri-Sat 9AM-9PM, Sun 10AM-7PM. We look forward to serving you! Reply STOP to opt out.",
				"Your order #[number] has shipped! Track your delivery here: [link]. Reply STOP to opt out.",
				"New arrivals just hit the shelves! Be the first to shop our [season] collection in-store or online. Reply STOP to opt out.",
			},
		},
		"healthcare": {
			"appointment": {
				"Reminder: Your appointment with Dr. [name] is tomorrow at [time]. Reply Y to confirm or call us to reschedule. Reply STOP to opt out.",
				"Your prescription is ready for pickup at [pharmacy]. Open until 9PM today. Reply STOP to opt out.",
				"Time for your annual check-up! Call [number] to schedule your appointment. Reply STOP to opt out.",
			},
			"reminder": {
				"Reminder: Take your medication at [time]. Your health is our priority. Reply STOP to opt out.",
				"Your lab results are now available. Please log in to the patient portal to view them. Reply STOP to opt out.",
				"Don't forget your upcoming appointment on [date] at [time]. Reply C to confirm. Reply STOP to opt out.",
			},
			"informational": {
				"Flu shots now available! No appointment needed. Walk-ins welcome Mon-Fri 9AM-5PM. Reply STOP to opt out.",
				"Health tip: Remember to stay hydrated during the hot weather. Aim for 8 glasses of water daily. Reply STOP to opt out.",
				"Our office will be closed on [date] for the holiday. For emergencies, call [number]. Reply STOP to opt out.",
			},
		},
		"general": {
			"promotional": {
				"Special offer just for you! Use code SMS10 for 10% off your next purchase. Valid until [date]. Reply STOP to opt out.",
				"Exclusive deal: [Offer details]. Limited time only! Shop now: [link]. Reply STOP to opt out.",
				"Members only: Enjoy 15% off your next purchase with code MEMBER15. Expires [date]. Reply STOP to opt out.",
			},
			"reminder": {
				"Reminder: Your appointment is scheduled for [date] at [time]. Reply Y to confirm or call us to reschedule. Reply STOP to opt out.",
				"Don't forget! Your [event/deadline] is coming up on [date]. Reply STOP to opt out.",
				"Quick reminder: [Action item] is due by [date]. Reply STOP to opt out.",
			},
			"informational": {
				"Important update: [Brief information]. For more details, visit [link]. Reply STOP to opt out.",
				"Thank you for your recent [purchase/visit/etc]. We value your business! Reply STOP to opt out.",
				"We're excited to announce [news]. Learn more: [link]. Reply STOP to opt out.",
			},
		},
	}}
}

func (t *TemplateSuggester) Suggest(industry, purpose string, maxLength int) ([]string, error) {
	byPurpose, ok := t.library[strings.ToLower(industry)]
	if !ok {
		byPurpose = t.library["general"]
	}
	drafts, ok := byPurpose[strings.ToLower(purpose)]
	if !ok {
		if promo, found := byPurpose["promotional"]; found {
			drafts = promo
		} else {
			drafts = t.library["general"]["promotional"]
		}
	}

	if maxLength <= 0 {
		maxLength = 160
	}
	suggestions := make([]string, 0, len(drafts))
	for _, draft := range drafts {
		if len(draft) <= maxLength {
			suggestions = append(suggestions, draft)
		}
	}
	return suggestions, nil
}

// HeuristicPredictor derives a stable per-contact send hour within
// business hours from a hash of the phone number. A stand-in for a
// model trained on engagement history.
type HeuristicPredictor struct {
	now func() time.Time
}

func NewHeuristicPredictor() *HeuristicPredictor {
	return &HeuristicPredictor{now: time.Now}
}

func (p *HeuristicPredictor) PredictSendTime(contact models.Contact, message string) (time.Time, error) {
	h := fnv.New32a()
	h.Write([]byte(contact.Phone))
	hour := 8 + int(h.Sum32()%12) // 08:00 through 19:00

	now := p.now()
	predicted := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !predicted.After(now) {
		predicted = predicted.Add(24 * time.Hour)
	}
	return predicted, nil
}

// LexiconAnalyzer scores reply tone from small word lists. Scores start
// neutral at 0.5 and move 0.1 per matched word, clamped to [0, 1].
type LexiconAnalyzer struct{}

func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{}
}

var (
	positiveWords = []string{"yes", "great", "thanks", "thank", "love", "good", "awesome", "perfect", "confirm", "interested"}
	negativeWords = []string{"no", "stop", "bad", "hate", "unsubscribe", "never", "spam", "annoying", "wrong", "cancel"}
)

func (a *LexiconAnalyzer) AnalyzeSentiment(text string) (Sentiment, error) {
	words := strings.Fields(strings.ToLower(text))
	score := 0.5
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:'\"")
		for _, p := range positiveWords {
			if word == p {
				score += 0.1
			}
		}
		for _, n := range negativeWords {
			if word == n {
				score -= 0.1
			}
		}
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}

	return Sentiment{
		Score:    score,
		Positive: score > 0.6,
		Negative: score < 0.4,
		Neutral:  score >= 0.4 && score <= 0.6,
	}, nil
}
