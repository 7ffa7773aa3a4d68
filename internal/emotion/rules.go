package emotion

// Rules are the keyword tables the classifier scores against.
type Rules struct {
	Emotions   map[Emotion][]string
	Thresholds map[Emotion]float64
	// Intents are evaluated in order; the first match wins.
	Intents []IntentRule
}

type IntentRule struct {
	Intent  Intent
	Phrases []string
}

// DefaultRules ships English and Hindi (Devanagari and romanized) phrases.
func DefaultRules() Rules {
	return Rules{
		Emotions: map[Emotion][]string{
			Anger: {
				"angry", "stupid", "idiot", "nonsense", "ridiculous", "shut up", "stop calling", "harass",
				"harassing", "annoying", "hell", "damn", "scam", "fraud", "pagal", "bakwas", "बकवास", "गुस्सा", "पागल",
			},
			Frustration: {
				"again", "already told", "how many times", "waste", "wasting", "fed up", "tired", "ugh",
				"not now", "seriously", "pareshan", "baar baar", "परेशान", "बार बार",
			},
			Interest: {
				"interested", "tell me more", "sounds good", "how much", "price", "details", "benefits",
				"want", "great", "batao", "bataiye", "बताइए", "बताओ", "जानना",
			},
			Confusion: {
				"what", "confused", "don't understand", "didn't understand", "not clear", "repeat",
				"pardon", "huh", "samajh nahi", "samjha nahi", "kya matlab", "समझ नहीं", "क्या मतलब",
			},
			Satisfaction: {
				"thank you", "thanks", "perfect", "good", "happy", "wonderful", "nice", "dhanyavaad",
				"shukriya", "धन्यवाद", "शुक्रिया", "बढ़िया",
			},
		},
		Thresholds: map[Emotion]float64{
			Anger:        0.6,
			Frustration:  0.6,
			Interest:     0.7,
			Confusion:    0.5,
			Satisfaction: 0.6,
		},
		Intents: []IntentRule{
			{Intent: IntentNotInterested, Phrases: []string{
				"not interested", "no thanks", "no thank you", "don't call", "do not call", "stop calling",
				"remove my number", "not buying", "nahi chahiye", "interest nahi", "नहीं चाहिए", "रुचि नहीं",
			}},
			{Intent: IntentFarewell, Phrases: []string{
				"bye", "goodbye", "good bye", "have to go", "gotta go", "alvida", "अलविदा",
			}},
			{Intent: IntentCallbackRequested, Phrases: []string{
				"call later", "call me later", "call back", "callback", "call tomorrow", "call me tomorrow",
				"busy right now", "not now", "baad mein", "baad me", "बाद में", "कल फोन",
			}},
			{Intent: IntentObjection, Phrases: []string{
				"too expensive", "expensive", "costly", "already have", "not sure", "no money",
				"can't afford", "mehenga", "mehnga", "महंगा", "पहले से है",
			}},
			{Intent: IntentQuestion, Phrases: []string{
				"what", "how", "why", "which", "when", "where", "kya", "kaise", "kitna", "kyun",
				"क्या", "कैसे", "कितना", "क्यों",
			}},
			{Intent: IntentInterested, Phrases: []string{
				"interested", "yes", "yeah", "sure", "tell me more", "sounds good", "okay", "ok",
				"haan", "han", "ji", "batao", "हाँ", "हां", "जी", "बताइए",
			}},
		},
	}
}
