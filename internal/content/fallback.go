package content

// fallbackPhrases are spoken as plain text when the content or synthesis
// provider fails twice. They take no variables.
var fallbackPhrases = map[string]map[bool]string{
	"en": {
		false: "Sorry, I did not catch that. Could you please repeat?",
		true:  "Thank you for your time. Goodbye.",
	},
	"hi": {
		false: "माफ़ कीजिए, मैं समझ नहीं पाई। क्या आप दोबारा कह सकते हैं?",
		true:  "आपके समय के लिए धन्यवाद। नमस्ते।",
	},
}

var apologyPhrases = map[string]string{
	"en": "We are sorry, we are having trouble right now. We will call you back later. Goodbye.",
	"hi": "क्षमा करें, अभी तकनीकी समस्या है। हम आपको बाद में कॉल करेंगे। नमस्ते।",
}

// FallbackPhrase returns a safe phrase in language (English when unsupported)
// that either keeps the call going or closes it, matching key.
func FallbackPhrase(key Key, language string) string {
	if key == KeyApology {
		return Apology(language)
	}
	return fallbackPhrases[PhraseLanguage(language)][key.Ends()]
}

// PhraseLanguage is the language FallbackPhrase and Apology speak for language.
func PhraseLanguage(language string) string {
	if _, ok := fallbackPhrases[language]; ok {
		return language
	}
	return "en"
}

// Apology is the phrase spoken before hanging up on an unrecoverable error.
func Apology(language string) string {
	return apologyPhrases[PhraseLanguage(language)]
}
