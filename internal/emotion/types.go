package emotion

// Emotion is the closed set of emotional signals the classifier reports.
type Emotion string

const (
	Neutral      Emotion = "neutral"
	Anger        Emotion = "anger"
	Frustration  Emotion = "frustration"
	Interest     Emotion = "interest"
	Confusion    Emotion = "confusion"
	Satisfaction Emotion = "satisfaction"
)

// Emotions lists the scored categories in tie-break priority order.
// Negative signals come first.
func Emotions() []Emotion {
	return []Emotion{Anger, Frustration, Confusion, Interest, Satisfaction}
}

// Intent is the closed set of conversational intents.
type Intent string

const (
	IntentUnknown           Intent = "unknown"
	IntentInterested        Intent = "interested"
	IntentNotInterested     Intent = "not_interested"
	IntentCallbackRequested Intent = "callback_requested"
	IntentQuestion          Intent = "question"
	IntentFarewell          Intent = "farewell"
	IntentObjection         Intent = "objection"
)

// NextAction is what the agent should do on its next turn.
type NextAction string

const (
	ActionPitch            NextAction = "pitch"
	ActionHandleObjection  NextAction = "handle_objection"
	ActionScheduleCallback NextAction = "schedule_callback"
	ActionClarify          NextAction = "clarify"
	ActionPromptAgain      NextAction = "prompt_again"
	ActionEndCall          NextAction = "end_call"
)

// Actions lists every next action.
func Actions() []NextAction {
	return []NextAction{ActionPitch, ActionHandleObjection, ActionScheduleCallback, ActionClarify, ActionPromptAgain, ActionEndCall}
}

// Result is the classifier output for one utterance.
type Result struct {
	Intent         Intent              `json:"intent"`
	PrimaryEmotion Emotion             `json:"primary_emotion"`
	Scores         map[Emotion]float64 `json:"scores"`
	NextAction     NextAction          `json:"next_action"`
}
