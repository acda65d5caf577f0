// Package mind holds the per-user state engine: heuristic mood and
// progress tracking, behavior scenarios, long-term aggregates, and the
// context blob composed for the LLM on every turn.
package mind

import "time"

// Buffer caps. Oldest entries are evicted first.
const (
	MaxObservations  = 200
	MaxEvents        = 50
	MaxDialogHistory = 200
)

// ScenarioState is the activation state of a behavior scenario.
type ScenarioState string

const (
	ScenarioActive   ScenarioState = "ACTIVE"
	ScenarioInactive ScenarioState = "INACTIVE"
)

// ScenarioName identifies a behavior scenario.
type ScenarioName string

const (
	ScenarioLowMoodSupport   ScenarioName = "LowMoodSupport"
	ScenarioProductivityPush ScenarioName = "ProductivityPush"
	ScenarioFinancialFocus   ScenarioName = "FinancialFocus"
	ScenarioSocialBonding    ScenarioName = "SocialBonding"
)

// Scenario tracks one scenario's state for a user.
type Scenario struct {
	State          ScenarioState  `json:"state"`
	LastActivation *time.Time     `json:"last_activation,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

// Observation is one classified inbound message.
type Observation struct {
	TS      time.Time `json:"ts"`
	Message string    `json:"message"`
	Tone    float64   `json:"tone"`
	Tags    []string  `json:"tags,omitempty"`
}

// Event is a flagged entry in an important-event log.
type Event struct {
	TS      time.Time `json:"ts"`
	Event   string    `json:"event,omitempty"`
	Message string    `json:"message,omitempty"`
	Tags    []string  `json:"tags,omitempty"`
}

// DialogTurn is one persisted conversation turn.
type DialogTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PendingAction is the single-slot admin confirmation record. A staged
// action runs only after the confirmation keyword arrives; new proposals
// overwrite it.
type PendingAction struct {
	Kind     string    `json:"kind"`
	Payload  string    `json:"payload"`
	StagedAt time.Time `json:"staged_at"`
}

// UserProfile is the fast-moving per-user state record.
type UserProfile struct {
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	LastMessage  string    `json:"last_message,omitempty"`
	LastReply    string    `json:"last_reply,omitempty"`

	// MoodScore is a rolling sentiment estimate in [-1, 1].
	MoodScore float64 `json:"mood_score"`
	// ProgressScore is a heuristic momentum indicator in [-1, 1.5].
	ProgressScore float64 `json:"progress_score"`

	// Free-text mentions. Deduplicated, deliberately unbounded: the
	// source system never evicts these lists.
	Goals    []string `json:"goals"`
	Habits   []string `json:"habits"`
	Mistakes []string `json:"mistakes"`

	// Patterns holds every topic tag ever triggered; tags persist once
	// added.
	Patterns      []string `json:"patterns"`
	CustomFilters []string `json:"custom_filters"`

	Observations    []Observation `json:"observations"`
	ImportantEvents []Event       `json:"important_events"`

	BehaviorScenarios map[ScenarioName]*Scenario `json:"behavior_scenarios"`

	DialogHistory []DialogTurn   `json:"dialog_history"`
	PendingAction *PendingAction `json:"pending_code_action,omitempty"`

	// Model overrides the configured default for this user when set.
	Model string `json:"model,omitempty"`
}

// Plan is one generated daily plan.
type Plan struct {
	Date           time.Time `json:"date"`
	Short          []string  `json:"short"`
	Mid            []string  `json:"mid"`
	Long           []string  `json:"long"`
	CompletedShort []string  `json:"completed_short"`
	CompletedMid   []string  `json:"completed_mid"`
	CompletedLong  []string  `json:"completed_long"`
}

// GoalPrediction is the goal part of a forecast snapshot.
type GoalPrediction struct {
	AchieveGoalProb float64 `json:"achieve_goal_prob"`
	NeedsPush       bool    `json:"needs_push"`
}

// Forecast is the latest heuristic projection, overwritten each
// recomputation.
type Forecast struct {
	MoodForecast    []float64          `json:"mood_forecast"`
	CrisisRisk      map[string]float64 `json:"crisis_risk"`
	GoalPrediction  GoalPrediction     `json:"goal_prediction"`
	ThemePrediction []string           `json:"theme_prediction"`
	TS              time.Time          `json:"ts"`
}

// MetacogEntry is one self-evaluation of a produced reply.
type MetacogEntry struct {
	TS              time.Time `json:"ts"`
	ReplyQuality    float64   `json:"reply_quality_score"`
	EmpathyScore    float64   `json:"empathy_score"`
	MotivationScore float64   `json:"motivation_score"`
}

// TuningState carries generation-parameter recommendations. Zero values
// mean "not adjusted yet"; effective parameters fall back to configured
// defaults.
type TuningState struct {
	Temperature     float64   `json:"temperature,omitempty"`
	TopP            float64   `json:"top_p,omitempty"`
	MaxOutputTokens int       `json:"max_output_tokens,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// MonthlySummary is a periodic theme snapshot, gated to at most one per
// seven days.
type MonthlySummary struct {
	CreatedAt          time.Time `json:"created_at"`
	TopThemes          string    `json:"top_themes"`
	Goals              []string  `json:"goals"`
	Habits             []string  `json:"habits"`
	WeeklyFinanceScore float64   `json:"weekly_finance_score"`
}

// EmotionSnapshot records the emotion matrix after one update.
type EmotionSnapshot struct {
	TS     time.Time          `json:"ts"`
	Matrix map[string]float64 `json:"matrix"`
}

// PersonalitySnapshot records the trait scores after one update.
type PersonalitySnapshot struct {
	TS     time.Time          `json:"ts"`
	Scores map[string]float64 `json:"scores"`
}

// LifeMap is the strategic overview part of the life-strategy snapshot.
type LifeMap struct {
	Directions []string `json:"directions,omitempty"`
	Strengths  []string `json:"strengths,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
}

// Mindset is the thinking-style part of the life-strategy snapshot.
type Mindset struct {
	ThinkingStyle string `json:"thinking_style,omitempty"`
	Focus         string `json:"focus,omitempty"`
}

// LongTermRecord is the slow-moving per-user aggregate record.
type LongTermRecord struct {
	UserID         string     `json:"user_id"`
	LastSummaryAt  *time.Time `json:"last_summary_at,omitempty"`
	LastSeenAt     *time.Time `json:"last_seen_at,omitempty"`
	LastGreetAt    *time.Time `json:"last_greet_at,omitempty"`
	LastStrategyAt *time.Time `json:"last_strategy_at,omitempty"`

	GoalCounts      map[string]int `json:"goal_counts"`
	HabitCounts     map[string]int `json:"habit_counts"`
	ConfirmedGoals  []string       `json:"confirmed_goals"`
	ConfirmedHabits []string       `json:"confirmed_habits"`

	ImportantEvents []Event `json:"important_events"`

	MonthlyThemeCounts map[string]int   `json:"monthly_theme_counts"`
	MonthlySummaries   []MonthlySummary `json:"monthly_summaries"`

	WeeklyFinanceScore float64 `json:"weekly_finance_score"`

	Plans    []Plan    `json:"plans"`
	Forecast *Forecast `json:"forecast,omitempty"`

	Metacognition []MetacogEntry `json:"metacognition"`
	TuningState   TuningState    `json:"tuning_state"`
	TuningHistory []TuningState  `json:"tuning_history"`

	LifeMap                  LifeMap           `json:"life_map"`
	StrategicRecommendations map[string]string `json:"strategic_recommendations,omitempty"`
	StrategicRisks           []string          `json:"strategic_risks,omitempty"`
	MindsetProfile           Mindset           `json:"mindset_profile"`

	PersonalityScores  map[string]float64    `json:"personality_scores"`
	PersonalityHistory []PersonalitySnapshot `json:"personality_history"`

	EmotionMatrix  map[string]float64 `json:"emotion_matrix"`
	EmotionHistory []EmotionSnapshot  `json:"emotion_history"`

	ImplicitGoals  []string `json:"implicit_goals"`
	AvoidedGoals   []string `json:"avoided_goals"`
	PredictedGoals []string `json:"predicted_goals"`
	StalledGoals   []string `json:"stalled_goals"`

	// ProactiveMarks stores cooldown timestamps for the proactive
	// scheduler, keyed by event name (morning_checkin, support_message,
	// reminder_<goal-id>, ...).
	ProactiveMarks map[string]time.Time `json:"proactive_marks,omitempty"`
}

func defaultScenarios() map[ScenarioName]*Scenario {
	return map[ScenarioName]*Scenario{
		ScenarioLowMoodSupport:   {State: ScenarioInactive},
		ScenarioProductivityPush: {State: ScenarioInactive},
		ScenarioFinancialFocus:   {State: ScenarioInactive, Data: map[string]any{"weekly_finance_score": 0.0}},
		ScenarioSocialBonding:    {State: ScenarioInactive},
	}
}

func newProfile(userID string, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:            userID,
		CreatedAt:         now,
		UpdatedAt:         now,
		Goals:             []string{},
		Habits:            []string{},
		Mistakes:          []string{},
		Patterns:          []string{},
		CustomFilters:     []string{},
		Observations:      []Observation{},
		ImportantEvents:   []Event{},
		BehaviorScenarios: defaultScenarios(),
		DialogHistory:     []DialogTurn{},
	}
}

func newLongTerm(userID string) *LongTermRecord {
	return &LongTermRecord{
		UserID:             userID,
		GoalCounts:         map[string]int{},
		HabitCounts:        map[string]int{},
		ConfirmedGoals:     []string{},
		ConfirmedHabits:    []string{},
		ImportantEvents:    []Event{},
		MonthlyThemeCounts: map[string]int{},
		MonthlySummaries:   []MonthlySummary{},
		Plans:              []Plan{},
		Metacognition:      []MetacogEntry{},
		TuningHistory:      []TuningState{},
		PersonalityScores:  map[string]float64{},
		PersonalityHistory: []PersonalitySnapshot{},
		EmotionMatrix: map[string]float64{
			"anger": 0, "sadness": 0, "calmness": 0, "focus": 0, "excitement": 0, "fear": 0,
		},
		EmotionHistory: []EmotionSnapshot{},
		ImplicitGoals:  []string{},
		AvoidedGoals:   []string{},
		PredictedGoals: []string{},
		StalledGoals:   []string{},
		ProactiveMarks: map[string]time.Time{},
	}
}
