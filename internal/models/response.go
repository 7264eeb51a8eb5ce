package models

import (
	"time"

	"storybook-backend/internal/feedback"
	"storybook-backend/internal/generation"
	"storybook-backend/internal/orchestrator"
)

type ProjectResponse struct {
	ID          string `json:"project_id"`
	BookTitle   string `json:"book_title"`
	AuthorName  string `json:"author_name,omitempty"`
	AuthorEmail string `json:"author_email,omitempty"`
	Status      string `json:"status"`
	ReviewToken string `json:"review_token,omitempty"`

	CharacterSendCount    int `json:"character_send_count"`
	IllustrationSendCount int `json:"illustration_send_count"`

	GeneralFeedback string `json:"general_feedback,omitempty"`

	IllustrationAspectRatio     string `json:"illustration_aspect_ratio,omitempty"`
	IllustrationTextIntegration string `json:"illustration_text_integration,omitempty"`

	// Derived gating, recomputed on every read.
	SendButtonDisabled    bool  `json:"send_button_disabled"`
	IsInIllustrationPhase bool  `json:"is_in_illustration_phase"`
	ResendRound           int   `json:"resend_round"`
	VisiblePages          []int `json:"visible_pages"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

type ProjectSummary struct {
	ID        string    `json:"project_id"`
	BookTitle string    `json:"book_title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PageResponse struct {
	ID         string `json:"page_id"`
	ProjectID  string `json:"project_id"`
	PageNumber int    `json:"page_number"`

	StoryText                string `json:"story_text"`
	SceneDescription         string `json:"scene_description"`
	OriginalStoryText        string `json:"original_story_text,omitempty"`
	OriginalSceneDescription string `json:"original_scene_description,omitempty"`

	IllustrationURL         string `json:"illustration_url,omitempty"`
	SketchURL               string `json:"sketch_url,omitempty"`
	CustomerIllustrationURL string `json:"customer_illustration_url,omitempty"`
	CustomerSketchURL       string `json:"customer_sketch_url,omitempty"`

	CandidateOldURL string `json:"candidate_old_url,omitempty"`
	CandidateNewURL string `json:"candidate_new_url,omitempty"`

	IllustrationType string `json:"illustration_type,omitempty"`
	TextIntegration  string `json:"text_integration,omitempty"`

	Feedback FeedbackView `json:"feedback"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PageListResponse struct {
	Pages []PageResponse `json:"pages"`
}

type CharacterResponse struct {
	ID     string `json:"character_id"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	IsMain bool   `json:"is_main"`

	ImageURL          string `json:"image_url,omitempty"`
	SketchURL         string `json:"sketch_url,omitempty"`
	CustomerImageURL  string `json:"customer_image_url,omitempty"`
	CustomerSketchURL string `json:"customer_sketch_url,omitempty"`

	Attributes CharacterAttributes `json:"attributes"`
	Feedback   FeedbackView        `json:"feedback"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CharacterListResponse struct {
	Characters []CharacterResponse `json:"characters"`
}

type FeedbackView struct {
	Notes      string                   `json:"notes,omitempty"`
	IsResolved bool                     `json:"is_resolved"`
	History    []feedback.HistoryEntry  `json:"history"`
	Thread     []feedback.ThreadMessage `json:"thread,omitempty"`
	AdminReply string                   `json:"admin_reply,omitempty"`
	ReplyType  string                   `json:"admin_reply_type,omitempty"`
	RepliedAt  *time.Time               `json:"admin_reply_at,omitempty"`
}

// NewFeedbackView converts ledger state to its response form.
func NewFeedbackView(state feedback.State) FeedbackView {
	view := FeedbackView{
		Notes:      state.Notes,
		IsResolved: state.Resolved,
		History:    state.History,
		Thread:     state.Thread,
		AdminReply: state.AdminReply,
		ReplyType:  state.ReplyType,
	}
	if view.History == nil {
		view.History = []feedback.HistoryEntry{}
	}
	if !state.RepliedAt.IsZero() {
		at := state.RepliedAt
		view.RepliedAt = &at
	}
	return view
}

type BatchStartResponse struct {
	ProjectID string                `json:"project_id"`
	BatchID   string                `json:"batch_id"`
	Progress  orchestrator.Progress `json:"progress"`
}

type BatchStatusResponse struct {
	BatchID  string                `json:"batch_id"`
	Progress orchestrator.Progress `json:"progress"`
	Report   *orchestrator.Report  `json:"report,omitempty"`
	Failures []GenerationFailure   `json:"failures,omitempty"`
}

type GenerationFailure struct {
	PageID string                `json:"page_id"`
	Error  generation.Classified `json:"error"`
}

type PushResultResponse struct {
	ProjectID string `json:"project_id"`
	Pushed    int    `json:"pushed"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`

	// Per-entity outcomes; callers need to know which specific entities
	// succeeded, not a single aggregate failure.
	Entities []PushEntityResult `json:"entities"`
}

type PushEntityResult struct {
	EntityID   string `json:"entity_id"`
	PageNumber int    `json:"page_number,omitempty"`
	Name       string `json:"name,omitempty"`
	Pushed     bool   `json:"pushed"`
	Error      string `json:"error,omitempty"`
}

type SendResponse struct {
	ProjectID   string `json:"project_id"`
	Status      string `json:"status"`
	SendCount   int    `json:"send_count"`
	ResendRound int    `json:"resend_round"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
