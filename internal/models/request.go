package models

type CreateProjectRequest struct {
	BookTitle   string `json:"book_title" binding:"required"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`

	IllustrationAspectRatio     string `json:"illustration_aspect_ratio"`
	IllustrationTextIntegration string `json:"illustration_text_integration"`
}

type ParseManuscriptRequest struct {
	// Text is the already-extracted manuscript text; file extraction
	// happens upstream.
	Text string `json:"text" binding:"required"`
}

type UpdatePageRequest struct {
	StoryText        *string `json:"story_text,omitempty"`
	SceneDescription *string `json:"scene_description,omitempty"`

	// CharacterActions replaces the page's action map (character name ->
	// action/pose/emotion), auxiliary context for the generation prompt.
	CharacterActions map[string]CharacterAction `json:"character_actions,omitempty"`
}

type SetIllustrationTypeRequest struct {
	IllustrationType string `json:"illustration_type"`
	TextIntegration  string `json:"text_integration"`
}

type CreateCharacterRequest struct {
	Name       string              `json:"name" binding:"required"`
	Role       string              `json:"role"`
	Attributes CharacterAttributes `json:"attributes"`
}

type UpdateCharacterRequest struct {
	Name       *string              `json:"name,omitempty"`
	Role       *string              `json:"role,omitempty"`
	Attributes *CharacterAttributes `json:"attributes,omitempty"`
}

type GenerateRequest struct {
	// PageIDs limits a batch to specific pages; empty means every page
	// still lacking an illustration.
	PageIDs []string `json:"page_ids,omitempty"`
}

type RegenerationDecisionRequest struct {
	Decision string `json:"decision" binding:"required"` // keep_new | revert_old
}

type FeedbackRequest struct {
	Note string `json:"note" binding:"required"`
}

type ReplyRequest struct {
	Text string `json:"text" binding:"required"`
	Type string `json:"type"` // reply | comment; defaults to reply
}

type SendRequest struct {
	// Phase selects the transition: "characters" or "sketches".
	Phase string `json:"phase" binding:"required"`
}

type PushRequest struct {
	// CharacterIDs / PageIDs limit a push; empty pushes everything
	// eligible.
	CharacterIDs []string `json:"character_ids,omitempty"`
	PageIDs      []string `json:"page_ids,omitempty"`
}

type ReviewSubmissionRequest struct {
	Feedback   string                      `json:"feedback"`
	PageEdits  []ReviewPageEdit            `json:"page_edits,omitempty"`
	Characters []ReviewCharacterSubmission `json:"characters,omitempty"`
}

type ReviewPageEdit struct {
	PageID           string  `json:"page_id" binding:"required"`
	StoryText        *string `json:"story_text,omitempty"`
	SceneDescription *string `json:"scene_description,omitempty"`
	Feedback         string  `json:"feedback,omitempty"`
}

type ReviewCharacterSubmission struct {
	CharacterID string              `json:"character_id" binding:"required"`
	Attributes  CharacterAttributes `json:"attributes"`
	Feedback    string              `json:"feedback,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
