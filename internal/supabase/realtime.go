package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// Database updates trigger Realtime automatically; both the admin and
	// customer views subscribe to postgres_changes on projects, pages and
	// characters. This hook exists for explicit events beyond row changes.
	return nil
}

func (r *RealtimeClient) PublishProjectEvent(projectID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("project:%s", projectID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func CharactersSentPayload(projectID uuid.UUID, sendCount int) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"status":     "character_review",
		"send_count": sendCount,
	}
}

func SketchesSentPayload(projectID uuid.UUID, sendCount int) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"status":     "sketches_review",
		"send_count": sendCount,
	}
}

func BatchStartedPayload(projectID uuid.UUID, total int) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"status":     "generating",
		"total":      total,
	}
}

func BatchProgressPayload(projectID uuid.UUID, completed, failed, total int) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"completed":  completed,
		"failed":     failed,
		"total":      total,
	}
}

func BatchFinishedPayload(projectID uuid.UUID, completed, failed int, cancelled bool) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"completed":  completed,
		"failed":     failed,
		"cancelled":  cancelled,
	}
}

func FeedbackReceivedPayload(projectID uuid.UUID, entityKind string, entityID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"project_id":  projectID.String(),
		"entity_kind": entityKind,
		"entity_id":   entityID.String(),
	}
}

func ImagesPushedPayload(projectID uuid.UUID, pushed int) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"pushed":     pushed,
	}
}
