package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/vmihailenco/msgpack/v5"
)

type TaskKind string

const (
	TaskKindSocial   TaskKind = "social"
	TaskKindVisit    TaskKind = "visit"
	TaskKindDownload TaskKind = "download"
	TaskKindForm     TaskKind = "form"
	TaskKindLearn    TaskKind = "learn"
)

type Platform string

const (
	PlatformTwitter  Platform = "twitter"
	PlatformDiscord  Platform = "discord"
	PlatformTelegram Platform = "telegram"
)

type SocialAction string

const (
	SocialActionFollow  SocialAction = "follow"
	SocialActionLike    SocialAction = "like"
	SocialActionRetweet SocialAction = "retweet"
	SocialActionJoin    SocialAction = "join"
)

// VerificationType is the routing key of a verification request.
type VerificationType string

const (
	VerificationTwitterFollow  VerificationType = "twitter-follow"
	VerificationTwitterLike    VerificationType = "twitter-like"
	VerificationTwitterRetweet VerificationType = "twitter-retweet"
	VerificationDiscordJoin    VerificationType = "discord-join"
	VerificationTelegramJoin   VerificationType = "telegram-join"
	VerificationVisit          VerificationType = "visit"
	VerificationDownload       VerificationType = "download"
	VerificationForm           VerificationType = "form"
	VerificationLearn          VerificationType = "learn"
)

// Payload is the kind-specific part of a task. The set of implementations is closed.
type Payload interface {
	Kind() TaskKind
	isPayload()
}

type SocialPayload struct {
	Platform       Platform     `json:"platform"`
	Action         SocialAction `json:"action"`
	TargetURL      string       `json:"target_url"`
	TargetUsername string       `json:"target_username,omitempty"`
	TargetPostID   string       `json:"target_post_id,omitempty"`
}

type VisitPayload struct {
	URL                string `json:"url"`
	MinDurationSeconds int    `json:"min_duration_seconds,omitempty"`
}

type DownloadPayload struct {
	URL string `json:"url"`
}

type FormPayload struct {
	URL string `json:"url"`
}

type LearnPayload struct {
	Question       string   `json:"question"`
	Answers        []string `json:"answers"`
	CorrectAnswers []int    `json:"correct_answers"`
	MultiSelect    bool     `json:"multi_select"`
	PassingScore   int      `json:"passing_score"`
}

func (*SocialPayload) Kind() TaskKind   { return TaskKindSocial }
func (*VisitPayload) Kind() TaskKind    { return TaskKindVisit }
func (*DownloadPayload) Kind() TaskKind { return TaskKindDownload }
func (*FormPayload) Kind() TaskKind     { return TaskKindForm }
func (*LearnPayload) Kind() TaskKind    { return TaskKindLearn }

func (*SocialPayload) isPayload()   {}
func (*VisitPayload) isPayload()    {}
func (*DownloadPayload) isPayload() {}
func (*FormPayload) isPayload()     {}
func (*LearnPayload) isPayload()    {}

var ErrUnknownTaskKind = errors.New("unknown task kind")

// TaskPayload stores a Payload as {"kind": ..., "data": {...}} in json, jsonb and msgpack.
type TaskPayload struct {
	Payload
}

type taskPayloadEnvelope struct {
	Kind TaskKind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func (p TaskPayload) MarshalJSON() ([]byte, error) {
	if p.Payload == nil {
		return []byte("null"), nil
	}

	data, err := json.Marshal(p.Payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(taskPayloadEnvelope{Kind: p.Payload.Kind(), Data: data})
}

func (p *TaskPayload) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		p.Payload = nil
		return nil
	}

	var envelope taskPayloadEnvelope
	if err := json.Unmarshal(b, &envelope); err != nil {
		return err
	}

	var payload Payload
	switch envelope.Kind {
	case TaskKindSocial:
		payload = &SocialPayload{}
	case TaskKindVisit:
		payload = &VisitPayload{}
	case TaskKindDownload:
		payload = &DownloadPayload{}
	case TaskKindForm:
		payload = &FormPayload{}
	case TaskKindLearn:
		payload = &LearnPayload{}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTaskKind, envelope.Kind)
	}

	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, payload); err != nil {
			return err
		}
	}

	p.Payload = payload
	return nil
}

func (p TaskPayload) Value() (driver.Value, error) {
	return p.MarshalJSON()
}

func (p *TaskPayload) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		p.Payload = nil
		return nil
	case []byte:
		return p.UnmarshalJSON(v)
	case string:
		return p.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("unsupported task payload source %T", src)
	}
}

func (p TaskPayload) MarshalMsgpack() ([]byte, error) {
	b, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return msgpack.Marshal(b)
}

func (p *TaskPayload) UnmarshalMsgpack(b []byte) error {
	var raw []byte
	if err := msgpack.Unmarshal(b, &raw); err != nil {
		return err
	}

	return p.UnmarshalJSON(raw)
}

type Task struct {
	bun.BaseModel `bun:"table:task"`
	ID            string      `bun:"id,pk" json:"id"`
	QuestID       string      `bun:"quest_id,notnull" json:"quest_id"`
	Title         string      `bun:"title" json:"title"`
	Description   *string     `bun:"description" json:"description"`
	OrderIndex    int         `bun:"order_index" json:"order_index"`
	XPReward      int         `bun:"xp_reward,notnull" json:"xp_reward"`
	Payload       TaskPayload `bun:"payload,type:jsonb" json:"payload"`
	CreatedAt     time.Time   `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time   `bun:"updated_at,default:current_timestamp" json:"updated_at"`
}

func (task *Task) Kind() TaskKind {
	if task.Payload.Payload == nil {
		return ""
	}

	return task.Payload.Kind()
}

// VerificationType maps the task payload to the verification request type that completes it.
// The empty string is returned for payloads that no strategy can serve.
func (task *Task) VerificationType() VerificationType {
	switch p := task.Payload.Payload.(type) {
	case *SocialPayload:
		switch {
		case p.Platform == PlatformTwitter && p.Action == SocialActionFollow:
			return VerificationTwitterFollow
		case p.Platform == PlatformTwitter && p.Action == SocialActionLike:
			return VerificationTwitterLike
		case p.Platform == PlatformTwitter && p.Action == SocialActionRetweet:
			return VerificationTwitterRetweet
		case p.Platform == PlatformDiscord && p.Action == SocialActionJoin:
			return VerificationDiscordJoin
		case p.Platform == PlatformTelegram && p.Action == SocialActionJoin:
			return VerificationTelegramJoin
		}
	case *VisitPayload:
		return VerificationVisit
	case *DownloadPayload:
		return VerificationDownload
	case *FormPayload:
		return VerificationForm
	case *LearnPayload:
		return VerificationLearn
	}

	return ""
}

func (task *Task) Social() (*SocialPayload, bool) {
	p, ok := task.Payload.Payload.(*SocialPayload)
	return p, ok
}

func (task *Task) Visit() (*VisitPayload, bool) {
	p, ok := task.Payload.Payload.(*VisitPayload)
	return p, ok
}

func (task *Task) Learn() (*LearnPayload, bool) {
	p, ok := task.Payload.Payload.(*LearnPayload)
	return p, ok
}

// TaskDraft is the unvalidated input of the task catalog.
type TaskDraft struct {
	QuestID     string      `json:"quest_id"`
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	OrderIndex  int         `json:"order_index"`
	XPReward    int         `json:"xp_reward"`
	Payload     TaskPayload `json:"payload"`
}
