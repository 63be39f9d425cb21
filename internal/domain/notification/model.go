package notification

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	KindWelcome Kind = "welcome"
	KindUpdate  Kind = "update"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Role names the recipient of one envelope.
type Role string

const (
	RoleMember        Role = "member"
	RoleNominee       Role = "nominee"
	RoleFamilyMember1 Role = "familyMember1"
	RoleFamilyMember2 Role = "familyMember2"
)

// Envelope is a rendered email waiting for delivery.
type Envelope struct {
	Role    Role     `json:"role" bson:"role"`
	To      string   `json:"to" bson:"to"`
	Subject string   `json:"subject" bson:"subject"`
	HTML    string   `json:"html" bson:"html"`
	Bcc     []string `json:"bcc,omitempty" bson:"bcc,omitempty"`
}

type Envelopes []Envelope

func (e Envelopes) Value() (driver.Value, error) {
	return marshalText(e)
}

func (e *Envelopes) Scan(src any) error {
	return unmarshalText(src, e)
}

type Roles []Role

func (r Roles) Value() (driver.Value, error) {
	return marshalText(r)
}

func (r *Roles) Scan(src any) error {
	return unmarshalText(src, r)
}

func (r Roles) Contains(role Role) bool {
	for _, existing := range r {
		if existing == role {
			return true
		}
	}
	return false
}

// Job is an outbox row. StatusFailed is the dead letter state.
type Job struct {
	ID          string     `gorm:"type:uuid;primaryKey" bson:"_id" json:"id"`
	Kind        Kind       `gorm:"type:varchar(16);not null" bson:"kind" json:"kind"`
	MemberID    string     `gorm:"type:uuid;not null;index" bson:"memberId" json:"memberId"`
	Category    string     `gorm:"type:varchar(16);not null" bson:"category" json:"category"`
	Envelopes   Envelopes  `gorm:"type:text;not null" bson:"envelopes" json:"envelopes"`
	Delivered   Roles      `gorm:"type:text;not null" bson:"delivered" json:"delivered"`
	Status      Status     `gorm:"type:varchar(16);not null;index:idx_notification_jobs_due,priority:1" bson:"status" json:"status"`
	RetryCount  int        `gorm:"not null" bson:"retryCount" json:"retryCount"`
	MaxRetries  int        `gorm:"not null" bson:"maxRetries" json:"maxRetries"`
	LastError   string     `bson:"lastError" json:"lastError,omitempty"`
	NextRetryAt *time.Time `gorm:"index:idx_notification_jobs_due,priority:2" bson:"nextRetryAt,omitempty" json:"nextRetryAt,omitempty"`
	ProcessedAt *time.Time `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (Job) TableName() string {
	return "notification_jobs"
}

// Pending returns envelopes whose role has not been delivered yet.
func (j Job) Pending() []Envelope {
	out := make([]Envelope, 0, len(j.Envelopes))
	for _, envelope := range j.Envelopes {
		if !j.Delivered.Contains(envelope.Role) {
			out = append(out, envelope)
		}
	}
	return out
}

type ListFilter struct {
	Status Status
	Limit  int
}

func marshalText(v any) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalText(src any, dst any) error {
	switch value := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(value, dst)
	case string:
		return json.Unmarshal([]byte(value), dst)
	default:
		return fmt.Errorf("notification: cannot scan %T", src)
	}
}
