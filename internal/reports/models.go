package reports

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// JSONB wraps json.RawMessage with Scanner/Valuer for GORM JSONB columns.
type JSONB json.RawMessage

func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "{}", nil
	}
	return string(j), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = JSONB("{}")
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = JSONB(v)
	default:
		return fmt.Errorf("unsupported type: %T", value)
	}
	return nil
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return json.RawMessage(j).MarshalJSON()
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	if j == nil {
		return fmt.Errorf("JSONB: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// Report statuses walked by the officer review workflow.
const (
	StatusPending    = "pending"
	StatusNoticeSent = "notice_sent"
	StatusDismissed  = "dismissed"
)

// Report is one citizen submission plus the engine's verdict. RulesTriggered
// is the client's claim as submitted; ServerRules is the canonical MatchResult
// and the only payload officers act on.
type Report struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	UserID string    `gorm:"index;not null" json:"user_id"`

	Longitude float64 `gorm:"not null" json:"longitude"`
	Latitude  float64 `gorm:"not null" json:"latitude"`

	ImageKey  string `json:"image_key,omitempty"`
	LocalHash string `json:"local_hash,omitempty"`

	RulesTriggered JSONB `gorm:"type:jsonb;default:'{}'" json:"rules_triggered"`
	ServerRules    JSONB `gorm:"type:jsonb;default:'{}'" json:"server_rules"`

	// Flat copy of ServerRules' violation codes so aggregation queries don't
	// have to dig through the JSONB payload.
	Violations pq.StringArray `gorm:"type:text[]" json:"violations"`

	PermitMatchID *string `gorm:"index" json:"permit_match_id,omitempty"`

	Status string `gorm:"default:'pending';index" json:"status"`
	Notes  string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Report) TableName() string { return "billboard.reports" }
