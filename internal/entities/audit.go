package entities

import "time"

type AuthAction string

const (
	AuthActionRegister AuthAction = "register"
	AuthActionLogin    AuthAction = "login"
	AuthActionLogout   AuthAction = "logout"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent is one register, login or logout attempt. UserID is zero when
// the attempt did not resolve to a user.
type AuditEvent struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"index" json:"user_id"`
	Username  string      `gorm:"index;size:100" json:"username"`
	Action    AuthAction  `gorm:"index;size:20" json:"action"`
	Status    AuditStatus `gorm:"size:20" json:"status"`
	Reason    string      `gorm:"size:200" json:"reason,omitempty"` // rejection message or error code
	IPAddress string      `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent string      `gorm:"size:500" json:"user_agent,omitempty"`
	RequestID string      `gorm:"size:64" json:"request_id,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "auth_audit_events"
}
