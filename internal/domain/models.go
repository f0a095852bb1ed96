// Package domain defines the persistence models for users, chat codes, and
// chat requests. These types are mapped with GORM and form the core data
// layer of the pairing service.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Request lifecycle states. A request starts pending and moves exactly once
// to accepted or declined.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Resolution actions accepted by the ledger.
const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// User is an account able to mint codes and send requests.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Email: normalized address, unique across accounts.
//   - PasswordHash: bcrypt hash; never serialized.
type User struct {
	ID           string    `json:"id"    gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name"  gorm:"type:varchar(128);not null"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string    `json:"-"     gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// ChatCode is a shareable 8-digit code owned by a user. Digits are unique
// among live rows only; a retired code's digits may be minted again.
//
// Fields:
//   - ID: stable UUID primary key, server-assigned.
//   - Code: 8 ASCII digits in 10000000..99999999.
//   - OwnerID: identity of the minting user.
//   - IsOneTime: single-use code.
//   - ExpiresAt: absolute expiry; nil means the code never expires.
//   - DeletedAt: retirement marker; NULL means not retired.
type ChatCode struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Code      string         `json:"code"       gorm:"type:char(8);not null;index:idx_chat_codes_code;uniqueIndex:ux_chat_codes_live_code,where:deleted_at IS NULL"`
	OwnerID   string         `json:"owner_id"   gorm:"type:varchar(64);not null;index:idx_owner_codes,priority:1"`
	IsOneTime bool           `json:"is_one_time" gorm:"not null;default:false"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_owner_codes,priority:2"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for ChatCode.
func (ChatCode) TableName() string { return "chat_codes" }

// ActiveAt reports whether the code is neither retired nor expired at now.
func (c *ChatCode) ActiveAt(now time.Time) bool {
	if c.DeletedAt.Valid {
		return false
	}
	return c.ExpiresAt == nil || c.ExpiresAt.After(now)
}

// ChatRequest is a directional connection request made with a code.
// Declined requests are soft-deleted and drop out of every listing.
//
// Fields:
//   - ChatCodeID: code used to initiate the request.
//   - RequestedBy: initiating user.
//   - RequestedTo: code owner, copied from the code at creation time.
//   - Status: pending, accepted or declined (DB check constraint).
type ChatRequest struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	ChatCodeID  string         `json:"chat_code_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_live_request_pair,priority:2,where:deleted_at IS NULL"`
	RequestedBy string         `json:"requested_by" gorm:"type:varchar(64);not null;index:idx_outgoing,priority:1;uniqueIndex:ux_live_request_pair,priority:1"`
	RequestedTo string         `json:"requested_to" gorm:"type:varchar(64);not null;index:idx_incoming,priority:1"`
	Status      string         `json:"status"       gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','accepted','declined')"`
	CreatedAt   time.Time      `json:"created_at"   gorm:"index:idx_outgoing,priority:2;index:idx_incoming,priority:2"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`

	// ChatCode is the referenced code. Codes are never hard-deleted.
	ChatCode ChatCode `json:"-" gorm:"foreignKey:ChatCodeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for ChatRequest.
func (ChatRequest) TableName() string { return "chat_requests" }

// Pending reports whether the request is still awaiting resolution.
func (r *ChatRequest) Pending() bool { return r.Status == StatusPending }

// ValidAction reports whether a is a known resolution action.
func ValidAction(a string) bool { return a == ActionAccept || a == ActionDecline }
