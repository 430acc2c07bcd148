package entities

import (
	"strings"
	"time"
)

// Attribution values stamped into LastModifiedBy depending on which store
// handled the write.
const (
	AttributionCore           = "CoreAPI"
	AttributionFailoverCreate = "Failover-NoSQL"
	AttributionFailoverUpdate = "Failover-Update"
)

// StatusActive is the lifecycle status assigned to new clients.
const StatusActive = "Active"

// Client is the record managed by the dual-store repository. ClientID and
// CreatedAt are immutable once the record has been persisted; the identifier
// is assigned by whichever store first stores the record and is never
// reassigned.
type Client struct {
	ClientID             int       `gorm:"primaryKey;autoIncrement;column:client_id" json:"clientId"`
	FullName             string    `gorm:"size:100;not null" json:"fullName"`
	Email                string    `gorm:"size:254;not null" json:"email"`
	Status               string    `gorm:"size:64;not null" json:"status"`
	AssignedManagerEmail string    `gorm:"size:254" json:"assignedManagerEmail"`
	LastModifiedBy       string    `gorm:"size:64" json:"lastModifiedBy"`
	CreatedAt            time.Time `json:"createdAt"`
}

// TableName maps the entity to the clients table.
func (Client) TableName() string { return "clients" }

// ApplyDefaults fills the mutable fields a caller may leave unset. It does not
// touch ClientID: identifier assignment belongs to the stores.
func (c *Client) ApplyDefaults(now time.Time) {
	if strings.TrimSpace(c.Status) == "" {
		c.Status = StatusActive
	}
	if c.LastModifiedBy == "" {
		c.LastModifiedBy = AttributionCore
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now.UTC()
	}
}

// ClientUpdate carries a partial update. Nil fields are left untouched on the
// target record.
type ClientUpdate struct {
	FullName             *string
	Email                *string
	Status               *string
	AssignedManagerEmail *string
	LastModifiedBy       *string
}

// Apply overwrites only the fields present in the update. Identity fields
// (ClientID, CreatedAt) are never modified.
func (u ClientUpdate) Apply(c *Client) {
	if u.FullName != nil {
		c.FullName = *u.FullName
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.AssignedManagerEmail != nil {
		c.AssignedManagerEmail = *u.AssignedManagerEmail
	}
	if u.LastModifiedBy != nil {
		c.LastModifiedBy = *u.LastModifiedBy
	}
}
