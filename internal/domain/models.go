// Package domain defines the persistence models for tickets, integration
// settings, and the knowledge base. These types are mapped with GORM and
// form the core data layer of the help-desk application.
package domain

import "time"

// Ticket statuses. Open is the default for newly created tickets.
const (
	StatusOpen       = "Open"
	StatusInProgress = "In Progress"
	StatusClosed     = "Closed"
)

// Ticket priorities. Medium is the default for newly created tickets.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Integration names. Exactly one IntegrationSetting row exists per name;
// rows are lazily created disabled on first read.
const (
	IntegrationSlack = "slack"
	IntegrationJira  = "jira"
)

// MaxTopicNameLen bounds knowledge-base topic names.
const MaxTopicNameLen = 50

// MaxTopics is the global ceiling on knowledge-base topics.
const MaxTopics = 10

// Ticket represents a single support request.
//
// Tickets are never physically removed: deletion flips the Deleted flag and
// every listing query excludes rows where the flag is true. Deleted is a
// pointer so that rows created before the column existed (SQL NULL) read as
// "not deleted" instead of zero-value surprises.
//
// ExternalIssueKey is back-filled by the issue-sync dispatcher after the
// ticket row has been committed; it stays empty when the issue-tracker
// integration is disabled or the remote call failed.
type Ticket struct {
	ID               string    `json:"id"                gorm:"type:char(36);primaryKey"`
	Title            string    `json:"title"             gorm:"type:varchar(255);not null"`
	Description      string    `json:"description"       gorm:"type:text;not null"`
	Status           string    `json:"status"            gorm:"type:varchar(32);not null;default:'Open';index"`
	Priority         string    `json:"priority"          gorm:"type:varchar(32);not null;default:'Medium';index"`
	Category         string    `json:"category,omitempty"    gorm:"type:varchar(64)"`
	AssignedTo       string    `json:"assigned_to,omitempty" gorm:"type:varchar(128)"`
	RequesterName    string    `json:"requester_name"    gorm:"type:varchar(128);not null"`
	RequesterEmail   string    `json:"requester_email"   gorm:"type:varchar(255);not null"`
	ExternalIssueKey string    `json:"external_issue_key,omitempty" gorm:"type:varchar(64)"`
	Deleted          *bool     `json:"-"                 gorm:"index"`
	CreatedAt        time.Time `json:"created_at"        gorm:"index"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName returns the database table name for Ticket.
func (Ticket) TableName() string { return "tickets" }

// IsDeleted reports whether the soft-delete flag is set. A NULL flag
// (legacy row) counts as not deleted.
func (t *Ticket) IsDeleted() bool { return t.Deleted != nil && *t.Deleted }

// IntegrationSetting holds the persisted configuration of one named outbound
// integration. The slack row uses WebhookURL; the jira row uses APIURL,
// Username, APIToken, and ProjectKey. Unused columns stay empty.
type IntegrationSetting struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Name       string    `json:"name"        gorm:"type:varchar(32);not null;uniqueIndex"`
	Enabled    bool      `json:"enabled"     gorm:"not null;default:false"`
	WebhookURL string    `json:"webhook_url,omitempty" gorm:"type:varchar(512)"`
	APIURL     string    `json:"api_url,omitempty"     gorm:"type:varchar(512)"`
	Username   string    `json:"username,omitempty"    gorm:"type:varchar(128)"`
	APIToken   string    `json:"-"                     gorm:"type:varchar(512)"`
	ProjectKey string    `json:"project_key,omitempty" gorm:"type:varchar(64)"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for IntegrationSetting.
func (IntegrationSetting) TableName() string { return "integration_settings" }

// Topic is a named grouping of knowledge-base articles. Names are unique
// case-insensitively; NameLower carries the schema-level unique index that
// backstops the service-layer check.
type Topic struct {
	ID        string    `json:"id"   gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(50);not null"`
	NameLower string    `json:"-"    gorm:"type:varchar(50);not null;uniqueIndex:ux_topics_name_lower"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Topic.
func (Topic) TableName() string { return "topics" }

// Article is a knowledge-base entry owned by exactly one topic. Content is
// stored HTML-escaped and unescaped again when rendered for viewing or
// editing. The schema cascades on topic deletion, but the service layer
// refuses to delete a topic that still owns articles.
type Article struct {
	ID        string    `json:"id"       gorm:"type:char(36);primaryKey"`
	TopicID   string    `json:"topic_id" gorm:"type:char(36);not null;index"`
	Title     string    `json:"title"    gorm:"type:varchar(255);not null"`
	Content   string    `json:"content"  gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Topic is the owning group. Articles are cascade-deleted at the schema
	// level if their topic is removed.
	Topic Topic `json:"-" gorm:"foreignKey:TopicID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Article.
func (Article) TableName() string { return "articles" }
