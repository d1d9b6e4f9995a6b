package domain

import "time"

// Category enumerates the kinds of request the widget can submit.
type Category string

const (
	CategoryBug      Category = "bug"
	CategoryFeature  Category = "feature"
	CategoryFeedback Category = "feedback"
	CategoryQuestion Category = "question"
)

// Categories lists every valid category value. Mapping tables in the
// orchestrator are checked against this list for totality.
var Categories = []Category{CategoryBug, CategoryFeature, CategoryFeedback, CategoryQuestion}

// Valid reports whether the category is a known value.
func (c Category) Valid() bool {
	switch c {
	case CategoryBug, CategoryFeature, CategoryFeedback, CategoryQuestion:
		return true
	}
	return false
}

// SubmitContext carries client-side details captured automatically by the widget.
type SubmitContext struct {
	URL              string `json:"url,omitempty"`
	Browser          string `json:"browser,omitempty"`
	OS               string `json:"os,omitempty"`
	ScreenResolution string `json:"screen_resolution,omitempty"`
	AppVersion       string `json:"app_version,omitempty"`
}

// Empty reports whether no context fields are set.
func (c SubmitContext) Empty() bool {
	return c == SubmitContext{}
}

// Submission is a validated support request ready for orchestration.
type Submission struct {
	AppID            string
	Category         Category
	Subject          string
	Description      string
	Priority         int
	UserEmail        string
	UserName         string
	Context          *SubmitContext
	License          *LicenseInfo
	ScreenshotBase64 string
}

// DevOpsRef is the normalized reference to a created work item.
type DevOpsRef struct {
	Org          string `json:"org"`
	Project      string `json:"project"`
	WorkItemID   int    `json:"work_item_id"`
	WorkItemURL  string `json:"work_item_url"`
	WorkItemType string `json:"work_item_type"`
}

// TicketRecord is the persisted artifact for one submission. Created once
// by the orchestrator and never mutated afterwards.
type TicketRecord struct {
	ID          string         `json:"id"`
	AppID       string         `json:"app_id"`
	Category    Category       `json:"category"`
	Subject     string         `json:"subject"`
	Description string         `json:"description"`
	Priority    int            `json:"priority"`
	Status      string         `json:"status"`
	UserEmail   string         `json:"user_email,omitempty"`
	UserName    string         `json:"user_name,omitempty"`
	Context     *SubmitContext `json:"context,omitempty"`
	License     *LicenseInfo   `json:"license_info,omitempty"`
	DevOps      DevOpsRef      `json:"devops"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TicketStatusCreated is the only status the intake service models.
const TicketStatusCreated = "created"
