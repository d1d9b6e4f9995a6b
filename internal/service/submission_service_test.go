package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/support-intake/internal/devops"
	"github.com/spec-kit/support-intake/internal/domain"
	"github.com/spec-kit/support-intake/internal/repository"
	"github.com/spec-kit/support-intake/internal/routing"
	apperrors "github.com/spec-kit/support-intake/pkg/util"
)

type fakeDevOps struct {
	lastInput devops.WorkItemInput
	item      *devops.WorkItem
	err       error
	calls     int
}

func (f *fakeDevOps) CreateWorkItem(_ context.Context, input devops.WorkItemInput) (*devops.WorkItem, error) {
	f.calls++
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.item, nil
}

type fakeStore struct {
	saved     []*domain.TicketRecord
	audits    []repository.AuditEntry
	saveErr   error
	listErr   error
	listItems []domain.TicketRecord
}

func (f *fakeStore) Save(_ context.Context, ticket *domain.TicketRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, ticket)
	return nil
}

func (f *fakeStore) List(_ context.Context, _ repository.TicketFilter) ([]domain.TicketRecord, error) {
	return f.listItems, f.listErr
}

func (f *fakeStore) SaveAudit(_ context.Context, entry repository.AuditEntry) error {
	f.audits = append(f.audits, entry)
	return nil
}

type fakeLicenses struct {
	info  domain.LicenseInfo
	calls int
}

func (f *fakeLicenses) GetLicenseInfo(_ context.Context, _ string) domain.LicenseInfo {
	f.calls++
	return f.info
}

const testRoutes = `
routes:
  - app_id: terprint-web
    devops_project: Terprint
    area_path: Terprint\Support
    app_name: Terprint Web
  - app_id: _default
    devops_project: Infrastructure
    area_path: Infrastructure\Support
    app_name: Acidni
`

func newTestTable(t *testing.T, content string) *routing.Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routes.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return routing.NewTable(path, zap.NewNop())
}

func validSubmission() domain.Submission {
	return domain.Submission{
		AppID:       "terprint-web",
		Category:    domain.CategoryBug,
		Subject:     "Page not loading",
		Description: "The analytics page fails to load when I click on it.",
		Priority:    2,
		UserEmail:   "user@example.com",
		UserName:    "Test User",
	}
}

func newService(t *testing.T, dev *fakeDevOps, store *fakeStore, lic LicenseLookup) *SubmissionService {
	t.Helper()
	if dev.item == nil && dev.err == nil {
		dev.item = &devops.WorkItem{ID: 42, URL: "https://dev.azure.com/acidni/Terprint/_workitems/edit/42", Rev: 1, Type: "Bug", Project: "Terprint"}
	}
	return NewSubmissionService(SubmissionDependencies{
		Routes:    newTestTable(t, testRoutes),
		DevOps:    dev,
		Tickets:   store,
		Licenses:  lic,
		Logger:    zap.NewNop(),
		DevOpsOrg: "acidni",
	})
}

var ticketIDPattern = regexp.MustCompile(`^SUP-\d{8}-\d{4}-\d{4}$`)

func TestSubmitSuccess(t *testing.T) {
	dev := &fakeDevOps{}
	store := &fakeStore{}
	svc := newService(t, dev, store, nil)

	result, err := svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}

	if !ticketIDPattern.MatchString(result.TicketID) {
		t.Errorf("ticket id %q does not match SUP-YYYYMMDD-HHMM-XXXX", result.TicketID)
	}
	if result.WorkItemID != 42 {
		t.Errorf("work item id = %d, want 42", result.WorkItemID)
	}
	if result.WorkItemURL != "https://dev.azure.com/acidni/Terprint/_workitems/edit/42" {
		t.Errorf("work item url = %q", result.WorkItemURL)
	}

	if dev.lastInput.Project != "Terprint" {
		t.Errorf("project = %q", dev.lastInput.Project)
	}
	if dev.lastInput.WorkItemType != "Bug" {
		t.Errorf("bug category should map to Bug, got %q", dev.lastInput.WorkItemType)
	}
	if dev.lastInput.Title != "[Support] Page not loading" {
		t.Errorf("title = %q", dev.lastInput.Title)
	}
	if dev.lastInput.Tags != "support-widget; customer-reported; terprint-web" {
		t.Errorf("tags = %q", dev.lastInput.Tags)
	}
	if dev.lastInput.AreaPath != `Terprint\Support` {
		t.Errorf("area path = %q", dev.lastInput.AreaPath)
	}

	if len(store.saved) != 1 {
		t.Fatalf("saved %d tickets, want 1", len(store.saved))
	}
	ticket := store.saved[0]
	if ticket.Status != domain.TicketStatusCreated {
		t.Errorf("status = %q", ticket.Status)
	}
	if ticket.DevOps.WorkItemID != 42 || ticket.DevOps.Org != "acidni" {
		t.Errorf("devops ref = %+v", ticket.DevOps)
	}
	if len(store.audits) != 1 || store.audits[0].Action != "created" {
		t.Errorf("audit entries = %+v", store.audits)
	}
}

func TestSubmitStoreFailureIsInvisible(t *testing.T) {
	dev := &fakeDevOps{}
	store := &fakeStore{saveErr: errors.New("cosmos is down")}
	svc := newService(t, dev, store, nil)

	result, err := svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("persistence failure must not fail the submission: %v", err)
	}
	if result.WorkItemID != 42 {
		t.Errorf("work item id = %d", result.WorkItemID)
	}
}

func TestSubmitDevOpsFailureAborts(t *testing.T) {
	dev := &fakeDevOps{err: errors.New("503 from devops")}
	store := &fakeStore{}
	svc := newService(t, dev, store, nil)

	_, err := svc.Submit(context.Background(), validSubmission())
	if err == nil {
		t.Fatal("expected error when work item creation fails")
	}
	domainErr := apperrors.ToDomainError(err)
	if domainErr.HTTPStatus != 502 {
		t.Errorf("status = %d, want 502", domainErr.HTTPStatus)
	}
	if len(store.saved) != 0 {
		t.Error("nothing must be persisted when the work item was not created")
	}
}

func TestSubmitUnknownAppFallsBackToDefault(t *testing.T) {
	dev := &fakeDevOps{}
	svc := newService(t, dev, &fakeStore{}, nil)

	sub := validSubmission()
	sub.AppID = "never-configured"
	if _, err := svc.Submit(context.Background(), sub); err != nil {
		t.Fatal(err)
	}
	if dev.lastInput.Project != "Infrastructure" {
		t.Errorf("project = %q, want the _default route", dev.lastInput.Project)
	}
	if !strings.Contains(dev.lastInput.Tags, "never-configured") {
		t.Errorf("tags should carry the literal app_id, got %q", dev.lastInput.Tags)
	}
}

func TestSubmitNoRoutingConfigured(t *testing.T) {
	dev := &fakeDevOps{item: &devops.WorkItem{ID: 1}}
	svc := NewSubmissionService(SubmissionDependencies{
		Routes:    newTestTable(t, "routes: []\n"),
		DevOps:    dev,
		Tickets:   &fakeStore{},
		Logger:    zap.NewNop(),
		DevOpsOrg: "acidni",
	})

	_, err := svc.Submit(context.Background(), validSubmission())
	if err == nil {
		t.Fatal("expected error with no routing configured")
	}
	if apperrors.ToDomainError(err).HTTPStatus != 400 {
		t.Errorf("status = %d, want 400", apperrors.ToDomainError(err).HTTPStatus)
	}
	if dev.calls != 0 {
		t.Error("devops must not be called when routing is unresolvable")
	}
}

func TestCategoryMappingsAreTotal(t *testing.T) {
	for _, category := range domain.Categories {
		if _, ok := categoryWorkItemTypes[category]; !ok {
			t.Errorf("no work item type for category %q", category)
		}
		if _, ok := categoryTitlePrefixes[category]; !ok {
			t.Errorf("no title prefix for category %q", category)
		}
		if _, ok := categoryTagPrefixes[category]; !ok {
			t.Errorf("no tag prefix for category %q", category)
		}
	}
	if categoryWorkItemTypes[domain.CategoryBug] != "Bug" {
		t.Error("bug must map to Bug")
	}
	for _, category := range []domain.Category{domain.CategoryFeature, domain.CategoryFeedback, domain.CategoryQuestion} {
		if categoryWorkItemTypes[category] != "Task" {
			t.Errorf("category %q should map to Task", category)
		}
	}
}

func TestSubmitEnrichesLicenseWhenMissing(t *testing.T) {
	dev := &fakeDevOps{}
	lic := &fakeLicenses{info: domain.LicenseInfo{HasLicense: true, PlanName: "Premium", HasPrioritySupport: true}}
	svc := newService(t, dev, &fakeStore{}, lic)

	if _, err := svc.Submit(context.Background(), validSubmission()); err != nil {
		t.Fatal(err)
	}
	if lic.calls != 1 {
		t.Errorf("license lookup calls = %d, want 1", lic.calls)
	}
	if !strings.Contains(dev.lastInput.Description, "Premium") {
		t.Error("license block missing from description")
	}
	if !strings.Contains(dev.lastInput.Description, "Priority (included in plan)") {
		t.Error("priority support line missing from description")
	}
}

func TestSubmitSkipsEnrichmentWhenProvided(t *testing.T) {
	dev := &fakeDevOps{}
	lic := &fakeLicenses{}
	svc := newService(t, dev, &fakeStore{}, lic)

	sub := validSubmission()
	sub.License = &domain.LicenseInfo{HasLicense: true, SupportPlan: "Managed Services"}
	if _, err := svc.Submit(context.Background(), sub); err != nil {
		t.Fatal(err)
	}
	if lic.calls != 0 {
		t.Error("lookup must be skipped when the request carries license info")
	}
	if !strings.Contains(dev.lastInput.Description, "Managed Services") {
		t.Error("provided support plan missing from description")
	}
}

func TestDescriptionEscapesMarkup(t *testing.T) {
	dev := &fakeDevOps{}
	svc := newService(t, dev, &fakeStore{}, nil)

	sub := validSubmission()
	sub.Description = `<script>alert("x")</script> breaks everything`
	sub.Context = &domain.SubmitContext{URL: "https://app/<img>", Browser: "Firefox 142"}
	if _, err := svc.Submit(context.Background(), sub); err != nil {
		t.Fatal(err)
	}

	desc := dev.lastInput.Description
	if strings.Contains(desc, "<script>") {
		t.Error("free text markup was not escaped")
	}
	if !strings.Contains(desc, "&lt;script&gt;") {
		t.Error("expected escaped script tag in description")
	}
	if !strings.Contains(desc, "<h3>Context</h3>") {
		t.Error("context block missing")
	}
	if !strings.Contains(desc, "Firefox 142") {
		t.Error("browser line missing")
	}
}

func TestDescriptionOmitsEmptyBlocks(t *testing.T) {
	dev := &fakeDevOps{}
	svc := newService(t, dev, &fakeStore{}, nil)

	sub := validSubmission()
	sub.UserEmail = ""
	sub.UserName = ""
	sub.Context = nil
	if _, err := svc.Submit(context.Background(), sub); err != nil {
		t.Fatal(err)
	}

	desc := dev.lastInput.Description
	for _, block := range []string{"<h3>Context</h3>", "<h3>Reported By</h3>", "<h3>License"} {
		if strings.Contains(desc, block) {
			t.Errorf("block %q should be omitted when its source data is absent", block)
		}
	}
}

func TestListTicketsUnconfiguredStore(t *testing.T) {
	store := &fakeStore{listErr: repository.ErrNotConfigured}
	svc := newService(t, &fakeDevOps{}, store, nil)

	records, err := svc.ListTickets(context.Background(), repository.TicketFilter{AppID: "terprint-web"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("records = %v, want empty", records)
	}
}

func TestGenerateTicketIDFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := generateTicketID()
		if !ticketIDPattern.MatchString(id) {
			t.Fatalf("id %q does not match format", id)
		}
		seen[id] = true
	}
	// Not a uniqueness guarantee, but 50 draws from 9000 suffixes should
	// rarely collide completely.
	if len(seen) < 2 {
		t.Error("suffixes do not appear random")
	}
}
