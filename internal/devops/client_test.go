package devops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestCreateWorkItemSuccess(t *testing.T) {
	var gotPath, gotContentType, gotAuth string
	var gotOps []map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotOps); err != nil {
			t.Errorf("decode patch body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":42,"rev":1,"_links":{"html":{"href":"https://dev.azure.com/acidni/Terprint/_workitems/edit/42"}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-pat", 5*time.Second, zap.NewNop())
	item, err := client.CreateWorkItem(context.Background(), WorkItemInput{
		Project:      "Terprint",
		WorkItemType: "Bug",
		Title:        "[Support] Page not loading",
		Description:  "<p>broken</p>",
		AreaPath:     `Terprint\Support`,
		Priority:     2,
		Tags:         "support-widget; customer-reported; terprint-web",
	})
	if err != nil {
		t.Fatal(err)
	}

	if item.ID != 42 {
		t.Errorf("id = %d, want 42", item.ID)
	}
	if item.URL != "https://dev.azure.com/acidni/Terprint/_workitems/edit/42" {
		t.Errorf("url = %q", item.URL)
	}
	if item.Type != "Bug" || item.Project != "Terprint" {
		t.Errorf("normalized ref = %+v", item)
	}
	if gotPath != "/Terprint/_apis/wit/workitems/$Bug" {
		t.Errorf("path = %q", gotPath)
	}
	if gotContentType != "application/json-patch+json" {
		t.Errorf("content type = %q", gotContentType)
	}
	if gotAuth == "" || gotAuth == "Basic " {
		t.Errorf("auth header = %q", gotAuth)
	}
	// Title, description, priority, area path and tags all present.
	if len(gotOps) != 5 {
		t.Errorf("patch ops = %d, want 5", len(gotOps))
	}
}

func TestCreateWorkItemOmitsOptionalFields(t *testing.T) {
	var gotOps []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotOps)
		_, _ = w.Write([]byte(`{"id":7}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "pat", 5*time.Second, zap.NewNop())
	item, err := client.CreateWorkItem(context.Background(), WorkItemInput{
		Project:      "Terprint",
		WorkItemType: "Task",
		Title:        "t",
		Description:  "d",
		Priority:     3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(gotOps) != 3 {
		t.Errorf("patch ops = %d, want 3 without area path and tags", len(gotOps))
	}
	if item.Rev != 1 {
		t.Errorf("rev defaulted to %d, want 1", item.Rev)
	}
}

func TestCreateWorkItemNon2xxFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"TF401349: bad area path"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, "pat", 5*time.Second, zap.NewNop())
	if _, err := client.CreateWorkItem(context.Background(), WorkItemInput{Project: "P", WorkItemType: "Bug", Title: "t", Description: "d", Priority: 3}); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestCreateWorkItemMalformedResponseFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rev":1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "pat", 5*time.Second, zap.NewNop())
	if _, err := client.CreateWorkItem(context.Background(), WorkItemInput{Project: "P", WorkItemType: "Bug", Title: "t", Description: "d", Priority: 3}); err == nil {
		t.Fatal("expected error for response without an id")
	}
}

func TestCreateWorkItemTransportFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "pat", time.Second, zap.NewNop())
	if _, err := client.CreateWorkItem(context.Background(), WorkItemInput{Project: "P", WorkItemType: "Bug", Title: "t", Description: "d", Priority: 3}); err == nil {
		t.Fatal("expected transport error")
	}
}
