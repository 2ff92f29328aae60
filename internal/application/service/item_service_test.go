package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/unifound/lostfound/internal/domain/entity"
)

type mockMatchRepo struct {
	mu              sync.Mutex
	suggestions     map[string]*entity.MatchSuggestion
	upsertFunc      func(ctx context.Context, m *entity.MatchSuggestion) (bool, error)
	listForItemFunc func(ctx context.Context, itemID string) ([]*entity.MatchSuggestion, error)
}

func (m *mockMatchRepo) Upsert(ctx context.Context, suggestion *entity.MatchSuggestion) (bool, error) {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, suggestion)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.suggestions == nil {
		m.suggestions = map[string]*entity.MatchSuggestion{}
	}
	key := suggestion.LostItemID + "|" + suggestion.FoundItemID
	if existing, ok := m.suggestions[key]; ok {
		existing.Score = suggestion.Score
		existing.Reasons = suggestion.Reasons
		return false, nil
	}
	m.suggestions[key] = suggestion
	return true, nil
}

func (m *mockMatchRepo) ListForItem(ctx context.Context, itemID string) ([]*entity.MatchSuggestion, error) {
	if m.listForItemFunc != nil {
		return m.listForItemFunc(ctx, itemID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.MatchSuggestion
	for _, s := range m.suggestions {
		if s.LostItemID == itemID || s.FoundItemID == itemID {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestItemService_Report(t *testing.T) {
	tests := []struct {
		name    string
		input   *ReportItemInput
		wantErr bool
	}{
		{
			name: "valid found item",
			input: &ReportItemInput{
				Title:          "Black umbrella",
				Category:       "accessories",
				Type:           entity.ItemTypeFound,
				OrganizationID: "org-security",
				ReportedBy:     "guard@university.edu",
				Tags:           []string{"black", "umbrella"},
			},
		},
		{
			name: "missing title",
			input: &ReportItemInput{
				Type:           entity.ItemTypeFound,
				OrganizationID: "org-security",
				ReportedBy:     "guard@university.edu",
			},
			wantErr: true,
		},
		{
			name: "unknown item type",
			input: &ReportItemInput{
				Title:          "Black umbrella",
				Type:           "STOLEN",
				OrganizationID: "org-security",
				ReportedBy:     "guard@university.edu",
			},
			wantErr: true,
		},
		{
			name: "invalid reporter email",
			input: &ReportItemInput{
				Title:          "Black umbrella",
				Type:           entity.ItemTypeLost,
				OrganizationID: "org-security",
				ReportedBy:     "guard",
			},
			wantErr: true,
		},
		{
			name: "missing organization",
			input: &ReportItemInput{
				Title:      "Black umbrella",
				Type:       entity.ItemTypeLost,
				ReportedBy: "guard@university.edu",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			itemRepo := &mockItemRepo{}
			service := NewItemService(itemRepo, &mockRequestRepo{}, &mockMatchRepo{}, &mockLogger{})

			item, err := service.Report(context.Background(), tt.input)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Report() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var invalid *ValidationError
				if !errors.As(err, &invalid) {
					t.Errorf("Report() error = %v, want ValidationError", err)
				}
				return
			}

			if item.ID == "" {
				t.Error("Report() returned an item without an id")
			}
			if item.Status != entity.ItemStatusOpen {
				t.Errorf("Report() status = %s, want %s", item.Status, entity.ItemStatusOpen)
			}
			if itemRepo.items[item.ID] == nil {
				t.Error("Report() did not persist the item")
			}
		})
	}
}

func TestItemService_UpdateItem(t *testing.T) {
	itemRepo := &mockItemRepo{
		items: map[string]*entity.Item{
			"item-1": {
				ID:     "item-1",
				Title:  "Black umbrella",
				Type:   entity.ItemTypeFound,
				Status: entity.ItemStatusOpen,
			},
		},
	}
	service := NewItemService(itemRepo, &mockRequestRepo{}, &mockMatchRepo{}, &mockLogger{})

	item, err := service.UpdateItem(context.Background(), &UpdateItemInput{
		ItemID: "item-1",
		Title:  strptr("Black folding umbrella"),
		Tags:   []string{"black", "folding"},
	})
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	if item.Title != "Black folding umbrella" || len(item.Tags) != 2 {
		t.Errorf("UpdateItem() title = %q tags = %v", item.Title, item.Tags)
	}

	if _, err := service.UpdateItem(context.Background(), &UpdateItemInput{
		ItemID: "item-1",
		Title:  strptr(""),
	}); err == nil {
		t.Error("UpdateItem() accepted an empty title")
	}

	_, err = service.UpdateItem(context.Background(), &UpdateItemInput{ItemID: "item-missing"})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("UpdateItem() error = %v, want NotFoundError", err)
	}
}

func TestItemService_ListMatches(t *testing.T) {
	itemRepo := &mockItemRepo{
		items: map[string]*entity.Item{
			"item-1": {ID: "item-1", Type: entity.ItemTypeLost, Status: entity.ItemStatusOpen},
		},
	}
	matchRepo := &mockMatchRepo{
		suggestions: map[string]*entity.MatchSuggestion{
			"item-1|item-2": {ID: "match-1", LostItemID: "item-1", FoundItemID: "item-2", Score: 0.7},
		},
	}
	service := NewItemService(itemRepo, &mockRequestRepo{}, matchRepo, &mockLogger{})

	matches, err := service.ListMatches(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("ListMatches() error = %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "match-1" {
		t.Errorf("ListMatches() = %+v, want the stored suggestion", matches)
	}

	_, err = service.ListMatches(context.Background(), "item-missing")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("ListMatches() error = %v, want NotFoundError", err)
	}
}

func TestItemService_SyncClaimItem(t *testing.T) {
	tests := []struct {
		name          string
		requestStatus string
		itemStatus    string
		wantStatus    string
		wantNoUpdate  bool
	}{
		{
			name:          "fresh claim parks an open item",
			requestStatus: entity.StatusPending,
			itemStatus:    entity.ItemStatusOpen,
			wantStatus:    entity.ItemStatusPendingClaim,
		},
		{
			name:          "approved claim marks the item claimed",
			requestStatus: entity.StatusApproved,
			itemStatus:    entity.ItemStatusPendingClaim,
			wantStatus:    entity.ItemStatusClaimed,
		},
		{
			name:          "rejected claim reopens the item",
			requestStatus: entity.StatusRejected,
			itemStatus:    entity.ItemStatusPendingClaim,
			wantStatus:    entity.ItemStatusOpen,
		},
		{
			name:          "cancelled claim leaves an already open item alone",
			requestStatus: entity.StatusCancelled,
			itemStatus:    entity.ItemStatusOpen,
			wantNoUpdate:  true,
		},
		{
			name:          "fresh claim never downgrades a claimed item",
			requestStatus: entity.StatusPending,
			itemStatus:    entity.ItemStatusClaimed,
			wantNoUpdate:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := requestFixture(entity.RequestTypeItemClaim, tt.requestStatus, []string{"CAMPUS_SECURITY"}, 0)
			reqRepo := &mockRequestRepo{
				getByIDFunc: func(ctx context.Context, id string) (*entity.WorkRequest, error) {
					return stored, nil
				},
			}
			itemRepo := &mockItemRepo{
				items: map[string]*entity.Item{
					"item-1": {ID: "item-1", Type: entity.ItemTypeFound, Status: tt.itemStatus},
				},
			}
			service := NewItemService(itemRepo, reqRepo, &mockMatchRepo{}, &mockLogger{})

			if err := service.SyncClaimItem(context.Background(), "req-1"); err != nil {
				t.Fatalf("SyncClaimItem() error = %v", err)
			}

			if tt.wantNoUpdate {
				if len(itemRepo.statusUpdates) != 0 {
					t.Errorf("SyncClaimItem() updated status to %v, want no update", itemRepo.statusUpdates)
				}
				return
			}
			if got := itemRepo.statusUpdates["item-1"]; got != tt.wantStatus {
				t.Errorf("SyncClaimItem() status = %s, want %s", got, tt.wantStatus)
			}
		})
	}
}

func TestItemService_SyncClaimItem_Skips(t *testing.T) {
	t.Run("non-claim request", func(t *testing.T) {
		stored := requestFixture(entity.RequestTypeCrossCampusTransfer, entity.StatusApproved, []string{"CAMPUS_SECURITY"}, 0)
		reqRepo := &mockRequestRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.WorkRequest, error) {
				return stored, nil
			},
		}
		itemRepo := &mockItemRepo{
			items: map[string]*entity.Item{
				"item-1": {ID: "item-1", Status: entity.ItemStatusOpen},
			},
		}
		service := NewItemService(itemRepo, reqRepo, &mockMatchRepo{}, &mockLogger{})

		if err := service.SyncClaimItem(context.Background(), "req-1"); err != nil {
			t.Fatalf("SyncClaimItem() error = %v", err)
		}
		if len(itemRepo.statusUpdates) != 0 {
			t.Errorf("SyncClaimItem() touched the item for a transfer request")
		}
	})

	t.Run("item not on record", func(t *testing.T) {
		stored := requestFixture(entity.RequestTypeItemClaim, entity.StatusApproved, []string{"CAMPUS_SECURITY"}, 0)
		reqRepo := &mockRequestRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.WorkRequest, error) {
				return stored, nil
			},
		}
		itemRepo := &mockItemRepo{}
		service := NewItemService(itemRepo, reqRepo, &mockMatchRepo{}, &mockLogger{})

		if err := service.SyncClaimItem(context.Background(), "req-1"); err != nil {
			t.Errorf("SyncClaimItem() error = %v, want nil for a missing item", err)
		}
	})
}
