package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mkang/heritaged/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeAsset(id, userID string) model.Asset {
	now := time.Now().UTC().Truncate(time.Second)
	return model.Asset{
		ID:           id,
		UserID:       userID,
		Name:         "Family photo",
		Description:  "reunion 2023",
		Category:     model.CategoryPhotos,
		Subcategory:  "family photo",
		Tags:         []string{"family", "reunion"},
		FileType:     "jpg",
		MimeType:     "image/jpeg",
		FileSize:     2048,
		OriginalName: "IMG_0042.jpg",
		ContentID:    "QmTestHash",
		Origin:       model.OriginRemote,
		Importance:   9,
		Sentiment:    0.4,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStore_SaveGetAsset(t *testing.T) {
	s := newTestStore(t)
	want := makeAsset("a1", "u1")
	want.Analysis = &model.ClassificationResult{
		Category:   model.CategoryPhotos,
		Importance: 9,
		Tags:       []string{"family"},
		Source:     model.SourceRemoteAI,
	}

	if err := s.SaveAsset(want); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}

	got, err := s.GetAsset("a1")
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if got.Name != want.Name || got.Category != want.Category || got.Importance != want.Importance {
		t.Errorf("GetAsset = %+v, want %+v", got, want)
	}
	if got.Origin != model.OriginRemote {
		t.Errorf("origin = %q, want %q", got.Origin, model.OriginRemote)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "family" {
		t.Errorf("tags = %v, want [family reunion]", got.Tags)
	}
	if got.Analysis == nil || got.Analysis.Source != model.SourceRemoteAI {
		t.Errorf("analysis = %+v, want remote-sourced result", got.Analysis)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestStore_GetAsset_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetAsset("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAsset(missing) = %v, want ErrNotFound", err)
	}
}

func TestStore_ListAssets_Filters(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		a := makeAsset(fmt.Sprintf("p%d", i), "u1")
		a.CreatedAt = a.CreatedAt.Add(time.Duration(i) * time.Minute)
		if err := s.SaveAsset(a); err != nil {
			t.Fatalf("SaveAsset: %v", err)
		}
	}
	doc := makeAsset("d1", "u1")
	doc.Category = model.CategoryDocuments
	doc.Name = "Will and testament"
	doc.Importance = 10
	if err := s.SaveAsset(doc); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}
	other := makeAsset("x1", "u2")
	if err := s.SaveAsset(other); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}

	// By user
	all, err := s.ListAssets(model.ListFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(all) != 6 {
		t.Errorf("user filter returned %d assets, want 6", len(all))
	}

	// By category
	docs, err := s.ListAssets(model.ListFilter{UserID: "u1", Category: model.CategoryDocuments})
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "d1" {
		t.Errorf("category filter = %v, want [d1]", docs)
	}

	// By minimum importance
	important, err := s.ListAssets(model.ListFilter{UserID: "u1", MinImportance: 10})
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(important) != 1 {
		t.Errorf("importance filter returned %d assets, want 1", len(important))
	}

	// By search term
	found, err := s.ListAssets(model.ListFilter{UserID: "u1", Search: "testament"})
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(found) != 1 || found[0].ID != "d1" {
		t.Errorf("search filter = %v, want [d1]", found)
	}

	// Paging, newest first
	page, err := s.ListAssets(model.ListFilter{UserID: "u1", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page returned %d assets, want 2", len(page))
	}
	if page[0].CreatedAt.Before(page[1].CreatedAt) {
		t.Error("assets not ordered newest first")
	}

	// Count ignores paging
	count, err := s.CountAssets(model.ListFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("CountAssets: %v", err)
	}
	if count != 6 {
		t.Errorf("CountAssets = %d, want 6", count)
	}
}

func TestStore_UpdateAsset(t *testing.T) {
	s := newTestStore(t)
	a := makeAsset("a1", "u1")
	if err := s.SaveAsset(a); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}

	a.Name = "Renamed"
	a.Importance = 3
	if err := s.UpdateAsset(a); err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}

	got, err := s.GetAsset("a1")
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if got.Name != "Renamed" || got.Importance != 3 {
		t.Errorf("after update: name=%q importance=%d", got.Name, got.Importance)
	}

	missing := makeAsset("ghost", "u1")
	if err := s.UpdateAsset(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateAsset(missing) = %v, want ErrNotFound", err)
	}
}

func TestStore_DeleteAsset(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveAsset(makeAsset("a1", "u1")); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}

	if err := s.DeleteAsset("a1"); err != nil {
		t.Fatalf("DeleteAsset: %v", err)
	}
	if _, err := s.GetAsset("a1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAsset after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteAsset("a1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteAsset = %v, want ErrNotFound", err)
	}
}

func TestStore_RecordView(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveAsset(makeAsset("a1", "u1")); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}

	if err := s.RecordView("a1"); err != nil {
		t.Fatalf("RecordView: %v", err)
	}
	if err := s.RecordView("a1"); err != nil {
		t.Fatalf("RecordView: %v", err)
	}

	got, err := s.GetAsset("a1")
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if got.ViewCount != 2 {
		t.Errorf("view count = %d, want 2", got.ViewCount)
	}
	if got.LastAccessed == nil {
		t.Error("last accessed not set")
	}
}

func TestStore_SetToken(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveAsset(makeAsset("a1", "u1")); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}

	token := model.TokenRecord{
		TokenID:         "42",
		Contract:        "0xabc",
		TransactionHash: "0xdeadbeef",
		TokenizedAt:     time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SetToken("a1", token); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	got, err := s.GetAsset("a1")
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if got.Token == nil || got.Token.TokenID != "42" || got.Token.Contract != "0xabc" {
		t.Errorf("token = %+v, want token 42 on 0xabc", got.Token)
	}
}

func TestStore_Beneficiaries(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveAsset(makeAsset("a1", "u1")); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}

	b := model.Beneficiary{
		AssetID:         "a1",
		UserID:          "heir-1",
		AccessCondition: model.AccessDelayed,
		DelayPeriodDays: 30,
	}
	if err := s.AddBeneficiary(b); err != nil {
		t.Fatalf("AddBeneficiary: %v", err)
	}

	// Upsert replaces the grant
	b.AccessCondition = model.AccessImmediate
	b.DelayPeriodDays = 0
	if err := s.AddBeneficiary(b); err != nil {
		t.Fatalf("AddBeneficiary upsert: %v", err)
	}

	got, err := s.Beneficiaries("a1")
	if err != nil {
		t.Fatalf("Beneficiaries: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d beneficiaries, want 1", len(got))
	}
	if got[0].AccessCondition != model.AccessImmediate {
		t.Errorf("access condition = %q, want immediate after upsert", got[0].AccessCondition)
	}

	// Cascade on asset delete
	if err := s.DeleteAsset("a1"); err != nil {
		t.Fatalf("DeleteAsset: %v", err)
	}
	got, err = s.Beneficiaries("a1")
	if err != nil {
		t.Fatalf("Beneficiaries after delete: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("beneficiaries survived asset deletion: %v", got)
	}
}
