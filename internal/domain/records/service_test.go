package records

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

type fakeRecordsRepo struct {
	collections map[string][]PolicyRecord
	saves       int
	saveErr     error
}

func newFakeRecordsRepo() *fakeRecordsRepo {
	return &fakeRecordsRepo{collections: make(map[string][]PolicyRecord)}
}

func (r *fakeRecordsRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeRecordsRepo) List(ctx context.Context, ownerID string) ([]PolicyRecord, error) {
	items := r.collections[ownerID]
	if items == nil {
		return []PolicyRecord{}, nil
	}
	return append([]PolicyRecord(nil), items...), nil
}

func (r *fakeRecordsRepo) Save(ctx context.Context, ownerID string, records []PolicyRecord) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.collections[ownerID] = append([]PolicyRecord(nil), records...)
	return nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	return svc
}

func sampleRecord(name string) PolicyRecord {
	record := NewDraft()
	record.Name = name
	record.BankName = "State Bank"
	record.FamilyMembers[0].CurrentAge = "61"
	record.FamilyMembers[1].DeathAge = "70"
	record.FamilyMembers[1].Reason = "Cardiac"
	record.CurrentPolicy = &PolicyDetail{
		PolicyNumber:    "POL-1001",
		PlanAndTerm:     "Jeevan 20y",
		SumAssured:      "500000",
		ModeOfPayment:   "Yearly",
		Branch:          "Pune",
		LastPaymentDate: "2025-01-15",
	}
	record.PreviousPolicy = &PolicyDetail{PolicyNumber: "POL-0900", ModeOfPayment: "Monthly"}
	return record
}

func TestAppendAssignsUniqueIDs(t *testing.T) {
	repo := newFakeRecordsRepo()
	svc := newTestService(repo)

	const n = 5
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		created, err := svc.Append(context.Background(), "UID1", sampleRecord("Holder"))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if created.CreatedAt.IsZero() {
			t.Fatalf("append %d: empty createdAt", i)
		}
		if created.UserID != "UID1" {
			t.Fatalf("append %d: user id = %q", i, created.UserID)
		}
		seen[created.ID] = struct{}{}
	}

	items, err := svc.List(context.Background(), "UID1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != n {
		t.Fatalf("len = %d, want %d", len(items), n)
	}
	if len(seen) != n {
		t.Fatalf("unique ids = %d, want %d", len(seen), n)
	}
	if items[0].ID != "1748772000000" || items[1].ID != "1748772000001" {
		t.Fatalf("ids = %q, %q", items[0].ID, items[1].ID)
	}
}

func TestAppendValidatesAndScopesOwner(t *testing.T) {
	svc := newTestService(newFakeRecordsRepo())

	if _, err := svc.Append(context.Background(), "", sampleRecord("Holder")); !errors.Is(err, ErrOwnerRequired) {
		t.Fatalf("expected ErrOwnerRequired, got %v", err)
	}
	if _, err := svc.Append(context.Background(), "UID1", sampleRecord("   ")); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}

	if _, err := svc.Append(context.Background(), "UID1", sampleRecord("Holder")); err != nil {
		t.Fatalf("append: %v", err)
	}
	other, err := svc.List(context.Background(), "UID2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("other owner sees %d records", len(other))
	}
}

func TestAppendReportsStorageFailure(t *testing.T) {
	repo := newFakeRecordsRepo()
	repo.saveErr = errors.New("quota exceeded")
	svc := newTestService(repo)

	if _, err := svc.Append(context.Background(), "UID1", sampleRecord("Holder")); !errors.Is(err, repo.saveErr) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestUpdateByIDMissingLeavesCollectionUnchanged(t *testing.T) {
	repo := newFakeRecordsRepo()
	svc := newTestService(repo)

	if _, err := svc.Append(context.Background(), "UID1", sampleRecord("Holder")); err != nil {
		t.Fatalf("append: %v", err)
	}
	before, _ := repo.List(context.Background(), "UID1")
	saves := repo.saves

	record, found, err := svc.UpdateByID(context.Background(), "UID1", "nope", Patch{"name": json.RawMessage(`"X"`)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if found || record != nil {
		t.Fatalf("found=%v record=%v, want not found", found, record)
	}

	after, _ := repo.List(context.Background(), "UID1")
	if !reflect.DeepEqual(before, after) {
		t.Fatal("collection changed on missing id")
	}
	if repo.saves != saves {
		t.Fatal("collection rewritten on missing id")
	}
}

func TestUpdateByIDShallowMerges(t *testing.T) {
	repo := newFakeRecordsRepo()
	svc := newTestService(repo)

	created, err := svc.Append(context.Background(), "UID1", sampleRecord("Holder"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	patch := Patch{
		"name":          json.RawMessage(`"Renamed Holder"`),
		"ifscCode":      json.RawMessage(`"SBIN0001"`),
		"currentPolicy": json.RawMessage(`{"policyNumber":"POL-2002"}`),
		"id":            json.RawMessage(`"hijack"`),
		"createdAt":     json.RawMessage(`"2000-01-01T00:00:00Z"`),
	}
	updated, found, err := svc.UpdateByID(context.Background(), "UID1", created.ID, patch)
	if err != nil || !found {
		t.Fatalf("update: found=%v err=%v", found, err)
	}

	if updated.ID != created.ID || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("protected fields were overwritten")
	}
	if updated.Name != "Renamed Holder" || updated.IFSCCode != "SBIN0001" {
		t.Fatalf("name=%q ifsc=%q", updated.Name, updated.IFSCCode)
	}
	if updated.BankName != "State Bank" {
		t.Fatalf("untouched field lost: bank=%q", updated.BankName)
	}
	// Shallow: the nested object is replaced, not merged.
	if updated.CurrentPolicy.PolicyNumber != "POL-2002" || updated.CurrentPolicy.Branch != "" {
		t.Fatalf("current policy = %+v", updated.CurrentPolicy)
	}
	if updated.PreviousPolicy.PolicyNumber != "POL-0900" {
		t.Fatalf("previous policy = %+v", updated.PreviousPolicy)
	}
}

func TestUpdateByIDKeepsUntypedAttributes(t *testing.T) {
	svc := newTestService(newFakeRecordsRepo())

	created, err := svc.Append(context.Background(), "UID1", sampleRecord("Holder"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	patch := Patch{
		"serviceDetails": json.RawMessage(`"Clerk, 12 years"`),
		"UserID":         json.RawMessage(`"UID9"`),
	}
	updated, found, err := svc.UpdateByID(context.Background(), "UID1", created.ID, patch)
	if err != nil || !found {
		t.Fatalf("update: found=%v err=%v", found, err)
	}
	if string(updated.Extra["serviceDetails"]) != `"Clerk, 12 years"` {
		t.Fatalf("extra = %v", updated.Extra)
	}
	if updated.UserID != "UID1" {
		t.Fatalf("user id = %q", updated.UserID)
	}

	_, found, err = svc.UpdateByID(context.Background(), "UID1", created.ID, Patch{"name": json.RawMessage(`5`)})
	if !found || !errors.Is(err, ErrInvalidPatch) {
		t.Fatalf("found=%v err=%v, want ErrInvalidPatch", found, err)
	}
	_, _, err = svc.UpdateByID(context.Background(), "UID1", created.ID, Patch{"name": json.RawMessage(`""`)})
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

const legacyRecord = `{"id":"1700000000000","userId":"UID1","createdAt":"2023-11-14T22:13:20Z","name":"Asha",` +
	`"familyMembers":[{"relationship":"Father","currentAge":"61","health":"Good","deathAge":"","reason":"","alive":true}],` +
	`"currentPolicy":{"policyNumber":"P1","planAndTerm":"","sumAssured":"","modeOfPayment":"","branch":"","lastPaymentDate":"","issueDate":"2020-04-01","premium":"12000"},` +
	`"employerAge":"45","serviceDetails":"Clerk, 12 years"}`

func TestUntypedAttributesSurviveRewrites(t *testing.T) {
	var legacy PolicyRecord
	if err := json.Unmarshal([]byte(legacyRecord), &legacy); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if legacy.CurrentPolicy.Extra == nil || legacy.FamilyMembers[0].Extra == nil {
		t.Fatalf("nested extras lost: %+v", legacy)
	}

	repo := newFakeRecordsRepo()
	repo.collections["UID1"] = []PolicyRecord{legacy}
	svc := newTestService(repo)
	ctx := context.Background()

	other, err := svc.Append(ctx, "UID1", sampleRecord("Ravi"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, _, err := svc.UpdateByID(ctx, "UID1", other.ID, Patch{"occupation": json.RawMessage(`"Farmer"`)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := svc.DeleteByID(ctx, "UID1", other.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	items, _ := repo.List(ctx, "UID1")
	if len(items) != 1 {
		t.Fatalf("len = %d, want 1", len(items))
	}
	raw, err := json.Marshal(items[0])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(raw) != legacyRecord {
		t.Fatalf("record changed:\n got %s\nwant %s", raw, legacyRecord)
	}

	updated, _, err := svc.UpdateByID(ctx, "UID1", "1700000000000", Patch{"employerAge": json.RawMessage(`"46"`)})
	if err != nil {
		t.Fatalf("update legacy: %v", err)
	}
	if string(updated.Extra["employerAge"]) != `"46"` || string(updated.Extra["serviceDetails"]) != `"Clerk, 12 years"` {
		t.Fatalf("extra = %v", updated.Extra)
	}
	if string(updated.CurrentPolicy.Extra["premium"]) != `"12000"` {
		t.Fatalf("policy extra = %v", updated.CurrentPolicy.Extra)
	}
}

func TestDeleteByIDRemovesExactlyOne(t *testing.T) {
	repo := newFakeRecordsRepo()
	svc := newTestService(repo)

	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		created, err := svc.Append(context.Background(), "UID1", sampleRecord(name))
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		ids = append(ids, created.ID)
	}
	before, _ := repo.List(context.Background(), "UID1")
	beforeJSON := map[string]string{}
	for _, item := range before {
		raw, _ := json.Marshal(item)
		beforeJSON[item.ID] = string(raw)
	}

	removed, err := svc.DeleteByID(context.Background(), "UID1", ids[1])
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}

	after, _ := repo.List(context.Background(), "UID1")
	if len(after) != 2 {
		t.Fatalf("len = %d, want 2", len(after))
	}
	for _, item := range after {
		if item.ID == ids[1] {
			t.Fatal("deleted record still present")
		}
		raw, _ := json.Marshal(item)
		if string(raw) != beforeJSON[item.ID] {
			t.Fatalf("record %s changed: %s", item.ID, raw)
		}
	}

	removed, err = svc.DeleteByID(context.Background(), "UID1", "missing")
	if err != nil || removed {
		t.Fatalf("delete missing: removed=%v err=%v", removed, err)
	}
}

func TestGetAndCount(t *testing.T) {
	svc := newTestService(newFakeRecordsRepo())

	created, err := svc.Append(context.Background(), "UID1", sampleRecord("Holder"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := svc.Get(context.Background(), "UID1", created.ID)
	if err != nil || got.Name != "Holder" {
		t.Fatalf("get: %v %v", got, err)
	}
	if _, err := svc.Get(context.Background(), "UID1", "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	count, err := svc.Count(context.Background(), "UID1")
	if err != nil || count != 1 {
		t.Fatalf("count = %d, err = %v", count, err)
	}
}

func TestNewDraftFamilyRows(t *testing.T) {
	draft := NewDraft()
	want := []string{"Father", "Mother", "Brother", "Sister", "Children"}
	if len(draft.FamilyMembers) != len(want) {
		t.Fatalf("rows = %d", len(draft.FamilyMembers))
	}
	for i, relationship := range want {
		if draft.FamilyMembers[i].Relationship != relationship {
			t.Fatalf("row %d = %q, want %q", i, draft.FamilyMembers[i].Relationship, relationship)
		}
	}
}
