package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"policy-records-go/internal/domain/records"
	"policy-records-go/internal/domain/referral"
	"policy-records-go/internal/domain/session"
	userdomain "policy-records-go/internal/domain/user"
	"policy-records-go/internal/kv"
	"policy-records-go/internal/repository/inmemory"

	"github.com/shopspring/decimal"
)

func TestUserRepositoryUsesCustomersList(t *testing.T) {
	store := inmemory.NewKVStore(0)
	repo := NewUserRepository(store)
	ctx := context.Background()

	empty, err := repo.List(ctx)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty list = %v, err = %v", empty, err)
	}

	svc := userdomain.NewService(repo)
	created, err := svc.Register(ctx, userdomain.RegisterInput{
		Name:     "Asha Verma",
		Address:  "12 Lake Road",
		Mobile:   "9876500011",
		Email:    "asha@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	raw, err := store.Get(ctx, kv.KeyCustomers)
	if err != nil {
		t.Fatalf("get customers-list: %v", err)
	}
	var docs []map[string]any
	if err := json.Unmarshal(raw, &docs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(docs) != 1 || docs[0]["id"] != created.ID || docs[0]["mobileNumber"] != "9876500011" || docs[0]["fullAddress"] != "12 Lake Road" {
		t.Fatalf("stored document = %v", docs)
	}
}

func TestRecordsRepositoryRoundTripsNestedValues(t *testing.T) {
	store := inmemory.NewKVStore(0)
	svc := records.NewService(NewRecordsRepository(store))
	ctx := context.Background()

	draft := records.NewDraft()
	draft.Name = "Holder"
	draft.FamilyMembers[2].CurrentAge = "34"
	draft.CurrentPolicy = &records.PolicyDetail{PolicyNumber: "P-1", SumAssured: "100000"}
	created, err := svc.Append(ctx, "UID1", draft)
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := store.Get(ctx, "customers-record-lists-UID1"); err != nil {
		t.Fatalf("expected per-owner key: %v", err)
	}

	got, err := svc.Get(ctx, "UID1", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FamilyMembers[2].Relationship != "Brother" || got.FamilyMembers[2].CurrentAge != "34" {
		t.Fatalf("family = %+v", got.FamilyMembers)
	}
	if got.CurrentPolicy == nil || got.CurrentPolicy.SumAssured != "100000" || got.PreviousPolicy != nil {
		t.Fatalf("policies = %+v / %+v", got.CurrentPolicy, got.PreviousPolicy)
	}
}

func TestRecordsRepositoryKeepsStoredAttributes(t *testing.T) {
	store := inmemory.NewKVStore(0)
	svc := records.NewService(NewRecordsRepository(store))
	ctx := context.Background()

	legacy := `{"id":"1700000000000","userId":"U1","createdAt":"2023-11-14T22:13:20Z","name":"Asha",` +
		`"currentPolicy":{"policyNumber":"P1","planAndTerm":"","sumAssured":"","modeOfPayment":"","branch":"","lastPaymentDate":"","issueDate":"2020-04-01","premium":"12000"},` +
		`"employerAge":"45","serviceDetails":"Clerk, 12 years"}`
	if err := store.Put(ctx, kv.RecordsKey("U1"), []byte("["+legacy+"]")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	draft := records.NewDraft()
	draft.Name = "Ravi"
	if _, err := svc.Append(ctx, "U1", draft); err != nil {
		t.Fatalf("append: %v", err)
	}

	raw, err := store.Get(ctx, kv.RecordsKey("U1"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(docs) != 2 || string(docs[0]) != legacy {
		t.Fatalf("stored = %s", raw)
	}
}

func TestRecordsRepositorySerializesConcurrentAppends(t *testing.T) {
	store := inmemory.NewKVStore(0)
	svc := records.NewService(NewRecordsRepository(store))
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			draft := records.NewDraft()
			draft.Name = fmt.Sprintf("Holder %d", i)
			if _, err := svc.Append(ctx, "UID1", draft); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("append: %v", err)
	}

	items, err := svc.List(ctx, "UID1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != n {
		t.Fatalf("records = %d, want %d", len(items), n)
	}
	seen := map[string]bool{}
	for _, item := range items {
		if seen[item.ID] {
			t.Fatalf("duplicate id %s", item.ID)
		}
		seen[item.ID] = true
	}
}

func TestRecordsQuotaErrorIsReported(t *testing.T) {
	store := inmemory.NewKVStore(64)
	svc := records.NewService(NewRecordsRepository(store))

	draft := records.NewDraft()
	draft.Name = "Holder"
	if _, err := svc.Append(context.Background(), "UID1", draft); err == nil {
		t.Fatal("expected quota error")
	}
	if _, err := store.Get(context.Background(), kv.RecordsKey("UID1")); err == nil {
		t.Fatal("nothing should be stored")
	}
}

func TestReferralRepositoryKeys(t *testing.T) {
	store := inmemory.NewKVStore(0)
	repo := NewReferralRepository(store)
	ctx := context.Background()

	if code, err := repo.PendingCode(ctx, "UID2"); err != nil || code != "" {
		t.Fatalf("pending = %q, err = %v", code, err)
	}
	if err := repo.SetPendingCode(ctx, "UID2", "ASHA0011"); err != nil {
		t.Fatalf("set pending: %v", err)
	}
	raw, err := store.Get(ctx, "referral_code_UID2")
	if err != nil || string(raw) != `"ASHA0011"` {
		t.Fatalf("raw code = %q, err = %v", raw, err)
	}

	if err := repo.SetReferrer(ctx, "UID2", "UID1"); err != nil {
		t.Fatalf("set referrer: %v", err)
	}
	if err := repo.SetReferrer(ctx, "UID3", "UID2"); err != nil {
		t.Fatalf("set referrer: %v", err)
	}
	var referred map[string]string
	if ok, err := kv.GetJSON(ctx, store, "referred_users", &referred); err != nil || !ok {
		t.Fatalf("referred_users ok=%v err=%v", ok, err)
	}
	if referred["UID2"] != "UID1" || referred["UID3"] != "UID2" {
		t.Fatalf("referred_users = %v", referred)
	}

	stats, err := repo.Stats(ctx, "UID1")
	if err != nil || stats.TotalReferrals != 0 || !stats.TotalEarnings.IsZero() {
		t.Fatalf("zero stats = %+v, err = %v", stats, err)
	}

	for _, id := range []string{"evt-1", "evt-1"} {
		if err := repo.MarkEventProcessed(ctx, id); err != nil {
			t.Fatalf("mark: %v", err)
		}
	}
	var events []string
	if _, err := kv.GetJSON(ctx, store, "referral_processed_events", &events); err != nil || len(events) != 1 {
		t.Fatalf("events = %v, err = %v", events, err)
	}
}

func TestReferralLedgerEndToEnd(t *testing.T) {
	store := inmemory.NewKVStore(0)
	users := userdomain.NewService(NewUserRepository(store))
	ledger := referral.NewService(NewReferralRepository(store), users)
	ctx := context.Background()

	register := func(name, mobile, email, code string) *userdomain.User {
		created, err := users.Register(ctx, userdomain.RegisterInput{
			Name: name, Address: "Addr", Mobile: mobile, Email: email, Password: "secret1", ReferralCode: code,
		})
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		if created.ReferredBy != "" {
			if err := ledger.AttachSignupCode(ctx, created.ID, created.ReferredBy); err != nil {
				t.Fatalf("attach: %v", err)
			}
		}
		return created
	}

	a := register("Alpha", "1000000001", "a@example.com", "")
	b := register("Bravo", "1000000002", "b@example.com", a.ReferralCode)
	c := register("Charlie", "1000000003", "c@example.com", b.ReferralCode)

	if _, err := ledger.ProcessPurchase(ctx, referral.Purchase{UserID: b.ID, PlanPrice: decimal.NewFromInt(1099)}); err != nil {
		t.Fatalf("purchase b: %v", err)
	}
	if _, err := ledger.ProcessPurchase(ctx, referral.Purchase{UserID: c.ID, PlanPrice: decimal.NewFromInt(599)}); err != nil {
		t.Fatalf("purchase c: %v", err)
	}

	statsA, err := ledger.Stats(ctx, a.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if statsA.Level1Referrals != 1 || statsA.Level2Referrals != 1 || !statsA.TotalEarnings.Equal(decimal.RequireFromString("66.93")) {
		t.Fatalf("stats A = %+v", statsA)
	}

	raw, err := store.Get(ctx, kv.ReferralStatsKey(a.ID))
	if err != nil {
		t.Fatalf("stats key: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if doc["totalReferrals"] != float64(1) {
		t.Fatalf("stats doc = %v", doc)
	}
}

func TestSessionStoreSlots(t *testing.T) {
	store := inmemory.NewKVStore(0)
	manager := session.NewManager(NewSessionStore(store))
	ctx := context.Background()

	def := manager.Default()
	if err := def.Login(ctx, userdomain.User{ID: "UID1"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := store.Get(ctx, "currentUser"); err != nil {
		t.Fatalf("default slot key: %v", err)
	}

	other, err := manager.Start(ctx, userdomain.User{ID: "UID2"}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := store.Get(ctx, "currentUser_"+other.ID()); err != nil {
		t.Fatalf("session slot key: %v", err)
	}

	if err := def.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	current, err := manager.Open(other.ID()).CurrentUser(ctx)
	if err != nil || current == nil || current.ID != "UID2" {
		t.Fatalf("other slot = %v, err = %v", current, err)
	}
	if ok, _ := def.IsAuthenticated(ctx); ok {
		t.Fatal("default slot should be empty")
	}
}

func TestSessionStoreSweepsExpiredSlots(t *testing.T) {
	store := inmemory.NewKVStore(0)
	sessions := NewSessionStore(store)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for id, at := range map[string]time.Time{"old": now.Add(-time.Minute), "new": now.Add(time.Hour)} {
		if err := sessions.Save(ctx, id, userdomain.User{ID: "UID1"}); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
		if err := sessions.Expire(ctx, id, at); err != nil {
			t.Fatalf("expire %s: %v", id, err)
		}
	}

	removed, err := sessions.Sweep(ctx, now)
	if err != nil || removed != 1 {
		t.Fatalf("removed = %d, err = %v", removed, err)
	}
	if _, err := store.Get(ctx, "currentUser_old"); err == nil {
		t.Fatal("expired slot still stored")
	}
	if _, err := store.Get(ctx, "currentUser_new"); err != nil {
		t.Fatalf("live slot: %v", err)
	}

	if err := sessions.Clear(ctx, "new"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	raw, err := store.Get(ctx, kv.KeySessionExpiry)
	if err != nil || string(raw) != "{}" {
		t.Fatalf("expiry index = %s, err = %v", raw, err)
	}
}

func TestMoneyIsStoredAsNumbers(t *testing.T) {
	store := inmemory.NewKVStore(0)
	repo := NewReferralRepository(store)
	ctx := context.Background()

	err := repo.AppendTransaction(ctx, referral.Transaction{
		ID:         "ref_1",
		ReferrerID: "UID1",
		PlanPrice:  decimal.NewFromInt(1099),
		Commission: decimal.RequireFromString("54.95"),
		Level:      referral.LevelDirect,
		Status:     referral.StatusPending,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	raw, err := store.Get(ctx, kv.KeyReferralTransactions)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(string(raw), `"planPrice":1099,"commission":54.95`) {
		t.Fatalf("stored = %s", raw)
	}

	if err := repo.SaveStats(ctx, "UID1", referral.Stats{TotalEarnings: decimal.RequireFromString("66.93")}); err != nil {
		t.Fatalf("save stats: %v", err)
	}
	raw, err = store.Get(ctx, kv.ReferralStatsKey("UID1"))
	if err != nil || !strings.Contains(string(raw), `"totalEarnings":66.93`) {
		t.Fatalf("stats = %s, err = %v", raw, err)
	}
}
