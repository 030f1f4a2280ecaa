package store

import "testing"

func TestCreateSubscription(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	sub, err := ps.CreateSubscription(DefaultUserID, "https://push.example/ep1", "p256dh-key", "auth-key", "Laptop")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub == nil || sub.ID == 0 {
		t.Fatal("expected persisted subscription with id")
	}
	if sub.Endpoint != "https://push.example/ep1" || sub.DeviceName != "Laptop" {
		t.Errorf("unexpected subscription: %+v", sub)
	}
}

func TestCreateSubscriptionUpsertsByEndpoint(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	first, err := ps.CreateSubscription(DefaultUserID, "https://push.example/ep1", "old-p256dh", "old-auth", "Laptop")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	second, err := ps.CreateSubscription(DefaultUserID, "https://push.example/ep1", "new-p256dh", "new-auth", "Laptop (renewed)")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second == nil {
		t.Fatal("expected subscription after upsert")
	}
	if second.ID != first.ID {
		t.Errorf("upsert created new row: id %d vs %d", second.ID, first.ID)
	}
	if second.P256dhKey != "new-p256dh" || second.AuthKey != "new-auth" {
		t.Errorf("keys not refreshed: %+v", second)
	}

	subs, err := ps.ListByUser(DefaultUserID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("got %d subscriptions, want 1", len(subs))
	}
}

func TestListByUser(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	for _, ep := range []string{"https://push.example/ep1", "https://push.example/ep2"} {
		if _, err := ps.CreateSubscription(DefaultUserID, ep, "k", "a", ""); err != nil {
			t.Fatalf("create %s: %v", ep, err)
		}
	}

	subs, err := ps.ListByUser(DefaultUserID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("got %d subscriptions, want 2", len(subs))
	}

	other, err := ps.ListByUser("someone-else")
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("got %d subscriptions for unknown user, want 0", len(other))
	}
}

func TestDeleteSubscription(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	sub, err := ps.CreateSubscription(DefaultUserID, "https://push.example/ep1", "k", "a", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := ps.DeleteSubscription(sub.ID, DefaultUserID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := ps.GetByID(sub.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("subscription still present after delete")
	}
}

func TestDeleteByEndpoint(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	if _, err := ps.CreateSubscription(DefaultUserID, "https://push.example/gone", "k", "a", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ps.DeleteByEndpoint("https://push.example/gone"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}

	got, err := ps.GetByEndpoint("https://push.example/gone")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("subscription still present after endpoint delete")
	}
}
