package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"walrus/cmd/internal/validate"
)

// aliasDirectory is a fixed alias -> user id table for service tests.
type aliasDirectory map[string]int32

func (d aliasDirectory) UserIDByAlias(_ context.Context, alias string) (int32, bool, error) {
	id, ok := d[alias]
	return id, ok, nil
}

func newTestService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	svc := NewService(nil, store, aliasDirectory{
		"user_a": 1,
		"user_b": 2,
		"user_c": 3,
	})
	return svc, store
}

func TestCreatePrivateChat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()
	svc, store := newTestService()

	chatID, err := svc.CreatePrivateChat(ctx, now, 1, "user_b")
	if err != nil {
		t.Fatalf("CreatePrivateChat: %v", err)
	}

	for _, userID := range []int32{1, 2} {
		member, err := store.IsMember(ctx, chatID, userID)
		if err != nil {
			t.Fatalf("IsMember: %v", err)
		}
		if !member {
			t.Fatalf("user %d is not a member of the new chat", userID)
		}
	}
}

func TestCreatePrivateChat_UnknownRecipient(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	_, err := svc.CreatePrivateChat(context.Background(), time.Now().UTC(), 1, "nonexistent")
	if !errors.Is(err, validate.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreatePrivateChat_WithSelf(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	_, err := svc.CreatePrivateChat(context.Background(), time.Now().UTC(), 1, "user_a")
	if !errors.Is(err, validate.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCreatePrivateChat_SymmetricUniqueness(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()
	svc, _ := newTestService()

	if _, err := svc.CreatePrivateChat(ctx, now, 1, "user_b"); err != nil {
		t.Fatalf("first CreatePrivateChat: %v", err)
	}

	// The duplicate is rejected from either side.
	if _, err := svc.CreatePrivateChat(ctx, now, 1, "user_b"); !errors.Is(err, validate.ErrAlreadyExists) {
		t.Fatalf("same-side duplicate: err = %v, want ErrAlreadyExists", err)
	}
	if _, err := svc.CreatePrivateChat(ctx, now, 2, "user_a"); !errors.Is(err, validate.ErrAlreadyExists) {
		t.Fatalf("reversed duplicate: err = %v, want ErrAlreadyExists", err)
	}

	// Unrelated pairs are unaffected.
	if _, err := svc.CreatePrivateChat(ctx, now, 1, "user_c"); err != nil {
		t.Fatalf("unrelated pair: %v", err)
	}
}

func TestSendMessage_MembershipGate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()
	svc, _ := newTestService()

	chatID, err := svc.CreatePrivateChat(ctx, now, 1, "user_b")
	if err != nil {
		t.Fatalf("CreatePrivateChat: %v", err)
	}

	if _, err := svc.SendMessage(ctx, now, 1, chatID, "hello"); err != nil {
		t.Fatalf("member SendMessage: %v", err)
	}

	// A non-member and a caller targeting an absent chat get the same kind.
	if _, err := svc.SendMessage(ctx, now, 3, chatID, "hello"); !errors.Is(err, validate.ErrNotFound) {
		t.Fatalf("non-member: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.SendMessage(ctx, now, 1, chatID+100, "hello"); !errors.Is(err, validate.ErrNotFound) {
		t.Fatalf("absent chat: err = %v, want ErrNotFound", err)
	}
}

func TestSendMessage_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()
	svc, _ := newTestService()

	chatID, err := svc.CreatePrivateChat(ctx, now, 1, "user_b")
	if err != nil {
		t.Fatalf("CreatePrivateChat: %v", err)
	}

	if _, err := svc.SendMessage(ctx, now, 1, chatID, "  \n "); !errors.Is(err, validate.ErrInvalidInput) {
		t.Fatalf("blank text: err = %v, want ErrInvalidInput", err)
	}
	long := strings.Repeat("x", validate.MessageTextLengthLimit+1)
	if _, err := svc.SendMessage(ctx, now, 1, chatID, long); !errors.Is(err, validate.ErrLimitExceeded) {
		t.Fatalf("oversized text: err = %v, want ErrLimitExceeded", err)
	}
}

func TestListMessages_MembershipGate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()
	svc, _ := newTestService()

	chatID, err := svc.CreatePrivateChat(ctx, now, 1, "user_b")
	if err != nil {
		t.Fatalf("CreatePrivateChat: %v", err)
	}
	for _, text := range []string{"one", "two", "three"} {
		if _, err := svc.SendMessage(ctx, now, 1, chatID, text); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}

	msgs, err := svc.ListMessages(ctx, 2, chatID, 10, 1)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len(msgs) = %d, want 3", len(msgs))
	}

	if _, err := svc.ListMessages(ctx, 3, chatID, 10, 1); !errors.Is(err, validate.ErrNotFound) {
		t.Fatalf("non-member listing: err = %v, want ErrNotFound", err)
	}
}

func TestListChats_Paging(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()
	store := NewMemoryStore()
	svc := NewService(nil, store, aliasDirectory{})

	for i := 0; i < 5; i++ {
		if _, err := store.CreateWithSelfChat(ctx, 1, now); err != nil {
			t.Fatalf("CreateWithSelfChat: %v", err)
		}
	}

	first, err := svc.ListChats(ctx, 1, 2, 1)
	if err != nil {
		t.Fatalf("ListChats page 1: %v", err)
	}
	second, err := svc.ListChats(ctx, 1, 2, 2)
	if err != nil {
		t.Fatalf("ListChats page 2: %v", err)
	}
	third, err := svc.ListChats(ctx, 1, 2, 3)
	if err != nil {
		t.Fatalf("ListChats page 3: %v", err)
	}
	if len(first) != 2 || len(second) != 2 || len(third) != 1 {
		t.Fatalf("page sizes = %d, %d, %d, want 2, 2, 1", len(first), len(second), len(third))
	}
	if first[0].ID >= first[1].ID || first[1].ID >= second[0].ID {
		t.Fatalf("chat listing is not ordered by id")
	}

	// A page size past the cap is rejected, not clamped.
	if _, err := svc.ListChats(ctx, 1, MaxListingElements+50, 1); !errors.Is(err, validate.ErrLimitExceeded) {
		t.Fatalf("oversized page size: err = %v, want ErrLimitExceeded", err)
	}

	// An unspecified page size means the default.
	defaulted, err := svc.ListChats(ctx, 1, 0, 1)
	if err != nil {
		t.Fatalf("ListChats default size: %v", err)
	}
	if len(defaulted) != 5 {
		t.Fatalf("default-size listing = %d chats, want 5", len(defaulted))
	}
}
