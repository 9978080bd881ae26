package dm

import (
	"fmt"
	"sync"
	"testing"

	"github.com/denxi342/discord-bot-dashboard/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCanonicalPair(t *testing.T) {
	low, high, err := CanonicalPair(42, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if low != 10 || high != 42 {
		t.Fatalf("expected (10,42), got (%d,%d)", low, high)
	}

	l2, h2, err := CanonicalPair(10, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l2 != low || h2 != high {
		t.Fatalf("expected symmetry, got (%d,%d) vs (%d,%d)", l2, h2, low, high)
	}

	if _, _, err := CanonicalPair(7, 7); err != ErrSelfConversation {
		t.Fatalf("expected ErrSelfConversation, got %v", err)
	}
}

func TestResolveOrCreateSymmetry(t *testing.T) {
	store := NewConversationStore(newTestDB(t))

	id1, err := store.ResolveOrCreate(10, 42, 1000)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	id2, err := store.ResolveOrCreate(42, 10, 2000)
	if err != nil {
		t.Fatalf("reversed resolve: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected one conversation for both orders, got %d and %d", id1, id2)
	}
}

func TestResolveOrCreateRejectsSelf(t *testing.T) {
	db := newTestDB(t)
	store := NewConversationStore(db)

	if _, err := store.ResolveOrCreate(10, 10, 1000); err != ErrSelfConversation {
		t.Fatalf("expected ErrSelfConversation, got %v", err)
	}
	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no row created for self pair, got %d", count)
	}
}

func TestResolveOrCreateConcurrent(t *testing.T) {
	db := newTestDB(t)
	store := NewConversationStore(db)

	const n = 8
	ids := make([]uint, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = store.ResolveOrCreate(10, 42, 1000)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("call %d failed: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("call %d returned %d, expected %d", i, ids[i], ids[0])
		}
	}

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one conversation row, got %d", count)
	}
}

func TestListForUserOrdering(t *testing.T) {
	db := newTestDB(t)
	store := NewConversationStore(db)

	c1, err := store.ResolveOrCreate(1, 2, 100)
	if err != nil {
		t.Fatalf("resolve 1-2: %v", err)
	}
	c2, err := store.ResolveOrCreate(1, 3, 200)
	if err != nil {
		t.Fatalf("resolve 1-3: %v", err)
	}

	// c1 becomes the most recent
	if err := store.Touch(c1, 300); err != nil {
		t.Fatalf("touch: %v", err)
	}

	sums, err := store.ListForUser(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(sums))
	}
	if sums[0].ConversationID != c1 || sums[1].ConversationID != c2 {
		t.Fatalf("expected recency order [%d %d], got [%d %d]", c1, c2, sums[0].ConversationID, sums[1].ConversationID)
	}
	if sums[0].OtherUserID != 2 || sums[1].OtherUserID != 3 {
		t.Fatalf("expected other users [2 3], got [%d %d]", sums[0].OtherUserID, sums[1].OtherUserID)
	}

	sums3, err := store.ListForUser(3)
	if err != nil {
		t.Fatalf("list for 3: %v", err)
	}
	if len(sums3) != 1 || sums3[0].ConversationID != c2 || sums3[0].OtherUserID != 1 {
		t.Fatalf("expected user 3 to see conversation %d with user 1, got %+v", c2, sums3)
	}
}

func TestParticipantsNotFound(t *testing.T) {
	store := NewConversationStore(newTestDB(t))
	if _, _, err := store.Participants(9999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
