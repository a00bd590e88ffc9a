package server

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/openboard/openboard/pkg/datastore"
	"github.com/openboard/openboard/pkg/model"
)

func newTestStore(t *testing.T) *datastore.ProviderFactory {
	t.Helper()
	store, err := datastore.NewProviderFactory(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.NonTx().Close() })
	return store
}

const seedYAML = `
boards:
  - title: Launch
    description: release planning
    owner: alice@example.com
    members:
      - bob@example.com
    lists:
      - title: Todo
        cards:
          - title: Ship it
            description: before friday
      - title: Done
        cards:
          - title: Kickoff
            completed: true
  - title: Orphan
    owner: ghost@example.com
`

func TestImportBoardsFromYAML(t *testing.T) {
	store := newTestStore(t)
	alice, err := store.NonTx().CreateUser("alice@example.com", "x")
	if err != nil {
		t.Fatal(err)
	}
	bob, err := store.NonTx().CreateUser("bob@example.com", "x")
	if err != nil {
		t.Fatal(err)
	}

	if err := ImportBoardsFromYAML([]byte(seedYAML), store); err != nil {
		t.Fatalf("import: %v", err)
	}

	board, err := store.NonTx().GetBoardByTitleAndOwner("Launch", alice.ID)
	if err != nil || board == nil {
		t.Fatalf("seeded board missing: %v", err)
	}
	if board.Description != "release planning" {
		t.Errorf("description = %q", board.Description)
	}
	if board.Color == "" {
		t.Error("seeded board has no color")
	}

	if ok, _ := store.NonTx().IsBoardAccessible(board.ID, bob.ID); !ok {
		t.Error("seeded member has no access")
	}

	lists, err := store.NonTx().ListListsByBoard(board.ID)
	if err != nil || len(lists) != 2 {
		t.Fatalf("lists = %v (err %v), want 2", lists, err)
	}
	cards, err := store.NonTx().ListCardsByList(lists[1].ID)
	if err != nil || len(cards) != 1 {
		t.Fatalf("cards = %v (err %v), want 1", cards, err)
	}
	if !cards[0].Completed {
		t.Error("completed flag not carried over")
	}

	// The board with an unregistered owner is skipped, not fatal.
	if orphan, _ := store.NonTx().GetBoardByTitleAndOwner("Orphan", alice.ID); orphan != nil {
		t.Error("orphan board should not have been created")
	}
}

func TestImportBoardsIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	alice, err := store.NonTx().CreateUser("alice@example.com", "x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.NonTx().CreateUser("bob@example.com", "x"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := ImportBoardsFromYAML([]byte(seedYAML), store); err != nil {
			t.Fatalf("import #%d: %v", i+1, err)
		}
	}

	boards, err := store.NonTx().ListBoardsForUser(alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(boards) != 1 {
		t.Fatalf("boards after double import = %d, want 1", len(boards))
	}
	board := boards[0]
	lists, _ := store.NonTx().ListListsByBoard(board.ID)
	if len(lists) != 2 {
		t.Errorf("lists after double import = %d, want 2", len(lists))
	}
}

func TestExportBoardsYAMLRoundTrips(t *testing.T) {
	store := newTestStore(t)
	alice, err := store.NonTx().CreateUser("alice@example.com", "x")
	if err != nil {
		t.Fatal(err)
	}
	board := &model.Board{Title: "Launch", OwnerID: alice.ID}
	if err := store.NonTx().CreateBoard(board); err != nil {
		t.Fatal(err)
	}
	list := &model.List{Title: "Todo", BoardID: board.ID}
	if err := store.NonTx().CreateList(list); err != nil {
		t.Fatal(err)
	}
	card := &model.Card{Title: "Ship it", ListID: list.ID}
	if err := store.NonTx().CreateCard(card); err != nil {
		t.Fatal(err)
	}

	data, err := ExportBoardsYAML(store)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	fresh := newTestStore(t)
	if _, err := fresh.NonTx().CreateUser("alice@example.com", "x"); err != nil {
		t.Fatal(err)
	}
	if err := ImportBoardsFromYAML(data, fresh); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	freshAlice, _ := fresh.NonTx().GetUserByEmail("alice@example.com")
	restored, err := fresh.NonTx().GetBoardByTitleAndOwner("Launch", freshAlice.ID)
	if err != nil || restored == nil {
		t.Fatalf("restored board missing: %v", err)
	}
	lists, _ := fresh.NonTx().ListListsByBoard(restored.ID)
	if len(lists) != 1 || lists[0].Title != "Todo" {
		t.Errorf("restored lists = %v, want one Todo list", lists)
	}
}

func TestExportUsersYAML(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.NonTx().CreateUser("alice@example.com", "x"); err != nil {
		t.Fatal(err)
	}
	data, err := ExportUsersYAML(store)
	if err != nil {
		t.Fatalf("export users: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "alice@example.com") {
		t.Errorf("export missing user: %s", out)
	}
	if strings.Contains(out, "password") {
		t.Errorf("export leaks password material: %s", out)
	}
}
