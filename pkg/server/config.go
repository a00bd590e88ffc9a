package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openboard/openboard/pkg/auth"
	"github.com/openboard/openboard/pkg/datastore"
	"github.com/openboard/openboard/pkg/model"
)

// Config holds server configuration.
type Config struct {
	Addr       string        // HTTP bind address (e.g. ":8000")
	DBPath     string        // SQLite database path
	JWTSecret  string        // HS256 signing secret for session tokens
	TokenTTL   time.Duration // session token lifetime
	BoardsFile string        // YAML file defining boards to seed on startup

	AdmissionTimeout time.Duration // realtime admission deadline
	IdleTimeout      time.Duration // realtime idle read deadline
	WriteTimeout     time.Duration // realtime per-frame write deadline

	// CLI-only actions (run and exit)
	ExportUsers  bool // export all users as YAML and exit
	ExportBoards bool // export all boards as YAML and exit
}

// DefaultConfig returns a config with sensible defaults. JWTSecret has no
// default on purpose; the server refuses to start without one.
func DefaultConfig() Config {
	return Config{
		Addr:     ":8000",
		DBPath:   "openboard.db",
		TokenTTL: auth.DefaultTokenTTL,
	}
}

// CardYAML represents a card in YAML config.
type CardYAML struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Completed   bool   `yaml:"completed,omitempty"`
}

// ListYAML represents a list in YAML config.
type ListYAML struct {
	Title string     `yaml:"title"`
	Cards []CardYAML `yaml:"cards,omitempty"`
}

// BoardYAML represents a board in YAML config. Owner and members are
// referenced by email and must already be registered.
type BoardYAML struct {
	Title       string     `yaml:"title"`
	Description string     `yaml:"description,omitempty"`
	Color       string     `yaml:"color,omitempty"`
	Owner       string     `yaml:"owner"`
	Members     []string   `yaml:"members,omitempty"`
	Lists       []ListYAML `yaml:"lists,omitempty"`
}

// BoardsConfig is the top-level YAML config for seeded boards.
type BoardsConfig struct {
	Boards []BoardYAML `yaml:"boards"`
}

// UserYAML represents a user in YAML export.
type UserYAML struct {
	ID        int64  `yaml:"id"`
	Email     string `yaml:"email"`
	CreatedAt string `yaml:"created_at"`
}

// UsersExport is the top-level YAML for user export.
type UsersExport struct {
	Users []UserYAML `yaml:"users"`
}

// LoadBoardsFromYAML reads a boards YAML file and creates the boards in the store.
func LoadBoardsFromYAML(path string, st datastore.DataProviderFactory) error {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI config
	if err != nil {
		return fmt.Errorf("read boards config: %w", err)
	}
	return ImportBoardsFromYAML(data, st)
}

// ImportBoardsFromYAML parses YAML data and creates boards in the store.
// A board that already exists (same title and owner) is left untouched, so
// the seed file can stay in place across restarts.
func ImportBoardsFromYAML(data []byte, st datastore.DataProviderFactory) error {
	var cfg BoardsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse boards config: %w", err)
	}

	created := 0
	for _, b := range cfg.Boards {
		ok, err := ensureBoard(st, b)
		if err != nil {
			slog.Error("failed to create board from config", "title", b.Title, "err", err)
			continue
		}
		if ok {
			created++
		}
	}

	slog.Info("imported boards from YAML", "declared", len(cfg.Boards), "created", created)
	return nil
}

func ensureBoard(st datastore.DataProviderFactory, b BoardYAML) (bool, error) {
	owner, err := st.NonTx().GetUserByEmail(b.Owner)
	if err != nil {
		return false, err
	}
	if owner == nil {
		return false, fmt.Errorf("owner %q is not registered", b.Owner)
	}

	existing, err := st.NonTx().GetBoardByTitleAndOwner(b.Title, owner.ID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	board := &model.Board{
		Title:       b.Title,
		Description: b.Description,
		Color:       b.Color,
		OwnerID:     owner.ID,
	}
	if err := st.NonTx().CreateBoard(board); err != nil {
		return false, err
	}
	slog.Debug("created board from config", "title", b.Title, "owner", b.Owner)

	for _, email := range b.Members {
		if err := seedMember(st, board.ID, email); err != nil {
			slog.Error("failed to add seeded member", "board", b.Title, "member", email, "err", err)
		}
	}

	for i, l := range b.Lists {
		list := &model.List{Title: l.Title, Position: i, BoardID: board.ID}
		if err := st.NonTx().CreateList(list); err != nil {
			return true, err
		}
		for j, card := range l.Cards {
			cd := &model.Card{
				Title:       card.Title,
				Description: card.Description,
				Completed:   card.Completed,
				Position:    j,
				ListID:      list.ID,
			}
			if err := st.NonTx().CreateCard(cd); err != nil {
				return true, err
			}
		}
	}
	return true, nil
}

func seedMember(st datastore.DataProviderFactory, boardID int64, email string) error {
	user, err := st.NonTx().GetUserByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("member %q is not registered", email)
	}
	tx, err := st.Tx(context.Background())
	if err != nil {
		return err
	}
	if err := tx.AddBoardMember(boardID, user.ID); err != nil && !errors.Is(err, datastore.ErrDuplicateMember) {
		return err
	}
	return nil
}

// ExportBoardsYAML exports all boards, with their lists, cards and members,
// as YAML in the same shape the seed importer accepts.
func ExportBoardsYAML(st datastore.DataProviderFactory) ([]byte, error) {
	users, err := st.NonTx().ListUsers()
	if err != nil {
		return nil, err
	}

	cfg := BoardsConfig{}
	for _, u := range users {
		boards, err := st.NonTx().ListBoardsForUser(u.ID)
		if err != nil {
			return nil, err
		}
		for _, board := range boards {
			// Each board appears once, under its owner.
			if board.OwnerID != u.ID {
				continue
			}
			entry, err := exportBoard(st, board, u.Email)
			if err != nil {
				return nil, err
			}
			cfg.Boards = append(cfg.Boards, entry)
		}
	}
	return yaml.Marshal(&cfg)
}

func exportBoard(st datastore.DataProviderFactory, board model.Board, ownerEmail string) (BoardYAML, error) {
	entry := BoardYAML{
		Title:       board.Title,
		Description: board.Description,
		Color:       board.Color,
		Owner:       ownerEmail,
	}

	members, err := st.NonTx().ListBoardMembers(board.ID)
	if err != nil {
		return BoardYAML{}, err
	}
	for _, m := range members {
		entry.Members = append(entry.Members, m.Email)
	}

	lists, err := st.NonTx().ListListsByBoard(board.ID)
	if err != nil {
		return BoardYAML{}, err
	}
	for _, l := range lists {
		lEntry := ListYAML{Title: l.Title}
		cards, err := st.NonTx().ListCardsByList(l.ID)
		if err != nil {
			return BoardYAML{}, err
		}
		for _, card := range cards {
			lEntry.Cards = append(lEntry.Cards, CardYAML{
				Title:       card.Title,
				Description: card.Description,
				Completed:   card.Completed,
			})
		}
		entry.Lists = append(entry.Lists, lEntry)
	}
	return entry, nil
}

// ExportUsersYAML exports all users as YAML.
func ExportUsersYAML(st datastore.DataProviderFactory) ([]byte, error) {
	users, err := st.NonTx().ListUsers()
	if err != nil {
		return nil, err
	}

	export := UsersExport{}
	for _, u := range users {
		export.Users = append(export.Users, UserYAML{
			ID:        u.ID,
			Email:     u.Email,
			CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return yaml.Marshal(&export)
}
