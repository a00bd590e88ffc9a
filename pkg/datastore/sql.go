package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openboard/openboard/pkg/model"
)

const dbTimeLayout = "2006-01-02 15:04:05"

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type baseProvider struct {
	DB
}

func (p *baseProvider) Close() error {
	return nil
}

type nonTxProvider struct {
	baseProvider
}

type txProvider struct {
	baseProvider
	tx *sql.Tx
}

func (c *txProvider) Rollback() error {
	return c.tx.Rollback()
}

func (c *txProvider) Commit() error {
	return c.tx.Commit()
}

// ProviderFactory provides database access for all OpenBoard entities.
type ProviderFactory struct {
	DB *sql.DB
}

func (sf ProviderFactory) NonTx() DataStore {
	return &nonTxProvider{
		baseProvider: baseProvider{
			DB: sf.DB,
		},
	}
}

func (sf ProviderFactory) Tx(ctx context.Context) (DataStoreTx, error) {
	tx, err := sf.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &txProvider{
		baseProvider: baseProvider{
			DB: tx,
		},
		tx: tx,
	}, nil
}

// NewProviderFactory opens (or creates) a SQLite database and runs migrations.
func NewProviderFactory(dbPath string) (*ProviderFactory, error) {
	DB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("datastore: open DB: %w", err)
	}

	ctx := context.Background()

	// Enable WAL mode for better concurrent read performance
	if _, err := DB.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = DB.Close()
		return nil, fmt.Errorf("datastore: set WAL: %w", err)
	}
	if _, err := DB.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = DB.Close()
		return nil, fmt.Errorf("datastore: enable FK: %w", err)
	}
	// Set busy timeout to avoid "database is locked" under concurrency
	if _, err := DB.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = DB.Close()
		return nil, fmt.Errorf("datastore: set busy_timeout: %w", err)
	}

	s := &ProviderFactory{DB: DB}
	if err := s.migrate(); err != nil {
		_ = DB.Close()
		return nil, fmt.Errorf("datastore: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *ProviderFactory) Close() error {
	return s.DB.Close()
}

func (s *ProviderFactory) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		email         TEXT    NOT NULL UNIQUE CHECK(length(email) > 0 AND length(email) <= 254),
		password_hash TEXT    NOT NULL,
		created_at    TEXT    NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS boards (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT    NOT NULL,
		description TEXT    NOT NULL DEFAULT '',
		color       TEXT    NOT NULL DEFAULT '',
		owner_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  TEXT    NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS board_members (
		board_id   INTEGER NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT    NOT NULL DEFAULT (datetime('now')),
		PRIMARY KEY (board_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS lists (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT    NOT NULL,
		position   INTEGER NOT NULL DEFAULT 0,
		board_id   INTEGER NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		created_at TEXT    NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS cards (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT    NOT NULL,
		description TEXT    NOT NULL DEFAULT '',
		completed   INTEGER NOT NULL DEFAULT 0,
		position    INTEGER NOT NULL DEFAULT 0,
		list_id     INTEGER NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
		created_at  TEXT    NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS push_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		token      TEXT    NOT NULL UNIQUE,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT    NOT NULL DEFAULT (datetime('now'))
	);
	`
	ctx := context.Background()
	if err := s.ensureSchemaMigrations(ctx); err != nil {
		return err
	}
	currentVersion, err := s.getSchemaVersion(ctx)
	if err != nil {
		return err
	}

	migrations := []struct {
		version      int
		statements   []string
		ignoreErrors bool
	}{
		{
			version:    1,
			statements: []string{schema},
		},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		for _, stmt := range m.statements {
			if err := s.execMigration(ctx, stmt, m.ignoreErrors); err != nil {
				return err
			}
		}
		if err := s.setSchemaVersion(ctx, m.version); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProviderFactory) ensureSchemaMigrations(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("datastore: create schema_migrations: %w", err)
	}
	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		return fmt.Errorf("datastore: check schema_migrations: %w", err)
	}
	if count == 0 {
		if _, err := s.DB.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (0)"); err != nil {
			return fmt.Errorf("datastore: init schema_migrations: %w", err)
		}
	}
	return nil
}

func (s *ProviderFactory) getSchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.DB.QueryRowContext(ctx, "SELECT version FROM schema_migrations LIMIT 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("datastore: read schema version: %w", err)
	}
	return version, nil
}

func (s *ProviderFactory) setSchemaVersion(ctx context.Context, version int) error {
	if _, err := s.DB.ExecContext(ctx, "UPDATE schema_migrations SET version = ?", version); err != nil {
		return fmt.Errorf("datastore: update schema version: %w", err)
	}
	return nil
}

func (s *ProviderFactory) execMigration(ctx context.Context, stmt string, ignoreErrors bool) error {
	if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
		if ignoreErrors {
			return nil
		}
		return fmt.Errorf("datastore: migrate: %w", err)
	}
	return nil
}

func parseDBTime(value string) (time.Time, error) {
	return time.ParseInLocation(dbTimeLayout, value, time.UTC)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ---- Users ----

// CreateUser creates a new user and returns it with the assigned ID.
// It validates the email format before inserting.
func (s *baseProvider) CreateUser(email, passwordHash string) (*model.User, error) {
	if err := model.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("datastore: create user: %w", err)
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("datastore: create user: %w", model.ErrPasswordEmpty)
	}
	res, err := s.ExecContext(context.Background(), "INSERT INTO users (email, password_hash) VALUES (?, ?)", email, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("datastore: create user: %w", err)
	}
	id, _ := res.LastInsertId()
	return &model.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// GetUserByEmail retrieves a user by email.
func (s *baseProvider) GetUserByEmail(email string) (*model.User, error) {
	u := &model.User{}
	var createdAt string
	err := s.QueryRowContext(context.Background(), "SELECT id, email, password_hash, created_at FROM users WHERE email = ?", email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("datastore: get user: %w", err)
	}
	parsed, err := parseDBTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("datastore: get user: %w", err)
	}
	u.CreatedAt = parsed
	return u, nil
}

// GetUserByID retrieves a user by ID.
func (s *baseProvider) GetUserByID(id int64) (*model.User, error) {
	u := &model.User{}
	var createdAt string
	err := s.QueryRowContext(context.Background(), "SELECT id, email, password_hash, created_at FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("datastore: get user: %w", err)
	}
	parsed, err := parseDBTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("datastore: get user: %w", err)
	}
	u.CreatedAt = parsed
	return u, nil
}

// ListUsers returns all users.
func (s *baseProvider) ListUsers() ([]model.User, error) {
	rows, err := s.QueryContext(context.Background(), "SELECT id, email, password_hash, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("datastore: list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		var u model.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt); err != nil {
			return nil, fmt.Errorf("datastore: scan user: %w", err)
		}
		parsed, err := parseDBTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("datastore: scan user: %w", err)
		}
		u.CreatedAt = parsed
		users = append(users, u)
	}
	return users, rows.Err()
}

// ---- Boards ----

// CreateBoard creates a new board. An empty color is filled with a random
// light color, matching the behavior clients expect from board creation.
func (s *baseProvider) CreateBoard(board *model.Board) error {
	if board.Color == "" {
		board.Color = model.RandomBoardColor()
	}
	if err := board.Validate(); err != nil {
		return err
	}
	res, err := s.ExecContext(
		context.Background(),
		"INSERT INTO boards (title, description, color, owner_id) VALUES (?, ?, ?, ?)",
		board.Title, board.Description, board.Color, board.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("datastore: create board: %w", err)
	}
	board.ID, _ = res.LastInsertId()
	board.CreatedAt = time.Now().UTC()
	return nil
}

func scanBoard(scan func(dest ...any) error) (*model.Board, error) {
	b := &model.Board{}
	var createdAt string
	if err := scan(&b.ID, &b.Title, &b.Description, &b.Color, &b.OwnerID, &createdAt); err != nil {
		return nil, err
	}
	parsed, err := parseDBTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.CreatedAt = parsed
	return b, nil
}

// GetBoard retrieves a board by ID.
func (s *baseProvider) GetBoard(id int64) (*model.Board, error) {
	row := s.QueryRowContext(context.Background(),
		"SELECT id, title, description, color, owner_id, created_at FROM boards WHERE id = ?", id)
	b, err := scanBoard(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("datastore: get board: %w", err)
	}
	return b, nil
}

// GetBoardByTitleAndOwner retrieves a board by title and owner, used by the
// YAML seed import to keep board creation idempotent.
func (s *baseProvider) GetBoardByTitleAndOwner(title string, ownerID int64) (*model.Board, error) {
	row := s.QueryRowContext(context.Background(),
		"SELECT id, title, description, color, owner_id, created_at FROM boards WHERE title = ? AND owner_id = ?", title, ownerID)
	b, err := scanBoard(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("datastore: get board by title: %w", err)
	}
	return b, nil
}

// ListBoardsForUser returns boards the user owns or is a member of.
func (s *baseProvider) ListBoardsForUser(userID int64) ([]model.Board, error) {
	rows, err := s.QueryContext(context.Background(), `
		SELECT DISTINCT b.id, b.title, b.description, b.color, b.owner_id, b.created_at
		FROM boards b
		LEFT JOIN board_members m ON m.board_id = b.id
		WHERE b.owner_id = ? OR m.user_id = ?
		ORDER BY b.id`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("datastore: list boards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var boards []model.Board
	for rows.Next() {
		b, err := scanBoard(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("datastore: scan board: %w", err)
		}
		boards = append(boards, *b)
	}
	return boards, rows.Err()
}

// ListBoardMembers returns the users invited to a board (excluding the owner).
func (s *baseProvider) ListBoardMembers(boardID int64) ([]model.User, error) {
	rows, err := s.QueryContext(context.Background(), `
		SELECT u.id, u.email, u.password_hash, u.created_at
		FROM users u
		JOIN board_members m ON m.user_id = u.id
		WHERE m.board_id = ?
		ORDER BY u.id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("datastore: list board members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		var u model.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt); err != nil {
			return nil, fmt.Errorf("datastore: scan board member: %w", err)
		}
		parsed, err := parseDBTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("datastore: scan board member: %w", err)
		}
		u.CreatedAt = parsed
		users = append(users, u)
	}
	return users, rows.Err()
}

// IsBoardAccessible reports whether the user owns the board or is a member.
func (s *baseProvider) IsBoardAccessible(boardID, userID int64) (bool, error) {
	var count int
	err := s.QueryRowContext(context.Background(), `
		SELECT COUNT(*)
		FROM boards b
		WHERE b.id = ?
		AND (b.owner_id = ? OR EXISTS (
			SELECT 1 FROM board_members m WHERE m.board_id = b.id AND m.user_id = ?
		))`, boardID, userID, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("datastore: check board access: %w", err)
	}
	return count > 0, nil
}

// UpdateBoard updates a board's mutable fields.
func (s *baseProvider) UpdateBoard(board *model.Board) error {
	if err := board.Validate(); err != nil {
		return err
	}
	_, err := s.ExecContext(context.Background(),
		"UPDATE boards SET title = ?, description = ?, color = ? WHERE id = ?",
		board.Title, board.Description, board.Color, board.ID)
	if err != nil {
		return fmt.Errorf("datastore: update board: %w", err)
	}
	return nil
}

// DeleteBoard deletes a board; lists, cards and memberships cascade.
func (s *baseProvider) DeleteBoard(id int64) error {
	_, err := s.ExecContext(context.Background(), "DELETE FROM boards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("datastore: delete board: %w", err)
	}
	return nil
}

// AddBoardMember inserts a membership row, failing with ErrDuplicateMember
// if the user is already on the board. Runs inside the transaction so two
// concurrent invites cannot both pass the duplicate check.
func (s *txProvider) AddBoardMember(boardID, userID int64) error {
	ctx := context.Background()

	defer func() { _ = s.Rollback() }()

	var count int
	if err := s.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM board_members WHERE board_id = ? AND user_id = ?",
		boardID, userID).Scan(&count); err != nil {
		return fmt.Errorf("datastore: check membership: %w", err)
	}
	if count > 0 {
		return ErrDuplicateMember
	}

	if _, err := s.ExecContext(ctx,
		"INSERT INTO board_members (board_id, user_id) VALUES (?, ?)",
		boardID, userID); err != nil {
		return fmt.Errorf("datastore: add board member: %w", err)
	}

	if err := s.Commit(); err != nil {
		return fmt.Errorf("datastore: commit: %w", err)
	}
	return nil
}

// RemoveBoardMember removes a membership row. Removing a non-member is a no-op.
func (s *baseProvider) RemoveBoardMember(boardID, userID int64) error {
	_, err := s.ExecContext(context.Background(),
		"DELETE FROM board_members WHERE board_id = ? AND user_id = ?", boardID, userID)
	if err != nil {
		return fmt.Errorf("datastore: remove board member: %w", err)
	}
	return nil
}

// ---- Lists ----

// CreateList creates a new list on a board.
func (s *baseProvider) CreateList(list *model.List) error {
	if err := list.Validate(); err != nil {
		return err
	}
	res, err := s.ExecContext(context.Background(),
		"INSERT INTO lists (title, position, board_id) VALUES (?, ?, ?)",
		list.Title, list.Position, list.BoardID)
	if err != nil {
		return fmt.Errorf("datastore: create list: %w", err)
	}
	list.ID, _ = res.LastInsertId()
	list.CreatedAt = time.Now().UTC()
	return nil
}

// GetList retrieves a list by ID.
func (s *baseProvider) GetList(id int64) (*model.List, error) {
	l := &model.List{}
	var createdAt string
	err := s.QueryRowContext(context.Background(),
		"SELECT id, title, position, board_id, created_at FROM lists WHERE id = ?", id).
		Scan(&l.ID, &l.Title, &l.Position, &l.BoardID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("datastore: get list: %w", err)
	}
	parsed, err := parseDBTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("datastore: get list: %w", err)
	}
	l.CreatedAt = parsed
	return l, nil
}

// ListListsByBoard returns all lists on a board ordered by position.
func (s *baseProvider) ListListsByBoard(boardID int64) ([]model.List, error) {
	rows, err := s.QueryContext(context.Background(),
		"SELECT id, title, position, board_id, created_at FROM lists WHERE board_id = ? ORDER BY position, id", boardID)
	if err != nil {
		return nil, fmt.Errorf("datastore: list lists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lists []model.List
	for rows.Next() {
		var l model.List
		var createdAt string
		if err := rows.Scan(&l.ID, &l.Title, &l.Position, &l.BoardID, &createdAt); err != nil {
			return nil, fmt.Errorf("datastore: scan list: %w", err)
		}
		parsed, err := parseDBTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("datastore: scan list: %w", err)
		}
		l.CreatedAt = parsed
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// UpdateList updates a list's title and position.
func (s *baseProvider) UpdateList(list *model.List) error {
	if err := list.Validate(); err != nil {
		return err
	}
	_, err := s.ExecContext(context.Background(),
		"UPDATE lists SET title = ?, position = ? WHERE id = ?",
		list.Title, list.Position, list.ID)
	if err != nil {
		return fmt.Errorf("datastore: update list: %w", err)
	}
	return nil
}

// DeleteList deletes a list; its cards cascade.
func (s *baseProvider) DeleteList(id int64) error {
	_, err := s.ExecContext(context.Background(), "DELETE FROM lists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("datastore: delete list: %w", err)
	}
	return nil
}

// ---- Cards ----

// CreateCard creates a new card on a list.
func (s *baseProvider) CreateCard(card *model.Card) error {
	if err := card.Validate(); err != nil {
		return err
	}
	completedInt := 0
	if card.Completed {
		completedInt = 1
	}
	res, err := s.ExecContext(context.Background(),
		"INSERT INTO cards (title, description, completed, position, list_id) VALUES (?, ?, ?, ?, ?)",
		card.Title, card.Description, completedInt, card.Position, card.ListID)
	if err != nil {
		return fmt.Errorf("datastore: create card: %w", err)
	}
	card.ID, _ = res.LastInsertId()
	card.CreatedAt = time.Now().UTC()
	return nil
}

func scanCard(scan func(dest ...any) error) (*model.Card, error) {
	c := &model.Card{}
	var completedInt int
	var createdAt string
	if err := scan(&c.ID, &c.Title, &c.Description, &completedInt, &c.Position, &c.ListID, &createdAt); err != nil {
		return nil, err
	}
	c.Completed = completedInt != 0
	parsed, err := parseDBTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = parsed
	return c, nil
}

// GetCard retrieves a card by ID.
func (s *baseProvider) GetCard(id int64) (*model.Card, error) {
	row := s.QueryRowContext(context.Background(),
		"SELECT id, title, description, completed, position, list_id, created_at FROM cards WHERE id = ?", id)
	c, err := scanCard(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("datastore: get card: %w", err)
	}
	return c, nil
}

// ListCardsByList returns all cards on a list ordered by position.
func (s *baseProvider) ListCardsByList(listID int64) ([]model.Card, error) {
	rows, err := s.QueryContext(context.Background(),
		"SELECT id, title, description, completed, position, list_id, created_at FROM cards WHERE list_id = ? ORDER BY position, id", listID)
	if err != nil {
		return nil, fmt.Errorf("datastore: list cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []model.Card
	for rows.Next() {
		c, err := scanCard(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("datastore: scan card: %w", err)
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

// UpdateCard updates a card's mutable fields, including list_id so cards can
// move between lists.
func (s *baseProvider) UpdateCard(card *model.Card) error {
	if err := card.Validate(); err != nil {
		return err
	}
	completedInt := 0
	if card.Completed {
		completedInt = 1
	}
	_, err := s.ExecContext(context.Background(),
		"UPDATE cards SET title = ?, description = ?, completed = ?, position = ?, list_id = ? WHERE id = ?",
		card.Title, card.Description, completedInt, card.Position, card.ListID, card.ID)
	if err != nil {
		return fmt.Errorf("datastore: update card: %w", err)
	}
	return nil
}

// DeleteCard deletes a card by ID.
func (s *baseProvider) DeleteCard(id int64) error {
	_, err := s.ExecContext(context.Background(), "DELETE FROM cards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("datastore: delete card: %w", err)
	}
	return nil
}

// ---- Push tokens ----

// GetPushToken retrieves a push token record by its token value.
func (s *baseProvider) GetPushToken(token string) (*model.PushToken, error) {
	p := &model.PushToken{}
	var createdAt string
	err := s.QueryRowContext(context.Background(),
		"SELECT id, token, user_id, created_at FROM push_tokens WHERE token = ?", token).
		Scan(&p.ID, &p.Token, &p.UserID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("datastore: get push token: %w", err)
	}
	parsed, err := parseDBTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("datastore: get push token: %w", err)
	}
	p.CreatedAt = parsed
	return p, nil
}

// CreatePushToken registers a device token. Registering an existing token
// returns the stored record unchanged.
func (s *baseProvider) CreatePushToken(token string, userID int64) (*model.PushToken, error) {
	if token == "" {
		return nil, fmt.Errorf("datastore: create push token: empty token")
	}
	existing, err := s.GetPushToken(token)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	res, err := s.ExecContext(context.Background(),
		"INSERT INTO push_tokens (token, user_id) VALUES (?, ?)", token, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return s.GetPushToken(token)
		}
		return nil, fmt.Errorf("datastore: create push token: %w", err)
	}
	id, _ := res.LastInsertId()
	return &model.PushToken{
		ID:        id,
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}, nil
}
