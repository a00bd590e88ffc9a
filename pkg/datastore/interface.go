package datastore

import (
	"context"
	"errors"

	"github.com/openboard/openboard/pkg/model"
)

var ErrDuplicateEmail = errors.New("datastore: email already registered")
var ErrDuplicateMember = errors.New("datastore: user is already a member of this board")

type DataProviderFactory interface {
	NonTx() DataStore
	Tx(context.Context) (DataStoreTx, error)
}

type DataStoreTx interface {
	DataStore
	MembershipTxProvider
	Rollback() error
	Commit() error
}

// DataStore defines the persistence interface for all OpenBoard entities.
// The default implementation is SQLite; the interface keeps the realtime
// gateway and the REST handlers testable against in-memory fakes and leaves
// room for a PostgreSQL backend.
type DataStore interface {
	ConfigReadProvider

	UserReadProvider
	UserWriteProvider

	BoardReadProvider
	BoardWriteProvider

	ListReadProvider
	ListWriteProvider

	CardReadProvider
	CardWriteProvider

	PushTokenReadProvider
	PushTokenWriteProvider
}

// Compile-time check: *ProviderFactory implements DataProviderFactory.
var _ DataProviderFactory = (*ProviderFactory)(nil)

type ConfigReadProvider interface {
	Close() error
}

type UserReadProvider interface {
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int64) (*model.User, error)
	ListUsers() ([]model.User, error)
}

type UserWriteProvider interface {
	CreateUser(email, passwordHash string) (*model.User, error)
}

type BoardReadProvider interface {
	GetBoard(id int64) (*model.Board, error)
	GetBoardByTitleAndOwner(title string, ownerID int64) (*model.Board, error)
	ListBoardsForUser(userID int64) ([]model.Board, error)
	ListBoardMembers(boardID int64) ([]model.User, error)
	// IsBoardAccessible reports whether the user owns the board or is a member.
	// A missing board is simply inaccessible, not an error.
	IsBoardAccessible(boardID, userID int64) (bool, error)
}

type BoardWriteProvider interface {
	CreateBoard(board *model.Board) error
	UpdateBoard(board *model.Board) error
	DeleteBoard(id int64) error
	RemoveBoardMember(boardID, userID int64) error
}

// MembershipTxProvider adds a member under a transaction so the duplicate
// check and the insert are atomic under concurrent invites.
type MembershipTxProvider interface {
	AddBoardMember(boardID, userID int64) error
}

type ListReadProvider interface {
	GetList(id int64) (*model.List, error)
	ListListsByBoard(boardID int64) ([]model.List, error)
}

type ListWriteProvider interface {
	CreateList(list *model.List) error
	UpdateList(list *model.List) error
	DeleteList(id int64) error
}

type CardReadProvider interface {
	GetCard(id int64) (*model.Card, error)
	ListCardsByList(listID int64) ([]model.Card, error)
}

type CardWriteProvider interface {
	CreateCard(card *model.Card) error
	UpdateCard(card *model.Card) error
	DeleteCard(id int64) error
}

type PushTokenReadProvider interface {
	GetPushToken(token string) (*model.PushToken, error)
}

type PushTokenWriteProvider interface {
	// CreatePushToken is idempotent: registering an existing token returns
	// the stored record unchanged.
	CreatePushToken(token string, userID int64) (*model.PushToken, error)
}
