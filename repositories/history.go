//go:generate go run go.uber.org/mock/mockgen -source=history.go -destination=../mocks/mock_history_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"chat-relay/domain"
	"github.com/dgraph-io/badger/v4"
)

// MaxRoomMessages bounds each room's history. Once reached, every append
// evicts the oldest message first.
const MaxRoomMessages = 100

type IHistoryRepository interface {
	Append(room string, message domain.Message) error
	Messages(room string) ([]domain.Message, error)
	Clear(room string) error
}

// HistoryRepository keeps the bounded per-room message log in BadgerDB.
// The database is expected to be opened in memory: history is process
// lifetime state and is never reconstructed after a restart.
//
// The key is formatted as "msg:{ROOM}:{seq_padded}" to:
//  1. Ensure insertion ordering using 19-digit zero padding (lexicographical order).
//  2. Make eviction of the oldest entry a single delete of the lowest sequence.
type HistoryRepository struct {
	db  *badger.DB
	log *slog.Logger

	mu    sync.Mutex
	rooms map[string]*roomWindow
}

// roomWindow tracks the live key range of one room's log.
// oldest..next-1 are the sequences currently stored.
type roomWindow struct {
	next   uint64
	oldest uint64
}

func NewHistoryRepository(db *badger.DB, log *slog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:    db,
		log:   log,
		rooms: make(map[string]*roomWindow),
	}
}

func historyKey(room string, seq uint64) []byte {
	return fmt.Appendf(nil, "msg:%s:%019d", room, seq)
}

func historyPrefix(room string) []byte {
	return fmt.Appendf(nil, "msg:%s:", room)
}

// Append stores the message at the room's next sequence and evicts the
// oldest entry once the window exceeds MaxRoomMessages. Appends to the
// same room are serialized by the repository mutex; the cap is never
// exceeded by more than the transient element being inserted.
func (r *HistoryRepository) Append(room string, message domain.Message) error {
	room = domain.NormalizeRoom(room)

	bytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	window, ok := r.rooms[room]
	if !ok {
		window = &roomWindow{}
		r.rooms[room] = window
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(historyKey(room, window.next), bytes); err != nil {
			return err
		}
		if window.next-window.oldest+1 > MaxRoomMessages {
			return txn.Delete(historyKey(room, window.oldest))
		}
		return nil
	})
	if err != nil {
		return err
	}

	window.next++
	if window.next-window.oldest > MaxRoomMessages {
		window.oldest++
	}
	return nil
}

// Messages returns the room's log in insertion order. Unknown rooms yield
// an empty slice, never an error.
func (r *HistoryRepository) Messages(room string) ([]domain.Message, error) {
	room = domain.NormalizeRoom(room)

	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := historyPrefix(room)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var message domain.Message
				if err := json.Unmarshal(value, &message); err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Clear drops the room's entry entirely. Clearing an absent room is a no-op.
func (r *HistoryRepository) Clear(room string) error {
	room = domain.NormalizeRoom(room)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.DropPrefix(historyPrefix(room)); err != nil {
		return err
	}
	delete(r.rooms, room)
	return nil
}
