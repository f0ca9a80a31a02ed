//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
)

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventKind tags a broadcast payload so transports can route it.
type EventKind string

// Gateway fans an event out to every transport currently attached to a room.
// Delivery is best effort: implementations never surface failures to callers.
// Room state and history stay correct even if live delivery fails.
type Gateway interface {
	Publish(room string, kind EventKind, payload any)
}

// ProfanityChecker is the content policy boundary. IsProfane is a pure
// predicate; Language identifies the text's language so rejections can be
// logged with it.
type ProfanityChecker interface {
	IsProfane(text string) bool
	Language(text string) string
}

// Responder is the AI text generation boundary. Reply may fail; callers
// substitute a fixed apology rather than propagate the fault to the room.
type Responder interface {
	Reply(ctx context.Context, prompt, room, username string) (string, error)
}
