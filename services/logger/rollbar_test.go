package logsvc

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incubaapp/incuba/core/user"
)

func itemPerson(t *testing.T, args []interface{}) (*rollbar.Person, bool) {
	t.Helper()
	for _, arg := range args {
		if ctx, ok := arg.(context.Context); ok {
			return rollbar.PersonFromContext(ctx)
		}
	}
	return nil, false
}

func TestRollbarPrepare(t *testing.T) {
	var l RollbarLogger
	ana := user.User{ID: "u1", Name: "Ana", Email: "ana@example.com"}
	luis := user.User{ID: "u2", Name: "Luis", Email: "luis@example.com"}
	err := errors.New("boom")
	extras := map[string]interface{}{"venture": "v1"}

	args := l.prepare("failed", []interface{}{err, ana, extras, luis})
	require.Len(t, args, 4)
	assert.Equal(t, "failed", args[0])
	assert.Equal(t, err, args[1])
	assert.Equal(t, extras, args[2])
	p, ok := itemPerson(t, args)
	require.True(t, ok)
	assert.Equal(t, &rollbar.Person{Id: "u1", Username: "Ana", Email: "ana@example.com"}, p)

	// the next item carries no person
	args = l.prepare("plain", []interface{}{err})
	assert.Equal(t, []interface{}{"plain", err}, args)
	_, ok = itemPerson(t, args)
	assert.False(t, ok)
}

func TestRollbarPrepareConcurrentPeople(t *testing.T) {
	var l RollbarLogger
	done := make(chan *rollbar.Person, 2)
	for _, u := range []user.User{{ID: "u1"}, {ID: "u2"}} {
		go func() {
			p, _ := itemPerson(t, l.prepare("m", []interface{}{u}))
			done <- p
		}()
	}
	ids := []string{(<-done).Id, (<-done).Id}
	assert.ElementsMatch(t, []string{"u1", "u2"}, ids)
}
