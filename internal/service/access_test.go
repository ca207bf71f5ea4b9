package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msmirnov/school-library/internal/model"
)

func TestAccessPolicy(t *testing.T) {
	t.Parallel()
	order := model.Order{Username: "ivanov"}
	ownerActor := model.Actor{Username: "ivanov", Role: model.RoleUser}
	strangerActor := model.Actor{Username: "petrov", Role: model.RoleUser}
	adminActor := model.Actor{Username: "librarian", Role: model.RoleAdmin}

	require.True(t, canView(ownerActor, order))
	require.True(t, canView(adminActor, order))
	require.False(t, canView(strangerActor, order))

	require.True(t, canMutate(ownerActor, order))
	require.True(t, canMutate(adminActor, order))
	require.False(t, canMutate(strangerActor, order))
}

func TestCanTransition(t *testing.T) {
	t.Parallel()
	userActor := model.Actor{Username: "ivanov", Role: model.RoleUser}
	adminActor := model.Actor{Username: "librarian", Role: model.RoleAdmin}

	require.False(t, canTransition(userActor, model.StatusCheckedOut))
	require.False(t, canTransition(userActor, model.StatusLost))
	require.True(t, canTransition(userActor, model.StatusCancelled))
	require.True(t, canTransition(userActor, model.StatusReturned))

	require.True(t, canTransition(adminActor, model.StatusCheckedOut))
	require.True(t, canTransition(adminActor, model.StatusLost))
}
