package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/agentloco/internal/application/state"
	"github.com/younwookim/agentloco/internal/domain/entity"
)

func TestScheduler_Arm(t *testing.T) {
	s := New()

	p, err := s.Arm(1, state.StateReleased, state.StateReturning, 2.0, 1.0)
	require.NoError(t, err)

	assert.Equal(t, 3.0, p.FireAt)
	got, ok := s.Pending(1)
	require.True(t, ok)
	assert.Equal(t, state.StateReturning, got.Target)
	assert.Equal(t, 1, s.Len())
}

func TestScheduler_ArmReplacesSlot(t *testing.T) {
	s := New()

	s.Arm(1, state.StateReleased, state.StateReturning, 0, 1.0)
	s.Arm(1, state.StateReleased, state.StateCarried, 0, 5.0)

	got, ok := s.Pending(1)
	require.True(t, ok)
	assert.Equal(t, state.StateCarried, got.Target)
	assert.Equal(t, 5.0, got.FireAt)
	assert.Equal(t, 1, s.Len(), "One slot per agent")
}

func TestScheduler_ArmRejectsUnreachable(t *testing.T) {
	tests := []struct {
		name   string
		from   state.State
		target state.State
	}{
		{"carried cannot return", state.StateCarried, state.StateReturning},
		{"detached is terminal", state.StateDetached, state.StateCarried},
		{"self transition", state.StateReleased, state.StateReleased},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Arm(1, state.StateReleased, state.StateReturning, 0, 1.0)

			_, err := s.Arm(1, tt.from, tt.target, 0, 2.0)

			assert.ErrorIs(t, err, ErrUnreachable)
			got, ok := s.Pending(1)
			require.True(t, ok, "Rejected arm keeps the slot")
			assert.Equal(t, state.StateReturning, got.Target)
		})
	}
}

func TestScheduler_NegativeDelayFiresImmediately(t *testing.T) {
	s := New()

	s.Arm(1, state.StateReleased, state.StateReturning, 4.0, -2)

	_, ok := s.Fire(1, 4.0)
	assert.True(t, ok)
}

func TestScheduler_Fire(t *testing.T) {
	tests := []struct {
		name   string
		now    float64
		wantOK bool
	}{
		{"before fire time", 0.99, false},
		{"exactly at fire time", 1.0, true},
		{"after fire time", 1.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Arm(1, state.StateReleased, state.StateReturning, 0, 1.0)

			target, ok := s.Fire(1, tt.now)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, state.StateReturning, target)
				_, still := s.Pending(1)
				assert.False(t, still, "Firing clears the slot")
			} else {
				_, still := s.Pending(1)
				assert.True(t, still)
			}
		})
	}
}

func TestScheduler_Cancel(t *testing.T) {
	s := New()
	s.Arm(1, state.StateReleased, state.StateReturning, 0, 1.0)

	assert.True(t, s.Cancel(1))
	assert.False(t, s.Cancel(1), "Second cancel is a no-op")
	assert.False(t, s.Cancel(99), "Unknown agent is a no-op")

	_, ok := s.Fire(1, 10)
	assert.False(t, ok, "Cancelled transition never fires")
}

func TestScheduler_SlotsAreIndependent(t *testing.T) {
	s := New()
	s.Arm(1, state.StateReleased, state.StateReturning, 0, 1.0)
	s.Arm(2, state.StateReleased, state.StateReturning, 0, 3.0)

	s.Cancel(1)

	_, ok := s.Fire(entity.EntityID(2), 3.0)
	assert.True(t, ok)
	assert.Equal(t, 0, s.Len())
}
