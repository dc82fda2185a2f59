package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/mnxnorm/internal/logging"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

func TestResetter_Reset(t *testing.T) {
	tests := []struct {
		name       string
		approver   *mockApprover
		wantErr    error
		wantResets int
	}{
		{name: "approved", approver: &mockApprover{approved: true}, wantResets: 1},
		{name: "denied", approver: &mockApprover{approved: false}, wantErr: mnx.ErrApprovalDenied},
		{name: "approver failure", approver: &mockApprover{err: context.Canceled}, wantErr: context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := newMockOpener()
			r := NewResetter(opener, tt.approver, logging.NewNullLogger())

			err := r.Reset(context.Background(), mnx.ResetConfig{Sink: mnx.SinkSQLite, SQLitePath: "data/mnx.db"})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Empty(t, opener.opened, "sink must not be opened without approval")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "data/mnx.db", tt.approver.target)
			assert.Equal(t, tt.wantResets, opener.sink.resets)
			assert.Equal(t, 1, opener.cleaned)
		})
	}
}

func TestResetter_InvalidConfig(t *testing.T) {
	r := NewResetter(newMockOpener(), &mockApprover{approved: true}, logging.NewNullLogger())
	err := r.Reset(context.Background(), mnx.ResetConfig{Sink: mnx.SinkNone})
	assert.True(t, errors.Is(err, mnx.ErrInvalidConfig))
}

func TestResetter_ApproverSeesDatabaseName(t *testing.T) {
	approver := &mockApprover{approved: true}
	r := NewResetter(newMockOpener(), approver, logging.NewNullLogger())

	err := r.Reset(context.Background(), mnx.ResetConfig{Sink: mnx.SinkPostgres, ConnectionString: "postgresql://u@localhost/mnxref"})
	require.NoError(t, err)
	assert.Equal(t, "mnxref", approver.target)
}

func TestNewResetter_PanicsOnNil(t *testing.T) {
	logger := logging.NewNullLogger()
	assert.Panics(t, func() { NewResetter(nil, &mockApprover{}, logger) })
	assert.Panics(t, func() { NewResetter(newMockOpener(), nil, logger) })
	assert.Panics(t, func() { NewResetter(newMockOpener(), &mockApprover{}, nil) })
}
