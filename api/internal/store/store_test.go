package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSafeDSNSummary(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://potato:secret@db:5432/potato?sslmode=disable", "host=db port=5432 db=potato user=potato"},
		{"postgres://user:pw@localhost/audit", "host=localhost db=audit user=user"},
		{"::not a url", "dsn: parse error"},
	}
	for _, tt := range tests {
		got := SafeDSNSummary(tt.dsn)
		assert.Equal(t, tt.want, got)
		assert.NotContains(t, got, "secret")
	}
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	assert.NoError(t, r.Record(context.Background(), AnalysisRecord{Kind: "ok", StatusCode: 200}))
}

func TestPurgeOlderThan_RejectsNonPositive(t *testing.T) {
	r := NewAnalysisRepo(nil)
	_, err := r.PurgeOlderThan(context.Background(), 0)
	assert.Error(t, err)
	_, err = r.PurgeOlderThan(context.Background(), -time.Hour)
	assert.Error(t, err)
}
