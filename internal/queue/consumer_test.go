package queue

import (
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleWritesAuditEntry(t *testing.T) {
	audit, hook := test.NewNullLogger()
	log, _ := test.NewNullLogger()
	c := NewRefreshConsumer("amqp://unused", "", log, audit)

	tenant := uint64(7)
	body, err := json.Marshal(RatesRefreshedEvent{
		CacheKey:      "abc",
		PropertyToken: "tok",
		CheckInDate:   "2026-10-20",
		TenantID:      &tenant,
		RequestID:     "req-1",
		Trigger:       "manual",
		RatesCount:    4,
		Competitors:   2,
	})
	require.NoError(t, err)

	require.NoError(t, c.handle(body))
	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, "rates refreshed", entry.Message)
	assert.Equal(t, "abc", entry.Data["cache_key"])
	assert.Equal(t, uint64(7), entry.Data["tenant_id"])
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.Equal(t, RatesRefreshedQueue, c.queue)
}

func TestHandleRejectsMalformed(t *testing.T) {
	audit, hook := test.NewNullLogger()
	log, _ := test.NewNullLogger()
	c := NewRefreshConsumer("amqp://unused", "q", log, audit)

	assert.Error(t, c.handle([]byte("not json")))
	assert.Error(t, c.handle([]byte(`{"trigger":"scheduler"}`)))
	assert.Empty(t, hook.Entries)
}
