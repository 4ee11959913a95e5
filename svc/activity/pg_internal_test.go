package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/audit"
)

func TestSelectEvents(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	sql, args, err := selectEvents(audit.Criteria{
		TenantID:  "company:c1",
		UserID:    "user_1",
		Action:    ItemCreated,
		StartTime: start,
		EndTime:   end,
		Offset:    20,
		Limit:     10,
	}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, tenant_id, user_id, action, resource, resource_id, result, error, request_id, created_at "+
		"FROM tenant_activity "+
		"WHERE tenant_id = $1 AND user_id = $2 AND action = $3 AND created_at >= $4 AND created_at < $5 "+
		"ORDER BY created_at DESC, seq DESC LIMIT 10 OFFSET 20", sql)
	assert.Equal(t, []any{"company:c1", "user_1", ItemCreated, start, end}, args)

	sql, args, err = selectEvents(audit.Criteria{}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, tenant_id, user_id, action, resource, resource_id, result, error, request_id, created_at "+
		"FROM tenant_activity ORDER BY created_at DESC, seq DESC", sql)
	assert.Empty(t, args)
}
