package savedview

import (
	"encoding/json"
	"testing"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSavedView(t *testing.T) {
	user := uuid.New()

	v, err := NewSavedView(user, " receivables ", " My overdue ", Snapshot(`{"status":"Overdue"}`))
	require.NoError(t, err)
	assert.Equal(t, "receivables", v.PageKey)
	assert.Equal(t, "My overdue", v.Name)
	assert.False(t, v.IsDefault)

	_, err = NewSavedView(uuid.Nil, "p", "n", nil)
	assert.True(t, shared.IsKind(err, shared.KindValidation))
	_, err = NewSavedView(user, "", "n", nil)
	assert.Error(t, err)
	_, err = NewSavedView(user, "p", "  ", nil)
	assert.Error(t, err)
	_, err = NewSavedView(user, "p", "n", Snapshot(`{broken`))
	assert.Error(t, err)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	v := SavedView{Name: "x", Snapshot: Snapshot(`{"group_by":["status"]}`)}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"snapshot":{"group_by":["status"]}`)

	var back SavedView
	require.NoError(t, json.Unmarshal(data, &back))
	assert.JSONEq(t, `{"group_by":["status"]}`, string(back.Snapshot))

	val, err := Snapshot(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", val)

	var scanned Snapshot
	require.NoError(t, scanned.Scan([]byte(`{"a":1}`)))
	assert.Equal(t, `{"a":1}`, string(scanned))
}
