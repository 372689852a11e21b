package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortOperationsForApply_TypePrecedence(t *testing.T) {
	ops := []Operation{
		{ID: "op-3", Type: OperationDelete, Timestamp: 100},
		{ID: "op-2", Type: OperationUpdate, Timestamp: 100},
		{ID: "op-1", Type: OperationCreate, Timestamp: 100},
	}

	SortOperationsForApply(ops)

	require.Len(t, ops, 3)
	assert.Equal(t, OperationCreate, ops[0].Type)
	assert.Equal(t, OperationUpdate, ops[1].Type)
	assert.Equal(t, OperationDelete, ops[2].Type)
}

func TestSortOperationsForApply_TimestampBreaksTies(t *testing.T) {
	ops := []Operation{
		{ID: "op-b", Type: OperationUpdate, Timestamp: 300},
		{ID: "op-a", Type: OperationUpdate, Timestamp: 100},
		{ID: "op-c", Type: OperationUpdate, Timestamp: 200},
	}

	SortOperationsForApply(ops)

	assert.Equal(t, []string{"op-a", "op-c", "op-b"}, []string{ops[0].ID, ops[1].ID, ops[2].ID})
}

func TestSortOperationsForApply_IDBreaksFullTies(t *testing.T) {
	ops := []Operation{
		{ID: "op-b", Type: OperationCreate, Timestamp: 100},
		{ID: "op-a", Type: OperationCreate, Timestamp: 100},
	}

	SortOperationsForApply(ops)

	assert.Equal(t, "op-a", ops[0].ID)
	assert.Equal(t, "op-b", ops[1].ID)
}

func TestOperationType_ApplyRank(t *testing.T) {
	assert.Less(t, OperationCreate.ApplyRank(), OperationUpdate.ApplyRank())
	assert.Less(t, OperationUpdate.ApplyRank(), OperationDelete.ApplyRank())
	// unknown types sort after every known one
	assert.Greater(t, OperationType("MERGE").ApplyRank(), OperationDelete.ApplyRank())
}

func TestOperationType_Valid(t *testing.T) {
	assert.True(t, OperationCreate.Valid())
	assert.True(t, OperationUpdate.Valid())
	assert.True(t, OperationDelete.Valid())
	assert.False(t, OperationType("MERGE").Valid())
	assert.False(t, OperationType("").Valid())
}

func TestPayload_ScanRoundTrip(t *testing.T) {
	src := Payload{"name": "Lot 3", "quantity": float64(12)}

	value, err := src.Value()
	require.NoError(t, err)

	var got Payload
	require.NoError(t, got.Scan(value))
	assert.Equal(t, src, got)
}

func TestPayload_ScanNil(t *testing.T) {
	var got Payload
	require.NoError(t, got.Scan(nil))
	assert.Nil(t, got)
}

func TestPayload_ValueNilIsEmptyObject(t *testing.T) {
	var p Payload
	value, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), value)
}

func TestPayload_CloneIsIndependent(t *testing.T) {
	src := Payload{"name": "Fondations"}

	clone := src.Clone()
	clone["name"] = "Gros œuvre"

	assert.Equal(t, "Fondations", src["name"])
}
