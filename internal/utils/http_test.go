package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON_SetsHeaderStatusAndBody(t *testing.T) {
	w := httptest.NewRecorder()

	n, err := WriteJSON(w, map[string]string{"version": "1.4.0"}, http.StatusOK)

	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"version":"1.4.0"}`, w.Body.String())
}

func TestWriteJSON_KeepsCallerStatusCode(t *testing.T) {
	w := httptest.NewRecorder()

	_, err := WriteJSON(w, map[string]string{"error": "entité inconnue"}, http.StatusNotFound)

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"entité inconnue"}`, w.Body.String())
}

func TestWriteJSON_UnserializableBodyIsPlain500(t *testing.T) {
	w := httptest.NewRecorder()

	// channels cannot be marshaled; the device must get a clean 500,
	// never a truncated JSON document
	_, err := WriteJSON(w, make(chan int), http.StatusOK)

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEqual(t, "application/json", w.Header().Get("Content-Type"))
}

func TestWriteJSON_NilBody(t *testing.T) {
	w := httptest.NewRecorder()

	_, err := WriteJSON(w, nil, http.StatusOK)

	require.NoError(t, err)
	assert.Equal(t, "null", w.Body.String())
}

func TestWriteJSON_StructBody(t *testing.T) {
	type pushAck struct {
		Success   []string `json:"success"`
		Conflicts int      `json:"conflicts"`
	}

	w := httptest.NewRecorder()
	_, err := WriteJSON(w, pushAck{Success: []string{"p1", "m7"}}, http.StatusOK)

	require.NoError(t, err)
	assert.JSONEq(t, `{"success":["p1","m7"],"conflicts":0}`, w.Body.String())
}
