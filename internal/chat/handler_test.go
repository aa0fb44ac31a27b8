package chat_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomrelay/relay/internal/chat"
	"github.com/roomrelay/relay/internal/store"
)

func historyRequest(t *testing.T, h *chat.Handler, room, query string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+room+"/messages"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/rooms/:room/messages")
	c.SetParamNames("room")
	c.SetParamValues(room)

	require.NoError(t, h.MessagesGet(c))
	return rec
}

func TestMessagesGet_ReturnsRoomHistoryAfterOffset(t *testing.T) {
	log := &mockLog{}
	log.seed(1, "one", "alice", "x")
	log.seed(2, "two", "alice", "x")
	log.seed(3, "other", "bob", "y")
	h := chat.NewHandler(log)

	rec := historyRequest(t, h, "x", "?after=1")

	require.Equal(t, http.StatusOK, rec.Code)
	var messages []store.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, int64(2), messages[0].ID)
	assert.Equal(t, "two", messages[0].Content)
}

func TestMessagesGet_EmptyRoomReturnsEmptyArray(t *testing.T) {
	h := chat.NewHandler(&mockLog{})

	rec := historyRequest(t, h, "nowhere", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMessagesGet_StoreFailureReturns500(t *testing.T) {
	log := &mockLog{afterErr: &store.PersistenceError{Op: "query", Err: errors.New("disk gone")}}
	h := chat.NewHandler(log)

	rec := historyRequest(t, h, "x", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
