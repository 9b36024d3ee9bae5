//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type roomResponse struct {
	RoomID    string           `json:"room_id"`
	Messages  []messagePayload `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
}

type messagePayload struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type messagesResponse struct {
	Messages []messagePayload `json:"messages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// createRoom issues POST /api/v1/rooms and returns the raw response.
func createRoom(t *testing.T, roomID string) *http.Response {
	t.Helper()

	body, err := json.Marshal(map[string]string{"room_id": roomID})
	require.NoError(t, err)

	resp, err := testClient.Post(baseURL+"/api/v1/rooms", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

// mustCreateRoom creates a room and fails the test unless it succeeds.
func mustCreateRoom(t *testing.T, roomID string) roomResponse {
	t.Helper()

	resp := createRoom(t, roomID)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var room roomResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&room))
	return room
}

// getRoom issues GET /api/v1/rooms/{roomID} and returns the raw response.
func getRoom(t *testing.T, roomID string) *http.Response {
	t.Helper()

	resp, err := testClient.Get(baseURL + "/api/v1/rooms/" + roomID)
	require.NoError(t, err)
	return resp
}

// getMessages fetches one history page. Pass -1 for page or size to omit
// the parameter and exercise the server-side defaults.
func getMessages(t *testing.T, roomID string, page, size int) *http.Response {
	t.Helper()

	url := fmt.Sprintf("%s/api/v1/rooms/%s/messages", baseURL, roomID)
	params := []string{}
	if page >= 0 {
		params = append(params, fmt.Sprintf("page=%d", page))
	}
	if size >= 0 {
		params = append(params, fmt.Sprintf("size=%d", size))
	}
	if len(params) > 0 {
		url += "?" + strings.Join(params, "&")
	}

	resp, err := testClient.Get(url)
	require.NoError(t, err)
	return resp
}

// mustGetMessages fetches one history page and decodes it.
func mustGetMessages(t *testing.T, roomID string, page, size int) []messagePayload {
	t.Helper()

	resp := getMessages(t, roomID, page, size)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body messagesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Messages
}

// dialRoom opens a websocket subscription to one room topic.
func dialRoom(t *testing.T, roomID string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL+"/ws/rooms/"+roomID, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

// sendMessage writes one send-message frame to an open connection.
func sendMessage(t *testing.T, conn *websocket.Conn, sender, content string) {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"sender": sender, "content": content})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))
}

// readBroadcast reads the next broadcast frame with a deadline.
func readBroadcast(t *testing.T, conn *websocket.Conn, timeout time.Duration) messagePayload {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg messagePayload
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

// decodeError reads an error body from a response.
func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body errorResponse
	if err := json.Unmarshal(bytes.TrimSpace(data), &body); err != nil {
		return string(data)
	}
	return body.Error
}

// waitForHistory polls the first history page until the room holds at
// least n messages or the deadline passes.
func waitForHistory(t *testing.T, roomID string, n int, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		msgs := mustGetMessages(t, roomID, -1, -1)
		if len(msgs) >= n {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("room %s never reached %d messages", roomID, n)
}
