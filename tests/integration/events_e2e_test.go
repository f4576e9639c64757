package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/skriba-app/skriba-api/internal/document"
	"github.com/skriba-app/skriba-api/internal/dto"
	"github.com/skriba-app/skriba-api/internal/handler"
	"github.com/skriba-app/skriba-api/internal/notify"
	"github.com/skriba-app/skriba-api/internal/rubric"
	"github.com/skriba-app/skriba-api/internal/session"
	"github.com/skriba-app/skriba-api/internal/share"
)

type immediateScorer struct{}

func (immediateScorer) Grade(context.Context, string) (rubric.Candidate, error) {
	criteria := make(map[rubric.Kind]rubric.Criterion, len(rubric.Kinds()))
	for _, kind := range rubric.Kinds() {
		criteria[kind] = rubric.Criterion{Points: rubric.MaxPoints(kind)}
	}
	return rubric.Candidate{
		Criteria:   criteria,
		TotalScore: rubric.MaxTotal(),
		Feedback:   "Flawless.",
	}, nil
}

func startServer(t *testing.T) (string, *fiber.App) {
	t.Helper()

	logger := zerolog.Nop()
	hub := notify.NewHub(logger)
	notifier := notify.NewFanout(notify.NewLogNotifier(logger), hub)
	sessions := session.NewManager(immediateScorer{}, notifier, logger, 0)
	shareService := share.NewService(share.NopClipboard{}, notifier, "", logger)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	group := app.Group("/api/v1/sessions")
	handler.NewSessionHandler(sessions, document.NewIntake(), shareService, notifier, validator.New(validator.WithRequiredStructEnabled()), logger).Register(group, nil)
	handler.NewEventsHandler(sessions, hub, logger).Register(group)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	t.Cleanup(func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	})

	return "http://" + listener.Addr().String(), app
}

func createSession(t *testing.T, baseURL string) string {
	t.Helper()

	resp, err := http.Post(baseURL+"/api/v1/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var envelope struct {
		Data dto.SessionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotEmpty(t, envelope.Data.ID)
	return envelope.Data.ID
}

func TestEventsStreamDeliversGradingLifecycle(t *testing.T) {
	baseURL, _ := startServer(t)
	id := createSession(t, baseURL)

	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/sessions/" + id + "/events"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	// The subscription is registered after the upgrade response, give it a beat.
	time.Sleep(100 * time.Millisecond)

	body, err := json.Marshal(dto.TextUpdateRequest{Text: "An essay worth streaming about."})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, baseURL+"/api/v1/sessions/"+id+"/text", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	textResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	textResp.Body.Close()
	require.Equal(t, http.StatusOK, textResp.StatusCode)

	submitResp, err := http.Post(baseURL+"/api/v1/sessions/"+id+"/submit", "application/json", nil)
	require.NoError(t, err)
	submitResp.Body.Close()
	require.Equal(t, http.StatusAccepted, submitResp.StatusCode)

	states := make([]string, 0, 4)
	var toastKinds []string

	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var event notify.Event
		require.NoError(t, conn.ReadJSON(&event))
		require.Equal(t, id, event.SessionID)

		switch event.Type {
		case "state":
			states = append(states, event.State)
		case "toast":
			require.NotNil(t, event.Toast)
			toastKinds = append(toastKinds, string(event.Toast.Kind))
		}

		if len(toastKinds) > 0 && toastKinds[len(toastKinds)-1] == string(notify.ToastGradingComplete) {
			break
		}
	}

	require.Contains(t, states, "editing")
	require.Contains(t, states, "submitting")
	require.Contains(t, states, "result")
	require.Contains(t, toastKinds, string(notify.ToastGradingComplete))
}

func TestEventsStreamRejectsUnknownSession(t *testing.T) {
	baseURL, _ := startServer(t)

	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/sessions/nope/events"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(wsURL, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
