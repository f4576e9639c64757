package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
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

type stubScorer struct {
	candidate rubric.Candidate
	err       error
}

func (s *stubScorer) Grade(_ context.Context, _ string) (rubric.Candidate, error) {
	if s.err != nil {
		return rubric.Candidate{}, s.err
	}
	return s.candidate, nil
}

func validCandidate() rubric.Candidate {
	criteria := make(map[rubric.Kind]rubric.Criterion, len(rubric.Kinds()))
	for _, kind := range rubric.Kinds() {
		criteria[kind] = rubric.Criterion{}
	}
	criteria[rubric.KindStructure] = rubric.Criterion{Points: 3}

	return rubric.Candidate{
		Criteria:   criteria,
		TotalScore: 3,
		Feedback:   "A skeleton of an argument, but a well ordered one.",
	}
}

func newTestApp(t *testing.T, sc *stubScorer) *fiber.App {
	t.Helper()

	logger := zerolog.New(io.Discard)
	notifier := notify.NewLogNotifier(logger)
	sessions := session.NewManager(sc, notifier, logger, time.Hour)

	shareService := share.NewService(share.NopClipboard{}, notifier, "", logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	app := fiber.New()
	h := handler.NewSessionHandler(sessions, document.NewIntake(), shareService, notifier, validate, logger)
	h.Register(app.Group("/api/v1/sessions"), nil)

	return app
}

func createSession(t *testing.T, app *fiber.App) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool                `json:"success"`
		Data    dto.SessionResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.NotEmpty(t, response.Data.ID)
	require.Equal(t, "idle", response.Data.State)

	return response.Data.ID
}

func getSession(t *testing.T, app *fiber.App, id string) dto.SessionResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.SessionResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	return response.Data
}

func putText(t *testing.T, app *fiber.App, id, text string) *http.Response {
	t.Helper()

	body, err := json.Marshal(dto.TextUpdateRequest{Text: text})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/"+id+"/text", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestSessionHandler_GradingFlow(t *testing.T) {
	sc := &stubScorer{candidate: validCandidate()}
	app := newTestApp(t, sc)

	id := createSession(t, app)

	resp := putText(t, app, id, "Clear claim, two reasons, a closing thought.")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated struct {
		Data dto.SessionResponse `json:"data"`
	}
	decodeResponse(t, resp, &updated)
	require.Equal(t, "editing", updated.Data.State)
	require.Equal(t, 7, updated.Data.WordCount)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/submit", nil)
	submitResp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusAccepted, submitResp.StatusCode)

	require.Eventually(t, func() bool {
		return getSession(t, app, id).State == "result"
	}, time.Second, 10*time.Millisecond)

	snap := getSession(t, app, id)
	require.NotNil(t, snap.Result)
	require.Equal(t, 3, snap.Result.TotalScore)
	require.Equal(t, 35, snap.Result.MaxTotalScore)
	require.Equal(t, 9, snap.Result.Percentage)
	require.Len(t, snap.Result.Criteria, len(rubric.Kinds()))

	shareReq := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/share", nil)
	shareResp, err := app.Test(shareReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, shareResp.StatusCode)

	var shared struct {
		Data dto.ShareResponse `json:"data"`
	}
	decodeResponse(t, shareResp, &shared)
	require.Equal(t, "3/35 points, "+share.DefaultSuffix, shared.Data.Text)
	require.True(t, shared.Data.Copied)
}

func TestSessionHandler_GradingFailureSurfaced(t *testing.T) {
	sc := &stubScorer{err: errors.New("upstream unavailable")}
	app := newTestApp(t, sc)

	id := createSession(t, app)
	resp := putText(t, app, id, "Some essay text.")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/submit", nil)
	submitResp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusAccepted, submitResp.StatusCode)

	require.Eventually(t, func() bool {
		return getSession(t, app, id).State == "failed"
	}, time.Second, 10*time.Millisecond)

	snap := getSession(t, app, id)
	require.Contains(t, snap.FailureReason, "upstream unavailable")
	require.Nil(t, snap.Result)
}

func TestSessionHandler_EmptySubmitRejected(t *testing.T) {
	app := newTestApp(t, &stubScorer{candidate: validCandidate()})

	id := createSession(t, app)
	resp := putText(t, app, id, "   \n\t ")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/submit", nil)
	submitResp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, submitResp.StatusCode)

	require.Equal(t, "idle", getSession(t, app, id).State)
}

func TestSessionHandler_DocumentUpload(t *testing.T) {
	app := newTestApp(t, &stubScorer{candidate: validCandidate()})
	id := createSession(t, app)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "essay.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("An uploaded essay with six words."))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/document", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.SessionResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, "editing", response.Data.State)
	require.Equal(t, 6, response.Data.WordCount)
}

func TestSessionHandler_DocumentUploadRejectsBinary(t *testing.T) {
	app := newTestApp(t, &stubScorer{candidate: validCandidate()})
	id := createSession(t, app)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "image.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n0000"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/document", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestSessionHandler_WritingMode(t *testing.T) {
	app := newTestApp(t, &stubScorer{candidate: validCandidate()})
	id := createSession(t, app)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/writing-mode", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/writing-mode", bytes.NewReader([]byte(`{"active":true}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.SessionResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Data.WritingMode)
	// The placeholder keeps the editor interactive but counts as blank.
	require.Equal(t, 0, response.Data.WordCount)
}

func TestSessionHandler_ShareWithoutResult(t *testing.T) {
	app := newTestApp(t, &stubScorer{candidate: validCandidate()})
	id := createSession(t, app)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/share", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestSessionHandler_ResetReturnsToIdle(t *testing.T) {
	app := newTestApp(t, &stubScorer{candidate: validCandidate()})
	id := createSession(t, app)

	resp := putText(t, app, id, "Soon to be discarded.")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/reset", nil)
	resetResp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resetResp.StatusCode)

	snap := getSession(t, app, id)
	require.Equal(t, "idle", snap.State)
	require.Equal(t, 0, snap.WordCount)
}

func TestSessionHandler_UnknownSession(t *testing.T) {
	app := newTestApp(t, &stubScorer{candidate: validCandidate()})

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/sessions/missing"},
		{http.MethodPost, "/api/v1/sessions/missing/submit"},
		{http.MethodDelete, "/api/v1/sessions/missing"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNotFound, resp.StatusCode, tc.path)
	}
}

func TestSessionHandler_Delete(t *testing.T) {
	app := newTestApp(t, &stubScorer{candidate: validCandidate()})
	id := createSession(t, app)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/"+id, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id, nil)
	getResp, err := app.Test(getReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, getResp.StatusCode)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}
