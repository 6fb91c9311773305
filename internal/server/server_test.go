package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/auth"
	"github.com/spigell/hh-interviewer/internal/coach"
	"github.com/spigell/hh-interviewer/internal/generator"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/metrics"
	"github.com/spigell/hh-interviewer/internal/skills"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// scriptedGateway answers by operation so one gateway can drive every component.
type scriptedGateway struct {
	answers map[string]string
	errs    map[string]error
	delay   time.Duration
}

func (g *scriptedGateway) Generate(_ context.Context, prompt ai.Prompt) (string, error) {
	time.Sleep(g.delay)
	if err := g.errs[prompt.Operation]; err != nil {
		return "", err
	}
	if prompt.Operation == generator.OperationQuestion {
		return "Question: " + strings.TrimPrefix(prompt.Input, "Generate a question for the skill: "), nil
	}
	return g.answers[prompt.Operation], nil
}

type fixture struct {
	gateway *scriptedGateway
	server  *Server
	tokens  *auth.Tokens
	users   *auth.Users
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gw := &scriptedGateway{
		answers: map[string]string{
			skills.Operation:           `Sure! {"acknowledgment":"Thanks for the resume","key_skills":["Python","SQL"],"prompt":"Type start"}`,
			generator.OperationFeedback: "Solid answers",
			generator.OperationResume:   "JOHN DOE\nGo engineer",
		},
		errs: map[string]error{},
	}

	log := zap.NewNop()
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)

	extractor, err := skills.NewExtractor(gw, log)
	require.NoError(t, err)

	questions := generator.NewQuestions(gw, log)
	feedback := generator.NewFeedback(gw, log)
	store := interview.NewStore(func(string) *interview.Machine {
		return interview.NewMachine(questions, feedback, interview.Config{
			Rand:     interview.NewLockedSource(1),
			Observer: rec,
		})
	})

	users, err := auth.OpenUsers(filepath.Join(t.TempDir(), "users.json"), bcrypt.MinCost, log)
	require.NoError(t, err)
	tokens := auth.NewTokens(0)

	c := coach.New(coach.Options{
		Store:    store,
		Analyzer: extractor,
		Builder:  generator.NewResumeBuilder(gw, log),
		Rand:     interview.NewLockedSource(1),
		Observer: rec,
	}, log)

	srv := New(Config{AllowOrigins: []string{"http://localhost:3000"}}, Deps{
		Coach:    c,
		Users:    users,
		Tokens:   tokens,
		Gatherer: reg,
	}, log)

	return &fixture{gateway: gw, server: srv, tokens: tokens, users: users}
}

func (f *fixture) login(t *testing.T, user string) string {
	t.Helper()

	require.NoError(t, f.users.Register(user, "secret"))
	return f.tokens.Issue(user)
}

func (f *fixture) do(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename == "" {
		require.NoError(t, w.WriteField("file", content))
	} else {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestRegisterLoginAndCheckAuth(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, jsonRequest(t, http.MethodPost, "/register", credentials{Username: "alice", Password: "secret"}), "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = f.do(t, jsonRequest(t, http.MethodPost, "/register", credentials{Username: "alice", Password: "other"}), "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = f.do(t, jsonRequest(t, http.MethodPost, "/login", credentials{Username: "alice", Password: "wrong"}), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := f.do(t, jsonRequest(t, http.MethodPost, "/login", credentials{Username: "alice", Password: "secret"}), "")
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	_, body = f.do(t, httptest.NewRequest(http.MethodGet, "/check-auth", nil), token)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "alice", body["username"])

	rec, _ = f.do(t, httptest.NewRequest(http.MethodPost, "/logout", nil), token)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, body = f.do(t, httptest.NewRequest(http.MethodGet, "/check-auth", nil), token)
	assert.Equal(t, false, body["authenticated"])
}

func TestRoutesRequireAuth(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/chat", "/upload", "/build_resume"} {
		rec, body := f.do(t, jsonRequest(t, http.MethodPost, path, chatRequest{Message: "hi"}), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "Please log in to continue.", body["response"], path)
	}

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/status", nil), "bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInterviewFlow(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice")

	rec, body := f.do(t, jsonRequest(t, http.MethodPost, "/chat", chatRequest{Message: "hello"}), token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, interview.MsgUploadFirst, body["response"])
	assert.Nil(t, body["metrics"])
	assert.Nil(t, body["tips"])

	rec, body = f.do(t, uploadRequest(t, "cv.txt", "Python and SQL developer"), token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Thanks for the resume\n\n**Key Skills**:\n- Python\n- SQL\n\nType start", body["response"])

	rec, body = f.do(t, jsonRequest(t, http.MethodPost, "/chat", chatRequest{Message: "maybe"}), token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, interview.MsgConfirm, body["response"])
	assert.Nil(t, body["metrics"])

	_, body = f.do(t, jsonRequest(t, http.MethodPost, "/chat", chatRequest{Message: "start"}), token)
	assert.Equal(t, "Question: Python", body["response"])
	assert.Equal(t, "interview", body["stage"])
	assert.NotNil(t, body["metrics"])
	assert.NotEmpty(t, body["tips"])

	_, body = f.do(t, jsonRequest(t, http.MethodPost, "/chat", chatRequest{Message: "answer1"}), token)
	assert.Equal(t, "Question: SQL", body["response"])

	_, body = f.do(t, jsonRequest(t, http.MethodPost, "/chat", chatRequest{Message: "answer2"}), token)
	assert.Equal(t, "Solid answers", body["response"])
	assert.Equal(t, "completed", body["stage"])

	_, body = f.do(t, httptest.NewRequest(http.MethodGet, "/status", nil), token)
	assert.Equal(t, "completed", body["stage"])
	assert.EqualValues(t, 2, body["total_questions_asked"])
	assert.Equal(t, []any{"answer1", "answer2"}, body["responses"])
}

func TestUploadErrors(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice")

	cases := []struct {
		name   string
		req    *http.Request
		status int
		text   string
	}{
		{name: "no file", req: jsonRequest(t, http.MethodPost, "/upload", map[string]string{}), status: http.StatusBadRequest, text: "No file uploaded."},
		{name: "empty filename", req: uploadRequest(t, "", "content"), status: http.StatusBadRequest, text: "No file selected."},
		{name: "unsupported", req: uploadRequest(t, "cv.docx", "content"), status: http.StatusBadRequest, text: "Unsupported file format. Please upload a PDF or text file."},
		{name: "broken pdf", req: uploadRequest(t, "cv.pdf", "not a pdf"), status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := f.do(t, tc.req, token)
			assert.Equal(t, tc.status, rec.Code)
			if tc.text != "" {
				assert.Equal(t, tc.text, body["response"])
			}
			assert.Nil(t, body["metrics"])
		})
	}
}

func TestEmptyTextUploadHasNoSkills(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice")

	// Blank text never reaches the model.
	f.gateway.errs[skills.Operation] = errors.New("unexpected analysis call")

	rec, body := f.do(t, uploadRequest(t, "cv.txt", ""), token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["response"], skills.DefaultAcknowledgment)

	rec, body = f.do(t, jsonRequest(t, http.MethodPost, "/chat", map[string]string{"message": "start"}), token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, interview.MsgNoSkills, body["response"])
	assert.Equal(t, "analysis", body["stage"])
}

func TestUploadModelFailures(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice")

	f.gateway.answers[skills.Operation] = "I cannot answer in JSON today."
	rec, body := f.do(t, uploadRequest(t, "cv.txt", "resume"), token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["response"], "did not contain valid JSON")

	f.gateway.answers[skills.Operation] = "{bad json}"
	rec, body = f.do(t, uploadRequest(t, "cv.txt", "resume"), token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["response"], "Error parsing JSON")

	f.gateway.errs[skills.Operation] = &ai.CallError{Operation: skills.Operation, Err: errors.New("quota")}
	rec, _ = f.do(t, uploadRequest(t, "cv.txt", "resume"), token)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	f.gateway.errs[skills.Operation] = &ai.CallError{Operation: skills.Operation, Timeout: true}
	rec, _ = f.do(t, uploadRequest(t, "cv.txt", "resume"), token)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestChatGatewayFailure(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice")

	rec, _ := f.do(t, uploadRequest(t, "cv.txt", "resume"), token)
	require.Equal(t, http.StatusOK, rec.Code)

	f.gateway.errs[generator.OperationQuestion] = &ai.CallError{Operation: generator.OperationQuestion, Timeout: true}
	rec, body := f.do(t, jsonRequest(t, http.MethodPost, "/chat", chatRequest{Message: "start"}), token)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, body["response"], "Error generating question")
	assert.Equal(t, "analysis", body["stage"])

	delete(f.gateway.errs, generator.OperationQuestion)
	_, body = f.do(t, jsonRequest(t, http.MethodPost, "/chat", chatRequest{Message: "start"}), token)
	assert.Equal(t, "Question: Python", body["response"])
}

func TestBuildResume(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice")

	rec, body := f.do(t, jsonRequest(t, http.MethodPost, "/build_resume", resumeRequest{Input: "  "}), token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No input provided for resume generation.", body["response"])

	rec, body = f.do(t, jsonRequest(t, http.MethodPost, "/build_resume", resumeRequest{Input: "John Doe, Go"}), token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "JOHN DOE\nGo engineer", body["response"])
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	token := f.login(t, "alice")
	f.do(t, uploadRequest(t, "cv.txt", "resume"), token)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hh_interviewer_resume_uploads_total{outcome="success"} 1`)
}

func TestWebSocketChat(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice")

	rec, _ := f.do(t, uploadRequest(t, "cv.txt", "resume"), token)
	require.Equal(t, http.StatusOK, rec.Code)

	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(chatRequest{Message: "start"}))

	var payload map[string]any
	require.NoError(t, conn.ReadJSON(&payload))
	assert.Equal(t, "Question: Python", payload["response"])
	assert.NotNil(t, payload["metrics"])

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
}

func TestWebSocketSurvivesSlowTurns(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice")

	rec, _ := f.do(t, uploadRequest(t, "cv.txt", "resume"), token)
	require.Equal(t, http.StatusOK, rec.Code)

	f.server.wsWait = 100 * time.Millisecond
	f.gateway.delay = 300 * time.Millisecond

	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	for _, msg := range []string{"start", "answer1"} {
		require.NoError(t, conn.WriteJSON(chatRequest{Message: msg}))

		var payload map[string]any
		require.NoError(t, conn.ReadJSON(&payload), "turn %q", msg)
		assert.NotEmpty(t, payload["response"])
	}
}
