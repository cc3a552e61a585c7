package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	"github.com/yourusername/mastery-api/internal/middleware"
	"github.com/yourusername/mastery-api/internal/service"
	"github.com/yourusername/mastery-api/pkg/auth"
)

const (
	studentID    uint = 1
	instructorID uint = 2
)

type testApp struct {
	router *gin.Engine
	store  *fakeStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := newFakeStore()
	topics, questions, progress, users := fakeTopics{store}, fakeQuestions{store}, fakeProgress{store}, fakeUsers{store}

	catalog := service.NewTopicCatalog(topics, nil, time.Minute)
	opts := service.DefaultQuizOptions()
	opts.RetryBackoff = 0
	quizService := service.NewQuizService(progress, questions, topics, catalog, nil, nil, opts)
	contentService := service.NewContentService(topics, questions, catalog)
	analyticsService := service.NewAnalyticsService(users, progress, catalog, nil)
	jwtService, err := auth.NewJWTService("handler-test-secret-key", 5, 60)
	require.NoError(t, err)
	authService, err := service.NewAuthService(users, jwtService)
	require.NoError(t, err)

	quizHandler := NewQuizHandler(quizService)
	contentHandler := NewContentHandler(contentService)
	analyticsHandler := NewAnalyticsHandler(analyticsService, catalog)
	authHandler := NewAuthHandler(authService)

	r := gin.New()
	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)

	student := r.Group("/api", asUser(studentID, entity.RoleStudent))
	student.GET("/quiz/start", quizHandler.StartQuiz)
	student.POST("/quiz/submit", quizHandler.SubmitAnswer)
	student.GET("/analytics/student-progress", analyticsHandler.StudentProgress)

	instructor := r.Group("/api/content", asUser(instructorID, entity.RoleInstructor))
	instructor.POST("/topic", contentHandler.CreateTopic)
	instructor.GET("/topics", contentHandler.ListTopics)
	instructor.POST("/question", contentHandler.CreateQuestion)
	instructor.GET("/questions/:topicId", middleware.ExtractUintParam("topicId", "topicID"), contentHandler.ListQuestions)
	instructor.POST("/questions/import", contentHandler.ImportQuestions)

	reports := r.Group("/api/analytics", asUser(instructorID, entity.RoleInstructor))
	reports.GET("/overview", analyticsHandler.Overview)
	reports.GET("/overview/export", analyticsHandler.ExportOverview)

	return &testApp{router: r, store: store}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

// seedCourse создает тему с двумя вопросами и запись прогресса студента
func (a *testApp) seedCourse(t *testing.T) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/content/topic", gin.H{"name": "Arithmetic", "subject": "Math", "order": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	for _, d := range []int{1, 2} {
		w = a.do(t, http.MethodPost, "/api/content/question", gin.H{
			"topicId": 1, "text": "q", "options": []string{"a", "b", "c", "d"},
			"correctAnswerIndex": 0, "difficulty": d, "explanation": "because",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	a.store.progress[studentID] = entity.NewStudentProgress(studentID)
}

// ============================================================================
// Тест: прохождение
// ============================================================================

func TestQuizFlow(t *testing.T) {
	app := newTestApp(t)
	app.seedCourse(t)

	w := app.do(t, http.MethodGet, "/api/quiz/start", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	question := decode(t, w)["question"].(map[string]interface{})
	assert.EqualValues(t, 1, question["id"])
	assert.Equal(t, "Arithmetic", question["topicName"])
	assert.NotContains(t, w.Body.String(), "correctAnswerIndex", "Ответ не раскрывается до проверки")
	assert.NotContains(t, w.Body.String(), "because")

	w = app.do(t, http.MethodPost, "/api/quiz/submit", gin.H{"questionId": 1, "answerIndex": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, true, resp["isCorrect"])
	assert.Equal(t, "because", resp["explanation"])
	assert.EqualValues(t, 0, resp["correctAnswerIndex"])
	assert.Equal(t, false, resp["quizOver"])
	assert.NotNil(t, resp["nextQuestion"])
}

func TestSubmitAnswer_Errors(t *testing.T) {
	app := newTestApp(t)
	app.seedCourse(t)

	testCases := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"нет answerIndex", gin.H{"questionId": 1}, http.StatusBadRequest},
		{"сломанное тело", "not an object", http.StatusBadRequest},
		{"индекс вне диапазона", gin.H{"questionId": 1, "answerIndex": 7}, http.StatusUnprocessableEntity},
		{"неизвестный вопрос", gin.H{"questionId": 99, "answerIndex": 0}, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := app.do(t, http.MethodPost, "/api/quiz/submit", tc.body)

			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestStartQuiz_NoProgressRecord(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/quiz/start", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ============================================================================
// Тест: контент
// ============================================================================

func TestCreateTopic_Conflict(t *testing.T) {
	app := newTestApp(t)
	app.seedCourse(t)

	w := app.do(t, http.MethodPost, "/api/content/topic", gin.H{"name": "Arithmetic", "order": 2})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodGet, "/api/content/topics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"order":1`)
}

func TestCreateQuestion_Errors(t *testing.T) {
	app := newTestApp(t)
	app.seedCourse(t)

	w := app.do(t, http.MethodPost, "/api/content/question", gin.H{
		"topicId": 9, "text": "q", "options": []string{"a", "b", "c", "d"}, "correctAnswerIndex": 0, "difficulty": 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodPost, "/api/content/question", gin.H{
		"topicId": 1, "text": "q", "options": []string{"a", "b"}, "correctAnswerIndex": 0, "difficulty": 1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = app.do(t, http.MethodPost, "/api/content/question", gin.H{
		"topicId": 1, "text": "q", "options": []string{"a", "b", "c", "d"}, "correctAnswerIndex": 0, "difficulty": 6,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestListQuestions_IncludesAnswers(t *testing.T) {
	app := newTestApp(t)
	app.seedCourse(t)

	w := app.do(t, http.MethodGet, "/api/content/questions/1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.EqualValues(t, 0, list[0]["correctAnswerIndex"])
	assert.EqualValues(t, 1, list[0]["difficulty"])

	assert.Equal(t, http.StatusBadRequest, app.do(t, http.MethodGet, "/api/content/questions/x", nil).Code)
}

func uploadWorkbook(t *testing.T, app *testApp, rows [][]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := service.QuestionImportHeaders()
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	xlsx, err := f.WriteToBuffer()
	require.NoError(t, err)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "questions.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/content/questions/import", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func TestImportQuestions(t *testing.T) {
	app := newTestApp(t)
	app.seedCourse(t)

	w := uploadWorkbook(t, app, [][]interface{}{
		{1, "5 - 2 = ?", "1", "2", "3", "4", 2, 3, ""},
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["imported"])
	assert.Len(t, app.store.questions, 3)
}

func TestImportQuestions_RowErrors(t *testing.T) {
	app := newTestApp(t)
	app.seedCourse(t)

	w := uploadWorkbook(t, app, [][]interface{}{
		{1, "ok", "1", "2", "3", "4", 0, 1, ""},
		{5, "unknown topic", "1", "2", "3", "4", 0, 1, ""},
	})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	rows := decode(t, w)["rows"].([]interface{})
	require.Len(t, rows, 1)
	assert.EqualValues(t, 3, rows[0].(map[string]interface{})["row"])
	assert.Len(t, app.store.questions, 2, "Ничего не импортировано")
}

func TestImportQuestions_MissingFile(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/content/questions/import", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ============================================================================
// Тест: отчёты и аутентификация
// ============================================================================

func TestAnalyticsAndExport(t *testing.T) {
	app := newTestApp(t)
	app.seedCourse(t)
	app.store.users = append(app.store.users,
		entity.User{ID: studentID, Username: "=cmd|calc", Role: entity.RoleStudent},
		entity.User{ID: instructorID, Username: "instructor1", Role: entity.RoleInstructor},
	)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/api/quiz/submit", gin.H{"questionId": 1, "answerIndex": 0}).Code)

	w := app.do(t, http.MethodGet, "/api/analytics/overview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var overview []service.StudentOverview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
	require.Len(t, overview, 1, "Только студенты")
	assert.Equal(t, 1, overview[0].Topics[0].Mastery)

	w = app.do(t, http.MethodGet, "/api/analytics/overview/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, w.Body.String(), "'=cmd|calc,1", "Формулы экранируются")

	w = app.do(t, http.MethodGet, "/api/analytics/overview/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"Студент", "Arithmetic"}, rows[0])

	assert.Equal(t, http.StatusBadRequest, app.do(t, http.MethodGet, "/api/analytics/overview/export?format=pdf", nil).Code)

	w = app.do(t, http.MethodGet, "/api/analytics/student-progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mastery":1`)
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/register", gin.H{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.NotEmpty(t, resp["token"])
	assert.Equal(t, entity.RoleStudent, resp["user"].(map[string]interface{})["role"])
	assert.NotContains(t, w.Body.String(), "secret1")
	_, provisioned := app.store.progress[1]
	assert.True(t, provisioned, "Студенту создана запись прогресса")

	assert.Equal(t, http.StatusConflict, app.do(t, http.MethodPost, "/api/auth/register", gin.H{"username": "alice", "password": "secret1"}).Code)
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "secret1"}).Code)
	assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "wrong-pass"}).Code)
	assert.Equal(t, http.StatusBadRequest, app.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "alice"}).Code)
}

func TestSanitizeForExcel(t *testing.T) {
	assert.Equal(t, "'=SUM(A1)", sanitizeForExcel("=SUM(A1)"))
	assert.Equal(t, "'@x", sanitizeForExcel("@x"))
	assert.Equal(t, "plain", sanitizeForExcel("plain"))
	assert.Equal(t, "", sanitizeForExcel(""))
	assert.False(t, strings.HasPrefix(sanitizeForExcel("Алгебра"), "'"))
}
