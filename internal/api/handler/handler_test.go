package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/service"
	pkgerrors "mentor-hub/server/pkg/errors"
	"mentor-hub/server/pkg/response"
	"mentor-hub/server/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.RegisterGin(); err != nil {
		panic(err)
	}
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.TokenResponse
	loginErr      error
	refreshResult *dto.TokenResponse
	refreshErr    error
	refreshGot    string
	logoutErr     error
	logoutJTI     string
	meResult      *dto.UserResponse
	meErr         error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, token string) (*dto.TokenResponse, error) {
	m.refreshGot = token
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.logoutJTI = jti
	return m.logoutErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}

// ── Mock BookingService ──

type mockBookingService struct {
	listResult []dto.BookingResponse
	listQuery  *dto.BookingListQuery
	result     *dto.BookingResponse
	err        error
	ics        []byte
}

func (m *mockBookingService) List(_ context.Context, _ string, q *dto.BookingListQuery) ([]dto.BookingResponse, error) {
	m.listQuery = q
	return m.listResult, m.err
}
func (m *mockBookingService) Get(_ context.Context, _, _ string) (*dto.BookingResponse, error) {
	return m.result, m.err
}
func (m *mockBookingService) UpdateStatus(_ context.Context, _, _ string, _ *dto.UpdateBookingStatusRequest) (*dto.BookingResponse, error) {
	return m.result, m.err
}
func (m *mockBookingService) UpdateNotes(_ context.Context, _, _ string, _ *dto.UpdateBookingNotesRequest) (*dto.BookingResponse, error) {
	return m.result, m.err
}
func (m *mockBookingService) CalendarFeed(_ context.Context, _ string) ([]byte, error) {
	return m.ics, m.err
}

// ── Mock PostService ──

type mockPostService struct {
	listResult []dto.PostResponse
	listTotal  int64
	result     *dto.PostResponse
	err        error
	upload     *dto.UploadResponse
	uploadName string
	uploadData []byte
}

func (m *mockPostService) List(_ context.Context, _ string, _ *dto.PostListQuery) ([]dto.PostResponse, int64, error) {
	return m.listResult, m.listTotal, m.err
}
func (m *mockPostService) Get(_ context.Context, _, _ string) (*dto.PostResponse, error) {
	return m.result, m.err
}
func (m *mockPostService) Create(_ context.Context, _ string, _ *dto.CreatePostRequest) (*dto.PostResponse, error) {
	return m.result, m.err
}
func (m *mockPostService) Update(_ context.Context, _, _ string, _ *dto.UpdatePostRequest) (*dto.PostResponse, error) {
	return m.result, m.err
}
func (m *mockPostService) Submit(_ context.Context, _, _ string) (*dto.PostResponse, error) {
	return m.result, m.err
}
func (m *mockPostService) Delete(_ context.Context, _, _ string) error { return m.err }
func (m *mockPostService) TogglePublish(_ context.Context, _, _ string) (*dto.PostResponse, error) {
	return m.result, m.err
}
func (m *mockPostService) ListTags(_ context.Context) ([]string, error) { return nil, m.err }
func (m *mockPostService) UploadThumbnail(_ context.Context, filename string, data []byte) (*dto.UploadResponse, error) {
	m.uploadName = filename
	m.uploadData = data
	return m.upload, m.err
}
func (m *mockPostService) ListSubmissions(_ context.Context, _ *dto.SubmissionListQuery) ([]dto.SubmissionResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockPostService) ReviewSubmission(_ context.Context, _, _ string, _ *dto.ReviewSubmissionRequest) (*dto.SubmissionResponse, error) {
	return nil, m.err
}

// ── Mock PreviewService ──

type mockPreviewService struct {
	closeFinal *string
	closeCalls int
	draft      *dto.PreviewDraftResponse
	err        error
}

func (m *mockPreviewService) Open(_ context.Context, _, postID string) (*dto.OpenPreviewResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.OpenPreviewResponse{SessionID: "s-1", PostID: postID, State: "open"}, nil
}
func (m *mockPreviewService) Push(_ context.Context, _, _, _ string) error { return m.err }
func (m *mockPreviewService) Render(_ context.Context, _, _ string) (*dto.PreviewRenderResponse, error) {
	return nil, m.err
}
func (m *mockPreviewService) Draft(_ context.Context, _, _ string) (*dto.PreviewDraftResponse, error) {
	return m.draft, m.err
}
func (m *mockPreviewService) Close(_ context.Context, _, _ string, final *string) (*dto.PreviewDraftResponse, error) {
	m.closeCalls++
	m.closeFinal = final
	return m.draft, m.err
}
func (m *mockPreviewService) ReapIdle(_ context.Context, _ time.Time) int { return 0 }
func (m *mockPreviewService) CloseAll(_ context.Context) int { return 0 }

// ── Mock EventService ──

type mockEventService struct {
	participant *dto.ParticipantResponse
	review      *dto.ReviewResponse
	ics         []byte
	icsName     string
	err         error
}

func (m *mockEventService) List(_ context.Context, _ *dto.EventListQuery) ([]dto.EventResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockEventService) Get(_ context.Context, _ string) (*dto.EventDetailResponse, error) {
	return nil, m.err
}
func (m *mockEventService) Create(_ context.Context, _ string, _ *dto.CreateEventRequest) (*dto.EventResponse, error) {
	return nil, m.err
}
func (m *mockEventService) Update(_ context.Context, _, _ string, _ *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	return nil, m.err
}
func (m *mockEventService) Delete(_ context.Context, _, _ string) error { return m.err }
func (m *mockEventService) UploadThumbnail(_ context.Context, _, _, _ string, _ []byte) (*dto.EventResponse, error) {
	return nil, m.err
}
func (m *mockEventService) Calendar(_ context.Context, _ string) ([]byte, string, error) {
	return m.ics, m.icsName, m.err
}
func (m *mockEventService) ListParticipants(_ context.Context, _ string, _ *dto.ParticipantListQuery) ([]dto.ParticipantResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockEventService) UpdateRegistrationStatus(_ context.Context, _ string, _ *dto.UpdateRegistrationStatusRequest) (*dto.ParticipantResponse, error) {
	return m.participant, m.err
}
func (m *mockEventService) ListReviews(_ context.Context, _ string, _ *dto.PaginationRequest) ([]dto.ReviewResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockEventService) DeleteReview(_ context.Context, _ string) error { return m.err }
func (m *mockEventService) Register(_ context.Context, _, _ string, _ *dto.RegisterEventRequest) (*dto.ParticipantResponse, error) {
	return m.participant, m.err
}
func (m *mockEventService) CancelRegistration(_ context.Context, _, _ string) error { return m.err }
func (m *mockEventService) SubmitReview(_ context.Context, _, _ string, _ *dto.SubmitReviewRequest) (*dto.ReviewResponse, error) {
	return m.review, m.err
}

// ── Mock CheckInService ──

type mockCheckInService struct {
	code      *dto.CheckInCodeResponse
	createReq *dto.CreateCheckInCodeRequest
	checkIn   *dto.CheckInResponse
	err       error
}

func (m *mockCheckInService) CreateCode(_ context.Context, _, _ string, req *dto.CreateCheckInCodeRequest) (*dto.CheckInCodeResponse, error) {
	m.createReq = req
	return m.code, m.err
}
func (m *mockCheckInService) ListCodes(_ context.Context, _ string) ([]dto.CheckInCodeResponse, error) {
	return nil, m.err
}
func (m *mockCheckInService) DeactivateCode(_ context.Context, _, _ string) (*dto.CheckInCodeResponse, error) {
	return m.code, m.err
}
func (m *mockCheckInService) DeleteCode(_ context.Context, _ string) error { return m.err }
func (m *mockCheckInService) CheckIn(_ context.Context, _ string, _ *dto.CheckInRequest) (*dto.CheckInResponse, error) {
	return m.checkIn, m.err
}
func (m *mockCheckInService) SweepExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	file  *dto.ExportFile
	err   error
	query *dto.ExportQuery
}

func (m *mockExportService) Fields() []dto.ExportFieldResponse {
	return []dto.ExportFieldResponse{{Key: "name", Label: "姓名", Category: "user"}}
}
func (m *mockExportService) ExportParticipants(_ context.Context, _ string, q *dto.ExportQuery) (*dto.ExportFile, error) {
	m.query = q
	return m.file, m.err
}

// ── Mock ProfileService ──

type mockProfileService struct {
	result *dto.MentorProfileResponse
	err    error
}

func (m *mockProfileService) GetMine(_ context.Context, _ string) (*dto.MentorProfileResponse, error) {
	return m.result, m.err
}
func (m *mockProfileService) SaveMine(_ context.Context, _ string, _ *dto.SaveMentorProfileRequest) (*dto.MentorProfileResponse, error) {
	return m.result, m.err
}
func (m *mockProfileService) GetPublic(_ context.Context, _ string) (*dto.MentorProfileResponse, error) {
	return m.result, m.err
}
func (m *mockProfileService) UploadAvatar(_ context.Context, _, _ string, _ []byte) (*dto.UploadResponse, error) {
	return nil, m.err
}

// ── Mock MentorRegistrationService ──

type mockMentorRegService struct {
	status *dto.MentorRegistrationStatusResponse
	result *dto.MentorRegistrationResponse
	err    error
}

func (m *mockMentorRegService) Status(_ context.Context, _ string) (*dto.MentorRegistrationStatusResponse, error) {
	return m.status, m.err
}
func (m *mockMentorRegService) Register(_ context.Context, _ string, _ *dto.MentorRegisterRequest) (*dto.MentorRegistrationResponse, error) {
	return m.result, m.err
}
func (m *mockMentorRegService) List(_ context.Context, _ *dto.MentorRegistrationListQuery) ([]dto.MentorRegistrationResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockMentorRegService) Review(_ context.Context, _, _ string, _ *dto.ReviewMentorRegistrationRequest) (*dto.MentorRegistrationResponse, error) {
	return m.result, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "mentor")
	c.Set("jti", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

// authed 注入认证信息后再执行 handler
func authed(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c)
		h(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func serve(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func assertStatusCode(t *testing.T, w *httptest.ResponseRecorder, wantStatus, wantCode int) {
	t.Helper()
	if w.Code != wantStatus {
		t.Errorf("期望 HTTP %d，实际 %d（%s）", wantStatus, w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp.Code != wantCode {
		t.Errorf("期望业务码 %d，实际 %d", wantCode, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.TokenResponse{
		AccessToken:  "test-access-token",
		RefreshToken: "test-refresh-token",
		ExpiresIn:    900,
	}}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{Email: "a@example.com", Password: "Test1234"}))

	assertStatusCode(t, w, http.StatusOK, 0)
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName {
			found = true
			if c.Value != "test-refresh-token" || !c.HttpOnly {
				t.Errorf("refresh cookie 设置错误: %+v", c)
			}
		}
	}
	if !found {
		t.Error("登录后应设置 refresh_token cookie")
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", strings.NewReader("invalid json"))

	assertStatusCode(t, w, http.StatusBadRequest, 10001)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{Email: "a@example.com", Password: "wrong"}))

	assertStatusCode(t, w, http.StatusUnauthorized, 11001)
}

func TestAuthHandler_Refresh_FromCookie(t *testing.T) {
	mock := &mockAuthService{refreshResult: &dto.TokenResponse{AccessToken: "new", RefreshToken: "new-refresh"}}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "cookie-refresh"})
	r.ServeHTTP(w, req)

	assertStatusCode(t, w, http.StatusOK, 0)
	if mock.refreshGot != "cookie-refresh" {
		t.Errorf("应使用 cookie 中的刷新令牌，实际 %q", mock.refreshGot)
	}
}

func TestAuthHandler_Refresh_Missing(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	w := serve(r, "POST", "/auth/refresh", jsonBody(map[string]string{}))

	assertStatusCode(t, w, http.StatusBadRequest, 10001)
}

func TestAuthHandler_Logout_PassesJTI(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/logout", authed(h.Logout))
	w := serve(r, "POST", "/auth/logout", nil)

	assertStatusCode(t, w, http.StatusOK, 0)
	if mock.logoutJTI != "test-jti" {
		t.Errorf("登出应传入当前 jti，实际 %q", mock.logoutJTI)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := gin.New()
	r.GET("/auth/me", h.GetCurrentUser)
	w := serve(r, "GET", "/auth/me", nil)

	assertStatusCode(t, w, http.StatusUnauthorized, 10002)
}

// ═══════════════════════════════════════════════════════════
// BookingHandler Tests
// ═══════════════════════════════════════════════════════════

func TestBookingHandler_List_PassesFilters(t *testing.T) {
	mock := &mockBookingService{listResult: []dto.BookingResponse{{ID: "b-1"}}}
	h := NewBookingHandler(mock)

	r := gin.New()
	r.GET("/bookings", authed(h.ListBookings))
	w := serve(r, "GET", "/bookings?search=alice&status=pending", nil)

	assertStatusCode(t, w, http.StatusOK, 0)
	if mock.listQuery == nil || mock.listQuery.Search != "alice" || mock.listQuery.Status != "pending" {
		t.Errorf("筛选参数未正确传递: %+v", mock.listQuery)
	}
}

func TestBookingHandler_List_InvalidStatus(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{})

	r := gin.New()
	r.GET("/bookings", authed(h.ListBookings))
	w := serve(r, "GET", "/bookings?status=archived", nil)

	assertStatusCode(t, w, http.StatusBadRequest, 10001)
}

func TestBookingHandler_UpdateStatus_PastDateRejectedByBinding(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{})

	r := gin.New()
	r.PUT("/bookings/:id/status", authed(h.UpdateStatus))
	past := "2020-01-01T10:00:00Z"
	w := serve(r, "PUT", "/bookings/b-1/status", jsonBody(dto.UpdateBookingStatusRequest{Status: "confirmed", ScheduledDate: &past}))

	assertStatusCode(t, w, http.StatusBadRequest, 10001)
}

func TestBookingHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrBookingNotFound, 404, 12001},
		{"ScheduleRequired", service.ErrBookingScheduleRequired, 400, 12003},
		{"SchedulePast", service.ErrBookingSchedulePast, 400, 12005},
		{"Completed", service.ErrBookingCompleted, 409, 12006},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBookingHandler(&mockBookingService{err: tt.err})

			r := gin.New()
			r.PUT("/bookings/:id/status", authed(h.UpdateStatus))
			w := serve(r, "PUT", "/bookings/b-1/status", jsonBody(dto.UpdateBookingStatusRequest{Status: "confirmed"}))

			assertStatusCode(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestBookingHandler_CalendarFeed(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{ics: []byte("BEGIN:VCALENDAR")})

	r := gin.New()
	r.GET("/calendar.ics", authed(h.CalendarFeed))
	w := serve(r, "GET", "/calendar.ics", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar") {
		t.Errorf("Content-Type 错误: %s", w.Header().Get("Content-Type"))
	}
}

// ═══════════════════════════════════════════════════════════
// PostHandler Tests
// ═══════════════════════════════════════════════════════════

func TestPostHandler_List_Paginated(t *testing.T) {
	mock := &mockPostService{listResult: []dto.PostResponse{{ID: "p-1", Status: "draft"}}, listTotal: 41}
	h := NewPostHandler(mock)

	r := gin.New()
	r.GET("/posts", authed(h.ListPosts))
	w := serve(r, "GET", "/posts?page=2&page_size=20", nil)

	assertStatusCode(t, w, http.StatusOK, 0)
	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.TotalPages != 3 || body.Data.Pagination.Page != 2 {
		t.Errorf("分页信息错误: %+v", body.Data.Pagination)
	}
}

func TestPostHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrPostNotFound, 404, 13001},
		{"NotEditable", service.ErrPostNotEditable, 409, 13002},
		{"StaleVersion", pkgerrors.ErrOptimisticLock, 409, 10006},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPostHandler(&mockPostService{err: tt.err})

			r := gin.New()
			r.PUT("/posts/:id", authed(h.UpdatePost))
			title := "新标题"
			w := serve(r, "PUT", "/posts/p-1", jsonBody(dto.UpdatePostRequest{Title: &title, Version: 1}))

			assertStatusCode(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestPostHandler_UploadThumbnail(t *testing.T) {
	mock := &mockPostService{upload: &dto.UploadResponse{URL: "https://cdn.example.com/a.webp"}}
	h := NewPostHandler(mock)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "cover.png")
	fw.Write([]byte("fake-image"))
	mw.Close()

	r := gin.New()
	r.POST("/posts/thumbnail", authed(h.UploadThumbnail))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/posts/thumbnail", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	assertStatusCode(t, w, http.StatusCreated, 0)
	if mock.uploadName != "cover.png" || string(mock.uploadData) != "fake-image" {
		t.Errorf("上传内容未正确传递: %s %q", mock.uploadName, mock.uploadData)
	}
}

func TestPostHandler_UploadThumbnail_MissingFile(t *testing.T) {
	h := NewPostHandler(&mockPostService{})

	r := gin.New()
	r.POST("/posts/thumbnail", authed(h.UploadThumbnail))
	w := serve(r, "POST", "/posts/thumbnail", nil)

	assertStatusCode(t, w, http.StatusBadRequest, 10001)
}

func TestPostHandler_UploadDisabled(t *testing.T) {
	h := NewPostHandler(&mockPostService{err: service.ErrUploadDisabled})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "cover.png")
	fw.Write([]byte("x"))
	mw.Close()

	r := gin.New()
	r.POST("/posts/thumbnail", authed(h.UploadThumbnail))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/posts/thumbnail", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	assertStatusCode(t, w, http.StatusServiceUnavailable, 20001)
}

// ═══════════════════════════════════════════════════════════
// PreviewHandler Tests
// ═══════════════════════════════════════════════════════════

func TestPreviewHandler_Close_WithoutBody(t *testing.T) {
	mock := &mockPreviewService{draft: &dto.PreviewDraftResponse{PostID: "p-1", Content: "pending"}}
	h := NewPreviewHandler(mock)

	r := gin.New()
	r.DELETE("/previews/:session_id", authed(h.ClosePreview))
	w := serve(r, "DELETE", "/previews/s-1", nil)

	assertStatusCode(t, w, http.StatusOK, 0)
	if mock.closeCalls != 1 || mock.closeFinal != nil {
		t.Errorf("无请求体时应以 nil 最终内容关闭: calls=%d final=%v", mock.closeCalls, mock.closeFinal)
	}
}

func TestPreviewHandler_Close_WithFinalContent(t *testing.T) {
	mock := &mockPreviewService{draft: &dto.PreviewDraftResponse{PostID: "p-1", Content: "final"}}
	h := NewPreviewHandler(mock)

	r := gin.New()
	r.DELETE("/previews/:session_id", authed(h.ClosePreview))
	final := "final"
	w := serve(r, "DELETE", "/previews/s-1", jsonBody(dto.ClosePreviewRequest{Content: &final}))

	assertStatusCode(t, w, http.StatusOK, 0)
	if mock.closeFinal == nil || *mock.closeFinal != "final" {
		t.Error("最终内容应传递给 service")
	}
}

func TestPreviewHandler_Open_Busy(t *testing.T) {
	h := NewPreviewHandler(&mockPreviewService{err: service.ErrPreviewBusy})

	r := gin.New()
	r.POST("/posts/:id/preview", authed(h.OpenPreview))
	w := serve(r, "POST", "/posts/p-1/preview", nil)

	assertStatusCode(t, w, http.StatusConflict, 14002)
}

// ═══════════════════════════════════════════════════════════
// EventHandler / CheckInHandler Tests
// ═══════════════════════════════════════════════════════════

func TestEventHandler_Register_NoBody(t *testing.T) {
	h := NewEventHandler(&mockEventService{participant: &dto.ParticipantResponse{RegistrationID: "r-1"}})

	r := gin.New()
	r.POST("/events/:id/registration", authed(h.Register))
	w := serve(r, "POST", "/events/ev-1/registration", nil)

	assertStatusCode(t, w, http.StatusCreated, 0)
}

func TestEventHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"EventNotFound", service.ErrEventNotFound, 404, 15001},
		{"NotOpen", service.ErrEventNotOpen, 409, 15004},
		{"Full", service.ErrEventFull, 409, 15005},
		{"Already", service.ErrAlreadyRegistered, 409, 15008},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewEventHandler(&mockEventService{err: tt.err})

			r := gin.New()
			r.POST("/events/:id/registration", authed(h.Register))
			w := serve(r, "POST", "/events/ev-1/registration", jsonBody(dto.RegisterEventRequest{}))

			assertStatusCode(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestEventHandler_SubmitReview_RatingOutOfRange(t *testing.T) {
	h := NewEventHandler(&mockEventService{})

	r := gin.New()
	r.POST("/events/:id/reviews", authed(h.SubmitReview))
	w := serve(r, "POST", "/events/ev-1/reviews", jsonBody(dto.SubmitReviewRequest{Rating: 6}))

	assertStatusCode(t, w, http.StatusBadRequest, 10001)
}

func TestEventHandler_SubmitReview_NotAttended(t *testing.T) {
	h := NewEventHandler(&mockEventService{err: service.ErrReviewNotAttended})

	r := gin.New()
	r.POST("/events/:id/reviews", authed(h.SubmitReview))
	w := serve(r, "POST", "/events/ev-1/reviews", jsonBody(dto.SubmitReviewRequest{Rating: 5}))

	assertStatusCode(t, w, http.StatusForbidden, 15010)
}

func TestEventHandler_Calendar(t *testing.T) {
	h := NewEventHandler(&mockEventService{ics: []byte("BEGIN:VCALENDAR"), icsName: "Go 分享会_20260520.ics"})

	r := gin.New()
	r.GET("/events/:id/calendar.ics", h.Calendar)
	w := serve(r, "GET", "/events/ev-1/calendar.ics", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "Go%20%E5%88%86%E4%BA%AB%E4%BC%9A_20260520.ics") {
		t.Errorf("文件名编码错误: %s", cd)
	}
}

func TestCheckInHandler_CreateCode_EmptyBody(t *testing.T) {
	mock := &mockCheckInService{code: &dto.CheckInCodeResponse{Code: "ABC234"}}
	h := NewCheckInHandler(mock)

	r := gin.New()
	r.POST("/events/:id/checkin-codes", authed(h.CreateCode))
	w := serve(r, "POST", "/events/ev-1/checkin-codes", nil)

	assertStatusCode(t, w, http.StatusCreated, 0)
	if mock.createReq == nil || mock.createReq.Code != nil {
		t.Error("空请求体应传入零值请求")
	}
}

func TestCheckInHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"CodeNotFound", service.ErrCheckInCodeNotFound, 404, 16001},
		{"Inactive", service.ErrCheckInCodeInactive, 400, 16002},
		{"Expired", service.ErrCheckInCodeExpired, 400, 16003},
		{"NotRegistered", service.ErrNotRegistered, 403, 16007},
		{"Cancelled", service.ErrRegistrationCancelled, 403, 16008},
		{"Already", service.ErrAlreadyCheckedIn, 409, 16009},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCheckInHandler(&mockCheckInService{err: tt.err})

			r := gin.New()
			r.POST("/checkin", authed(h.CheckIn))
			w := serve(r, "POST", "/checkin", jsonBody(dto.CheckInRequest{Code: "ABC234"}))

			assertStatusCode(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Success(t *testing.T) {
	mock := &mockExportService{file: &dto.ExportFile{
		Filename:    "Go 分享会_20260520_participants.csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte("\uFEFF姓名\n张三"),
	}}
	h := NewExportHandler(mock)

	r := gin.New()
	r.GET("/events/:id/export", h.ExportParticipants)
	w := serve(r, "GET", "/events/ev-1/export?fields=name,email&export_all=true", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;") {
		t.Error("缺少 Content-Disposition 下载头")
	}
	if !mock.query.ExportAll || mock.query.Fields != "name,email" {
		t.Errorf("导出参数未正确传递: %+v", mock.query)
	}
	if w.Body.String() != "\uFEFF姓名\n张三" {
		t.Errorf("响应体错误: %q", w.Body.String())
	}
}

func TestExportHandler_UnknownField(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportUnknownField})

	r := gin.New()
	r.GET("/events/:id/export", h.ExportParticipants)
	w := serve(r, "GET", "/events/ev-1/export?fields=salary", nil)

	assertStatusCode(t, w, http.StatusBadRequest, 17001)
}

func TestExportHandler_BadFormat(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	r := gin.New()
	r.GET("/events/:id/export", h.ExportParticipants)
	w := serve(r, "GET", "/events/ev-1/export?format=pdf", nil)

	assertStatusCode(t, w, http.StatusBadRequest, 10001)
}

// ═══════════════════════════════════════════════════════════
// Profile / MentorRegistration Tests
// ═══════════════════════════════════════════════════════════

func TestProfileHandler_SaveMine_StaleVersion(t *testing.T) {
	h := NewProfileHandler(&mockProfileService{err: pkgerrors.ErrOptimisticLock})

	r := gin.New()
	r.PUT("/profile", authed(h.SaveMine))
	w := serve(r, "PUT", "/profile", jsonBody(dto.SaveMentorProfileRequest{Version: 1}))

	assertStatusCode(t, w, http.StatusConflict, 10006)
}

func TestProfileHandler_GetPublic_NotFound(t *testing.T) {
	h := NewProfileHandler(&mockProfileService{err: service.ErrProfileNotFound})

	r := gin.New()
	r.GET("/mentors/:id", h.GetPublic)
	w := serve(r, "GET", "/mentors/m-1", nil)

	assertStatusCode(t, w, http.StatusNotFound, 18001)
}

func TestMentorRegistrationHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"Policy", service.ErrPolicyNotAgreed, 400, 19001},
		{"BioShort", service.ErrBioTooShort, 400, 19005},
		{"AlreadyMentor", service.ErrAlreadyMentor, 409, 19006},
		{"Pending", service.ErrRegistrationPending, 409, 19007},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMentorRegistrationHandler(&mockMentorRegService{err: tt.err})

			r := gin.New()
			r.POST("/mentor-registration", authed(h.Register))
			w := serve(r, "POST", "/mentor-registration", jsonBody(dto.MentorRegisterRequest{FullName: "张三"}))

			assertStatusCode(t, w, tt.wantStatus, tt.wantCode)
			if resp := parseResponse(w); resp.Message != tt.err.Error() {
				t.Errorf("应返回具体提示 %q，实际 %q", tt.err.Error(), resp.Message)
			}
		})
	}
}

func TestMentorRegistrationHandler_Review_BadDecision(t *testing.T) {
	h := NewMentorRegistrationHandler(&mockMentorRegService{})

	r := gin.New()
	r.PUT("/registrations/:id", authed(h.Review))
	w := serve(r, "PUT", "/registrations/r-1", jsonBody(map[string]string{"decision": "maybe"}))

	assertStatusCode(t, w, http.StatusBadRequest, 10001)
}
