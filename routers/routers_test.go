package routers

import (
	"bytes"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	"garuda/config"
	"garuda/database"
	"garuda/middleware"
	"garuda/models"
	"garuda/models/academy"
	"garuda/models/community"
	"garuda/services/payment"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func setup(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	cfg := config.FromEnv()
	cfg.JWTKey = "test-secret"
	cfg.LogLevel = "silent"
	cfg.SaltRound = 4
	config.AppConfig = cfg

	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.Database = database.DbInstance{Db: db}

	return NewApp(cfg), db
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = sonic.Unmarshal(raw, &env)
	return resp.StatusCode, env
}

func user(t *testing.T, db *gorm.DB, email, role string) (models.User, string) {
	t.Helper()
	u := models.User{Name: email, Email: email, Password: "x", Role: role, ReferralCode: "GA" + email[:3], IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	require.NoError(t, middleware.GrantDefaultPermissions(db, u.ID, role))
	token, err := middleware.GenerateJWT(u.ID, role, email)
	require.NoError(t, err)
	return u, token
}

func TestHealth(t *testing.T) {
	app, _ := setup(t)
	code, env := call(t, app, fiber.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.True(t, env.Status)
}

func TestSignupLoginAndMe(t *testing.T) {
	app, db := setup(t)

	signup := map[string]string{
		"name":     "Ayu Lestari",
		"email":    "Ayu@Example.com",
		"mobile":   "081234567890",
		"password": "rahasia123",
	}
	code, env := call(t, app, fiber.MethodPost, "/auth/signup", "", signup)
	require.Equal(t, fiber.StatusCreated, code, env.Message)

	var stored models.User
	require.NoError(t, db.Where("email = ?", "ayu@example.com").First(&stored).Error)
	assert.Equal(t, models.RoleParticipant, stored.Role)
	assert.NotEmpty(t, stored.ReferralCode)

	code, _ = call(t, app, fiber.MethodPost, "/auth/signup", "", signup)
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = call(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "ayu@example.com", "password": "salah12345"})
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, env = call(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "ayu@example.com", "password": "rahasia123"})
	require.Equal(t, fiber.StatusOK, code, env.Message)
	token, _ := env.Data["token"].(string)
	require.NotEmpty(t, token)

	code, env = call(t, app, fiber.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.NotNil(t, env.Data["permissions"])
}

func TestSignupValidation(t *testing.T) {
	app, _ := setup(t)
	code, env := call(t, app, fiber.MethodPost, "/auth/signup", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Data, "email")
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	app, _ := setup(t)
	code, _ := call(t, app, fiber.MethodGet, "/user/enrollments", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestAdminRoutesRejectParticipants(t *testing.T) {
	app, db := setup(t)
	_, token := user(t, db, "budi@example.com", models.RoleParticipant)

	code, _ := call(t, app, fiber.MethodPost, "/admin/enrollments/duplicates/resolve", token, map[string]string{})
	assert.Equal(t, fiber.StatusForbidden, code)
}

func TestResolveDuplicates(t *testing.T) {
	app, db := setup(t)
	_, token := user(t, db, "admin@example.com", models.RoleAdmin)

	rows := []academy.Enrollment{
		{UserID: 9, ProgramID: 3, Email: "dup@example.com", Status: academy.EnrollmentPending},
		{UserID: 9, ProgramID: 3, Email: "dup@example.com", Status: academy.EnrollmentCompleted},
		{UserID: 9, ProgramID: 3, Email: "dup@example.com", Status: academy.EnrollmentApproved},
		{UserID: 10, ProgramID: 3, Email: "solo@example.com", Status: academy.EnrollmentPending},
	}
	require.NoError(t, db.Create(&rows).Error)

	code, env := call(t, app, fiber.MethodGet, "/admin/enrollments/duplicates", token, nil)
	require.Equal(t, fiber.StatusOK, code, env.Message)
	assert.Len(t, env.Data["delete_ids"], 2)
	assert.Equal(t, []interface{}{float64(rows[1].ID)}, env.Data["keep_ids"])

	code, env = call(t, app, fiber.MethodPost, "/admin/enrollments/duplicates/resolve", token, map[string]string{})
	require.Equal(t, fiber.StatusOK, code, env.Message)
	assert.Len(t, env.Data["deleted"], 2)

	var left []academy.Enrollment
	require.NoError(t, db.Order("id").Find(&left).Error)
	require.Len(t, left, 2)
	assert.Equal(t, rows[1].ID, left[0].ID)
	assert.Equal(t, rows[3].ID, left[1].ID)

	code, env = call(t, app, fiber.MethodPost, "/admin/enrollments/duplicates/resolve", token, map[string]string{})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "No duplicate enrollments found.", env.Message)
}

func TestSubmitQuizMarksContentComplete(t *testing.T) {
	app, db := setup(t)
	learner, token := user(t, db, "citra@example.com", models.RoleParticipant)

	program := academy.Program{Title: "Public Speaking", Slug: "public-speaking", Status: academy.ProgramPublished}
	require.NoError(t, db.Create(&program).Error)
	class := academy.Class{ProgramID: program.ID, Name: "Batch 1", Status: academy.ClassOngoing}
	require.NoError(t, db.Create(&class).Error)
	content := academy.LearningContent{ClassID: class.ID, Title: "Kuis 1", ContentType: academy.ContentQuiz, IsPublished: true}
	require.NoError(t, db.Create(&content).Error)

	truth := "true"
	mc := academy.QuizQuestion{ContentID: content.ID, QuestionText: "Pick one", QuestionType: "multiple_choice", Points: 3,
		Options: []academy.QuizOption{{OptionText: "A", IsCorrect: true}, {OptionText: "B"}}}
	tf := academy.QuizQuestion{ContentID: content.ID, QuestionText: "True?", QuestionType: "true_false", Points: 1, CorrectAnswer: &truth}
	require.NoError(t, db.Create(&mc).Error)
	require.NoError(t, db.Create(&tf).Error)

	// not enrolled yet
	code, _ := call(t, app, fiber.MethodGet, "/contents/"+itoa(content.ID)+"/quiz", token, nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	require.NoError(t, db.Create(&academy.Enrollment{UserID: learner.ID, ProgramID: program.ID, Email: learner.Email, Status: academy.EnrollmentApproved}).Error)

	code, env := call(t, app, fiber.MethodGet, "/contents/"+itoa(content.ID)+"/quiz", token, nil)
	require.Equal(t, fiber.StatusOK, code, env.Message)

	submit := map[string]interface{}{
		"answers": []map[string]interface{}{
			{"question_id": mc.ID, "selected_option_id": mc.Options[0].ID},
			{"question_id": tf.ID, "answer_text": "false"},
		},
	}
	code, env = call(t, app, fiber.MethodPost, "/contents/"+itoa(content.ID)+"/quiz/submit", token, submit)
	require.Equal(t, fiber.StatusOK, code, env.Message)
	assert.Equal(t, "Quiz passed!", env.Message)
	result := env.Data["result"].(map[string]interface{})
	assert.Equal(t, float64(75), result["percentage"])

	var done int64
	require.NoError(t, db.Model(&academy.ContentProgress{}).
		Where("user_id = ? AND content_id = ?", learner.ID, content.ID).Count(&done).Error)
	assert.Equal(t, int64(1), done)
}

func publishedProgram(t *testing.T, db *gorm.DB, slug string, price int64) academy.Program {
	t.Helper()
	p := academy.Program{Title: slug, Slug: slug, Price: price, Status: academy.ProgramPublished}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func idOf(t *testing.T, env envelope) uint {
	t.Helper()
	id, ok := env.Data["id"].(float64)
	require.True(t, ok, "response has no id")
	return uint(id)
}

func TestEnrollRejectsSecondActiveEnrollment(t *testing.T) {
	app, db := setup(t)
	learner, token := user(t, db, "dewi@example.com", models.RoleParticipant)
	program := publishedProgram(t, db, "data-analyst", 1500000)

	code, env := call(t, app, fiber.MethodPost, "/programs/"+itoa(program.ID)+"/enroll", token, map[string]interface{}{})
	require.Equal(t, fiber.StatusCreated, code, env.Message)
	assert.Equal(t, string(academy.EnrollmentPending), env.Data["status"])

	code, _ = call(t, app, fiber.MethodPost, "/programs/"+itoa(program.ID)+"/enroll", token, map[string]interface{}{})
	assert.Equal(t, fiber.StatusConflict, code)

	// an email-only registration from an import counts as the same participant
	other := publishedProgram(t, db, "ux-writing", 0)
	require.NoError(t, db.Create(&academy.Enrollment{ProgramID: other.ID, Email: "DEWI@example.com", Status: academy.EnrollmentApproved}).Error)
	code, _ = call(t, app, fiber.MethodPost, "/programs/"+itoa(other.ID)+"/enroll", token, map[string]interface{}{})
	assert.Equal(t, fiber.StatusConflict, code)

	var count int64
	require.NoError(t, db.Model(&academy.Enrollment{}).Where("user_id = ?", learner.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnrollRejectsFullClass(t *testing.T) {
	app, db := setup(t)
	_, first := user(t, db, "eka@example.com", models.RoleParticipant)
	_, second := user(t, db, "fajar@example.com", models.RoleParticipant)
	program := publishedProgram(t, db, "copywriting", 0)
	class := academy.Class{ProgramID: program.ID, Name: "Batch 1", Capacity: 1, Status: academy.ClassScheduled}
	require.NoError(t, db.Create(&class).Error)

	body := map[string]interface{}{"class_id": class.ID}
	code, env := call(t, app, fiber.MethodPost, "/programs/"+itoa(program.ID)+"/enroll", first, body)
	require.Equal(t, fiber.StatusCreated, code, env.Message)
	assert.Equal(t, string(academy.PaymentPaid), env.Data["payment_status"])

	code, env = call(t, app, fiber.MethodPost, "/programs/"+itoa(program.ID)+"/enroll", second, body)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Class is full!", env.Message)
}

func TestForumLockedThreadRejectsReplies(t *testing.T) {
	app, db := setup(t)
	learner, token := user(t, db, "gita@example.com", models.RoleParticipant)
	_, adminToken := user(t, db, "hadi@example.com", models.RoleAdmin)
	program := publishedProgram(t, db, "digital-marketing", 0)
	class := academy.Class{ProgramID: program.ID, Name: "Batch 1", Status: academy.ClassOngoing}
	require.NoError(t, db.Create(&class).Error)
	require.NoError(t, db.Create(&academy.Enrollment{UserID: learner.ID, ProgramID: program.ID, Email: learner.Email, Status: academy.EnrollmentApproved}).Error)

	code, env := call(t, app, fiber.MethodPost, "/classes/"+itoa(class.ID)+"/threads", token,
		map[string]string{"title": "Tugas minggu 1", "body": "Formatnya PDF atau DOCX?"})
	require.Equal(t, fiber.StatusCreated, code, env.Message)
	threadID := idOf(t, env)

	code, env = call(t, app, fiber.MethodPost, "/threads/"+itoa(threadID)+"/replies", token, map[string]string{"body": "Saya juga ingin tahu"})
	require.Equal(t, fiber.StatusCreated, code, env.Message)

	// participants cannot moderate
	code, _ = call(t, app, fiber.MethodPut, "/threads/"+itoa(threadID)+"/moderate", token, map[string]bool{"is_locked": true})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, env = call(t, app, fiber.MethodPut, "/threads/"+itoa(threadID)+"/moderate", adminToken, map[string]bool{"is_locked": true})
	require.Equal(t, fiber.StatusOK, code, env.Message)

	code, _ = call(t, app, fiber.MethodPost, "/threads/"+itoa(threadID)+"/replies", token, map[string]string{"body": "Masih boleh?"})
	assert.Equal(t, fiber.StatusConflict, code)

	var thread community.ForumThread
	require.NoError(t, db.First(&thread, threadID).Error)
	assert.Equal(t, 1, thread.ReplyCount)
}

func TestNewDefaultTemplateClearsOldDefault(t *testing.T) {
	app, db := setup(t)
	_, token := user(t, db, "indra@example.com", models.RoleAdmin)

	first := map[string]interface{}{"name": "Klasik", "title_text": "Sertifikat", "body_text": "Diberikan kepada {{name}}"}
	code, env := call(t, app, fiber.MethodPost, "/admin/certificates/templates", token, first)
	require.Equal(t, fiber.StatusCreated, code, env.Message)
	firstID := idOf(t, env)
	assert.Equal(t, true, env.Data["is_default"])

	second := map[string]interface{}{"name": "Modern", "title_text": "Sertifikat", "body_text": "Untuk {{name}} atas {{program}}", "is_default": true}
	code, env = call(t, app, fiber.MethodPost, "/admin/certificates/templates", token, second)
	require.Equal(t, fiber.StatusCreated, code, env.Message)
	secondID := idOf(t, env)

	var templates []academy.CertificateTemplate
	require.NoError(t, db.Where("is_default = ?", true).Find(&templates).Error)
	require.Len(t, templates, 1)
	assert.Equal(t, secondID, templates[0].ID)

	var old academy.CertificateTemplate
	require.NoError(t, db.First(&old, firstID).Error)
	assert.False(t, old.IsDefault)

	code, _ = call(t, app, fiber.MethodPost, "/admin/certificates/templates", token,
		map[string]interface{}{"name": "Tanpa nama", "title_text": "Sertifikat", "body_text": "Selamat"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
}

func TestCertificateRequestRejectsPendingOrIssued(t *testing.T) {
	app, db := setup(t)
	learner, token := user(t, db, "joko@example.com", models.RoleParticipant)
	program := publishedProgram(t, db, "excel-dasar", 0)

	ongoing := academy.Enrollment{UserID: learner.ID, ProgramID: program.ID, Email: learner.Email, Status: academy.EnrollmentApproved}
	done := academy.Enrollment{UserID: learner.ID, ProgramID: program.ID, Email: learner.Email, Status: academy.EnrollmentCompleted}
	issued := academy.Enrollment{UserID: learner.ID, ProgramID: program.ID, Email: learner.Email, Status: academy.EnrollmentCompleted}
	require.NoError(t, db.Create(&ongoing).Error)
	require.NoError(t, db.Create(&done).Error)
	require.NoError(t, db.Create(&issued).Error)
	require.NoError(t, db.Create(&academy.Certificate{
		UserID: learner.ID, ProgramID: program.ID, EnrollmentID: issued.ID, CertificateNumber: "GA-2025-000001",
	}).Error)

	code, _ := call(t, app, fiber.MethodPost, "/user/certificates/request", token, map[string]uint{"enrollment_id": ongoing.ID})
	assert.Equal(t, fiber.StatusConflict, code)

	code, env := call(t, app, fiber.MethodPost, "/user/certificates/request", token, map[string]uint{"enrollment_id": done.ID})
	require.Equal(t, fiber.StatusCreated, code, env.Message)
	assert.Equal(t, academy.CertificateRequestPending, env.Data["status"])

	code, env = call(t, app, fiber.MethodPost, "/user/certificates/request", token, map[string]uint{"enrollment_id": done.ID})
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "A request for this enrollment is already pending!", env.Message)

	code, env = call(t, app, fiber.MethodPost, "/user/certificates/request", token, map[string]uint{"enrollment_id": issued.ID})
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "A certificate was already issued for this enrollment!", env.Message)
}

func TestTicketReplySetsStatusBySender(t *testing.T) {
	app, db := setup(t)
	_, token := user(t, db, "kartika@example.com", models.RoleParticipant)
	_, adminToken := user(t, db, "lukman@example.com", models.RoleAdmin)

	code, env := call(t, app, fiber.MethodPost, "/support/ticket/create", token,
		map[string]string{"title": "Tidak bisa bayar", "message": "Halaman pembayaran kosong", "category": "BILLING"})
	require.Equal(t, fiber.StatusCreated, code, env.Message)
	ticketID := idOf(t, env)
	assert.Equal(t, models.TicketOpen, env.Data["status"])

	code, env = call(t, app, fiber.MethodPost, "/support/ticket/"+itoa(ticketID)+"/reply", adminToken, map[string]string{"message": "Sudah kami perbaiki, silakan coba lagi."})
	require.Equal(t, fiber.StatusOK, code, env.Message)
	assert.Equal(t, models.TicketPending, env.Data["status"])

	code, env = call(t, app, fiber.MethodPost, "/support/ticket/"+itoa(ticketID)+"/reply", token, map[string]string{"message": "Masih gagal."})
	require.Equal(t, fiber.StatusOK, code, env.Message)
	assert.Equal(t, models.TicketOpen, env.Data["status"])

	var stored models.SupportTicket
	require.NoError(t, db.First(&stored, ticketID).Error)
	assert.Equal(t, models.TicketOpen, stored.Status)
	assert.Len(t, stored.Messages, 3)
}

func TestMidtransNotificationWebhook(t *testing.T) {
	app, db := setup(t)
	const key = "SB-Mid-server-routers"
	e := academy.Enrollment{UserID: 4, ProgramID: 2, Email: "m@example.com", Amount: 750000}
	require.NoError(t, db.Create(&e).Error)
	orderID := payment.OrderID(e.ID)

	notification := map[string]string{
		"order_id":           orderID,
		"status_code":        "200",
		"gross_amount":       "750000.00",
		"transaction_status": "settlement",
		"transaction_id":     "3c4b1d2e-0f11-4a5b-8c9d-1e2f3a4b5c6d",
	}

	// no server key configured
	config.AppConfig.MidtransServerKey = ""
	notification["signature_key"] = payment.Signature(orderID, "200", "750000.00", "")
	code, _ := call(t, app, fiber.MethodPost, "/payments/midtrans/notification", "", notification)
	assert.Equal(t, fiber.StatusServiceUnavailable, code)

	config.AppConfig.MidtransServerKey = key
	notification["signature_key"] = "deadbeef"
	code, _ = call(t, app, fiber.MethodPost, "/payments/midtrans/notification", "", notification)
	assert.Equal(t, fiber.StatusForbidden, code)

	var stored academy.Enrollment
	require.NoError(t, db.First(&stored, e.ID).Error)
	assert.Equal(t, academy.PaymentUnpaid, stored.PaymentStatus)

	notification["signature_key"] = payment.Signature(orderID, "200", "750000.00", key)
	code, env := call(t, app, fiber.MethodPost, "/payments/midtrans/notification", "", notification)
	require.Equal(t, fiber.StatusOK, code, env.Message)
	assert.Equal(t, string(academy.PaymentPaid), env.Data["payment_status"])

	// a redelivery is acknowledged and changes nothing
	code, _ = call(t, app, fiber.MethodPost, "/payments/midtrans/notification", "", notification)
	assert.Equal(t, fiber.StatusOK, code)

	require.NoError(t, db.First(&stored, e.ID).Error)
	assert.Equal(t, academy.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, int64(750000), stored.PaidAmount)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

