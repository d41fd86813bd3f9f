package enrollment

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"garuda/models"
	"garuda/models/academy"
	"garuda/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ImportColumns are the CSV headers read by Import. Only email and
// program_slug are required.
var ImportColumns = []string{"email", "name", "mobile", "program_slug", "status", "payment_status", "amount", "paid_amount", "created_at"}

var createdAtLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// ImportResult counts what Import did. Skipped maps the 1-based CSV line to the reason.
type ImportResult struct {
	Inserted     int
	UsersCreated int
	Skipped      map[int]string
}

// Import loads legacy registrations from CSV. Rows are inserted as they are,
// duplicates included, so the reconciler can resolve them afterwards.
// Unknown emails get a participant account with an unusable password.
func Import(ctx context.Context, db *gorm.DB, r io.Reader) (ImportResult, error) {
	res := ImportResult{Skipped: map[int]string{}}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return res, err
	}
	if len(records) < 2 {
		return res, errors.New("csv has no data rows")
	}

	headerIndex := make(map[string]int)
	for i, h := range records[0] {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"email", "program_slug"} {
		if _, ok := headerIndex[required]; !ok {
			return res, fmt.Errorf("csv is missing the %q column", required)
		}
	}

	db = db.WithContext(ctx)
	programs := map[string]academy.Program{}

	for i, row := range records[1:] {
		line := i + 2
		get := func(field string) string { return getField(row, headerIndex, field) }

		email := strings.ToLower(get("email"))
		if email == "" {
			res.Skipped[line] = "missing email"
			continue
		}

		slug := get("program_slug")
		program, ok := programs[slug]
		if !ok {
			if err := db.Where("slug = ? AND is_deleted = ?", slug, false).First(&program).Error; err != nil {
				res.Skipped[line] = fmt.Sprintf("unknown program %q", slug)
				continue
			}
			programs[slug] = program
		}

		e := academy.Enrollment{
			ProgramID:     program.ID,
			Email:         email,
			Status:        academy.EnrollmentStatus(strings.ToLower(get("status"))),
			PaymentStatus: academy.PaymentStatus(strings.ToLower(get("payment_status"))),
			Amount:        parseInt64(get("amount")),
			PaidAmount:    parseInt64(get("paid_amount")),
			Notes:         "imported",
		}
		if e.Status == "" {
			e.Status = academy.EnrollmentPending
		}
		if e.PaymentStatus == "" {
			e.PaymentStatus = academy.PaymentUnpaid
		}
		if !e.Status.Valid() || !e.PaymentStatus.Valid() {
			res.Skipped[line] = "invalid status"
			continue
		}
		if raw := get("created_at"); raw != "" {
			t, ok := parseCreatedAt(raw)
			if !ok {
				res.Skipped[line] = "invalid created_at"
				continue
			}
			e.CreatedAt = t
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			user, created, err := findOrCreateUser(tx, email, get("name"), get("mobile"))
			if err != nil {
				return err
			}
			if created {
				res.UsersCreated++
			}
			e.UserID = user.ID
			return tx.Create(&e).Error
		})
		if err != nil {
			res.Skipped[line] = err.Error()
			continue
		}
		res.Inserted++
	}

	return res, nil
}

func findOrCreateUser(tx *gorm.DB, email, name, mobile string) (models.User, bool, error) {
	var user models.User
	err := tx.Where("email = ?", email).First(&user).Error
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return user, false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(utils.GenerateReferralCode()+email), bcrypt.DefaultCost)
	if err != nil {
		return user, false, err
	}
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user = models.User{
		Name:         name,
		Email:        email,
		Mobile:       mobile,
		Role:         models.RoleParticipant,
		Password:     string(hash),
		ReferralCode: utils.GenerateReferralCode(),
		IsActive:     true,
	}
	if err := tx.Create(&user).Error; err != nil {
		return user, false, err
	}

	grants := make([]models.Permission, 0)
	for _, p := range models.DefaultPermissions(models.RoleParticipant) {
		grants = append(grants, models.Permission{UserID: user.ID, Role: models.RoleParticipant, Permission: p})
	}
	if err := tx.Create(&grants).Error; err != nil {
		return user, false, err
	}
	return user, true, nil
}

// getField safely gets a field from the row by header name
func getField(row []string, headerIndex map[string]int, field string) string {
	if idx, ok := headerIndex[field]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return val
}

func parseCreatedAt(s string) (time.Time, bool) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
