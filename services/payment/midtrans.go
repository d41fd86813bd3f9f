package payment

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"garuda/models"
	"garuda/models/academy"
	"garuda/utils/logger"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidAmount    = errors.New("invalid payment amount")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrUnknownOrder     = errors.New("unknown order id")
	ErrNotConfigured    = errors.New("payment gateway is not configured")
)

// SnapCreator is the subset of snap.Client used for checkout.
type SnapCreator interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// Gateway creates Snap checkouts and applies Midtrans notifications.
type Gateway struct {
	DB        *gorm.DB
	ServerKey string
	Snap      SnapCreator
}

// NewGateway builds a Gateway backed by a real Snap client.
func NewGateway(db *gorm.DB, serverKey string, production bool) *Gateway {
	var client snap.Client
	if production {
		client.New(serverKey, midtrans.Production)
	} else {
		client.New(serverKey, midtrans.Sandbox)
	}
	return &Gateway{DB: db, ServerKey: serverKey, Snap: &client}
}

type Customer struct {
	Name  string
	Email string
	Phone string
}

type Checkout struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	Amount      int64  `json:"amount"`
}

// OrderID builds "ENR-<enrollment id>-<8 hex>".
func OrderID(enrollmentID uint) string {
	return fmt.Sprintf("ENR-%d-%s", enrollmentID, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// ParseOrderID extracts the enrollment id from an order id made by OrderID.
func ParseOrderID(orderID string) (uint, error) {
	parts := strings.Split(orderID, "-")
	if len(parts) != 3 || parts[0] != "ENR" {
		return 0, ErrUnknownOrder
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return 0, ErrUnknownOrder
	}
	return uint(id), nil
}

// CreateCheckout requests a Snap token for the outstanding amount of an
// enrollment and stores the order id on it.
func (g *Gateway) CreateCheckout(ctx context.Context, e *academy.Enrollment, programTitle string, cust Customer) (Checkout, error) {
	if g.Snap == nil || g.ServerKey == "" {
		return Checkout{}, ErrNotConfigured
	}
	amount := e.Amount - e.PaidAmount
	if amount <= 0 {
		return Checkout{}, ErrInvalidAmount
	}

	orderID := OrderID(e.ID)
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: cust.Name,
			Email: cust.Email,
			Phone: cust.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       fmt.Sprintf("PRG-%d", e.ProgramID),
				Price:    amount,
				Qty:      1,
				Name:     truncate(programTitle, 50),
				Category: "PROGRAM",
			},
		},
	}

	resp, merr := g.Snap.CreateTransaction(req)
	if merr != nil {
		return Checkout{}, fmt.Errorf("midtrans: %s", merr.Message)
	}

	if err := g.DB.WithContext(ctx).Model(e).Update("payment_order_id", orderID).Error; err != nil {
		return Checkout{}, err
	}

	return Checkout{OrderID: orderID, Token: resp.Token, RedirectURL: resp.RedirectURL, Amount: amount}, nil
}

// Notification is the Midtrans HTTP notification payload.
type Notification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
}

// Signature is SHA512(order_id + status_code + gross_amount + server_key) in hex.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

// Verify checks the notification signature against the server key.
func (n Notification) Verify(serverKey string) bool {
	want := strings.ToLower(n.SignatureKey)
	return want != "" && want == Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
}

// MapStatus converts a Midtrans transaction status. ok is false for statuses
// that leave the payment status unchanged.
func MapStatus(transactionStatus, fraudStatus string) (academy.PaymentStatus, bool) {
	switch strings.ToLower(transactionStatus) {
	case "capture":
		if strings.EqualFold(fraudStatus, "challenge") {
			return "", false
		}
		return academy.PaymentPaid, true
	case "settlement":
		return academy.PaymentPaid, true
	case "refund":
		return academy.PaymentRefunded, true
	case "partial_refund":
		return academy.PaymentPartial, true
	}
	return "", false
}

// ApplyNotification verifies a notification and updates the matching
// enrollment. Paying promotes the enrollment's referral to PAID. A redelivered
// notification is acknowledged without changing the enrollment again.
func (g *Gateway) ApplyNotification(ctx context.Context, n Notification) (academy.Enrollment, error) {
	var e academy.Enrollment
	if g.ServerKey == "" {
		return e, ErrNotConfigured
	}
	if !n.Verify(g.ServerKey) {
		return e, ErrInvalidSignature
	}

	enrollmentID, err := ParseOrderID(n.OrderID)
	if err != nil {
		return e, err
	}

	log := logger.Component("payment").WithField("order_id", n.OrderID)

	err = g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&e, enrollmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownOrder
			}
			return err
		}

		status, ok := MapStatus(n.TransactionStatus, n.FraudStatus)
		if !ok {
			log.WithField("transaction_status", n.TransactionStatus).Info("notification leaves payment unchanged")
			return nil
		}

		gross := parseGross(n.GrossAmount)
		fresh, err := recordNotification(tx, e.ID, n, gross)
		if err != nil {
			return err
		}
		if !fresh {
			log.WithField("transaction_status", n.TransactionStatus).Info("duplicate notification ignored")
			return nil
		}

		paid := e.PaidAmount
		switch status {
		case academy.PaymentPaid:
			paid += gross
			if e.PaymentStatus == academy.PaymentPaid || paid > e.Amount {
				paid = e.Amount
			}
			if paid < e.Amount {
				status = academy.PaymentPartial
			}
		case academy.PaymentRefunded:
			paid = 0
		case academy.PaymentPartial:
			if paid-gross >= 0 {
				paid -= gross
			}
		}

		if err := tx.Model(&e).Updates(map[string]interface{}{
			"payment_status":   status,
			"paid_amount":      paid,
			"payment_order_id": n.OrderID,
		}).Error; err != nil {
			return err
		}
		e.PaymentStatus = status
		e.PaidAmount = paid
		e.PaymentOrderID = n.OrderID

		if status == academy.PaymentPaid {
			return tx.Model(&models.Referral{}).
				Where("referred_user_id = ? AND status <> ?", e.UserID, models.ReferralPaid).
				Updates(map[string]interface{}{
					"status":        models.ReferralPaid,
					"enrollment_id": e.ID,
				}).Error
		}
		return nil
	})
	if err != nil {
		return e, err
	}

	log.WithFields(map[string]interface{}{
		"enrollment_id":  e.ID,
		"payment_status": e.PaymentStatus,
		"paid_amount":    e.PaidAmount,
	}).Info("payment notification applied")
	return e, nil
}

// recordNotification inserts the ledger row for n. fresh is false when the
// same event was already applied.
func recordNotification(tx *gorm.DB, enrollmentID uint, n Notification, gross int64) (bool, error) {
	key := n.TransactionID
	if key == "" {
		key = n.OrderID
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&academy.PaymentNotification{
		EnrollmentID:      enrollmentID,
		OrderID:           n.OrderID,
		EventKey:          key,
		TransactionStatus: strings.ToLower(n.TransactionStatus),
		GrossAmount:       gross,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetManual sets the payment status by hand. Paid fills paid_amount and
// refunded clears it.
func (g *Gateway) SetManual(ctx context.Context, e *academy.Enrollment, status academy.PaymentStatus, paidAmount *int64) error {
	updates := map[string]interface{}{"payment_status": status}
	switch {
	case paidAmount != nil:
		updates["paid_amount"] = *paidAmount
	case status == academy.PaymentPaid:
		updates["paid_amount"] = e.Amount
	case status == academy.PaymentRefunded || status == academy.PaymentUnpaid:
		updates["paid_amount"] = int64(0)
	}

	return g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(e).Updates(updates).Error; err != nil {
			return err
		}
		if status != academy.PaymentPaid {
			return nil
		}
		return tx.Model(&models.Referral{}).
			Where("referred_user_id = ? AND status <> ?", e.UserID, models.ReferralPaid).
			Updates(map[string]interface{}{"status": models.ReferralPaid, "enrollment_id": e.ID}).Error
	})
}

func parseGross(s string) int64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f + 0.5)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
