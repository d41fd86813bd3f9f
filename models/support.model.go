package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TicketOpen    = "OPEN"
	TicketPending = "PENDING"
	TicketClosed  = "CLOSED"
)

// TicketMessage is one entry of the conversation stored on the ticket.
type TicketMessage struct {
	Sender string `json:"sender"` // user, admin
	UserID uint   `json:"user_id"`
	Text   string `json:"text"`
	Time   string `json:"time"`
}

type SupportTicket struct {
	gorm.Model
	UserID    uint                               `json:"user_id" gorm:"index"`
	Title     string                             `json:"title"`
	Category  string                             `json:"category" gorm:"size:20;default:'GENERAL'"`
	Priority  string                             `json:"priority" gorm:"size:20;default:'MEDIUM'"`
	Status    string                             `json:"status" gorm:"size:20;default:'OPEN'"`
	Messages  datatypes.JSONSlice[TicketMessage] `json:"messages"`
	ClosedAt  *time.Time                         `json:"closed_at"`
	IsDeleted bool                               `json:"is_deleted" gorm:"default:false"`
}
