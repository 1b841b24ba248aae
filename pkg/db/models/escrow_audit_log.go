package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendaria/vendaria-backend/pkg/enums"
)

// EscrowAuditLog records one escrow mutation for compliance review.
type EscrowAuditLog struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EscrowID   uuid.UUID          `gorm:"column:escrow_id;type:uuid;not null;index"`
	FromStatus enums.EscrowStatus `gorm:"column:from_status;type:escrow_status;not null"`
	ToStatus   enums.EscrowStatus `gorm:"column:to_status;type:escrow_status;not null"`
	Note       string             `gorm:"column:note;not null"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}
