package types

import "time"

type PromoStatus string

const (
	PromoActive   PromoStatus = "active"
	PromoReserved PromoStatus = "reserved"
	PromoUsed     PromoStatus = "used"
	PromoExpired  PromoStatus = "expired"
)

// PromoCode is a redeemable code and its redemption history.
type PromoCode struct {
	Code          string       `json:"code"`
	Type          string       `json:"type"`
	Status        PromoStatus  `json:"status"`
	MaxUses       int          `json:"maxUses"`
	UsedCount     int          `json:"usedCount"`
	EntitlementID string       `json:"entitlementId"`
	DurationDays  int          `json:"durationDays"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
	ReservedFor   *string      `json:"reservedFor,omitempty"`
	ReservedAt    *time.Time   `json:"reservedAt,omitempty"`
	CreatedBy     *string      `json:"createdBy,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	Redemptions   []Redemption `json:"redemptions"`
}

// Redemption is one append-only redemption record.
type Redemption struct {
	UsedBy            string    `json:"usedBy"`
	UsedAt            time.Time `json:"usedAt"`
	Success           bool      `json:"success"`
	RevenueCatGrantID *string   `json:"revenueCatGrantId"`
	ErrorMessage      *string   `json:"errorMessage"`
}

type RedeemPromoRequest struct {
	Code      string `json:"code" validate:"required"`
	AppUserID string `json:"appUserId,omitempty"`
}

type RedeemPromoResponse struct {
	Success       bool   `json:"success"`
	EntitlementID string `json:"entitlementId"`
	DurationDays  int    `json:"durationDays"`
}

type GeneratePromoRequest struct {
	EntitlementID string     `json:"entitlementId,omitempty"`
	DurationDays  int        `json:"durationDays,omitempty" validate:"gte=0"`
	MaxUses       int        `json:"maxUses,omitempty" validate:"gte=0"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Type          string     `json:"type,omitempty"`
}

type ReservePromoRequest struct {
	ReservedFor string `json:"reservedFor" validate:"required"`
}

type PromoListFilter struct {
	Status PromoStatus
	Limit  int
	// keyset cursor
	AfterCreatedAt *time.Time
	AfterCode      string
}

type PromoPage struct {
	Codes      []PromoCode `json:"codes"`
	NextCursor *string     `json:"nextCursor,omitempty"`
}

type AdminAuditEntry struct {
	Action     string
	AdminID    string
	AdminEmail string
	Details    map[string]any
}
