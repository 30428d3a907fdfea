package claims

import (
	"time"

	"github.com/voucherly/claim-uploader/internal/extraction"
)

// SlotsPerGroup is the number of voucher slots in every claim group.
const SlotsPerGroup = 4

// UploadedImage is an image file held by a voucher slot
type UploadedImage struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ClaimGroup holds up to four voucher images for one claim. Slot order is
// significant: slot i renders as "Voucher i+1".
type ClaimGroup struct {
	ClaimantID string                        `json:"claimant_id"`
	DocTypes   [SlotsPerGroup]string         `json:"doc_types"`
	Slots      [SlotsPerGroup]*UploadedImage `json:"slots"`
}

// NewClaimGroup returns an empty claim group with default document types
func NewClaimGroup() *ClaimGroup {
	return &ClaimGroup{
		DocTypes: [SlotsPerGroup]string{"receipt", "proof of payment", "", ""},
	}
}

// Session is the per-user upload state. Groups are append-only for the
// session's lifetime.
type Session struct {
	ID        string        `json:"id"`
	Groups    []*ClaimGroup `json:"groups"`
	CreatedAt time.Time     `json:"created_at"`
}

// VoucherResult is the extraction output for one uploaded voucher
type VoucherResult struct {
	GroupLabel   string                `json:"group_label"`
	VoucherLabel string                `json:"voucher_label"`
	GroupIndex   int                   `json:"group_index"`
	SlotIndex    int                   `json:"slot_index"`
	ClaimantID   string                `json:"claimant_id,omitempty"`
	DocType      string                `json:"doc_type,omitempty"`
	Filename     string                `json:"filename"`
	Fields       extraction.FieldTable `json:"fields"`
}

// Submission is an archived snapshot of a submitted session
type Submission struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Groups    []ArchivedGroup `json:"groups"`
	Results   []VoucherResult `json:"results"`
	CreatedAt time.Time       `json:"created_at"`
}

// ArchivedGroup records the stored files for one claim group. Files[i] is the
// storage filename for slot i, or "" when the slot was empty.
type ArchivedGroup struct {
	ClaimantID string                `json:"claimant_id,omitempty"`
	DocTypes   [SlotsPerGroup]string `json:"doc_types"`
	Files      [SlotsPerGroup]string `json:"files"`
}
