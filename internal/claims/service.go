package claims

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/voucherly/claim-uploader/internal/extraction"
)

// IDGenerator generates unique IDs for sessions and submissions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles claim upload session operations
type Service struct {
	store       Store
	extractor   extraction.Extractor
	db          DB
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(store Store, extractor extraction.Extractor, db DB, storage Storage) *Service {
	return &Service{
		store:       store,
		extractor:   extractor,
		db:          db,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store Store, extractor extraction.Extractor, db DB, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		store:       store,
		extractor:   extractor,
		db:          db,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// NewSessionID generates an ID for a fresh session cookie
func (s *Service) NewSessionID() string {
	return s.idGenerator.Generate()
}

// Initialize returns the session for id, creating it with a single empty
// claim group when absent. Repeated calls never reset existing state.
func (s *Service) Initialize(id string) *Session {
	if session, ok := s.store.Get(id); ok {
		// Refresh expiry on every touch
		s.store.Put(session)
		return session
	}

	session := &Session{
		ID:        id,
		Groups:    []*ClaimGroup{NewClaimGroup()},
		CreatedAt: s.timeSource.Now(),
	}
	s.store.Put(session)
	return session
}

// AddGroup appends an empty claim group to the session. There is no upper
// bound on the number of groups.
func (s *Service) AddGroup(id string) *Session {
	session := s.Initialize(id)
	session.Groups = append(session.Groups, NewClaimGroup())
	s.store.Put(session)
	return session
}

// group validates indices and returns the addressed claim group
func (s *Service) group(session *Session, groupIdx, slotIdx int) (*ClaimGroup, error) {
	if groupIdx < 0 || groupIdx >= len(session.Groups) {
		return nil, fmt.Errorf("group index %d out of range (session has %d groups)", groupIdx, len(session.Groups))
	}
	if slotIdx < 0 || slotIdx >= SlotsPerGroup {
		return nil, fmt.Errorf("slot index %d out of range (groups have %d slots)", slotIdx, SlotsPerGroup)
	}
	return session.Groups[groupIdx], nil
}

// SetSlotImage replaces the image in slot (groupIdx, slotIdx). A nil image
// clears the slot. The overwrite is total: whatever the slot held before is
// discarded.
func (s *Service) SetSlotImage(id string, groupIdx, slotIdx int, img *UploadedImage) error {
	session := s.Initialize(id)
	group, err := s.group(session, groupIdx, slotIdx)
	if err != nil {
		return err
	}

	group.Slots[slotIdx] = img
	s.store.Put(session)
	return nil
}

// ClearSlotImage empties slot (groupIdx, slotIdx)
func (s *Service) ClearSlotImage(id string, groupIdx, slotIdx int) error {
	return s.SetSlotImage(id, groupIdx, slotIdx, nil)
}

// SetSlotDocType records the document type for slot (groupIdx, slotIdx)
func (s *Service) SetSlotDocType(id string, groupIdx, slotIdx int, docType string) error {
	session := s.Initialize(id)
	group, err := s.group(session, groupIdx, slotIdx)
	if err != nil {
		return err
	}

	group.DocTypes[slotIdx] = docType
	s.store.Put(session)
	return nil
}

// SetClaimant records the claimant ID for a group
func (s *Service) SetClaimant(id string, groupIdx int, claimantID string) error {
	session := s.Initialize(id)
	group, err := s.group(session, groupIdx, 0)
	if err != nil {
		return err
	}

	group.ClaimantID = claimantID
	s.store.Put(session)
	return nil
}

// Submit runs extraction over every uploaded voucher in order and returns
// the labeled results. It is a pure read pass: session state is unchanged
// and nothing is persisted. Empty slots produce no result.
func (s *Service) Submit(id string) ([]VoucherResult, error) {
	session := s.Initialize(id)

	results := make([]VoucherResult, 0)
	for groupIdx, group := range session.Groups {
		for slotIdx, img := range group.Slots {
			if img == nil {
				continue
			}

			fields, err := s.extractor.ExtractFields(img.Data, img.ContentType)
			if err != nil {
				slog.Error("Failed to extract voucher fields",
					"session_id", id,
					"group", groupIdx,
					"slot", slotIdx,
					"filename", img.Filename,
					"error", err,
				)
				return nil, fmt.Errorf("extracting group %d voucher %d: %w", groupIdx+1, slotIdx+1, err)
			}

			results = append(results, VoucherResult{
				GroupLabel:   fmt.Sprintf("Claim Group %d", groupIdx+1),
				VoucherLabel: fmt.Sprintf("Voucher %d", slotIdx+1),
				GroupIndex:   groupIdx,
				SlotIndex:    slotIdx,
				ClaimantID:   group.ClaimantID,
				DocType:      group.DocTypes[slotIdx],
				Filename:     img.Filename,
				Fields:       fields,
			})
		}
	}

	return results, nil
}

// sanitizeFilename cleans up a filename by removing special characters and
// truncating length. Phone cameras produce long, messy names.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "voucher"
	}

	return base + ext
}

// Archive runs a submission pass and persists the snapshot: image blobs go
// to storage, the record goes to the database. The live session is left
// untouched, so groups stay append-only.
func (s *Service) Archive(id string) (*Submission, error) {
	results, err := s.Submit(id)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no uploaded vouchers to archive")
	}

	session := s.Initialize(id)
	submissionID := s.idGenerator.Generate()
	now := s.timeSource.Now()

	groups := make([]ArchivedGroup, 0, len(session.Groups))
	var saved []string
	for groupIdx, group := range session.Groups {
		archived := ArchivedGroup{
			ClaimantID: group.ClaimantID,
			DocTypes:   group.DocTypes,
		}
		for slotIdx, img := range group.Slots {
			if img == nil {
				continue
			}

			name := fmt.Sprintf("%s_%d_%d_%s", submissionID, groupIdx, slotIdx, sanitizeFilename(img.Filename))
			savedPath, err := s.storage.Save(name, img.Data)
			if err != nil {
				s.cleanupFiles(saved)
				return nil, fmt.Errorf("saving voucher file: %w", err)
			}
			saved = append(saved, savedPath)
			archived.Files[slotIdx] = savedPath
		}
		groups = append(groups, archived)
	}

	submission := &Submission{
		ID:        submissionID,
		SessionID: session.ID,
		Groups:    groups,
		Results:   results,
		CreatedAt: now,
	}

	if err := s.db.SaveSubmission(submission); err != nil {
		s.cleanupFiles(saved)
		return nil, fmt.Errorf("saving submission to database: %w", err)
	}

	return submission, nil
}

// cleanupFiles removes stored blobs after a failed archive
func (s *Service) cleanupFiles(paths []string) {
	for _, path := range paths {
		if err := s.storage.Delete(path); err != nil {
			slog.Warn("Failed to delete file", "filename", path, "error", err)
		}
	}
}

// GetSubmission retrieves an archived submission by ID
func (s *Service) GetSubmission(id string) (*Submission, error) {
	submission, err := s.db.GetSubmission(id)
	if err != nil {
		return nil, fmt.Errorf("getting submission: %w", err)
	}
	return submission, nil
}

// ListSubmissions returns all archived submissions
func (s *Service) ListSubmissions() ([]*Submission, error) {
	submissions, err := s.db.ListSubmissions()
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	return submissions, nil
}

// GetSubmissionFile retrieves a stored voucher file belonging to a
// submission. The filename must be one the submission recorded.
func (s *Service) GetSubmissionFile(id, filename string) ([]byte, string, error) {
	submission, err := s.db.GetSubmission(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting submission: %w", err)
	}

	if !submissionHasFile(submission, filename) {
		return nil, "", fmt.Errorf("submission %s has no file %s", id, filename)
	}

	data, err := s.storage.Get(filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting voucher file: %w", err)
	}

	return data, contentTypeForFilename(filename), nil
}

func submissionHasFile(submission *Submission, filename string) bool {
	for _, group := range submission.Groups {
		for _, f := range group.Files {
			if f != "" && f == filename {
				return true
			}
		}
	}
	return false
}

func contentTypeForFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".heic":
		return "image/heic"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
