package claims

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	testSubmission := func(id string) *Submission {
		submission := &Submission{
			ID:        id,
			SessionID: "session-1",
			Groups: []ArchivedGroup{
				{
					ClaimantID: "EMP-042",
					DocTypes:   [SlotsPerGroup]string{"receipt", "proof of payment", "", ""},
				},
			},
			Results: []VoucherResult{
				{
					GroupLabel:   "Claim Group 1",
					VoucherLabel: "Voucher 1",
					Filename:     "lunch.jpg",
				},
			},
			CreatedAt: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
		}
		submission.Groups[0].Files[0] = id + "_0_0_lunch.jpg"
		return submission
	}

	Describe("SaveSubmission", func() {
		var (
			submission *Submission
			err        error
		)

		BeforeEach(func() {
			submission = testSubmission("test-id")
		})

		JustBeforeEach(func() {
			err = db.SaveSubmission(submission)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the submission to the database", func() {
				saved, getErr := db.GetSubmission("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("test-id"))
			})
		})
	})

	Describe("GetSubmission", func() {
		var (
			submissionID string
			submission   *Submission
			err          error
		)

		JustBeforeEach(func() {
			submission, err = db.GetSubmission(submissionID)
		})

		When("submission exists", func() {
			BeforeEach(func() {
				submissionID = "test-id"
				Expect(db.SaveSubmission(testSubmission("test-id"))).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the correct submission ID", func() {
				Expect(submission.ID).To(Equal("test-id"))
			})

			It("should return the archived groups", func() {
				Expect(submission.Groups).To(HaveLen(1))
				Expect(submission.Groups[0].ClaimantID).To(Equal("EMP-042"))
				Expect(submission.Groups[0].Files[0]).To(Equal("test-id_0_0_lunch.jpg"))
			})

			It("should return the extraction results", func() {
				Expect(submission.Results).To(HaveLen(1))
				Expect(submission.Results[0].VoucherLabel).To(Equal("Voucher 1"))
			})
		})

		When("submission does not exist", func() {
			var expectedErr error

			BeforeEach(func() {
				submissionID = "nonexistent"
				expectedErr = errors.New("submission not found: nonexistent")
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(expectedErr))
			})
		})
	})

	Describe("ListSubmissions", func() {
		var (
			submissions []*Submission
			err         error
		)

		JustBeforeEach(func() {
			submissions, err = db.ListSubmissions()
		})

		When("submissions exist", func() {
			BeforeEach(func() {
				Expect(db.SaveSubmission(testSubmission("id1"))).NotTo(HaveOccurred())
				Expect(db.SaveSubmission(testSubmission("id2"))).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return all submissions", func() {
				Expect(submissions).To(HaveLen(2))
			})
		})

		When("no submissions exist", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an empty list", func() {
				Expect(submissions).To(BeEmpty())
			})
		})
	})

	Describe("Close", func() {
		It("should not return an error", func() {
			err := db.Close()
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
