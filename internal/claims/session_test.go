package claims

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SessionStore", func() {
	var store *SessionStore

	BeforeEach(func() {
		store = NewSessionStore(DefaultSessionTTL)
	})

	Describe("Get", func() {
		When("the session exists", func() {
			BeforeEach(func() {
				store.Put(&Session{ID: "session-1"})
			})

			It("should return the session", func() {
				session, found := store.Get("session-1")
				Expect(found).To(BeTrue())
				Expect(session.ID).To(Equal("session-1"))
			})
		})

		When("the session does not exist", func() {
			It("should report not found", func() {
				session, found := store.Get("nonexistent")
				Expect(found).To(BeFalse())
				Expect(session).To(BeNil())
			})
		})
	})

	Describe("Put", func() {
		It("should overwrite an existing session", func() {
			store.Put(&Session{ID: "session-1"})
			updated := &Session{ID: "session-1", Groups: []*ClaimGroup{NewClaimGroup(), NewClaimGroup()}}
			store.Put(updated)

			session, found := store.Get("session-1")
			Expect(found).To(BeTrue())
			Expect(session.Groups).To(HaveLen(2))
		})
	})

	Describe("Delete", func() {
		It("should remove the session", func() {
			store.Put(&Session{ID: "session-1"})
			store.Delete("session-1")

			_, found := store.Get("session-1")
			Expect(found).To(BeFalse())
		})
	})

	Describe("expiry", func() {
		BeforeEach(func() {
			store = NewSessionStore(50 * time.Millisecond)
		})

		It("should drop sessions after the TTL", func() {
			store.Put(&Session{ID: "session-1"})

			Eventually(func() bool {
				_, found := store.Get("session-1")
				return found
			}, "1s", "20ms").Should(BeFalse())
		})

		It("should keep sessions that are touched before the TTL", func() {
			store.Put(&Session{ID: "session-1"})

			for i := 0; i < 3; i++ {
				time.Sleep(30 * time.Millisecond)
				session, found := store.Get("session-1")
				Expect(found).To(BeTrue())
				store.Put(session)
			}
		})
	})

	Describe("NewSessionStore", func() {
		When("the TTL is not positive", func() {
			It("should fall back to the default", func() {
				store = NewSessionStore(0)
				Expect(store.ttl).To(Equal(DefaultSessionTTL))
			})
		})
	})
})
