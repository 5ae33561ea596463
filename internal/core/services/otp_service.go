package services

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"geostaff-backend/internal/config"
)

// ============================================================
// OTP Service - one-time-passcode login codes
// ============================================================

// OTPEntry is a single live code for one phone number
type OTPEntry struct {
	Code      string
	ExpiresAt time.Time
	Attempts  int
}

// OTPStore abstracts the code storage so the in-memory table can be
// swapped for an external TTL cache. Implementations only need to be
// safe for concurrent use; operation-level locking lives in OTPService.
type OTPStore interface {
	Get(phone string) (*OTPEntry, bool)
	Put(phone string, entry *OTPEntry)
	Delete(phone string)
	DeleteExpired(now time.Time) int
}

// memoryOTPStore keeps live codes in a process-local map
type memoryOTPStore struct {
	mu      sync.RWMutex
	entries map[string]*OTPEntry
}

// NewMemoryOTPStore creates the default in-memory store
func NewMemoryOTPStore() OTPStore {
	return &memoryOTPStore{entries: make(map[string]*OTPEntry)}
}

func (s *memoryOTPStore) Get(phone string) (*OTPEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[phone]
	if !ok {
		return nil, false
	}
	copied := *entry
	return &copied, true
}

func (s *memoryOTPStore) Put(phone string, entry *OTPEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *entry
	s.entries[phone] = &copied
}

func (s *memoryOTPStore) Delete(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, phone)
}

func (s *memoryOTPStore) DeleteExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for phone, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			delete(s.entries, phone)
			removed++
		}
	}
	return removed
}

// OTPService manages issuance and verification of login codes. A single
// service-level mutex linearizes issue/verify/reissue, so a concurrent
// Issue always wins over an in-flight Verify and attempt-counter
// updates are never lost.
type OTPService struct {
	store OTPStore
	cfg   config.OTPConfig
	mu    sync.Mutex
	now   func() time.Time
}

// NewOTPService creates a new OTP service
func NewOTPService(store OTPStore, cfg config.OTPConfig) *OTPService {
	return &OTPService{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Issue generates a fresh code for a phone number, replacing any live
// entry. The previous code becomes unusable even if it had not expired.
func (s *OTPService) Issue(phone string) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := generateSecureCode(s.cfg.Length)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate OTP: %w", err)
	}

	expiresAt := s.now().Add(time.Duration(s.cfg.TTLMinutes) * time.Minute)
	s.store.Put(phone, &OTPEntry{
		Code:      code,
		ExpiresAt: expiresAt,
		Attempts:  0,
	})

	// SMS delivery is out of scope; the code is logged for operators
	log.Printf("📱 OTP for %s: %s (expires at %s)", phone, code, expiresAt.Format(time.RFC3339))

	return code, expiresAt, nil
}

// Reissue invalidates any outstanding code before creating a new one
func (s *OTPService) Reissue(phone string) (string, time.Time, error) {
	s.mu.Lock()
	s.store.Delete(phone)
	s.mu.Unlock()

	return s.Issue(phone)
}

// Verify checks a submitted code. It fails closed: no entry, an expired
// entry, or an exhausted attempt counter all return false. A correct
// match consumes the entry (single use). A mismatch increments the
// attempt counter; the entry survives until the next call after the
// final allowed failure, which then evicts it.
func (s *OTPService) Verify(phone, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.store.Get(phone)
	if !ok {
		return false
	}

	if s.now().After(entry.ExpiresAt) {
		s.store.Delete(phone)
		return false
	}

	if entry.Attempts >= s.cfg.MaxAttempts {
		s.store.Delete(phone)
		return false
	}

	if entry.Code == code {
		s.store.Delete(phone)
		return true
	}

	entry.Attempts++
	s.store.Put(phone, entry)
	return false
}

// Sweep removes all expired entries; invoked periodically by the cron
// scheduler
func (s *OTPService) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.store.DeleteExpired(s.now())
	if removed > 0 {
		log.Printf("🧹 Swept %d expired OTP entries", removed)
	}
	return removed
}

// generateSecureCode generates a cryptographically secure numeric code
func generateSecureCode(length int) (string, error) {
	result := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		result += fmt.Sprintf("%d", n.Int64())
	}
	return result, nil
}
