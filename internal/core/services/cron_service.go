package services

import (
	"log"

	"github.com/robfig/cron/v3"
)

// CronService runs scheduled maintenance jobs
type CronService struct {
	scheduler  *cron.Cron
	otpService *OTPService
}

// NewCronService creates a new cron service
func NewCronService(otpService *OTPService) *CronService {
	return &CronService{
		scheduler:  cron.New(),
		otpService: otpService,
	}
}

// Start registers and launches the scheduled jobs
func (s *CronService) Start() {
	// Expired OTP entries are also evicted lazily on verify; the sweep
	// keeps the table from accumulating codes nobody verifies.
	if _, err := s.scheduler.AddFunc("@every 5m", func() {
		s.otpService.Sweep()
	}); err != nil {
		log.Printf("❌ Failed to schedule OTP sweep: %v", err)
		return
	}

	s.scheduler.Start()
	log.Println("🚀 CronService started")
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.scheduler.Stop()
	<-ctx.Done()
	log.Println("🛑 CronService stopped")
}
