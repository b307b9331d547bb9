package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dentalclinic-backend/models"

	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DigestSent   = "sent"
	DigestFailed = "failed"
	DigestLogged = "logged"
)

var ErrNoPhone = errors.New("user has no phone number")

// Notifier delivers a short text message.
type Notifier interface {
	Channel() string
	Send(ctx context.Context, to, body string) error
}

// TwilioNotifier sends SMS through the Twilio REST API.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioNotifier(accountSID, authToken, from string) *TwilioNotifier {
	return &TwilioNotifier{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

func (n *TwilioNotifier) Channel() string { return "sms" }

func (n *TwilioNotifier) Send(ctx context.Context, to, body string) error {
	if to == "" {
		return ErrNoPhone
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.from)
	params.SetBody(body)

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	return nil
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("digest")}
}

func (n *LogNotifier) Channel() string { return "log" }

func (n *LogNotifier) Send(ctx context.Context, to, body string) error {
	n.logger.Info("Digest", zap.String("to", to), zap.String("body", body))
	return nil
}

// DigestService sends each opted-in clinic its end-of-day summary.
type DigestService struct {
	db        *gorm.DB
	summaries *SummaryService
	notifier  Notifier
	logger    *zap.Logger
	cron      *cron.Cron
}

func NewDigestService(db *gorm.DB, notifier Notifier, logger *zap.Logger) *DigestService {
	return &DigestService{
		db:        db,
		summaries: NewSummaryService(db),
		notifier:  notifier,
		logger:    logger.Named("digest"),
	}
}

// Start schedules SendAll on spec (standard five-field cron syntax).
func (s *DigestService) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.SendAll(context.Background(), time.Now()); err != nil {
			s.logger.Error("Digest run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("Digest scheduler started", zap.String("schedule", spec))
	return nil
}

// Stop waits for a running job to finish.
func (s *DigestService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// SendAll sends the digest for day to every user with digests enabled and
// returns how many were delivered.
func (s *DigestService) SendAll(ctx context.Context, day time.Time) (int, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("digest_enabled = ?", true).Find(&users).Error; err != nil {
		return 0, fmt.Errorf("failed to load users: %w", err)
	}

	sent := 0
	for i := range users {
		entry, err := s.SendFor(ctx, &users[i], day)
		if err != nil {
			s.logger.Error("Digest failed", zap.String("user_id", users[i].ID.String()), zap.Error(err))
			continue
		}
		if entry.Status != DigestFailed {
			sent++
		}
	}
	s.logger.Info("Digest run completed", zap.Int("users", len(users)), zap.Int("sent", sent))
	return sent, nil
}

// SendFor delivers one user's digest and records the attempt.
func (s *DigestService) SendFor(ctx context.Context, user *models.User, day time.Time) (*models.DigestLog, error) {
	summary, err := s.summaries.Daily(ctx, user.ID, day)
	if err != nil {
		return nil, err
	}

	entry := &models.DigestLog{
		UserID:  user.ID,
		Day:     summary.Date,
		Channel: s.notifier.Channel(),
		Message: FormatDigest(user, summary),
		SentAt:  time.Now(),
	}

	if err := s.notifier.Send(ctx, user.Phone, entry.Message); err != nil {
		entry.Status = DigestFailed
		entry.ErrorMessage = err.Error()
	} else if entry.Channel == "log" {
		entry.Status = DigestLogged
	} else {
		entry.Status = DigestSent
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record digest: %w", err)
	}
	return entry, nil
}

// FormatDigest renders the one-line SMS body.
func FormatDigest(user *models.User, summary *DailySummary) string {
	name := user.ClinicName
	if name == "" {
		name = user.Name
	}
	return fmt.Sprintf("%s: %d visits, expected %d, collected %d, unpaid %d",
		name, summary.TotalVisits, summary.TotalExpected, summary.CollectedToday, summary.TotalUnpaidAmount)
}
