package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dentalclinic-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	sent []string
	fail error
}

func (n *recordingNotifier) Channel() string { return "sms" }

func (n *recordingNotifier) Send(ctx context.Context, to, body string) error {
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, to+"|"+body)
	return nil
}

func TestDigestSendAll(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.User{}).
		Where("id = ?", f.userID).
		Updates(map[string]interface{}{"digest_enabled": true, "phone": "+213555000111"}).Error)
	f.user("quiet@clinic.test")

	vt := f.visitType("Cleaning")
	p := f.patient("Amina", "F", 34)
	v := f.visit(p.ID, time.Now(), act(vt.ID, 5000, "11"))
	_, err := f.pay(v.ID, 2000)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	digests := NewDigestService(f.db, notifier, zap.NewNop())

	sent, err := digests.SendAll(f.ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "+213555000111|Smile Clinic: 1 visits, expected 5000, collected 2000, unpaid 3000", notifier.sent[0])

	var logs []models.DigestLog
	require.NoError(t, f.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, DigestSent, logs[0].Status)
	assert.Equal(t, f.userID, logs[0].UserID)
}

func TestDigestSendFor_RecordsFailure(t *testing.T) {
	f := newFixture(t)
	var user models.User
	require.NoError(t, f.db.First(&user, "id = ?", f.userID).Error)

	digests := NewDigestService(f.db, &recordingNotifier{fail: errors.New("carrier down")}, zap.NewNop())
	entry, err := digests.SendFor(f.ctx, &user, time.Now())
	require.NoError(t, err)
	assert.Equal(t, DigestFailed, entry.Status)
	assert.Equal(t, "carrier down", entry.ErrorMessage)

	logged, err := NewDigestService(f.db, NewLogNotifier(zap.NewNop()), zap.NewNop()).SendFor(f.ctx, &user, time.Now())
	require.NoError(t, err)
	assert.Equal(t, DigestLogged, logged.Status)
}

func TestDigestStart_RejectsBadSchedule(t *testing.T) {
	f := newFixture(t)
	digests := NewDigestService(f.db, &recordingNotifier{}, zap.NewNop())
	assert.Error(t, digests.Start("not a schedule"))

	require.NoError(t, digests.Start("0 20 * * *"))
	digests.Stop()
}
