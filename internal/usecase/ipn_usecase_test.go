package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-monetico-service/internal/domain"
	"github.com/LavaJover/shvark-monetico-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-monetico-service/internal/monetico"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEPTCode     = "9000001"
	testSecurityKey = "12345678901234567890"
	testTopic       = "payment-notifications"
)

type fakeRepo struct {
	mu         sync.Mutex
	saved      map[string]*domain.PaymentNotification
	rejections []*domain.RejectedNotification
	saveErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{saved: map[string]*domain.PaymentNotification{}}
}

func (r *fakeRepo) Save(_ context.Context, n *domain.PaymentNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	key := n.Reference + "/" + n.Seal
	if _, ok := r.saved[key]; ok {
		return domain.ErrDuplicateNotification
	}
	r.saved[key] = n
	return nil
}

func (r *fakeRepo) FindByReference(_ context.Context, reference string) ([]*domain.PaymentNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.PaymentNotification
	for _, n := range r.saved {
		if n.Reference == reference {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNotificationNotFound
	}
	return out, nil
}

func (r *fakeRepo) FindByReferenceAndSeal(_ context.Context, reference, seal string) (*domain.PaymentNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.saved[reference+"/"+seal]
	if !ok {
		return nil, domain.ErrNotificationNotFound
	}
	return n, nil
}

func (r *fakeRepo) SaveRejection(_ context.Context, rejection *domain.RejectedNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections = append(r.rejections, rejection)
	return nil
}

func (r *fakeRepo) LogRejection(ctx context.Context, rejection *domain.RejectedNotification) error {
	return r.SaveRejection(ctx, rejection)
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []domain.Message
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, _ string, msgs ...domain.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func validFields() map[string]string {
	blob := base64.StdEncoding.EncodeToString([]byte(
		`{"protocol":"3DSecure","status":"authenticated","version":"2.1.0","details":{"liabilityShift":"Y"}}`))
	fields := map[string]string{
		"TPE":              testEPTCode,
		"date":             "05/03/2024_a_14:02:59",
		"montant":          "62.75EUR",
		"reference":        "ABERTYP00145",
		"authentification": blob,
		"texte-libre":      "order 12",
		"code-retour":      "paiement",
		"cvx":              "oui",
		"vld":              "1225",
		"brand":            "VI",
		"numauto":          "010101",
		"originecb":        "FRA",
		"bincb":            "00001",
		"hpancb":           "F6FBF44A7EC30941DA2E411AA8A50C77F174B2BB",
		"ipclient":         "127.0.0.1",
		"originetr":        "FRA",
		"modepaiement":     "CB",
	}
	fields["MAC"] = monetico.ComputeSeal(fields, testSecurityKey)
	return fields
}

func newTestUsecase(repo *fakeRepo, pub *fakePublisher) (*DefaultIPNUsecase, *metrics.IPNMetrics) {
	m := metrics.NewIPNMetrics(prometheus.NewRegistry())
	uc := NewDefaultIPNUsecase(repo, pub, repo, m, slog.New(slog.NewTextHandler(io.Discard, nil)), IPNUsecaseConfig{
		EPTCode:     testEPTCode,
		SecurityKey: testSecurityKey,
		Topic:       testTopic,
	})
	uc.Now = func() time.Time { return time.Date(2024, time.March, 5, 14, 3, 0, 0, time.UTC) }
	return uc, m
}

func TestHandleNotificationAccepted(t *testing.T) {
	repo, pub := newFakeRepo(), &fakePublisher{}
	uc, m := newTestUsecase(repo, pub)

	out, err := uc.HandleNotification(context.Background(), "req-1", validFields())
	require.NoError(t, err)
	assert.False(t, out.Duplicate)
	assert.Equal(t, "PAID", out.Notification.Status)
	assert.Equal(t, "ABERTYP00145", out.Notification.Reference)
	assert.Equal(t, "CB", out.Notification.PaymentMethod)
	assert.Equal(t, monetico.StatusAuthenticated, out.Notification.AuthenticationStatus)
	assert.NotEmpty(t, out.Notification.ID)

	require.Len(t, repo.saved, 1)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, []byte("ABERTYP00145"), pub.msgs[0].Key)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsAcceptedTotal.WithLabelValues("PAID", "VI", "false")))
}

func TestHandleNotificationDuplicate(t *testing.T) {
	repo, pub := newFakeRepo(), &fakePublisher{}
	uc, m := newTestUsecase(repo, pub)

	first, err := uc.HandleNotification(context.Background(), "req-1", validFields())
	require.NoError(t, err)

	out, err := uc.HandleNotification(context.Background(), "req-2", validFields())
	require.NoError(t, err)
	assert.True(t, out.Duplicate)
	assert.Equal(t, first.Notification.ID, out.Notification.ID)
	assert.Len(t, repo.saved, 1)
	assert.Len(t, pub.msgs, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsDuplicateTotal))
}

func TestHandleNotificationDateLocation(t *testing.T) {
	t.Run("gateway timezone by default", func(t *testing.T) {
		repo, pub := newFakeRepo(), &fakePublisher{}
		uc, _ := newTestUsecase(repo, pub)

		out, err := uc.HandleNotification(context.Background(), "req-1", validFields())
		require.NoError(t, err)
		assert.True(t, time.Date(2024, time.March, 5, 13, 2, 59, 0, time.UTC).Equal(out.Notification.NotifiedAt),
			out.Notification.NotifiedAt.String())
	})

	t.Run("configured location", func(t *testing.T) {
		repo, pub := newFakeRepo(), &fakePublisher{}
		uc, _ := newTestUsecase(repo, pub)
		uc.Config.Location = time.UTC

		out, err := uc.HandleNotification(context.Background(), "req-1", validFields())
		require.NoError(t, err)
		assert.True(t, time.Date(2024, time.March, 5, 14, 2, 59, 0, time.UTC).Equal(out.Notification.NotifiedAt),
			out.Notification.NotifiedAt.String())
	})
}

func TestHandleNotificationRejected(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
		kind   error
		label  string
		field  string
	}{
		{
			name:   "missing field",
			mutate: func(f map[string]string) { delete(f, "cvx") },
			kind:   monetico.ErrMissingField,
			label:  "missing_field",
			field:  "cvx",
		},
		{
			name:   "invalid brand",
			mutate: func(f map[string]string) { f["brand"] = "ZZ" },
			kind:   monetico.ErrInvalidCardBrand,
			label:  "invalid_brand",
			field:  "brand",
		},
		{
			name:   "tampered amount",
			mutate: func(f map[string]string) { f["montant"] = "6275.00EUR" },
			kind:   monetico.ErrSealMismatch,
			label:  "seal_mismatch",
			field:  "MAC",
		},
		{
			name: "unknown terminal",
			mutate: func(f map[string]string) {
				f["TPE"] = "1234567"
				delete(f, "MAC")
				f["MAC"] = monetico.ComputeSeal(f, testSecurityKey)
			},
			kind:  domain.ErrUnknownTerminal,
			label: "unknown_terminal",
			field: "TPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, pub := newFakeRepo(), &fakePublisher{}
			uc, m := newTestUsecase(repo, pub)

			fields := validFields()
			tt.mutate(fields)

			out, err := uc.HandleNotification(context.Background(), "req-1", fields)
			assert.Nil(t, out)
			require.ErrorIs(t, err, domain.ErrNotificationRejected)
			require.ErrorIs(t, err, tt.kind)

			assert.Empty(t, repo.saved)
			assert.Empty(t, pub.msgs)
			require.Len(t, repo.rejections, 1)
			assert.Equal(t, tt.label, repo.rejections[0].Kind)
			assert.Equal(t, tt.field, repo.rejections[0].Field)
			assert.Equal(t, "req-1", repo.rejections[0].RequestID)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsRejectedTotal.WithLabelValues(tt.label)))
		})
	}
}

func TestHandleNotificationSaveError(t *testing.T) {
	repo, pub := newFakeRepo(), &fakePublisher{}
	repo.saveErr = errors.New("connection refused")
	uc, _ := newTestUsecase(repo, pub)

	_, err := uc.HandleNotification(context.Background(), "req-1", validFields())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotificationRejected))
	assert.Empty(t, pub.msgs)
}

func TestHandleNotificationPublishErrorStillAccepts(t *testing.T) {
	repo, pub := newFakeRepo(), &fakePublisher{err: errors.New("broker down")}
	uc, m := newTestUsecase(repo, pub)

	out, err := uc.HandleNotification(context.Background(), "req-1", validFields())
	require.NoError(t, err)
	assert.Equal(t, "PAID", out.Notification.Status)
	assert.Len(t, repo.saved, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishErrorsTotal))
}

func TestHandleNotificationCancellation(t *testing.T) {
	repo, pub := newFakeRepo(), &fakePublisher{}
	uc, _ := newTestUsecase(repo, pub)

	fields := validFields()
	fields["code-retour"] = "Annulation_pf2"
	fields["motifrefus"] = "Refus"
	delete(fields, "MAC")
	fields["MAC"] = monetico.ComputeSeal(fields, testSecurityKey)

	out, err := uc.HandleNotification(context.Background(), "req-1", fields)
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", out.Notification.Status)
	assert.Equal(t, 2, out.Notification.Installment)
	assert.Equal(t, "Refus", out.Notification.RejectReason)
}

func TestGetNotifications(t *testing.T) {
	repo, pub := newFakeRepo(), &fakePublisher{}
	uc, _ := newTestUsecase(repo, pub)

	_, err := uc.GetNotifications(context.Background(), "ABERTYP00145")
	require.ErrorIs(t, err, domain.ErrNotificationNotFound)

	_, err = uc.HandleNotification(context.Background(), "req-1", validFields())
	require.NoError(t, err)

	out, err := uc.GetNotifications(context.Background(), "ABERTYP00145")
	require.NoError(t, err)
	require.Len(t, out.Notifications, 1)
	assert.Equal(t, "62.75EUR", out.Notifications[0].Fields["montant"])
}
