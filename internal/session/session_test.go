package session

import (
	"context"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirana/internal/api"
	"kirana/internal/models"
	"kirana/internal/monitoring"
	"kirana/internal/notify"
)

// notifyFeedFunc adapts a function (or nil, for an empty feed) to
// notify.Feed.
type notifyFeedFunc func(context.Context, api.Filters) ([]models.Order, error)

func (f notifyFeedFunc) ListOrders(ctx context.Context, fl api.Filters) ([]models.Order, error) {
	if f == nil {
		return nil, nil
	}
	return f(ctx, fl)
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func testPoller() *notify.Poller {
	feed := notifyFeedFunc(nil)
	return notify.NewPoller(feed, monitoring.NewTestMonitor(), notify.WithInterval(time.Hour))
}

func TestOpenRejectsExpiredToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})

	_, err := Open(context.Background(), token, testPoller())
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestOpenRejectsMalformedToken(t *testing.T) {
	_, err := Open(context.Background(), "not-a-jwt", testPoller())
	assert.Error(t, err)
}

func TestOpenAcceptsTokenWithoutExpiry(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "admin"})

	sess, err := Open(context.Background(), token, testPoller())
	require.NoError(t, err)
	defer sess.Close()

	assert.True(t, sess.Expiry().IsZero())
	assert.False(t, sess.Closed())
}

func TestEmptyTokenOpensDevSession(t *testing.T) {
	sess, err := Open(context.Background(), "", testPoller())
	require.NoError(t, err)
	defer sess.Close()
	assert.False(t, sess.Closed())
}

func TestCloseIsIdempotent(t *testing.T) {
	sess, err := Open(context.Background(), "", testPoller())
	require.NoError(t, err)

	sess.Close()
	sess.Close()
	assert.True(t, sess.Closed())
}

func TestInvalidateClosesSession(t *testing.T) {
	sess, err := Open(context.Background(), "", testPoller())
	require.NoError(t, err)

	sess.Invalidate()
	assert.True(t, sess.Closed())
}

func TestTokenExpiryIsSurfaced(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{"exp": exp.Unix()})

	sess, err := Open(context.Background(), token, testPoller())
	require.NoError(t, err)
	defer sess.Close()

	assert.WithinDuration(t, exp, sess.Expiry(), time.Second)
}
