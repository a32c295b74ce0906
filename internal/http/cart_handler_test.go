package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osamaaslam86004/E-Commrace/internal/cart"
	"github.com/osamaaslam86004/E-Commrace/internal/catalog"
	"github.com/osamaaslam86004/E-Commrace/internal/checkout"
	"github.com/osamaaslam86004/E-Commrace/internal/domain"
	"github.com/osamaaslam86004/E-Commrace/internal/session"
)

type mockCartService struct {
	added     []domain.ProductRef
	addErr    error
	removed   []domain.ProductRef
	removeErr error
	view      *cart.View
	viewErr   error
}

func (m *mockCartService) AddItem(_ context.Context, _ *session.Session, ref domain.ProductRef, _ int32) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, ref)
	return nil
}

func (m *mockCartService) RemoveItem(_ context.Context, _ *session.Session, ref domain.ProductRef) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removed = append(m.removed, ref)
	return nil
}

func (m *mockCartService) View(context.Context, *session.Session) (*cart.View, error) {
	if m.viewErr != nil {
		return nil, m.viewErr
	}
	return m.view, nil
}

type mockCheckoutService struct {
	page      *checkout.Page
	submitted []string
	submitErr error
	orders    *checkout.OrdersView
	refunded  []int64
	refundErr error
}

func (m *mockCheckoutService) Begin() *checkout.Page {
	return m.page
}

func (m *mockCheckoutService) Submit(_ context.Context, _ int64, token string) error {
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = append(m.submitted, token)
	return nil
}

func (m *mockCheckoutService) Orders(context.Context, int64) (*checkout.OrdersView, error) {
	return m.orders, nil
}

func (m *mockCheckoutService) InitiateRefund(_ context.Context, _ int64, itemID int64) error {
	if m.refundErr != nil {
		return m.refundErr
	}
	m.refunded = append(m.refunded, itemID)
	return nil
}

type mockReconciler struct {
	body   map[string]string
	err    error
	events []*checkout.Event
}

func (m *mockReconciler) HandleEvent(_ context.Context, evt *checkout.Event) (map[string]string, error) {
	m.events = append(m.events, evt)
	if m.err != nil {
		return nil, m.err
	}
	return m.body, nil
}

type testEnv struct {
	router   http.Handler
	sessions *session.Store
	sess     *session.Session
	cartSvc  *mockCartService
	chkSvc   *mockCheckoutService
	rec      *mockReconciler
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	sessions := session.NewStore(client, time.Hour)

	sess, err := sessions.Create(context.Background(), 42)
	require.NoError(t, err)

	cartSvc := &mockCartService{}
	chkSvc := &mockCheckoutService{page: &checkout.Page{PublishableKey: "pk_test_123"}}
	rec := &mockReconciler{body: map[string]string{}}

	cartHandler := NewCartHandler(cartSvc, sessions, 5*time.Second)
	checkoutHandler := NewCheckoutHandler(chkSvc, rec, sessions, 5*time.Second)
	router := NewRouter(cartHandler, checkoutHandler, sessions, 5*time.Second)

	return &testEnv{
		router:   router,
		sessions: sessions,
		sess:     sess,
		cartSvc:  cartSvc,
		chkSvc:   chkSvc,
		rec:      rec,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request, withSession bool) *httptest.ResponseRecorder {
	t.Helper()
	if withSession {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: e.sess.ID})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) flash(t *testing.T) []string {
	t.Helper()
	sess, err := e.sessions.Get(context.Background(), e.sess.ID)
	require.NoError(t, err)
	return sess.Flash
}

func TestRequestIDEchoedOnce(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, httptest.NewRequest("GET", "/health", nil), false)

	require.Equal(t, http.StatusOK, rec.Code)
	// One scheme: the ID assigned in the request context comes back verbatim.
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Len(t, rec.Header().Values("X-Request-ID"), 1)
}

func TestAddToCart_NoSessionRedirectsToLogin(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, httptest.NewRequest("GET", "/cart/add/monitor/1001", nil), false)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/login")
	assert.Empty(t, env.cartSvc.added)
}

func TestAddToCart_Success(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, httptest.NewRequest("GET", "/cart/add/monitor/1001", nil), true)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/cart/", rec.Header().Get("Location"))
	require.Len(t, env.cartSvc.added, 1)
	assert.Equal(t, domain.ProductRef{Kind: domain.KindMonitor, ID: 1001}, env.cartSvc.added[0])
}

func TestAddToCart_ProductNotFound(t *testing.T) {
	env := setupEnv(t)
	env.cartSvc.addErr = catalog.ErrProductNotFound

	rec := env.do(t, httptest.NewRequest("GET", "/cart/add/monitor/9999", nil), true)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/cart/", rec.Header().Get("Location"))
	assert.Contains(t, env.flash(t), "Product not found")
}

func TestRemoveFromCart_NoSessionStillRedirects(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, httptest.NewRequest("GET", "/cart/remove/book/3", nil), false)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/cart/", rec.Header().Get("Location"))
	assert.Empty(t, env.cartSvc.removed)
}

func TestRemoveFromCart_Success(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, httptest.NewRequest("GET", "/cart/remove/book/3", nil), true)

	assert.Equal(t, http.StatusFound, rec.Code)
	require.Len(t, env.cartSvc.removed, 1)
	assert.Equal(t, domain.ProductRef{Kind: domain.KindBook, ID: 3}, env.cartSvc.removed[0])
}

func TestViewCart_NoSession(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, httptest.NewRequest("GET", "/cart/", nil), false)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "null", string(body["results"]))
}

func TestViewCart_RendersTotals(t *testing.T) {
	env := setupEnv(t)
	env.cartSvc.view = &cart.View{
		CartItems:   1,
		SubTotal:    decimal.RequireFromString("25.00"),
		TotalAmount: decimal.RequireFromString("78.99"),
		Tax:         decimal.RequireFromString("53.99"),
		Results: []cart.Line{{
			Count:     2,
			Kind:      domain.KindMonitor,
			ProductID: 1001,
			Product: &catalog.PricedProduct{
				Ref:       domain.ProductRef{Kind: domain.KindMonitor, ID: 1001},
				Name:      "UltraSharp 27",
				Price:     decimal.RequireFromString("12.50"),
				Available: true,
			},
		}},
	}

	rec := env.do(t, httptest.NewRequest("GET", "/cart/", nil), true)

	require.Equal(t, http.StatusOK, rec.Code)
	var dto cartViewDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, 1, dto.CartItems)
	assert.True(t, dto.SubTotal.Equal(decimal.RequireFromString("25.00")))
	assert.True(t, dto.TotalAmount.Equal(decimal.RequireFromString("78.99")))
	require.Len(t, dto.Results, 1)
	assert.EqualValues(t, 2, dto.Results[0].Count)
}
