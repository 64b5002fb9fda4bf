package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	analyticsservice "github.com/insightdeck/insightdeck/internal/analytics/service"
	"github.com/insightdeck/insightdeck/internal/authorization"
	"github.com/insightdeck/insightdeck/internal/config"
	"github.com/insightdeck/insightdeck/internal/observability"
	orgdomain "github.com/insightdeck/insightdeck/internal/organization/domain"
	orgservice "github.com/insightdeck/insightdeck/internal/organization/service"
	"github.com/insightdeck/insightdeck/internal/record"
	uploaddomain "github.com/insightdeck/insightdeck/internal/upload/domain"
	uploadservice "github.com/insightdeck/insightdeck/internal/upload/service"
	"github.com/insightdeck/insightdeck/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	engine *gin.Engine
	org    *orgdomain.Organization
}

const (
	superToken = "super-token"
	adminToken = "admin-token"
	userToken  = "user-token"
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orgdomain.Organization{},
		&orgdomain.User{},
		&orgdomain.OrganizationMember{},
		&uploaddomain.Upload{},
		&record.AdRecord{},
		&record.ShipmentRecord{},
		&record.OrderRecord{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	orgs := orgservice.New(orgservice.Params{
		Log:     log,
		Node:    node,
		Orgs:    repository.ProvideStore[orgdomain.Organization](db),
		Users:   repository.ProvideStore[orgdomain.User](db),
		Members: repository.ProvideStore[orgdomain.OrganizationMember](db),
	})

	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)
	authz := authorization.New(authorization.Params{Log: log, Enforcer: enforcer, Orgs: orgs})

	uploads := uploadservice.New(uploadservice.Params{
		Log:       log,
		Cfg:       config.Config{UploadBatchSize: 2},
		DB:        db,
		Node:      node,
		Uploads:   repository.ProvideStore[uploaddomain.Upload](db),
		Ads:       repository.ProvideStore[record.AdRecord](db),
		Shipments: repository.ProvideStore[record.ShipmentRecord](db),
		Orders:    repository.ProvideStore[record.OrderRecord](db),
	})

	analytics := analyticsservice.New(analyticsservice.Params{
		Log:       log,
		Ads:       repository.ProvideStore[record.AdRecord](db),
		Shipments: repository.ProvideStore[record.ShipmentRecord](db),
		Orders:    repository.ProvideStore[record.OrderRecord](db),
	})

	srv := New(Params{
		Log:       log,
		Cfg:       config.Config{AppName: "insightdeck-test", AppVersion: "test"},
		ObsCfg:    observability.Config{},
		Orgs:      orgs,
		Authz:     authz,
		Uploads:   uploads,
		Analytics: analytics,
	})

	ctx := t.Context()
	org, err := orgs.CreateOrganization(ctx, orgservice.CreateOrganizationRequest{Name: "Acme"})
	require.NoError(t, err)

	for _, seed := range []struct {
		email string
		token string
		role  orgdomain.Role
	}{
		{"super@acme.test", superToken, orgdomain.RoleSuperAdmin},
		{"admin@acme.test", adminToken, orgdomain.RoleAdmin},
		{"user@acme.test", userToken, orgdomain.RoleUser},
	} {
		_, err := orgs.CreateUser(ctx, orgservice.CreateUserRequest{
			Email: seed.email,
			Token: seed.token,
			OrgID: org.ID,
			Role:  seed.role,
		})
		require.NoError(t, err)
	}

	return &testEnv{engine: srv.Engine(), org: org}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Org-ID", e.org.ID.String())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func csvUploadBody(t *testing.T, csvData string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "data.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvData))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

const ordersCSV = `date,order_id,customer_email,status,product_name,quantity,total,discount,payment_method
2024-01-01,INV-1,a@x.com,Delivered,Tumbler,1,100,0,COD
2024-01-02,INV-2,b@x.com,Pending,Mug,2,50,5,Transfer
`

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "insightdeck-test")
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/uploads", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/uploads", "wrong-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadDashboardDeleteFlow(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := csvUploadBody(t, ordersCSV)
	w := env.do(t, http.MethodPost, "/api/uploads/commerce", adminToken, body, contentType)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var summary uploaddomain.IngestSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, uploaddomain.StatusComplete, summary.Status)
	assert.Equal(t, 2, summary.SavedRows)

	w = env.do(t, http.MethodGet, "/api/dashboard/commerce", userToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var dash analyticsservice.CommerceDashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.True(t, dash.HasData)
	assert.Equal(t, 2, dash.Metrics.TotalOrders)
	assert.Equal(t, float64(150), dash.Metrics.TotalRevenue)

	w = env.do(t, http.MethodGet, "/api/dashboard/commerce?start=2024-01-02&end=2024-01-02", userToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Equal(t, 1, dash.Metrics.TotalOrders)

	w = env.do(t, http.MethodDelete, "/api/uploads/"+summary.UploadID.String(), adminToken, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/dashboard/commerce", userToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.False(t, dash.HasData)
	assert.Zero(t, dash.Metrics.TotalOrders)
}

func TestRoleEnforcement(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := csvUploadBody(t, ordersCSV)
	w := env.do(t, http.MethodPost, "/api/uploads/commerce", userToken, body, contentType)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/orgs", adminToken, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/orgs", superToken, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExportAndTemplate(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := csvUploadBody(t, ordersCSV)
	w := env.do(t, http.MethodPost, "/api/uploads/commerce", adminToken, body, contentType)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/exports/commerce", userToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "INV-1")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "commerce_export.csv")

	w = env.do(t, http.MethodGet, "/api/uploads/template/ads", userToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "campaign")

	w = env.do(t, http.MethodGet, "/api/exports/bogus", userToken, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBadDateParam(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/dashboard/ads?start=01-2024", userToken, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/me", adminToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var profile authorization.Context
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, authorization.RoleAdmin, profile.Role)
	assert.True(t, profile.HasAccess(authorization.ObjectUpload, authorization.ActionWrite))
}
