//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	baseURL = getEnv("MEDIKART_API_URL", "http://127.0.0.1:8080")
	apiBase = baseURL + "/api/v1"

	superEmail    = getEnv("MEDIKART_SUPERADMIN_EMAIL", "root@medikart.local")
	superPassword = getEnv("MEDIKART_SUPERADMIN_PASSWORD", "bootstrap_me_123")
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

type TestClient struct {
	httpClient *http.Client
	tenantID   string
	token      string
}

func NewTestClient(tenantID string) *TestClient {
	return &TestClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tenantID:   tenantID,
	}
}

func (c *TestClient) Do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	url := path
	if c.tenantID != "" {
		url += "?tenant_id=" + c.tenantID
	}

	req, _ := http.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

func (c *TestClient) login(t *testing.T, email, password string) {
	t.Helper()
	resp, err := c.Do("POST", apiBase+"/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	require.NotEmpty(t, loginResp.Token)
	c.token = loginResp.Token
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestE2E_Workflows(t *testing.T) {
	// State shared between subtests
	var (
		e2eTenantID      string
		e2eAdminEmail    string
		e2eAdminPassword string
		e2eProductID     string
		e2eOrderID       string
	)

	// 1. Platform Flow: super admin onboards a tenant and provisions its admin.
	// The super admin account comes from the server's bootstrap subcommand.
	t.Run("Platform Flow", func(t *testing.T) {
		client := NewTestClient("")
		client.login(t, superEmail, superPassword)

		subdomain := fmt.Sprintf("e2e%d", time.Now().Unix())
		resp, err := client.Do("POST", apiBase+"/platform/tenants", map[string]string{
			"name":      "E2E Test Pharmacy",
			"subdomain": subdomain,
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		created := decode[struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}](t, resp)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, "pending", created.Status)
		e2eTenantID = created.ID

		// A pending tenant cannot serve traffic until activated.
		resp, err = client.Do("POST", apiBase+"/platform/tenants/"+e2eTenantID+"/activate", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		e2eAdminEmail = "admin@" + subdomain + ".local"
		e2eAdminPassword = "admin_pass_123"
		resp, err = client.Do("POST", apiBase+"/platform/tenants/"+e2eTenantID+"/admins", map[string]string{
			"email":    e2eAdminEmail,
			"password": e2eAdminPassword,
			"name":     "E2E Admin",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		t.Logf("Created tenant %s (%s)", e2eTenantID, subdomain)
	})

	// 2. Tenant Admin Flow: build up the catalog.
	t.Run("Tenant Admin Flow", func(t *testing.T) {
		require.NotEmpty(t, e2eTenantID)

		client := NewTestClient(e2eTenantID)
		client.login(t, e2eAdminEmail, e2eAdminPassword)

		resp, err := client.Do("POST", apiBase+"/products", map[string]any{
			"sku":         "PARA-500",
			"name":        "Paracetamol 500mg",
			"category":    "analgesics",
			"price_cents": 499,
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		product := decode[struct {
			ID string `json:"id"`
		}](t, resp)
		require.NotEmpty(t, product.ID)
		e2eProductID = product.ID

		resp, err = client.Do("PUT", apiBase+"/products/"+e2eProductID+"/stock", map[string]int{
			"stock_qty": 100,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		t.Logf("Created product %s with stock", e2eProductID)
	})

	// 3. Customer Flow: register, order, and watch the order move through fulfilment.
	t.Run("Customer Flow", func(t *testing.T) {
		require.NotEmpty(t, e2eProductID)

		customer := NewTestClient(e2eTenantID)
		customerEmail := fmt.Sprintf("customer%d@example.com", time.Now().Unix())

		resp, err := customer.Do("POST", apiBase+"/auth/register", map[string]string{
			"email":    customerEmail,
			"password": "customer_pass_123",
			"name":     "E2E Customer",
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		customer.login(t, customerEmail, "customer_pass_123")

		resp, err = customer.Do("POST", apiBase+"/orders", map[string]any{
			"items": []map[string]any{
				{"product_id": e2eProductID, "quantity": 2},
			},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		order := decode[struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}](t, resp)
		require.NotEmpty(t, order.ID)
		assert.Equal(t, "pending", order.Status)
		e2eOrderID = order.ID

		// Admin walks the order through fulfilment.
		admin := NewTestClient(e2eTenantID)
		admin.login(t, e2eAdminEmail, e2eAdminPassword)

		for _, status := range []string{"accepted", "packed", "dispatched", "delivered"} {
			resp, err = admin.Do("POST", apiBase+"/orders/"+e2eOrderID+"/status", map[string]string{
				"status": status,
			})
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode, "transition to %s", status)
		}

		// Replaying a transition must be rejected, not silently accepted.
		resp, err = admin.Do("POST", apiBase+"/orders/"+e2eOrderID+"/status", map[string]string{
			"status": "delivered",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		// The customer sees the full status trail.
		resp, err = customer.Do("GET", apiBase+"/orders/"+e2eOrderID+"/history", nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		history := decode[[]struct {
			To string `json:"to"`
		}](t, resp)
		assert.GreaterOrEqual(t, len(history), 4)

		t.Logf("Order %s delivered", e2eOrderID)
	})

	// 4. Isolation Flow: a customer token from one tenant cannot read another's data.
	t.Run("Isolation Flow", func(t *testing.T) {
		require.NotEmpty(t, e2eTenantID)

		super := NewTestClient("")
		super.login(t, superEmail, superPassword)

		subdomain := fmt.Sprintf("e2eb%d", time.Now().Unix())
		resp, err := super.Do("POST", apiBase+"/platform/tenants", map[string]string{
			"name":      "E2E Other Pharmacy",
			"subdomain": subdomain,
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		other := decode[struct {
			ID string `json:"id"`
		}](t, resp)

		resp, err = super.Do("POST", apiBase+"/platform/tenants/"+other.ID+"/activate", nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		// Admin of the first tenant points their token at the second tenant.
		admin := NewTestClient(e2eTenantID)
		admin.login(t, e2eAdminEmail, e2eAdminPassword)
		admin.tenantID = other.ID

		resp, err = admin.Do("GET", apiBase+"/orders", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
