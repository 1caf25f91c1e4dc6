package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fracledger/fracledger-backend/internal/domain"
	"github.com/fracledger/fracledger-backend/internal/ledger"
	"github.com/fracledger/fracledger-backend/internal/usecase/holdings"
)

const testToken = "test-token"

type testEnv struct {
	router http.Handler
	engine *ledger.Engine
	policy domain.IdentityPolicy
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	policy := domain.IdentityPolicy{Admin: uuid.New(), System: uuid.New()}
	engine := ledger.NewEngine(policy)
	server := NewServer(engine, holdings.NewService(engine), nil, testToken)
	return &testEnv{router: server.Router(), engine: engine, policy: policy}
}

// do performs an authenticated JSON request against the router.
func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", testToken)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func (env *testEnv) createAsset(t *testing.T, creator uuid.UUID, supply uint64) uint64 {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/assets", map[string]any{
		"creator":           creator,
		"total_supply":      supply,
		"fractional_shares": supply,
		"metadata_uri":      "ipfs://abc123metadata",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]uint64](t, rec)["asset_id"]
}

func TestAuth_MissingOrInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/assets/1", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/assets/1", nil)
	req.Header.Set("Authorization", "wrong-token")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAsset_Handler(t *testing.T) {
	env := newTestEnv(t)
	creator := uuid.New()

	id := env.createAsset(t, creator, 1000)
	assert.Equal(t, uint64(1), id)

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/assets", bytes.NewBufferString("{not json"))
		req.Header.Set("Authorization", testToken)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failure maps to 400 with code", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/assets", map[string]any{
			"creator":           creator,
			"total_supply":      0,
			"fractional_shares": 1,
			"metadata_uri":      "ipfs://abc123",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[errorResponse](t, rec)
		assert.Equal(t, uint8(domain.CodeInvalidInput), resp.Code)
	})
}

func TestGetAsset_Handler(t *testing.T) {
	env := newTestEnv(t)
	creator := uuid.New()
	id := env.createAsset(t, creator, 500)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/assets/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	asset := decode[assetResponse](t, rec)
	assert.Equal(t, id, asset.ID)
	assert.Equal(t, creator, asset.Owner)
	assert.Equal(t, uint64(500), asset.TotalSupply)
	assert.True(t, asset.IsTransferable)

	t.Run("unknown asset is 404", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/assets/42", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/assets/xyz", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTransfer_Handler(t *testing.T) {
	env := newTestEnv(t)
	a, b := uuid.New(), uuid.New()
	id := env.createAsset(t, a, 1000)

	transfer := func(amount uint64) *httptest.ResponseRecorder {
		return env.do(t, http.MethodPost, fmt.Sprintf("/assets/%d/transfers", id), map[string]any{
			"sender":    a,
			"recipient": b,
			"amount":    amount,
		})
	}

	// Recipient not yet approved.
	rec := transfer(400)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Equal(t, uint8(domain.CodeComplianceCheckFailed), resp.Code)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/assets/%d/compliance", id), map[string]any{
		"admin":    env.policy.Admin,
		"user":     b,
		"approved": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = transfer(400)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[map[string]bool](t, rec)["success"])
	assert.Equal(t, uint64(600), env.engine.OwnerShares(id, a))
	assert.Equal(t, uint64(400), env.engine.OwnerShares(id, b))

	t.Run("overdraft maps to 409", func(t *testing.T) {
		rec := transfer(601)
		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decode[errorResponse](t, rec)
		assert.Equal(t, uint8(domain.CodeInsufficientShares), resp.Code)
	})

	t.Run("unknown asset maps to 404", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/assets/77/transfers", map[string]any{
			"sender": a, "recipient": b, "amount": 1,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCompliance_Handler(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	id := env.createAsset(t, uuid.New(), 100)

	t.Run("non-admin caller maps to 403", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, fmt.Sprintf("/assets/%d/compliance", id), map[string]any{
			"admin":    uuid.New(),
			"user":     user,
			"approved": true,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		resp := decode[errorResponse](t, rec)
		assert.Equal(t, uint8(domain.CodeUnauthorized), resp.Code)
	})

	t.Run("record absent before approval", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, fmt.Sprintf("/assets/%d/compliance/%s", id, user), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/assets/%d/compliance", id), map[string]any{
		"admin":    env.policy.Admin,
		"user":     user,
		"approved": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/assets/%d/compliance/%s", id, user), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	record := decode[map[string]any](t, rec)
	assert.Equal(t, true, record["is_approved"])
	assert.Equal(t, env.policy.Admin.String(), record["approved_by"])
}

func TestHoldings_Handler(t *testing.T) {
	env := newTestEnv(t)
	a, b := uuid.New(), uuid.New()
	id := env.createAsset(t, a, 1000)

	env.do(t, http.MethodPost, fmt.Sprintf("/assets/%d/compliance", id), map[string]any{
		"admin": env.policy.Admin, "user": b, "approved": true,
	})
	env.do(t, http.MethodPost, fmt.Sprintf("/assets/%d/transfers", id), map[string]any{
		"sender": a, "recipient": b, "amount": 250,
	})

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/assets/%d/holdings", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var breakdown struct {
		AssetID     uint64 `json:"asset_id"`
		TotalSupply uint64 `json:"total_supply"`
		Positions   []struct {
			Owner        uuid.UUID `json:"owner"`
			Shares       uint64    `json:"shares"`
			Fraction     string    `json:"fraction"`
			IsController bool      `json:"is_controller"`
		} `json:"positions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&breakdown))
	require.Len(t, breakdown.Positions, 2)
	assert.Equal(t, a, breakdown.Positions[0].Owner, "largest position first")
	assert.Equal(t, uint64(750), breakdown.Positions[0].Shares)
	assert.Equal(t, "0.75", breakdown.Positions[0].Fraction)
	assert.True(t, breakdown.Positions[0].IsController)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/assets/%d/holdings/%s", id, b), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pos struct {
		Shares   uint64 `json:"shares"`
		Fraction string `json:"fraction"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pos))
	assert.Equal(t, uint64(250), pos.Shares)
	assert.Equal(t, "0.25", pos.Fraction)
}

func TestGetEvent_Handler(t *testing.T) {
	env := newTestEnv(t)
	creator := uuid.New()
	id := env.createAsset(t, creator, 100)

	rec := env.do(t, http.MethodGet, "/events/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	event := decode[map[string]any](t, rec)
	assert.Equal(t, string(domain.EventAssetCreated), event["type"])
	assert.Equal(t, float64(id), event["asset_id"])
	assert.Equal(t, creator.String(), event["owner"])

	t.Run("unknown event is 404", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/events/99", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSettlementRoutes_AbsentWithoutGateway(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/settlement/prepare", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
