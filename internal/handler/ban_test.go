package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kotoba-dev/kotoba/internal/domain"
	internal_errors "github.com/kotoba-dev/kotoba/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBan(t *testing.T) {
	end := time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)

	t.Run("category-scoped ban resolves the alias", func(t *testing.T) {
		h, deps := newTestHandler()
		categoryId := uuid.New()
		deps.store.MockGetCategoryByAlias = func(ctx context.Context, alias domain.CategoryAlias) (domain.Category, error) {
			assert.Equal(t, domain.CategoryAlias("b"), alias)
			return domain.Category{Id: categoryId, Alias: alias}, nil
		}

		var gotData *domain.BanCreationData
		deps.moderation.MockCreateBan = func(ctx context.Context, data domain.BanCreationData) (domain.BanId, error) {
			gotData = &data
			return uuid.New(), nil
		}

		body := `{"category_alias": "b", "lower_ip_address": "10.0.0.0", "upper_ip_address": "10.0.0.255", "end": "` + end + `", "reason": "spam"}`
		rr := serve(h, postRequest("/v1/mod/bans", []byte(body)))

		require.Equal(t, http.StatusCreated, rr.Code)
		require.NotNil(t, gotData)
		scopedTo, ok := gotData.Scope.Category()
		require.True(t, ok)
		assert.Equal(t, categoryId, scopedTo)
		assert.Equal(t, netip.MustParseAddr("10.0.0.0"), gotData.LowerIpAddress)
		assert.False(t, gotData.Start.IsZero(), "omitted start defaults to now")
	})

	t.Run("empty alias makes a site-wide ban", func(t *testing.T) {
		h, deps := newTestHandler()
		var gotData *domain.BanCreationData
		deps.moderation.MockCreateBan = func(ctx context.Context, data domain.BanCreationData) (domain.BanId, error) {
			gotData = &data
			return uuid.New(), nil
		}

		body := `{"lower_ip_address": "10.0.0.1", "upper_ip_address": "10.0.0.1", "end": "` + end + `"}`
		rr := serve(h, postRequest("/v1/mod/bans", []byte(body)))

		require.Equal(t, http.StatusCreated, rr.Code)
		require.NotNil(t, gotData)
		assert.True(t, gotData.Scope.IsGlobal())
	})

	t.Run("unknown category alias gets 404", func(t *testing.T) {
		h, deps := newTestHandler()
		deps.store.MockGetCategoryByAlias = func(ctx context.Context, alias domain.CategoryAlias) (domain.Category, error) {
			return domain.Category{}, internal_errors.NotFound
		}

		body := `{"category_alias": "nope", "lower_ip_address": "10.0.0.1", "upper_ip_address": "10.0.0.1", "end": "` + end + `"}`
		rr := serve(h, postRequest("/v1/mod/bans", []byte(body)))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed address gets 400", func(t *testing.T) {
		h, _ := newTestHandler()
		body := `{"lower_ip_address": "not-an-ip", "upper_ip_address": "10.0.0.1", "end": "` + end + `"}`
		rr := serve(h, postRequest("/v1/mod/bans", []byte(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("validation failure from the service gets 400", func(t *testing.T) {
		h, deps := newTestHandler()
		deps.moderation.MockCreateBan = func(ctx context.Context, data domain.BanCreationData) (domain.BanId, error) {
			return domain.BanId{}, &internal_errors.ValidationError{Field: "ip_range", Message: "lower address above upper"}
		}

		body := `{"lower_ip_address": "10.0.0.9", "upper_ip_address": "10.0.0.1", "end": "` + end + `"}`
		rr := serve(h, postRequest("/v1/mod/bans", []byte(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestListBans(t *testing.T) {
	h, deps := newTestHandler()
	categoryId := uuid.New()
	deps.moderation.MockListBans = func(ctx context.Context) ([]domain.Ban, error) {
		return []domain.Ban{
			{
				Id:             uuid.New(),
				Scope:          domain.GlobalScope(),
				LowerIpAddress: netip.MustParseAddr("10.0.0.0"),
				UpperIpAddress: netip.MustParseAddr("10.0.0.255"),
				Reason:         "flood",
			},
			{
				Id:             uuid.New(),
				Scope:          domain.CategoryScope(categoryId),
				LowerIpAddress: netip.MustParseAddr("2001:db8::1"),
				UpperIpAddress: netip.MustParseAddr("2001:db8::ffff"),
			},
		}, nil
	}

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/v1/mod/bans", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var views []BanView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&views))
	require.Len(t, views, 2)
	assert.True(t, views[0].Global)
	assert.Empty(t, views[0].CategoryScope)
	assert.False(t, views[1].Global)
	assert.Equal(t, categoryId.String(), views[1].CategoryScope)
	assert.Equal(t, "10.0.0.0", views[0].LowerIpAddress)
}
