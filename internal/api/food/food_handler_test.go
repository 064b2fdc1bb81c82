package food

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/api/auth"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

func authed(r *http.Request, uid string) *http.Request {
	return r.WithContext(auth.WithClaims(r.Context(), &types.Claims{UserID: uid}))
}

func decodePlatformError(t *testing.T, rr *httptest.ResponseRecorder) api.PlatformErrorBody {
	t.Helper()
	var resp api.PlatformErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHandler_AnalyzeMealImage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		m, svc := setupFoodServiceTest(t)
		m.generator.On("GenerateJSON", mock.Anything, mock.Anything).Return(saladGeneration(), nil).Once()
		m.logger.On("Log", mock.Anything, mock.Anything).Return(ptr("log-1")).Once()
		m.logger.On("RecordDailyUsage", mock.Anything, "user-1", mock.Anything).Once()
		m.repo.On("SaveSession", mock.Anything, mock.Anything).Return(nil).Once()
		h := NewHandler(svc, svc.logger)

		body := `{"storagePath":"uploads/user-1/lunch.png","language":"en","imagePath":"ignored"}`
		rr := httptest.NewRecorder()
		h.AnalyzeMealImage()(rr, authed(httptest.NewRequest(http.MethodPost, "/api/v1/food/meal-image", strings.NewReader(body)), "user-1"))

		require.Equal(t, http.StatusOK, rr.Code)
		var out map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.Equal(t, true, out["success"])
		assert.Equal(t, testSessionID, out["sessionId"])
		assert.Equal(t, "meal", out["mode"])
		assert.Equal(t, "Grilled chicken salad", out["mealName"])
		assert.NotContains(t, out, "warnings")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, svc := setupFoodServiceTest(t)
		h := NewHandler(svc, svc.logger)

		rr := httptest.NewRecorder()
		h.AnalyzeMealImage()(rr, httptest.NewRequest(http.MethodPost, "/api/v1/food/meal-image", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, api.PlatformUnauthenticated, decodePlatformError(t, rr).Status)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, svc := setupFoodServiceTest(t)
		h := NewHandler(svc, svc.logger)

		rr := httptest.NewRecorder()
		h.AnalyzeMealImage()(rr, authed(httptest.NewRequest(http.MethodPost, "/api/v1/food/meal-image",
			strings.NewReader(`{"storagePath":"uploads/user-1/lunch.bmp"}`)), "user-1"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodePlatformError(t, rr)
		assert.Equal(t, api.PlatformInvalidArgument, body.Status)
		assert.Contains(t, body.Message, msgUnsupportedImage)
	})

	t.Run("image not found", func(t *testing.T) {
		_, svc := setupFoodServiceTest(t)
		h := NewHandler(svc, svc.logger)

		rr := httptest.NewRecorder()
		h.AnalyzeMealImage()(rr, authed(httptest.NewRequest(http.MethodPost, "/api/v1/food/meal-image",
			strings.NewReader(`{"storagePath":"uploads/user-1/none.jpg"}`)), "user-1"))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, api.PlatformErrorBody{Status: api.PlatformNotFound, Message: msgImageNotFound}, decodePlatformError(t, rr))
	})
}

func TestHandler_AnalyzeMealText_ModelFailure(t *testing.T) {
	m, svc := setupFoodServiceTest(t)
	m.generator.On("GenerateJSON", mock.Anything, mock.Anything).
		Return(nil, &api.ModelServiceError{Err: api.ErrEmptyResponse}).Once()
	m.logger.On("RecordFoodError", mock.Anything, mock.Anything).Once()
	h := NewHandler(svc, svc.logger)

	rr := httptest.NewRecorder()
	h.AnalyzeMealText()(rr, authed(httptest.NewRequest(http.MethodPost, "/api/v1/food/meal-text",
		strings.NewReader(`{"text":"bowl of ramen","language":"ar"}`)), "user-1"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodePlatformError(t, rr)
	assert.Equal(t, api.PlatformInternal, body.Status)
	assert.Equal(t, "تعذر تحليل صورة الطعام. يرجى المحاولة بصورة أوضح.", body.Message)
}

func TestHandler_SaveMealEntry(t *testing.T) {
	m, svc := setupFoodServiceTest(t)
	m.repo.On("SaveMeal", mock.Anything, mock.MatchedBy(func(meal types.MealEntry) bool {
		return meal.UserID == "user-1" && meal.MealType == "dinner"
	})).Return(true, nil).Once()
	h := NewHandler(svc, svc.logger)

	body := `{
		"sessionId": "food_1748772000000_abcdefghi",
		"mealName": "Steamed fish",
		"mealType": "dinner",
		"ingredients": [{"name": "Cod", "quantity": 200, "unit": "g"}],
		"nutrition": {"calories": 210, "protein": 40, "carbohydrates": 0, "fat": 4},
		"storagePath": "uploads/user-1/dinner.jpg",
		"timestamp": "2025-05-31T19:30:00Z"
	}`
	rr := httptest.NewRecorder()
	h.SaveMealEntry()(rr, authed(httptest.NewRequest(http.MethodPost, "/api/v1/food/meals", strings.NewReader(body)), "user-1"))

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp types.SaveMealResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"dinner", "steamed"}, resp.Data.Tags)
	assert.Equal(t, "2025-05-31T19:30:00Z", resp.Data.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	m.repo.AssertExpectations(t)
}
