package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	require.NoError(t, Init(lang))
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		lang string
		id   string
		want string
	}{
		{"en", "AppTitle", "Tutor Evaluation Dashboard"},
		{"en", "CategoryToSomeExtent", "To some extent"},
		{"ru", "AppTitle", "Панель оценки тьюторов"},
		{"ru", "CategoryNo", "Нет"},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.id, func(t *testing.T) {
			ctx := initLang(t, tt.lang)
			assert.Equal(t, tt.want, T(ctx, tt.id))
		})
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")
	assert.Equal(t, "1 topic available.", Tp(ctx, "TopicsAvailable", 1))
	assert.Equal(t, "5 topics available.", Tp(ctx, "TopicsAvailable", 5))

	ru := initLang(t, "ru")
	assert.Equal(t, "5 диалогов", Tp(ru, "ConversationsTotal", 5))
	assert.Equal(t, "2 диалога", Tp(ru, "ConversationsTotal", 2))
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")
	assert.Equal(t, "Judged by gpt-4o", Td(ctx, "JudgedBy", map[string]any{"Judge": "gpt-4o"}))
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")
	assert.Equal(t, "NonExistentKey", T(ctx, "NonExistentKey"))
}

func TestMiddleware(t *testing.T) {
	require.NoError(t, Init("ru"))
	var got string
	h := Middleware("ru")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "NavDataset")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "Датасет", got)
}

func TestMiddlewarePreferences(t *testing.T) {
	require.NoError(t, Init("en"))
	var got string
	h := Middleware("en")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "NavCompare")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "Сравнение", got)

	req = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "ru")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "Compare", got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "Compare", got)
	assert.ElementsMatch(t, []string{"en", "ru"}, Languages())
}
