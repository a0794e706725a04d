package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/smartystreets/goconvey/convey"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a router with the docs routes", t, func() {
		router := httprouter.New()
		Register(context.Background(), router)

		convey.Convey("Then it serves /openapi.yaml", func() {
			req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
			convey.So(w.Body.Len(), convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("And it serves the ReDoc page at /api-docs", func() {
			req := httptest.NewRequest(http.MethodGet, "/api-docs", http.NoBody)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "redoc-container")
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "/openapi.yaml")
		})
	})
}

func TestOpenAPIDocument(t *testing.T) {
	convey.Convey("Given the embedded OpenAPI document", t, func() {
		doc, err := kyaml.Parser().Unmarshal(OpenAPI)
		convey.So(err, convey.ShouldBeNil)
		paths, ok := doc["paths"].(map[string]interface{})
		convey.So(ok, convey.ShouldBeTrue)

		convey.Convey("Then it documents every public route", func() {
			convey.So(doc["openapi"], convey.ShouldStartWith, "3.")
			for path, method := range map[string]string{
				"/predict":       "post",
				"/stops":         "get",
				"/routes":        "get",
				"/health":        "get",
				"/add":           "post",
				"/api/meals":     "post",
				"/decide":        "post",
				"/history":       "get",
				"/history/clear": "post",
				"/predictions":   "get",
				"/stats":         "get",
			} {
				convey.So(paths, convey.ShouldContainKey, path)
				ops, _ := paths[path].(map[string]interface{})
				convey.So(ops, convey.ShouldContainKey, method)
			}
		})
	})
}

func TestSwaggerHandlerWithNilRouter(t *testing.T) {
	convey.Convey("Given a nil router", t, func() {
		convey.So(func() { Register(context.Background(), nil) }, convey.ShouldPanic)
	})
}
