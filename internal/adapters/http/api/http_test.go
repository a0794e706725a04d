package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/okian/busmaybe/internal/adapters/http/api"
	service "github.com/okian/busmaybe/internal/app"
	"github.com/okian/busmaybe/internal/domain/decision"
	. "github.com/smartystreets/goconvey/convey"
)

var noon = time.Date(2026, 5, 11, 12, 0, 0, 0, time.UTC)

func newHandler() (http.Handler, *service.Service) {
	svc := service.New(
		service.WithClock(func() time.Time { return noon }),
		service.WithLocation(time.UTC),
		service.WithPicker(decision.NewPicker(3)),
		service.WithMaxPredictionsLimit(10),
	)
	router := httprouter.New()
	api.NewServer(svc, api.WithClock(func() time.Time { return noon })).Register(context.Background(), router)
	return api.Handler(router, nil), svc
}

func do(h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestPredictEndpoint(t *testing.T) {
	Convey("Given the API over the demo registry", t, func() {
		h, _ := newHandler()

		Convey("When an ETA of 6 minutes is posted", func() {
			w := do(h, http.MethodPost, "/predict",
				`{"stop_id":"S100","route_id":"R10","arrival_info":{"available":true,"eta_min":6}}`)

			Convey("Then the result is 80% HIGH with the route reference", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				result := body["result"].(map[string]any)
				So(result["probability_percent"], ShouldEqual, 80.0)
				So(result["level"], ShouldEqual, "HIGH")
				So(result["badge"], ShouldEqual, "🟢")
				So(result["message"], ShouldContainSubstring, "ETA 6")

				route := body["route"].(map[string]any)
				So(route["route_no"], ShouldEqual, "10")
				So(route, ShouldNotContainKey, "headway_min")
				So(body["stop"].(map[string]any)["stop_id"], ShouldEqual, "S100")
			})
		})

		Convey("When no arrival info is posted", func() {
			w := do(h, http.MethodPost, "/predict", `{"stop_id":"S100","route_id":"R10","arrival_info":{"available":false}}`)

			Convey("Then the heuristic answers", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["result"].(map[string]any)["probability_percent"], ShouldEqual, 73.0)
			})
		})

		Convey("When ids are missing", func() {
			w := do(h, http.MethodPost, "/predict", `{"route_id":"R10"}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the body is empty", func() {
			w := do(h, http.MethodPost, "/predict", "")

			Convey("Then it is treated as missing ids", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the stop is unknown and the ETA is also bad", func() {
			w := do(h, http.MethodPost, "/predict",
				`{"stop_id":"S999","route_id":"R10","arrival_info":{"available":true,"eta_min":"soon"}}`)

			Convey("Then it is not found, never a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w)["error"], ShouldContainSubstring, "S999")
			})
		})

		Convey("When the route is unknown", func() {
			w := do(h, http.MethodPost, "/predict", `{"stop_id":"S100","route_id":"R999"}`)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When an id is present but not a string", func() {
			w := do(h, http.MethodPost, "/predict", `{"stop_id":100,"route_id":"R10"}`)

			Convey("Then it is not found, never a malformed body", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When available is a truthy number", func() {
			w := do(h, http.MethodPost, "/predict",
				`{"stop_id":"S100","route_id":"R10","arrival_info":{"available":1,"eta_min":6}}`)

			Convey("Then the ETA is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["result"].(map[string]any)["probability_percent"], ShouldEqual, 80.0)
			})
		})

		Convey("When arrival info is claimed with a non-integer ETA", func() {
			for _, eta := range []string{`6.5`, `"6"`, `null`} {
				w := do(h, http.MethodPost, "/predict",
					`{"stop_id":"S100","route_id":"R10","arrival_info":{"available":true,"eta_min":`+eta+`}}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

func TestLookupEndpoints(t *testing.T) {
	Convey("Given the API over the demo registry", t, func() {
		h, _ := newHandler()

		Convey("Then /stops filters by name", func() {
			all := decode(do(h, http.MethodGet, "/stops", ""))
			So(all["items"], ShouldHaveLength, 3)

			found := decode(do(h, http.MethodGet, "/stops?q=%EA%B8%B0%ED%9D%A5", ""))
			So(found["items"], ShouldHaveLength, 1)

			none := decode(do(h, http.MethodGet, "/stops?q=nowhere", ""))
			So(none["items"], ShouldBeEmpty)
		})

		Convey("And /routes lists routes without their service window", func() {
			body := decode(do(h, http.MethodGet, "/routes?stop_id=S300", ""))
			items := body["items"].([]any)
			So(items, ShouldHaveLength, 1)
			route := items[0].(map[string]any)
			So(route["route_id"], ShouldEqual, "R55")
			So(route["headway_min"], ShouldEqual, 18.0)
			So(route, ShouldNotContainKey, "daytime")

			So(decode(do(h, http.MethodGet, "/routes", ""))["items"], ShouldHaveLength, 2)
		})

		Convey("And /health reports liveness with a timestamp", func() {
			body := decode(do(h, http.MethodGet, "/health", ""))
			So(body["ok"], ShouldBeTrue)
			So(body["ts"], ShouldStartWith, "2026-05-11T12:00:00")
		})
	})
}

func TestCalculatorEndpoint(t *testing.T) {
	Convey("Given the calculator", t, func() {
		h, _ := newHandler()

		Convey("Then it adds two numbers", func() {
			w := do(h, http.MethodPost, "/add", `{"a":2,"b":3.5}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["result"], ShouldEqual, 5.5)
		})

		Convey("And a missing operand is a bad request", func() {
			So(do(h, http.MethodPost, "/add", `{"a":2}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/add", `not json`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestMealsEndpoints(t *testing.T) {
	Convey("Given an empty meal log", t, func() {
		h, _ := newHandler()

		Convey("When a meal is posted", func() {
			w := do(h, http.MethodPost, "/api/meals", `{"menu":"bibimbap","user":"kim"}`)

			Convey("Then it is created and listed", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(decode(w)["id"], ShouldNotBeEmpty)

				list := decode(do(h, http.MethodGet, "/api/meals", ""))
				So(list["items"], ShouldHaveLength, 1)
			})
		})

		Convey("When a retry carries the same idempotency key", func() {
			first := do(h, http.MethodPost, "/api/meals", `{"menu":"ramen","user":"lee"}`, "Idempotency-Key", "abc")
			second := do(h, http.MethodPost, "/api/meals", `{"menu":"ramen","user":"lee"}`, "Idempotency-Key", "abc")

			Convey("Then the second is acknowledged as a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(decode(second)["status"], ShouldEqual, "duplicate")
				So(decode(do(h, http.MethodGet, "/api/meals", ""))["items"], ShouldHaveLength, 1)
			})
		})

		Convey("When the menu is blank", func() {
			w := do(h, http.MethodPost, "/api/meals", `{"menu":" ","user":"kim"}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["error"], ShouldContainSubstring, "menu is required")
			})
		})
	})
}

func TestDecisionEndpoints(t *testing.T) {
	Convey("Given an empty decision history", t, func() {
		h, _ := newHandler()

		Convey("When a decision is posted", func() {
			w := do(h, http.MethodPost, "/decide", `{"question":"lunch?","options":["noodles"," ","rice"],"weights":[1,"2"]}`)

			Convey("Then a cleaned record is returned and kept", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				rec := decode(w)
				So(rec["options"], ShouldResemble, []any{"noodles", "rice"})
				So(rec["picked"], ShouldBeIn, []any{"noodles", "rice"})
				So(rec["ts"], ShouldEqual, "2026-05-11T12:00:00")

				var hist []map[string]any
				So(json.Unmarshal(do(h, http.MethodGet, "/history", "").Body.Bytes(), &hist), ShouldBeNil)
				So(hist, ShouldHaveLength, 1)
			})
		})

		Convey("When the request is invalid", func() {
			cases := []string{
				`{"options":["a","b"]}`,
				`{"question":"q","options":["a"]}`,
				`{"question":"q","options":["a","b","c","d","e","f"]}`,
				`{"question":"q","options":["a","b"],"weights":[1]}`,
				`{"question":"q","options":["a","b"],"weights":[1,0]}`,
				`{"question":"q","options":["a","b"],"weights":"heavy"}`,
				`{"question":"q","options":["a","b"],"weights":["Infinity",1]}`,
				`{"question":"q","options":["a","b"],"weights":[1e308,1e308]}`,
				`{"question":"q","options":{"a":1}}`,
			}

			Convey("Then each is a bad request", func() {
				for _, body := range cases {
					So(do(h, http.MethodPost, "/decide", body).Code, ShouldEqual, http.StatusBadRequest)
				}
			})
		})

		Convey("When history is read with a non-integer limit", func() {
			Convey("Then it is a bad request", func() {
				So(do(h, http.MethodGet, "/history?limit=ten", "").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When history is cleared", func() {
			do(h, http.MethodPost, "/decide", `{"question":"q","options":"only one"}`)
			do(h, http.MethodPost, "/decide", `{"question":"q","options":["a","b"]}`)
			w := do(h, http.MethodPost, "/history/clear", "")

			Convey("Then it reports ok and the history is empty", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["ok"], ShouldBeTrue)
				So(strings.TrimSpace(do(h, http.MethodGet, "/history?limit=5", "").Body.String()), ShouldEqual, "[]")
			})
		})
	})
}

func TestPredictionsEndpoint(t *testing.T) {
	Convey("Given a started service", t, func() {
		h, svc := newHandler()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When predictions are served and the audit queue drains", func() {
			do(h, http.MethodPost, "/predict", `{"stop_id":"S100","route_id":"R10"}`)
			do(h, http.MethodPost, "/predict", `{"stop_id":"S300","route_id":"R55"}`)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then they are listed newest first", func() {
				body := decode(do(h, http.MethodGet, "/predictions?limit=5", ""))
				items := body["items"].([]any)
				So(items, ShouldHaveLength, 2)
				So(items[0].(map[string]any)["stop_id"], ShouldEqual, "S300")
			})
		})

		Convey("Then out-of-range and malformed limits are bad requests", func() {
			So(do(h, http.MethodGet, "/predictions?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/predictions?limit=11", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/predictions?limit=x", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Reset(func() { _ = svc.Stop(ctx) })
	})
}

func TestCrossCuttingBehaviour(t *testing.T) {
	Convey("Given the wrapped router", t, func() {
		h, _ := newHandler()

		Convey("Then preflight requests are answered with 204 and CORS headers", func() {
			w := do(h, http.MethodOptions, "/predict", "")
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})

		Convey("And every response allows any origin", func() {
			So(do(h, http.MethodGet, "/stops", "").Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})

		Convey("And unknown paths get a JSON 404", func() {
			w := do(h, http.MethodGet, "/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("And wrong methods get a JSON 405", func() {
			w := do(h, http.MethodGet, "/predict", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("And stats and metrics are served", func() {
			So(decode(do(h, http.MethodGet, "/stats", ""))["stops"], ShouldEqual, 3.0)

			do(h, http.MethodGet, "/stops", "")
			metrics := do(h, http.MethodGet, "/metrics", "")
			So(metrics.Code, ShouldEqual, http.StatusOK)
			So(metrics.Body.String(), ShouldContainSubstring, "busmaybe_http_requests_total")
		})
	})
}
