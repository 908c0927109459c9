package swagger_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/perceval/leaderboard/internal/adapters/http/swagger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDocRoutes(t *testing.T) {
	Convey("Given the doc routes mounted under a base path", t, func() {
		mux := http.NewServeMux()
		swagger.Register(context.Background(), mux, "/lelec2103")
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When fetching the docs page", func() {
			resp, err := http.Get(srv.URL + "/lelec2103/leaderboard/doc/")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			body, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)

			Convey("Then the ReDoc shell should be served", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "redoc")
			})
		})

		Convey("When fetching the OpenAPI spec", func() {
			resp, err := http.Get(srv.URL + "/lelec2103/leaderboard/doc/openapi.yaml")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			body, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)

			Convey("Then the embedded spec should be served", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "openapi: 3.0.3")
				So(string(body), ShouldContainSubstring, "/leaderboard/submit/{key}/{guess}")
			})
		})
	})
}
