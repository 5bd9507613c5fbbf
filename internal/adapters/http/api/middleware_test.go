package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInstrument(t *testing.T) {
	Convey("Given an instrumented handler that answers conflict", t, func() {
		var seen *statusRecorder
		h := instrument("test", func(w http.ResponseWriter, _ *http.Request) {
			seen = w.(*statusRecorder)
			http.Error(w, "taken", http.StatusConflict)
		})

		Convey("When it serves a request", func() {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodPost, "/clients", http.NoBody))

			Convey("Then the status reaches the client and the recorder", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(seen.status, ShouldEqual, http.StatusConflict)
				So(errorClass(seen.status), ShouldEqual, "conflict")
			})
		})
	})

	Convey("Given a handler that never writes a header", t, func() {
		var seen *statusRecorder
		h := instrument("test", func(w http.ResponseWriter, _ *http.Request) {
			seen = w.(*statusRecorder)
			_, _ = w.Write([]byte("ok"))
		})
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stats", http.NoBody))

		Convey("Then the recorded status is 200", func() {
			So(seen.status, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Error classes follow the statuses the API answers with", t, func() {
		So(errorClass(http.StatusBadRequest), ShouldEqual, "bad_request")
		So(errorClass(http.StatusNotFound), ShouldEqual, "not_found")
		So(errorClass(http.StatusConflict), ShouldEqual, "conflict")
		So(errorClass(http.StatusServiceUnavailable), ShouldEqual, "unavailable")
		So(errorClass(http.StatusInternalServerError), ShouldEqual, "internal_error")
		So(errorClass(http.StatusTeapot), ShouldEqual, "other")
	})
}
