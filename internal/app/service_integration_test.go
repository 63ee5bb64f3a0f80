package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/okian/smartfarm/internal/adapters/upstream"
	"github.com/okian/smartfarm/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceWithUpstreamClient(t *testing.T) {
	Convey("Given a service wired to a fake sensor API", t, func() {
		var calls int32
		var lastBody atomic.Value
		var status atomic.Int32
		status.Store(http.StatusOK)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			b, _ := io.ReadAll(r.Body)
			lastBody.Store(string(b))
			w.WriteHeader(int(status.Load()))
			_, _ = io.WriteString(w, `[{"id":"7","temperature":"24.1","humidity":"61"}]`)
		}))
		defer srv.Close()

		client, err := upstream.New(srv.URL, model.Credentials{User: "u", Pass: "p", DB: "d"})
		So(err, ShouldBeNil)

		svc := New(WithFetcher(client))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When fetching dht22", func() {
			body, err := svc.FetchTable(context.Background(), model.TableDHT22)

			Convey("Then one call carries the credentials and table", func() {
				So(err, ShouldBeNil)
				So(string(body), ShouldContainSubstring, `"temperature":"24.1"`)
				So(atomic.LoadInt32(&calls), ShouldEqual, int32(1))
				So(lastBody.Load(), ShouldEqual, `{"user":"u","pass":"p","db":"d","table":"dht22"}`)
			})
		})

		Convey("When the sensor API answers 503", func() {
			status.Store(http.StatusServiceUnavailable)
			_, err := svc.FetchTable(context.Background(), model.TableMoisture)

			Convey("Then the status error surfaces through the service", func() {
				So(errors.Is(err, upstream.ErrUpstreamStatus), ShouldBeTrue)
			})
		})
	})
}
