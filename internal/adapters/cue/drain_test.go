package cue

import (
	"sync"
	"testing"
	"time"

	"github.com/juraj-juraj/BRIA-project/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestMiniaudioDrain(t *testing.T) {
	Convey("Given a queued end-of-phase cue", t, func() {
		m := &Miniaudio{logger: logger.Get().Named("cue")}
		m.Play(800, 200*time.Millisecond)
		So(m.pendingBytes(), ShouldEqual, 2*9600)

		Convey("When the render loop keeps pulling periods", func() {
			render := m.render(2)
			out := make([]byte, 2*960)
			stop := make(chan struct{})
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
						render(out, nil, 960)
						time.Sleep(time.Millisecond)
					}
				}
			}()

			drained := m.drain(time.Second)
			close(stop)
			wg.Wait()

			Convey("Then drain should wait until every byte was played", func() {
				So(drained, ShouldBeTrue)
				So(m.pendingBytes(), ShouldEqual, 0)
			})
		})

		Convey("When nothing consumes the queue", func() {
			start := time.Now()
			drained := m.drain(50 * time.Millisecond)

			Convey("Then drain should give up after the timeout", func() {
				So(drained, ShouldBeFalse)
				So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 50*time.Millisecond)
				So(m.pendingBytes(), ShouldEqual, 2*9600)
			})
		})
	})

	Convey("Given an empty queue", t, func() {
		m := &Miniaudio{logger: logger.Get().Named("cue")}

		Convey("Then drain should return at once", func() {
			So(m.drain(time.Hour), ShouldBeTrue)
		})

		Convey("And Close without a device should not block", func() {
			So(m.Close, ShouldNotPanic)
		})
	})
}
