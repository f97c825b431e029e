package events_test

import (
	"errors"
	"testing"

	"github.com/juraj-juraj/BRIA-project/internal/domain/events"
	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func epochOf(n, code int, short bool) model.Epoch {
	row := make([]float64, n)
	return model.Epoch{Data: [][]float64{row, row}, EventCode: code, Short: short}
}

func TestBuild(t *testing.T) {
	Convey("Given retained epochs of varying length", t, func() {
		epochs := []model.Epoch{
			epochOf(1250, 1, false),
			epochOf(1250, 2, false),
			epochOf(1200, 1, true),
		}

		table, err := events.Build(epochs, 250)

		Convey("Then offsets should be cumulative from zero", func() {
			So(err, ShouldBeNil)
			So(table.Entries, ShouldResemble, []model.EventEntry{
				{SampleOffset: 0, Unused: 0, EventCode: 1},
				{SampleOffset: 1250, Unused: 0, EventCode: 2},
				{SampleOffset: 2500, Unused: 0, EventCode: 1},
			})
			for i := 1; i < len(table.Entries); i++ {
				So(table.Entries[i].SampleOffset, ShouldBeGreaterThanOrEqualTo, table.Entries[i-1].SampleOffset)
			}
		})

		Convey("Then onsets and durations should be in seconds", func() {
			So(table.Onsets, ShouldResemble, []float64{0, 5, 10})
			So(table.Durations, ShouldResemble, []float64{5, 5, 4.8})
			So(table.Short, ShouldResemble, []bool{false, false, true})
		})

		Convey("Then the two-column form should drop the middle column", func() {
			So(table.Pairs(), ShouldResemble, [][2]int{{0, 1}, {1250, 2}, {2500, 1}})
		})
	})

	Convey("Given no epochs", t, func() {
		table, err := events.Build(nil, 500)
		So(err, ShouldBeNil)
		So(table.Entries, ShouldBeEmpty)
	})

	Convey("Given a bad sample rate", t, func() {
		_, err := events.Build([]model.Epoch{epochOf(10, 1, false)}, 0)
		So(errors.Is(err, events.ErrSampleRate), ShouldBeTrue)
	})
}
