package model_test

import (
	"errors"
	"testing"
	"time"

	model "github.com/juraj-juraj/BRIA-project/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestChannelSet(t *testing.T) {
	convey.Convey("Given a channel selection", t, func() {
		convey.Convey("When it is valid", func() {
			cs, err := model.NewChannelSet([]int{0, 1, 2}, []string{"fp1", "", "oz"}, 8)

			convey.Convey("Then it should keep order and fall back to indices for missing names", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cs.Len(), convey.ShouldEqual, 3)
				convey.So(cs.Labels(), convey.ShouldResemble, []string{"fp1", "1", "oz"})
			})
		})

		convey.Convey("When the input slice is modified afterwards", func() {
			indices := []int{3, 4}
			cs, err := model.NewChannelSet(indices, nil, 0)
			indices[0] = 7

			convey.Convey("Then the set should not change", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cs.Indices, convey.ShouldResemble, []int{3, 4})
			})
		})

		convey.Convey("When it is invalid", func() {
			cases := []struct {
				indices []int
				names   []string
				source  int
			}{
				{nil, nil, 8},
				{[]int{0, 0}, nil, 8},
				{[]int{-1}, nil, 8},
				{[]int{8}, nil, 8},
				{[]int{0, 1}, []string{"fp1"}, 8},
			}

			convey.Convey("Then every case should be rejected", func() {
				for _, c := range cases {
					_, err := model.NewChannelSet(c.indices, c.names, c.source)
					convey.So(errors.Is(err, model.ErrInvalidChannelSet), convey.ShouldBeTrue)
				}
			})
		})
	})
}

func TestPhase(t *testing.T) {
	convey.Convey("Given protocol phases", t, func() {
		rest := model.Rest(3 * time.Second)
		coded := model.Coded(5*time.Second, 1)

		convey.Convey("Then rest phases should carry no code", func() {
			convey.So(rest.IsRest(), convey.ShouldBeTrue)
			_, ok := rest.Code()
			convey.So(ok, convey.ShouldBeFalse)
			convey.So(rest.String(), convey.ShouldEqual, "3s rest")
		})

		convey.Convey("Then coded phases should expose their code", func() {
			code, ok := coded.Code()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(code, convey.ShouldEqual, 1)
			convey.So(coded.String(), convey.ShouldEqual, "5s code=1")
		})

		convey.Convey("Then the nominal length should round duration times rate", func() {
			convey.So(coded.TargetSamples(250), convey.ShouldEqual, 1250)
			convey.So(model.Coded(1500*time.Millisecond, 1).TargetSamples(125), convey.ShouldEqual, 188)
		})

		convey.Convey("Then non-positive durations should be rejected", func() {
			convey.So(coded.Validate(), convey.ShouldBeNil)
			err := model.Rest(0).Validate()
			convey.So(errors.Is(err, model.ErrInvalidPhase), convey.ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a run with a short epoch", t, func() {
		run := model.Run{
			Epochs: []model.Epoch{
				{Data: [][]float64{{1, 2}}, EventCode: 1},
				{Data: [][]float64{{1}}, EventCode: 2, Short: true},
			},
			Labels: map[int]string{1: "open_eye"},
		}

		convey.So(run.ShortEpochs(), convey.ShouldResemble, []int{1})
		convey.So(run.Epochs[0].Len(), convey.ShouldEqual, 2)
		convey.So(run.Epochs[0].Channels(), convey.ShouldEqual, 1)
		convey.So(run.Label(1), convey.ShouldEqual, "open_eye")
		convey.So(run.Label(2), convey.ShouldEqual, "")
		convey.So(model.Chunk{}.Samples(), convey.ShouldEqual, 0)
	})
}
